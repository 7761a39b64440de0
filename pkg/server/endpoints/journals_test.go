package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server/store"
)

func journalVars(journalID uuid.UUID) map[string]string {
	return map[string]string{"journal_id": journalID.String()}
}

func TestCreateJournalEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		gateway := NewMockSearchGateway()

		journal := &store.Journal{ID: uuid.New(), OwnerID: "alice", Name: "work", Version: 1}
		journalsStore.On("CreateJournal", "alice", "work").Return(journal, nil)
		gateway.On("EnsureJournalIndex", mock.Anything, journal).Return(nil)

		req := requestWithIdentity("POST", "/journals", `{"name": "work"}`, "alice")
		w := httptest.NewRecorder()
		handleCreateJournal(journalsStore, gateway)(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp JournalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, journal.ID.String(), resp.ID)
		assert.Equal(t, "alice", resp.OwnerID)
		assert.Equal(t, "work", resp.Name)
		gateway.AssertCalled(t, "EnsureJournalIndex", mock.Anything, journal)
	})

	t.Run("index failure does not fail the request", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		gateway := NewMockSearchGateway()

		journal := &store.Journal{ID: uuid.New(), OwnerID: "alice", Name: "work", Version: 1}
		journalsStore.On("CreateJournal", "alice", "work").Return(journal, nil)
		gateway.On("EnsureJournalIndex", mock.Anything, journal).Return(assert.AnError)

		req := requestWithIdentity("POST", "/journals", `{"name": "work"}`, "alice")
		w := httptest.NewRecorder()
		handleCreateJournal(journalsStore, gateway)(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		gateway := NewMockSearchGateway()

		journalsStore.On("CreateJournal", "alice", "work").Return(nil, store.ErrJournalExists)

		req := requestWithIdentity("POST", "/journals", `{"name": "work"}`, "alice")
		w := httptest.NewRecorder()
		handleCreateJournal(journalsStore, gateway)(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("name required", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		gateway := NewMockSearchGateway()

		req := requestWithIdentity("POST", "/journals", `{}`, "alice")
		w := httptest.NewRecorder()
		handleCreateJournal(journalsStore, gateway)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		journalsStore.AssertNotCalled(t, "CreateJournal", mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		gateway := NewMockSearchGateway()

		req := httptest.NewRequest("POST", "/journals", nil)
		w := httptest.NewRecorder()
		handleCreateJournal(journalsStore, gateway)(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFetchJournalEndpoint(t *testing.T) {
	t.Run("owner fetches journal", func(t *testing.T) {
		resolver := NewMockAuthorizer()
		journalID := uuid.New()
		journal := &store.Journal{ID: journalID, OwnerID: "alice", Name: "work", Version: 1}

		resolver.On("Require", acl.Principal{ID: "alice"}, journalID, scopes.ScopeRead).Return(journal, nil)

		req := requestWithIdentity("GET", "/journals/"+journalID.String(), "", "alice")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleFetchJournal(resolver)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), journalID.String())
	})

	t.Run("denied and missing journals are indistinguishable", func(t *testing.T) {
		resolver := NewMockAuthorizer()
		journalID := uuid.New()

		resolver.On("Require", acl.Principal{ID: "mallory"}, journalID, scopes.ScopeRead).Return(nil, acl.ErrNoAccess)

		req := requestWithIdentity("GET", "/journals/"+journalID.String(), "", "mallory")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleFetchJournal(resolver)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), accessDeniedMessage)
	})

	t.Run("malformed journal id", func(t *testing.T) {
		resolver := NewMockAuthorizer()

		req := requestWithIdentity("GET", "/journals/not-a-uuid", "", "alice")
		req = withMuxVars(req, map[string]string{"journal_id": "not-a-uuid"})
		w := httptest.NewRecorder()
		handleFetchJournal(resolver)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), accessDeniedMessage)
	})
}

func TestListJournalsEndpoint(t *testing.T) {
	journalsStore := NewMockJournalsStore()
	journals := []store.Journal{
		{ID: uuid.New(), OwnerID: "alice", Name: "work", Version: 1},
		{ID: uuid.New(), OwnerID: "bob", Name: "shared", Version: 3},
	}
	journalsStore.On("ListJournals", "alice", []string{"ops"}).Return(journals, nil)

	req := requestWithIdentity("GET", "/journals", "", "alice", "ops")
	w := httptest.NewRecorder()
	handleListJournals(journalsStore)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp JournalListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Journals, 2)
	assert.Equal(t, "work", resp.Journals[0].Name)
	assert.Equal(t, "shared", resp.Journals[1].Name)
}

func TestRenameJournalEndpoint(t *testing.T) {
	t.Run("renamed", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		journalID := uuid.New()
		journal := &store.Journal{ID: journalID, OwnerID: "alice", Name: "renamed", Version: 2}

		resolver.On("Require", acl.Principal{ID: "alice"}, journalID, scopes.ScopeUpdate).Return(journal, nil)
		journalsStore.On("RenameJournal", journalID, "renamed").Return(nil)
		journalsStore.On("FetchJournal", journalID).Return(journal, nil)

		req := requestWithIdentity("PUT", "/journals/"+journalID.String(), `{"name": "renamed"}`, "alice")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleRenameJournal(journalsStore, resolver)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "renamed")
	})

	t.Run("requires update scope", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		journalID := uuid.New()

		resolver.On("Require", acl.Principal{ID: "bob"}, journalID, scopes.ScopeUpdate).Return(nil, acl.ErrNoAccess)

		req := requestWithIdentity("PUT", "/journals/"+journalID.String(), `{"name": "renamed"}`, "bob")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleRenameJournal(journalsStore, resolver)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		journalsStore.AssertNotCalled(t, "RenameJournal", mock.Anything, mock.Anything)
	})

	t.Run("name collision", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		journalID := uuid.New()
		journal := &store.Journal{ID: journalID, OwnerID: "alice", Name: "work", Version: 1}

		resolver.On("Require", acl.Principal{ID: "alice"}, journalID, scopes.ScopeUpdate).Return(journal, nil)
		journalsStore.On("RenameJournal", journalID, "taken").Return(store.ErrJournalExists)

		req := requestWithIdentity("PUT", "/journals/"+journalID.String(), `{"name": "taken"}`, "alice")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleRenameJournal(journalsStore, resolver)(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDeleteJournalEndpoint(t *testing.T) {
	t.Run("soft delete by default", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		gateway := NewMockSearchGateway()
		journalID := uuid.New()
		journal := &store.Journal{ID: journalID, OwnerID: "alice", Name: "work", Version: 1}

		resolver.On("Require", acl.Principal{ID: "alice"}, journalID, scopes.ScopeDelete).Return(journal, nil)
		journalsStore.On("SoftDeleteJournal", journalID).Return(nil)
		gateway.On("DropJournalIndex", mock.Anything, journal).Return(nil)

		req := requestWithIdentity("DELETE", "/journals/"+journalID.String(), "", "alice")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleDeleteJournal(journalsStore, resolver, gateway)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		journalsStore.AssertCalled(t, "SoftDeleteJournal", journalID)
		journalsStore.AssertNotCalled(t, "HardDeleteJournal", mock.Anything)
		gateway.AssertCalled(t, "DropJournalIndex", mock.Anything, journal)
	})

	t.Run("purge hard deletes", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		gateway := NewMockSearchGateway()
		journalID := uuid.New()
		journal := &store.Journal{ID: journalID, OwnerID: "alice", Name: "work", Version: 1}

		resolver.On("Require", acl.Principal{ID: "alice"}, journalID, scopes.ScopeDelete).Return(journal, nil)
		journalsStore.On("HardDeleteJournal", journalID).Return(nil)
		gateway.On("DropJournalIndex", mock.Anything, journal).Return(nil)

		req := requestWithIdentity("DELETE", "/journals/"+journalID.String()+"?purge=true", "", "alice")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleDeleteJournal(journalsStore, resolver, gateway)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		journalsStore.AssertCalled(t, "HardDeleteJournal", journalID)
		journalsStore.AssertNotCalled(t, "SoftDeleteJournal", mock.Anything)
	})

	t.Run("requires delete scope", func(t *testing.T) {
		journalsStore := NewMockJournalsStore()
		resolver := NewMockAuthorizer()
		gateway := NewMockSearchGateway()
		journalID := uuid.New()

		resolver.On("Require", acl.Principal{ID: "bob"}, journalID, scopes.ScopeDelete).Return(nil, acl.ErrNoAccess)

		req := requestWithIdentity("DELETE", "/journals/"+journalID.String(), "", "bob")
		req = withMuxVars(req, journalVars(journalID))
		w := httptest.NewRecorder()
		handleDeleteJournal(journalsStore, resolver, gateway)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), accessDeniedMessage)
	})
}
