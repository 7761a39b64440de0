package endpoints

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/identity"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/search"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// MockJournalsStore implements store.JournalsStore for testing using testify/mock
type MockJournalsStore struct {
	mock.Mock
}

func NewMockJournalsStore() *MockJournalsStore {
	return &MockJournalsStore{}
}

func (m *MockJournalsStore) CreateJournal(ownerID, name string) (*store.Journal, error) {
	args := m.Called(ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Journal), args.Error(1)
}

func (m *MockJournalsStore) FetchJournal(journalID uuid.UUID) (*store.Journal, error) {
	args := m.Called(journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Journal), args.Error(1)
}

func (m *MockJournalsStore) FetchJournalAny(journalID uuid.UUID) (*store.Journal, error) {
	args := m.Called(journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Journal), args.Error(1)
}

func (m *MockJournalsStore) ListJournals(holderID string, groupIDs []string) ([]store.Journal, error) {
	args := m.Called(holderID, groupIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Journal), args.Error(1)
}

func (m *MockJournalsStore) RenameJournal(journalID uuid.UUID, name string) error {
	args := m.Called(journalID, name)
	return args.Error(0)
}

func (m *MockJournalsStore) SetSearchIndex(journalID uuid.UUID, indexID string) error {
	args := m.Called(journalID, indexID)
	return args.Error(0)
}

func (m *MockJournalsStore) SoftDeleteJournal(journalID uuid.UUID) error {
	args := m.Called(journalID)
	return args.Error(0)
}

func (m *MockJournalsStore) HardDeleteJournal(journalID uuid.UUID) error {
	args := m.Called(journalID)
	return args.Error(0)
}

// MockEntriesStore implements store.EntriesStore for testing using testify/mock
type MockEntriesStore struct {
	mock.Mock
}

func NewMockEntriesStore() *MockEntriesStore {
	return &MockEntriesStore{}
}

func (m *MockEntriesStore) CreateEntry(journalID uuid.UUID, title, content string, tags []string) (*store.Entry, error) {
	args := m.Called(journalID, title, content, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Entry), args.Error(1)
}

func (m *MockEntriesStore) FetchEntry(entryID uuid.UUID) (*store.Entry, error) {
	args := m.Called(entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Entry), args.Error(1)
}

func (m *MockEntriesStore) ListEntries(journalID uuid.UUID, limit, offset int) ([]store.Entry, error) {
	args := m.Called(journalID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Entry), args.Error(1)
}

func (m *MockEntriesStore) UpdateEntry(entryID uuid.UUID, title, content string, version int) (*store.Entry, error) {
	args := m.Called(entryID, title, content, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Entry), args.Error(1)
}

func (m *MockEntriesStore) DeleteEntry(entryID uuid.UUID) error {
	args := m.Called(entryID)
	return args.Error(0)
}

func (m *MockEntriesStore) AddTags(entryID uuid.UUID, tags []string) (*store.Entry, error) {
	args := m.Called(entryID, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Entry), args.Error(1)
}

func (m *MockEntriesStore) RemoveTag(entryID uuid.UUID, tag string) (*store.Entry, error) {
	args := m.Called(entryID, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Entry), args.Error(1)
}

func (m *MockEntriesStore) TopTags(journalID uuid.UUID, limit int) ([]store.TagCount, error) {
	args := m.Called(journalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.TagCount), args.Error(1)
}

// MockGrantsStore implements store.GrantsStore for testing using testify/mock
type MockGrantsStore struct {
	mock.Mock
}

func NewMockGrantsStore() *MockGrantsStore {
	return &MockGrantsStore{}
}

func (m *MockGrantsStore) FetchGrants(journalID uuid.UUID) ([]store.Grant, error) {
	args := m.Called(journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Grant), args.Error(1)
}

func (m *MockGrantsStore) AddGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	args := m.Called(journalID, kind, holderID, ss)
	return args.Error(0)
}

func (m *MockGrantsStore) RemoveGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	args := m.Called(journalID, kind, holderID, ss)
	return args.Error(0)
}

// MockAuthorizer implements Authorizer for testing using testify/mock
type MockAuthorizer struct {
	mock.Mock
}

func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

func (m *MockAuthorizer) Require(principal acl.Principal, journalID uuid.UUID, required ...scopes.Scope) (*store.Journal, error) {
	callArgs := make([]interface{}, 0, 2+len(required))
	callArgs = append(callArgs, principal, journalID)
	for _, scope := range required {
		callArgs = append(callArgs, scope)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Journal), args.Error(1)
}

// MockSearchGateway implements SearchGateway for testing using testify/mock
type MockSearchGateway struct {
	mock.Mock
}

func NewMockSearchGateway() *MockSearchGateway {
	return &MockSearchGateway{}
}

func (m *MockSearchGateway) Search(ctx context.Context, principal acl.Principal, req search.Request) (*search.Page, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Page), args.Error(1)
}

func (m *MockSearchGateway) EnsureJournalIndex(ctx context.Context, journal *store.Journal) error {
	args := m.Called(ctx, journal)
	return args.Error(0)
}

func (m *MockSearchGateway) IndexEntry(ctx context.Context, journal *store.Journal, entry *store.Entry) {
	m.Called(ctx, journal, entry)
}

func (m *MockSearchGateway) DeindexEntry(ctx context.Context, journal *store.Journal, entryID uuid.UUID) {
	m.Called(ctx, journal, entryID)
}

func (m *MockSearchGateway) DropJournalIndex(ctx context.Context, journal *store.Journal) error {
	args := m.Called(ctx, journal)
	return args.Error(0)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func NewMockHealthStore() *MockHealthStore {
	return &MockHealthStore{}
}

func (m *MockHealthStore) CheckConnectivity() error {
	args := m.Called()
	return args.Error(0)
}

// MockPinger implements Pinger for testing using testify/mock
type MockPinger struct {
	mock.Mock
}

func NewMockPinger() *MockPinger {
	return &MockPinger{}
}

func (m *MockPinger) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// requestWithIdentity builds a request carrying an authenticated identity
// in its context, the way the auth middleware would.
func requestWithIdentity(method, target, body, userID string, groups ...string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := identity.Set(req.Context(), &identity.Identity{
		UserID: userID,
		Groups: groups,
	})
	return req.WithContext(ctx)
}

func withMuxVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}
