package acl

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server/store"
)

type fakeJournals struct {
	journals map[uuid.UUID]*store.Journal
	err      error
}

func (f *fakeJournals) CreateJournal(ownerID, name string) (*store.Journal, error) {
	panic("not used")
}

func (f *fakeJournals) FetchJournal(journalID uuid.UUID) (*store.Journal, error) {
	if f.err != nil {
		return nil, f.err
	}
	journal, ok := f.journals[journalID]
	if !ok {
		return nil, store.ErrJournalNotFound
	}
	return journal, nil
}

func (f *fakeJournals) FetchJournalAny(journalID uuid.UUID) (*store.Journal, error) {
	return f.FetchJournal(journalID)
}

func (f *fakeJournals) ListJournals(holderID string, groupIDs []string) ([]store.Journal, error) {
	panic("not used")
}

func (f *fakeJournals) RenameJournal(journalID uuid.UUID, name string) error { panic("not used") }
func (f *fakeJournals) SetSearchIndex(journalID uuid.UUID, indexID string) error {
	panic("not used")
}
func (f *fakeJournals) SoftDeleteJournal(journalID uuid.UUID) error { panic("not used") }
func (f *fakeJournals) HardDeleteJournal(journalID uuid.UUID) error { panic("not used") }

type fakeGrants struct {
	grants map[uuid.UUID][]store.Grant
	err    error
}

func (f *fakeGrants) FetchGrants(journalID uuid.UUID) ([]store.Grant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[journalID], nil
}

func (f *fakeGrants) AddGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	panic("not used")
}

func (f *fakeGrants) RemoveGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	panic("not used")
}

func newFixture(journal *store.Journal, grants []store.Grant) *Resolver {
	journals := &fakeJournals{journals: map[uuid.UUID]*store.Journal{}}
	granted := &fakeGrants{grants: map[uuid.UUID][]store.Grant{}}
	if journal != nil {
		journals.journals[journal.ID] = journal
		granted.grants[journal.ID] = grants
	}
	return NewResolver(journals, granted)
}

func TestResolve_OwnerHoldsEveryScope(t *testing.T) {
	journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
	resolver := newFixture(journal, nil)

	effective, err := resolver.Resolve(Principal{ID: "alice"}, journal.ID)
	require.NoError(t, err)
	assert.True(t, effective.HasAll(scopes.ScopeValues()...))
}

func TestResolve_DirectGrants(t *testing.T) {
	journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
	resolver := newFixture(journal, []store.Grant{
		{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeRead},
		{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeUpdate},
		{HolderKind: scopes.HolderKindUser, HolderID: "carol", Scope: scopes.ScopeManage},
	})

	effective, err := resolver.Resolve(Principal{ID: "bob"}, journal.ID)
	require.NoError(t, err)
	assert.True(t, effective.HasAll(scopes.ScopeRead, scopes.ScopeUpdate))
	assert.False(t, effective.Has(scopes.ScopeManage))
}

func TestResolve_GroupGrantsUnionWithDirect(t *testing.T) {
	journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
	resolver := newFixture(journal, []store.Grant{
		{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeRead},
		{HolderKind: scopes.HolderKindGroup, HolderID: "ops", Scope: scopes.ScopeUpdate},
		{HolderKind: scopes.HolderKindGroup, HolderID: "oncall", Scope: scopes.ScopeDelete},
	})

	effective, err := resolver.Resolve(Principal{ID: "bob", Groups: []string{"ops"}}, journal.ID)
	require.NoError(t, err)
	assert.True(t, effective.HasAll(scopes.ScopeRead, scopes.ScopeUpdate))
	assert.False(t, effective.Has(scopes.ScopeDelete))
}

func TestResolve_GroupMembershipDoesNotLeakAcrossHolders(t *testing.T) {
	journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
	resolver := newFixture(journal, []store.Grant{
		// A user named like a group must not pick up the group's grant.
		{HolderKind: scopes.HolderKindGroup, HolderID: "bob", Scope: scopes.ScopeRead},
	})

	effective, err := resolver.Resolve(Principal{ID: "bob"}, journal.ID)
	require.NoError(t, err)
	assert.False(t, effective.Has(scopes.ScopeRead))
}

func TestResolve_MissingJournalYieldsEmptySet(t *testing.T) {
	resolver := newFixture(nil, nil)

	effective, err := resolver.Resolve(Principal{ID: "alice"}, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, effective)
}

func TestRequire(t *testing.T) {
	journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
	resolver := newFixture(journal, []store.Grant{
		{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeRead},
	})

	t.Run("passes and returns the journal", func(t *testing.T) {
		got, err := resolver.Require(Principal{ID: "bob"}, journal.ID, scopes.ScopeRead)
		require.NoError(t, err)
		assert.Equal(t, journal, got)
	})

	t.Run("owner passes every requirement", func(t *testing.T) {
		_, err := resolver.Require(Principal{ID: "alice"}, journal.ID,
			scopes.ScopeRead, scopes.ScopeUpdate, scopes.ScopeDelete, scopes.ScopeManage)
		require.NoError(t, err)
	})

	t.Run("missing scope denies", func(t *testing.T) {
		_, err := resolver.Require(Principal{ID: "bob"}, journal.ID, scopes.ScopeRead, scopes.ScopeUpdate)
		assert.ErrorIs(t, err, ErrNoAccess)
	})

	t.Run("unknown journal denies identically", func(t *testing.T) {
		_, err := resolver.Require(Principal{ID: "bob"}, uuid.New(), scopes.ScopeRead)
		assert.ErrorIs(t, err, ErrNoAccess)
	})
}

func TestResolver_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("journal fetch", func(t *testing.T) {
		resolver := NewResolver(&fakeJournals{err: boom}, &fakeGrants{})
		_, err := resolver.Resolve(Principal{ID: "alice"}, uuid.New())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("grant fetch", func(t *testing.T) {
		journal := &store.Journal{ID: uuid.New(), OwnerID: "alice"}
		journals := &fakeJournals{journals: map[uuid.UUID]*store.Journal{journal.ID: journal}}
		resolver := NewResolver(journals, &fakeGrants{err: boom})
		_, err := resolver.Resolve(Principal{ID: "bob"}, journal.ID)
		assert.ErrorIs(t, err, boom)
	})
}
