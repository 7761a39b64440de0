package gorm

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server/store"
)

func grantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"holder_type", "journal_id", "holder_id", "permission"})
}

func TestFetchGrants(t *testing.T) {
	t.Run("typed grants", func(t *testing.T) {
		db, mock := newMockDB(t)
		journalID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "journal_permissions" WHERE journal_id = \$1`).
			WithArgs(journalID).
			WillReturnRows(grantRows().
				AddRow("group", journalID, "ops", "journals.read").
				AddRow("user", journalID, "bob", "journals.read").
				AddRow("user", journalID, "bob", "journals.update"))

		grants, err := NewGrantsStore(db).FetchGrants(journalID)
		require.NoError(t, err)
		assert.Equal(t, []store.Grant{
			{HolderKind: scopes.HolderKindGroup, HolderID: "ops", Scope: scopes.ScopeRead},
			{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeRead},
			{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeUpdate},
		}, grants)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed rows are skipped", func(t *testing.T) {
		db, mock := newMockDB(t)
		journalID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "journal_permissions" WHERE journal_id = \$1`).
			WithArgs(journalID).
			WillReturnRows(grantRows().
				AddRow("robot", journalID, "r2d2", "journals.read").
				AddRow("user", journalID, "bob", "journals.launch").
				AddRow("user", journalID, "bob", "journals.read"))

		grants, err := NewGrantsStore(db).FetchGrants(journalID)
		require.NoError(t, err)
		assert.Equal(t, []store.Grant{
			{HolderKind: scopes.HolderKindUser, HolderID: "bob", Scope: scopes.ScopeRead},
		}, grants)
	})
}

func TestAddGrants(t *testing.T) {
	db, mock := newMockDB(t)
	journalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO journal_permissions`).
		WithArgs("user", journalID, "bob", "journals.read").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO journal_permissions`).
		WithArgs("user", journalID, "bob", "journals.update").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewGrantsStore(db).AddGrants(journalID, scopes.HolderKindUser, "bob",
		[]scopes.Scope{scopes.ScopeRead, scopes.ScopeUpdate})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveGrants(t *testing.T) {
	db, mock := newMockDB(t)
	journalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "journal_permissions"`).
		WithArgs("group", journalID, "ops", "journals.read").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewGrantsStore(db).RemoveGrants(journalID, scopes.HolderKindGroup, "ops",
		[]scopes.Scope{scopes.ScopeRead})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
