package store

import (
	"github.com/google/uuid"

	"github.com/bugout-dev/spire/pkg/scopes"
)

// Grant represents a single permission grant on a journal
type Grant struct {
	HolderKind scopes.HolderKind
	HolderID   string
	Scope      scopes.Scope
}

// GrantsStore abstracts permission grant storage operations
type GrantsStore interface {
	// FetchGrants returns all grants for a journal, including grants on
	// soft-deleted journals (the resolver handles the deleted flag).
	FetchGrants(journalID uuid.UUID) ([]Grant, error)

	// AddGrants grants the scopes to the holder. Granting an existing
	// scope is a no-op, not an error.
	AddGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error

	// RemoveGrants revokes the scopes from the holder. Revoking an
	// absent grant is a no-op.
	RemoveGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error
}
