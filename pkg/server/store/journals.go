package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJournalNotFound is returned when a journal doesn't exist or has been
// soft-deleted.
var ErrJournalNotFound = errors.New("journal not found")

// ErrJournalExists is returned when a journal name is already taken by the
// same owner.
var ErrJournalExists = errors.New("journal already exists")

// Journal represents a journal with its metadata
type Journal struct {
	ID          uuid.UUID
	OwnerID     string
	Name        string
	SearchIndex string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JournalsStore abstracts journal storage operations
type JournalsStore interface {
	// CreateJournal creates a journal owned by ownerID.
	// Returns ErrJournalExists if the owner already has a journal with
	// that name.
	CreateJournal(ownerID, name string) (*Journal, error)

	// FetchJournal retrieves a journal by ID.
	// Returns ErrJournalNotFound for missing or soft-deleted journals.
	FetchJournal(journalID uuid.UUID) (*Journal, error)

	// FetchJournalAny retrieves a journal by ID including soft-deleted
	// ones, for cleanup paths that run after deletion.
	FetchJournalAny(journalID uuid.UUID) (*Journal, error)

	// ListJournals returns journals the holder can see: journals it owns
	// plus journals where it (or one of its groups) holds any grant.
	ListJournals(holderID string, groupIDs []string) ([]Journal, error)

	// RenameJournal changes a journal's display name. The search index
	// identifier is unaffected by renames.
	RenameJournal(journalID uuid.UUID, name string) error

	// SetSearchIndex records the search index identifier for a journal.
	SetSearchIndex(journalID uuid.UUID, indexID string) error

	// SoftDeleteJournal marks a journal deleted without removing rows.
	SoftDeleteJournal(journalID uuid.UUID) error

	// HardDeleteJournal removes the journal row; entries, tags and grants
	// cascade. Callers are responsible for dropping the search index.
	HardDeleteJournal(journalID uuid.UUID) error
}
