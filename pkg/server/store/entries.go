package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEntryNotFound is returned when an entry doesn't exist
var ErrEntryNotFound = errors.New("journal entry not found")

// ErrEntryConflict is returned when an entry mutation carries a stale
// version counter
var ErrEntryConflict = errors.New("journal entry version conflict")

// Entry represents a journal entry with its tags
type Entry struct {
	ID        uuid.UUID
	JournalID uuid.UUID
	Title     string
	Content   string
	Tags      []string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagCount is a tag with its usage count in a journal
type TagCount struct {
	Tag   string
	Count int
}

// EntriesStore abstracts journal entry storage operations
type EntriesStore interface {
	// CreateEntry creates an entry with the given tags. Duplicate tags in
	// the input collapse.
	CreateEntry(journalID uuid.UUID, title, content string, tags []string) (*Entry, error)

	// FetchEntry retrieves an entry (with tags) by ID.
	// Returns ErrEntryNotFound if it doesn't exist.
	FetchEntry(entryID uuid.UUID) (*Entry, error)

	// ListEntries returns the journal's entries ordered by creation time
	// descending. A limit of 0 means no limit.
	ListEntries(journalID uuid.UUID, limit, offset int) ([]Entry, error)

	// UpdateEntry replaces title and content if version matches the
	// stored version counter, incrementing it.
	// Returns ErrEntryConflict when version is stale.
	UpdateEntry(entryID uuid.UUID, title, content string, version int) (*Entry, error)

	// DeleteEntry removes an entry; its tags cascade.
	DeleteEntry(entryID uuid.UUID) error

	// AddTags attaches tags to an entry, ignoring ones already present,
	// and bumps the entry version. Returns the updated entry.
	AddTags(entryID uuid.UUID, tags []string) (*Entry, error)

	// RemoveTag detaches a tag from an entry and bumps the entry version.
	// Removing an absent tag is a no-op.
	RemoveTag(entryID uuid.UUID, tag string) (*Entry, error)

	// TopTags returns the journal's most used tags, count descending.
	TopTags(journalID uuid.UUID, limit int) ([]TagCount, error)
}
