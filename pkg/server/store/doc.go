// Package store provides storage abstractions for the Spire server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints and the search core to be decoupled from the specific
// database implementation. This enables easier testing with mocks and
// potential support for different storage backends.
//
// # Available Stores
//
//   - JournalsStore: journal lifecycle (create, fetch, rename, delete)
//   - EntriesStore: entry and tag operations with optimistic versioning
//   - GrantsStore: permission grants on journals
//   - HealthStore: connectivity checks
//
// # Usage
//
//	journals := gorm.NewJournalsStore(db)
//	journal, err := journals.FetchJournal(id)
//	if err != nil {
//	    if errors.Is(err, store.ErrJournalNotFound) {
//	        // Handle not found
//	    }
//	}
package store
