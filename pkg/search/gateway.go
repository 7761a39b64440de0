package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/search/index"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// DefaultLimit caps a search page when the request does not ask for a
// specific size.
const DefaultLimit = 10

// Indexes is the slice of the index manager the gateway relies on.
type Indexes interface {
	Ensure(indexID string) error
	Drop(indexID string) error
	UpsertEntry(ctx context.Context, indexID string, doc index.Document) error
	RemoveEntry(ctx context.Context, indexID, entryID string) error
	Query(indexID string, q index.Query) (*index.Results, error)
	UpsertJournal(ctx context.Context, doc index.JournalDocument) error
	RemoveJournal(ctx context.Context, journalID string) error
}

// Request is a raw search request as it arrives from the API surface.
type Request struct {
	JournalID uuid.UUID
	Query     string
	Filters   []string
	Limit     int
	Cursor    string
}

// Result pairs a matched entry, re-fetched from the relational store,
// with its relevance score.
type Result struct {
	Entry store.Entry
	Score float64
}

// Page is one page of search results. NextCursor is empty on the last
// page.
type Page struct {
	Total      uint64
	MaxScore   float64
	Results    []Result
	NextCursor string
}

// Gateway authorizes search requests, plans them, resolves them against
// the journal's index and re-materializes hits from the relational
// store. It also keeps the indices in step with relational mutations.
type Gateway struct {
	resolver *acl.Resolver
	journals store.JournalsStore
	entries  store.EntriesStore
	indexes  Indexes
	logger   *zap.Logger
	maxLimit int
}

// NewGateway creates a new Gateway
func NewGateway(resolver *acl.Resolver, journals store.JournalsStore, entries store.EntriesStore, indexes Indexes, logger *zap.Logger, maxLimit int) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLimit <= 0 {
		maxLimit = DefaultLimit
	}
	return &Gateway{
		resolver: resolver,
		journals: journals,
		entries:  entries,
		indexes:  indexes,
		logger:   logger,
		maxLimit: maxLimit,
	}
}

// Search runs a permission-gated search against one journal. The
// principal needs the read scope; without it (or with an unknown journal
// id) the request fails with acl.ErrNoAccess before the planner or the
// index is touched.
//
// Hits whose entries no longer exist in the relational store are dropped
// from the page: the store is the source of truth and the index may lag
// behind a delete.
func (g *Gateway) Search(ctx context.Context, principal acl.Principal, req Request) (*Page, error) {
	journal, err := g.resolver.Require(principal, req.JournalID, scopes.ScopeRead)
	if err != nil {
		return nil, err
	}

	planned, err := Plan(req.Query, req.Filters)
	if err != nil {
		return nil, err
	}
	after, err := decodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 || limit > g.maxLimit {
		limit = g.maxLimit
	}

	// A journal without an index has nothing indexed yet.
	if journal.SearchIndex == "" {
		return &Page{Results: []Result{}}, nil
	}

	results, err := g.indexes.Query(journal.SearchIndex, index.Query{
		Text:         planned.Query,
		RequiredTags: planned.RequiredTags,
		Size:         limit,
		After:        after,
	})
	if errors.Is(err, index.ErrInvalidSortKey) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err != nil {
		return nil, err
	}

	page := &Page{
		Total:    results.Total,
		MaxScore: results.MaxScore,
		Results:  make([]Result, 0, len(results.Hits)),
	}
	var lastKey []string
	for _, hit := range results.Hits {
		lastKey = hit.SortKey
		entryID, err := uuid.Parse(hit.EntryID)
		if err != nil {
			g.logger.Warn("skipping malformed hit id",
				zap.String("journal_id", journal.ID.String()),
				zap.String("hit_id", hit.EntryID))
			continue
		}
		entry, err := g.entries.FetchEntry(entryID)
		if errors.Is(err, store.ErrEntryNotFound) {
			g.logger.Debug("skipping stale hit",
				zap.String("journal_id", journal.ID.String()),
				zap.String("entry_id", hit.EntryID))
			continue
		}
		if err != nil {
			return nil, err
		}
		if entry.JournalID != journal.ID {
			continue
		}
		page.Results = append(page.Results, Result{Entry: *entry, Score: hit.Score})
	}

	if len(results.Hits) == limit {
		page.NextCursor = encodeCursor(lastKey)
	}
	return page, nil
}

// EnsureJournalIndex makes sure the journal has a live index, minting an
// identifier on first use, and records the journal in the catalog.
func (g *Gateway) EnsureJournalIndex(ctx context.Context, journal *store.Journal) error {
	if journal.SearchIndex == "" {
		indexID := index.NewIndexID(journal.ID)
		if err := g.journals.SetSearchIndex(journal.ID, indexID); err != nil {
			return err
		}
		journal.SearchIndex = indexID
	}
	if err := g.indexes.Ensure(journal.SearchIndex); err != nil {
		return err
	}
	return g.indexes.UpsertJournal(ctx, index.JournalDocument{
		JournalID: journal.ID.String(),
		OwnerID:   journal.OwnerID,
		Name:      journal.Name,
		IndexID:   journal.SearchIndex,
		CreatedAt: journal.CreatedAt,
	})
}

// IndexEntry pushes an entry into its journal's index. Index propagation
// is best effort: failures are logged and swallowed so the relational
// write that already committed stays successful.
func (g *Gateway) IndexEntry(ctx context.Context, journal *store.Journal, entry *store.Entry) {
	if err := g.EnsureJournalIndex(ctx, journal); err != nil {
		g.logIndexFailure(journal.ID, entry.ID, err)
		return
	}
	if err := g.indexes.UpsertEntry(ctx, journal.SearchIndex, documentFromEntry(entry)); err != nil {
		g.logIndexFailure(journal.ID, entry.ID, err)
	}
}

// DeindexEntry removes an entry from its journal's index, best effort.
func (g *Gateway) DeindexEntry(ctx context.Context, journal *store.Journal, entryID uuid.UUID) {
	if journal.SearchIndex == "" {
		return
	}
	if err := g.indexes.RemoveEntry(ctx, journal.SearchIndex, entryID.String()); err != nil {
		g.logIndexFailure(journal.ID, entryID, err)
	}
}

// ReindexJournal rebuilds a journal's index from the relational store and
// returns the number of entries indexed. Unlike the per-mutation hooks
// this is not best effort: the reconciliation caller wants the error.
func (g *Gateway) ReindexJournal(ctx context.Context, journalID uuid.UUID) (int, error) {
	journal, err := g.journals.FetchJournal(journalID)
	if err != nil {
		return 0, err
	}
	if err := g.EnsureJournalIndex(ctx, journal); err != nil {
		return 0, err
	}

	entries, err := g.entries.ListEntries(journalID, 0, 0)
	if err != nil {
		return 0, err
	}
	for i := range entries {
		if err := g.indexes.UpsertEntry(ctx, journal.SearchIndex, documentFromEntry(&entries[i])); err != nil {
			return i, fmt.Errorf("indexing entry %s: %w", entries[i].ID, err)
		}
	}
	return len(entries), nil
}

// DropJournalIndex removes a journal's index and its catalog document
// after the journal has been deleted. The journal row may be gone
// already; the pre-fetched journal carries the index identifier.
func (g *Gateway) DropJournalIndex(ctx context.Context, journal *store.Journal) error {
	if journal.SearchIndex != "" {
		if err := g.indexes.Drop(journal.SearchIndex); err != nil {
			return err
		}
	}
	if err := g.indexes.RemoveJournal(ctx, journal.ID.String()); err != nil {
		return err
	}
	err := g.journals.SetSearchIndex(journal.ID, "")
	if errors.Is(err, store.ErrJournalNotFound) {
		return nil
	}
	return err
}

func (g *Gateway) logIndexFailure(journalID, entryID uuid.UUID, err error) {
	g.logger.Error("index propagation failed",
		zap.String("journal_id", journalID.String()),
		zap.String("entry_id", entryID.String()),
		zap.Error(err))
}

func documentFromEntry(entry *store.Entry) index.Document {
	return index.Document{
		EntryID:   entry.ID.String(),
		JournalID: entry.JournalID.String(),
		Title:     entry.Title,
		Content:   entry.Content,
		Tags:      entry.Tags,
		Version:   entry.Version,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}
