package index

import (
	"context"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

// JournalDocument is the catalog projection of a journal, used by the
// reconciliation CLI to enumerate journals without a relational round
// trip.
type JournalDocument struct {
	JournalID string
	OwnerID   string
	Name      string
	IndexID   string
	CreatedAt time.Time
}

func (d JournalDocument) fields() map[string]interface{} {
	return map[string]interface{}{
		"owner_id":   d.OwnerID,
		"name":       d.Name,
		"index_id":   d.IndexID,
		"created_at": d.CreatedAt,
	}
}

// UpsertJournal records a journal in the catalog index. Catalog writes
// are best effort; a failure is logged by the caller, never surfaced to
// the journal mutation.
func (m *Manager) UpsertJournal(ctx context.Context, doc JournalDocument) error {
	idx, err := m.acquire(CatalogIndexID)
	if err != nil {
		return err
	}
	return m.indexWithRetry(ctx, idx, doc.JournalID, doc.fields())
}

// RemoveJournal drops a journal from the catalog index.
func (m *Manager) RemoveJournal(ctx context.Context, journalID string) error {
	return m.RemoveEntry(ctx, CatalogIndexID, journalID)
}

// QueryJournals matches catalog documents by name, or all of them when
// text is empty.
func (m *Manager) QueryJournals(text string, size int) (*Results, error) {
	idx, err := m.acquire(CatalogIndexID)
	if err != nil {
		return nil, err
	}

	var match query.Query
	if text == "" {
		match = bleve.NewMatchAllQuery()
	} else {
		name := bleve.NewMatchQuery(text)
		name.SetField("name")
		match = name
	}

	req := bleve.NewSearchRequestOptions(match, size, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Fields = []string{"name", "owner_id", "index_id"}

	res, err := idx.Search(req)
	if err != nil {
		m.logger.Warn("catalog query failed", zap.Error(err))
		return nil, ErrIndexUnavailable
	}

	results := &Results{Total: res.Total, MaxScore: res.MaxScore, Hits: make([]Hit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		results.Hits = append(results.Hits, Hit{EntryID: hit.ID, Score: hit.Score, SortKey: hit.Sort})
	}
	return results, nil
}
