// Package index owns the lifecycle of Spire's search indices: one bleve
// index per journal plus a catalog index enumerating the journals
// themselves. The relational store is the source of truth; indices are
// derived projections kept consistent by upserts and deletes applied
// after each relational write.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrIndexUnavailable is returned when the index backend cannot be
// reached or written. The relational mutation that triggered the write
// must not fail because of it; callers log and move on, deferring repair
// to a reconciliation pass.
var ErrIndexUnavailable = errors.New("search index unavailable")

// CatalogIndexID is the identifier of the index that enumerates journals.
const CatalogIndexID = "journals"

const (
	upsertRetries  = 3
	upsertBackoff  = 50 * time.Millisecond
	indexExtension = ".bleve"
)

// NewIndexID derives an index identifier from the journal id plus a
// creation nonce. A recreated index after a drop never collides with a
// stale identifier still referenced by in-flight requests.
func NewIndexID(journalID uuid.UUID) string {
	nonce := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return journalID.String() + "-" + nonce
}

// Manager opens, creates and drops bleve indices under a root directory
// and applies document mutations to them. It is safe for concurrent use.
type Manager struct {
	root       string
	prefixTags bool
	logger     *zap.Logger

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

// Option configures a Manager.
type Option func(*Manager)

// WithPrefixTags switches tag filters from exact-token to prefix
// matching.
func WithPrefixTags(enabled bool) Option {
	return func(m *Manager) { m.prefixTags = enabled }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager rooted at the given directory.
func NewManager(root string, opts ...Option) *Manager {
	m := &Manager{
		root:    root,
		logger:  zap.NewNop(),
		indexes: make(map[string]bleve.Index),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure opens the index, creating it if it does not exist. Concurrent
// calls for the same identifier converge on a single live index.
func (m *Manager) Ensure(indexID string) error {
	_, err := m.acquire(indexID)
	return err
}

// Drop closes and removes an index. Dropping an absent index is a no-op;
// the operation is safe to retry.
func (m *Manager) Drop(indexID string) error {
	m.mu.Lock()
	if idx, ok := m.indexes[indexID]; ok {
		delete(m.indexes, indexID)
		if err := idx.Close(); err != nil {
			m.logger.Warn("closing index before drop", zap.String("index", indexID), zap.Error(err))
		}
	}
	m.mu.Unlock()

	m.logger.Info("dropping index", zap.String("index", indexID))
	if err := os.RemoveAll(m.path(indexID)); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// UpsertEntry indexes an entry document. Applying the same entry version
// twice produces the same index state, and a document already carrying a
// newer version is left untouched, so replays of stale mutations are
// harmless.
func (m *Manager) UpsertEntry(ctx context.Context, indexID string, doc Document) error {
	idx, err := m.acquire(indexID)
	if err != nil {
		return err
	}

	current, found, err := m.currentVersion(idx, doc.EntryID)
	if err != nil {
		return err
	}
	if found && current > doc.Version {
		return nil
	}

	return m.indexWithRetry(ctx, idx, doc.EntryID, doc.fields())
}

// RemoveEntry deletes an entry document. Removing an absent document is a
// no-op.
func (m *Manager) RemoveEntry(ctx context.Context, indexID, entryID string) error {
	idx, err := m.acquire(indexID)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(upsertRetries, retry.NewExponential(upsertBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := idx.Delete(entryID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Query executes a planned query against an index. Results are ordered by
// text-relevance score descending, then entry creation time descending,
// then entry id, for deterministic pagination.
//
// A resumed query skips every hit sorting at or before the After key.
// The score slot of the key is the score recorded when the previous page
// was served; relevance scores are recomputed per query, so a document
// whose recomputed score moved past the recorded one lands on the page
// its new score dictates.
func (m *Manager) Query(indexID string, q Query) (*Results, error) {
	idx, err := m.acquire(indexID)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(m.buildQuery(q), q.Size, 0, false)
	req.SortBy([]string{"-_score", "-created_at", "_id"})
	req.Fields = []string{"title", "tag", "created_at"}
	if len(q.After) > 0 {
		after, err := searchAfterKey(q.After)
		if err != nil {
			return nil, err
		}
		req.SearchAfter = after
	}

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	results := &Results{
		Total:    res.Total,
		MaxScore: res.MaxScore,
		Hits:     make([]Hit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		results.Hits = append(results.Hits, Hit{
			EntryID: hit.ID,
			Score:   hit.Score,
			SortKey: portableSortKey(hit),
		})
	}
	return results, nil
}

// DocCount returns the number of documents in an index.
func (m *Manager) DocCount(indexID string) (uint64, error) {
	idx, err := m.acquire(indexID)
	if err != nil {
		return 0, err
	}
	count, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return count, nil
}

// Ping verifies that the index root directory is accessible.
func (m *Manager) Ping() error {
	info, err := os.Stat(m.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrIndexUnavailable, m.root)
	}
	return nil
}

// Close closes every open index.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, idx := range m.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.indexes, id)
	}
	return firstErr
}

func (m *Manager) acquire(indexID string) (bleve.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.indexes[indexID]; ok {
		return idx, nil
	}

	path := m.path(indexID)
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		m.logger.Info("creating index", zap.String("index", indexID))
		idx, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	m.indexes[indexID] = idx
	return idx, nil
}

func (m *Manager) path(indexID string) string {
	// Index identifiers come from trusted callers, but they end up as
	// directory names; refuse separators outright.
	name := strings.ReplaceAll(indexID, string(filepath.Separator), "_")
	return filepath.Join(m.root, name+indexExtension)
}

func (m *Manager) currentVersion(idx bleve.Index, entryID string) (int, bool, error) {
	req := bleve.NewSearchRequestOptions(query.NewDocIDQuery([]string{entryID}), 1, 0, false)
	req.Fields = []string{"version"}

	res, err := idx.Search(req)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if len(res.Hits) == 0 {
		return 0, false, nil
	}
	version, ok := res.Hits[0].Fields["version"].(float64)
	if !ok {
		return 0, false, nil
	}
	return int(version), true, nil
}

func (m *Manager) indexWithRetry(ctx context.Context, idx bleve.Index, id string, fields map[string]interface{}) error {
	backoff := retry.WithMaxRetries(upsertRetries, retry.NewExponential(upsertBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := idx.Index(id, fields); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

func (m *Manager) buildQuery(q Query) query.Query {
	conjuncts := make([]query.Query, 0, len(q.RequiredTags)+1)

	if q.Text == "" {
		conjuncts = append(conjuncts, bleve.NewMatchAllQuery())
	} else {
		title := bleve.NewMatchQuery(q.Text)
		title.SetField("title")
		title.SetBoost(2)
		content := bleve.NewMatchQuery(q.Text)
		content.SetField("content")
		conjuncts = append(conjuncts, bleve.NewDisjunctionQuery(title, content))
	}

	for _, tag := range q.RequiredTags {
		if m.prefixTags {
			pq := bleve.NewPrefixQuery(tag)
			pq.SetField("tag")
			conjuncts = append(conjuncts, pq)
		} else {
			tq := bleve.NewTermQuery(tag)
			tq.SetField("tag")
			conjuncts = append(conjuncts, tq)
		}
	}

	return bleve.NewConjunctionQuery(conjuncts...)
}
