package index

import "time"

// Document is the indexed projection of a journal entry. Version carries
// the entry's optimistic-lock counter so replayed writes can be ordered.
type Document struct {
	EntryID   string
	JournalID string
	Title     string
	Content   string
	Tags      []string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d Document) fields() map[string]interface{} {
	return map[string]interface{}{
		"journal_id": d.JournalID,
		"title":      d.Title,
		"content":    d.Content,
		"tag":        d.Tags,
		"version":    d.Version,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
}

// Query is a planned search resolved against a single index.
type Query struct {
	// Text matches against title and content, with title weighted
	// double. Empty text matches every document.
	Text string
	// RequiredTags must all be present on a document.
	RequiredTags []string
	// Size limits the number of hits returned.
	Size int
	// After resumes after a previous page's last sort key.
	After []string
}

// Hit is a single matched document.
type Hit struct {
	EntryID string
	Score   float64
	// SortKey is the hit's position in the result order, opaque to
	// callers; feeding it back as Query.After fetches the next page.
	SortKey []string
}

// Results is a page of hits plus the total match count.
type Results struct {
	Total    uint64
	MaxScore float64
	Hits     []Hit
}
