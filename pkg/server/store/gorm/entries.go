package gorm

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugout-dev/spire/pkg/model"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// Ensure EntriesStore implements store.EntriesStore
var _ store.EntriesStore = (*EntriesStore)(nil)

// EntriesStore implements store.EntriesStore using GORM
type EntriesStore struct {
	db *gorm.DB
}

// NewEntriesStore creates a new EntriesStore
func NewEntriesStore(db *gorm.DB) *EntriesStore {
	return &EntriesStore{db: db}
}

// CreateEntry creates an entry with the given tags.
func (s *EntriesStore) CreateEntry(journalID uuid.UUID, title, content string, tags []string) (*store.Entry, error) {
	entry := model.JournalEntry{
		ID:        uuid.New(),
		JournalID: journalID,
		Title:     titleColumn(title),
		Content:   content,
		VersionID: 1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		for _, tag := range dedupeTags(tags) {
			if err := tx.Create(&model.JournalEntryTag{
				ID:             uuid.New(),
				JournalEntryID: entry.ID,
				Tag:            tag,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.FetchEntry(entry.ID)
}

// FetchEntry retrieves an entry with its tags.
func (s *EntriesStore) FetchEntry(entryID uuid.UUID) (*store.Entry, error) {
	var entry model.JournalEntry
	tx := s.db.Where("id = ?", entryID).First(&entry)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrEntryNotFound
		}
		return nil, tx.Error
	}

	tags, err := s.fetchTags(entryID)
	if err != nil {
		return nil, err
	}
	return entryFromModel(&entry, tags), nil
}

// ListEntries returns the journal's entries, newest first.
func (s *EntriesStore) ListEntries(journalID uuid.UUID, limit, offset int) ([]store.Entry, error) {
	query := s.db.Where("journal_id = ?", journalID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []model.JournalEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]store.Entry, 0, len(rows))
	for i := range rows {
		tags, err := s.fetchTags(rows[i].ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entryFromModel(&rows[i], tags))
	}
	return entries, nil
}

// UpdateEntry replaces title and content when version matches the stored
// version counter.
func (s *EntriesStore) UpdateEntry(entryID uuid.UUID, title, content string, version int) (*store.Entry, error) {
	tx := s.db.Model(&model.JournalEntry{}).
		Where("id = ? AND version_id = ?", entryID, version).
		Updates(map[string]interface{}{
			"title":      titleColumn(title),
			"content":    content,
			"version_id": gorm.Expr("version_id + 1"),
		})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		// Either the entry is gone or the version is stale.
		var count int64
		if err := s.db.Model(&model.JournalEntry{}).Where("id = ?", entryID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, store.ErrEntryNotFound
		}
		return nil, store.ErrEntryConflict
	}
	return s.FetchEntry(entryID)
}

// DeleteEntry removes an entry; its tags cascade.
func (s *EntriesStore) DeleteEntry(entryID uuid.UUID) error {
	tx := s.db.Where("id = ?", entryID).Delete(&model.JournalEntry{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrEntryNotFound
	}
	return nil
}

// AddTags attaches tags to an entry and bumps the entry version.
func (s *EntriesStore) AddTags(entryID uuid.UUID, tags []string) (*store.Entry, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, tag := range dedupeTags(tags) {
			err := tx.Exec(`
				INSERT INTO journal_entry_tags (id, journal_entry_id, tag, created_at)
				VALUES (?, ?, ?, now())
				ON CONFLICT DO NOTHING
			`, uuid.New(), entryID, tag).Error
			if err != nil {
				return err
			}
		}
		return s.bumpVersion(tx, entryID)
	})
	if err != nil {
		return nil, err
	}
	return s.FetchEntry(entryID)
}

// RemoveTag detaches a tag from an entry and bumps the entry version.
func (s *EntriesStore) RemoveTag(entryID uuid.UUID, tag string) (*store.Entry, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("journal_entry_id = ? AND tag = ?", entryID, tag).
			Delete(&model.JournalEntryTag{}).Error
		if err != nil {
			return err
		}
		return s.bumpVersion(tx, entryID)
	})
	if err != nil {
		return nil, err
	}
	return s.FetchEntry(entryID)
}

// TopTags returns the journal's most used tags.
func (s *EntriesStore) TopTags(journalID uuid.UUID, limit int) ([]store.TagCount, error) {
	type tagRow struct {
		Tag   string
		Count int
	}
	var rows []tagRow
	tx := s.db.Raw(`
		SELECT t.tag AS tag, COUNT(*) AS count
		FROM journal_entry_tags t
		JOIN journal_entries e ON e.id = t.journal_entry_id
		WHERE e.journal_id = ?
		GROUP BY t.tag
		ORDER BY count DESC, t.tag
		LIMIT ?
	`, journalID, limit).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	counts := make([]store.TagCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, store.TagCount{Tag: row.Tag, Count: row.Count})
	}
	return counts, nil
}

func (s *EntriesStore) bumpVersion(tx *gorm.DB, entryID uuid.UUID) error {
	result := tx.Model(&model.JournalEntry{}).
		Where("id = ?", entryID).
		Update("version_id", gorm.Expr("version_id + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrEntryNotFound
	}
	return nil
}

func (s *EntriesStore) fetchTags(entryID uuid.UUID) ([]string, error) {
	var rows []model.JournalEntryTag
	err := s.db.Where("journal_entry_id = ?", entryID).
		Order("created_at, tag").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.Tag)
	}
	return tags, nil
}

func entryFromModel(entry *model.JournalEntry, tags []string) *store.Entry {
	result := &store.Entry{
		ID:        entry.ID,
		JournalID: entry.JournalID,
		Content:   entry.Content,
		Tags:      tags,
		Version:   entry.VersionID,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
	if entry.Title != nil {
		result.Title = *entry.Title
	}
	return result
}

func titleColumn(title string) *string {
	if title == "" {
		return nil
	}
	return &title
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
