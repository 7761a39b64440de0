package gorm

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugout-dev/spire/pkg/model"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// Ensure JournalsStore implements store.JournalsStore
var _ store.JournalsStore = (*JournalsStore)(nil)

// JournalsStore implements store.JournalsStore using GORM
type JournalsStore struct {
	db *gorm.DB
}

// NewJournalsStore creates a new JournalsStore
func NewJournalsStore(db *gorm.DB) *JournalsStore {
	return &JournalsStore{db: db}
}

// CreateJournal creates a journal owned by ownerID.
func (s *JournalsStore) CreateJournal(ownerID, name string) (*store.Journal, error) {
	journal := model.Journal{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		VersionID: 1,
	}
	if err := s.db.Create(&journal).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrJournalExists
		}
		return nil, err
	}
	return journalFromModel(&journal), nil
}

// FetchJournal retrieves a journal by ID, excluding soft-deleted journals.
func (s *JournalsStore) FetchJournal(journalID uuid.UUID) (*store.Journal, error) {
	var journal model.Journal
	tx := s.db.Where("id = ? AND deleted = ?", journalID, false).First(&journal)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrJournalNotFound
		}
		return nil, tx.Error
	}
	return journalFromModel(&journal), nil
}

// FetchJournalAny retrieves a journal by ID, including soft-deleted ones.
func (s *JournalsStore) FetchJournalAny(journalID uuid.UUID) (*store.Journal, error) {
	var journal model.Journal
	tx := s.db.Where("id = ?", journalID).First(&journal)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrJournalNotFound
		}
		return nil, tx.Error
	}
	return journalFromModel(&journal), nil
}

// ListJournals returns journals owned by the holder or granted to it (or
// any of its groups).
func (s *JournalsStore) ListJournals(holderID string, groupIDs []string) ([]store.Journal, error) {
	holders := append([]string{holderID}, groupIDs...)

	var journals []model.Journal
	tx := s.db.Raw(`
		SELECT DISTINCT j.*
		FROM journals j
		LEFT JOIN journal_permissions p ON p.journal_id = j.id
		WHERE j.deleted = false AND (j.owner_id = ? OR p.holder_id IN ?)
		ORDER BY j.created_at
	`, holderID, holders).Scan(&journals)
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := make([]store.Journal, 0, len(journals))
	for i := range journals {
		result = append(result, *journalFromModel(&journals[i]))
	}
	return result, nil
}

// RenameJournal changes a journal's display name. The search index
// identifier is unaffected.
func (s *JournalsStore) RenameJournal(journalID uuid.UUID, name string) error {
	tx := s.db.Model(&model.Journal{}).
		Where("id = ? AND deleted = ?", journalID, false).
		Updates(map[string]interface{}{
			"name":       name,
			"version_id": gorm.Expr("version_id + 1"),
		})
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return store.ErrJournalExists
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrJournalNotFound
	}
	return nil
}

// SetSearchIndex records the search index identifier for a journal. An
// empty indexID clears it.
func (s *JournalsStore) SetSearchIndex(journalID uuid.UUID, indexID string) error {
	var value interface{}
	if indexID != "" {
		value = indexID
	}
	tx := s.db.Model(&model.Journal{}).
		Where("id = ?", journalID).
		Update("search_index", value)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrJournalNotFound
	}
	return nil
}

// SoftDeleteJournal marks a journal deleted without removing rows.
func (s *JournalsStore) SoftDeleteJournal(journalID uuid.UUID) error {
	tx := s.db.Model(&model.Journal{}).
		Where("id = ? AND deleted = ?", journalID, false).
		Update("deleted", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrJournalNotFound
	}
	return nil
}

// HardDeleteJournal removes the journal row. Entries, tags and grants
// cascade at the database level.
func (s *JournalsStore) HardDeleteJournal(journalID uuid.UUID) error {
	tx := s.db.Where("id = ?", journalID).Delete(&model.Journal{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrJournalNotFound
	}
	return nil
}

func journalFromModel(journal *model.Journal) *store.Journal {
	result := &store.Journal{
		ID:        journal.ID,
		OwnerID:   journal.OwnerID,
		Name:      journal.Name,
		Version:   journal.VersionID,
		CreatedAt: journal.CreatedAt,
		UpdatedAt: journal.UpdatedAt,
	}
	if journal.SearchIndex != nil {
		result.SearchIndex = *journal.SearchIndex
	}
	return result
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
