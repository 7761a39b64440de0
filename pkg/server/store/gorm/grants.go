package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugout-dev/spire/pkg/model"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// Ensure GrantsStore implements store.GrantsStore
var _ store.GrantsStore = (*GrantsStore)(nil)

// GrantsStore implements store.GrantsStore using GORM
type GrantsStore struct {
	db *gorm.DB
}

// NewGrantsStore creates a new GrantsStore
func NewGrantsStore(db *gorm.DB) *GrantsStore {
	return &GrantsStore{db: db}
}

// FetchGrants returns all grants for a journal. Rows whose permission or
// holder kind falls outside the closed enumerations are skipped, so a
// malformed database row can never widen access.
func (s *GrantsStore) FetchGrants(journalID uuid.UUID) ([]store.Grant, error) {
	var rows []model.JournalPermission
	tx := s.db.Where("journal_id = ?", journalID).
		Order("holder_type, holder_id, permission").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	grants := make([]store.Grant, 0, len(rows))
	for _, row := range rows {
		kind, err := scopes.HolderKindString(row.HolderKind)
		if err != nil {
			continue
		}
		scope, err := scopes.FromColumn(row.Permission)
		if err != nil {
			continue
		}
		grants = append(grants, store.Grant{
			HolderKind: kind,
			HolderID:   row.HolderID,
			Scope:      scope,
		})
	}
	return grants, nil
}

// AddGrants grants the scopes to the holder. Existing grants are no-ops.
func (s *GrantsStore) AddGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, scope := range ss {
			err := tx.Exec(`
				INSERT INTO journal_permissions (holder_type, journal_id, holder_id, permission)
				VALUES (?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, kind.String(), journalID, holderID, scope.Column()).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveGrants revokes the scopes from the holder.
func (s *GrantsStore) RemoveGrants(journalID uuid.UUID, kind scopes.HolderKind, holderID string, ss []scopes.Scope) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, scope := range ss {
			err := tx.Where(
				"holder_type = ? AND journal_id = ? AND holder_id = ? AND permission = ?",
				kind.String(), journalID, holderID, scope.Column(),
			).Delete(&model.JournalPermission{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
