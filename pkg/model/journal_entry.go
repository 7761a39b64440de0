package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry represents a single free-text entry in a journal.
// VersionID is a monotonically incrementing counter used for optimistic
// conflict detection; every mutation increments it.
type JournalEntry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	JournalID uuid.UUID `gorm:"column:journal_id;type:uuid;not null;index"`
	Title     *string   `gorm:"column:title"`
	Content   string    `gorm:"column:content;not null"`
	VersionID int       `gorm:"column:version_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;index"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
