package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntryTag represents a tag on a journal entry. Tags are
// case-sensitive and unique per entry.
type JournalEntryTag struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	JournalEntryID uuid.UUID `gorm:"column:journal_entry_id;type:uuid;not null;uniqueIndex:uq_journal_entry_tags_entry_tag"`
	Tag            string    `gorm:"column:tag;not null;uniqueIndex:uq_journal_entry_tags_entry_tag;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (JournalEntryTag) TableName() string {
	return "journal_entry_tags"
}
