package model

import "github.com/google/uuid"

// JournalPermission represents a permission grant on a journal.
//
// HolderKind is "user" or "group"; HolderID is the corresponding user or
// group identifier. Permission references oauth_scopes.scope. The composite
// primary key makes a duplicate grant a no-op rather than an error.
type JournalPermission struct {
	HolderKind string    `gorm:"column:holder_type;primaryKey"`
	JournalID  uuid.UUID `gorm:"column:journal_id;type:uuid;primaryKey"`
	HolderID   string    `gorm:"column:holder_id;primaryKey"`
	Permission string    `gorm:"column:permission;primaryKey"`
}

func (JournalPermission) TableName() string {
	return "journal_permissions"
}
