package model

import (
	"time"

	"github.com/google/uuid"
)

// Journal represents a namespace of journal entries owned by a principal
type Journal struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id;not null;uniqueIndex:uq_journals_owner_id_name"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:uq_journals_owner_id_name"`
	VersionID   int       `gorm:"column:version_id;not null"`
	SearchIndex *string   `gorm:"column:search_index"`
	Deleted     bool      `gorm:"column:deleted;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Journal) TableName() string {
	return "journals"
}
