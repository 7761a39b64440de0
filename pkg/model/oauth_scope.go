package model

import "github.com/google/uuid"

// OAuthScope represents a recognized permission scope string. The scope
// column is the closed set of values journal_permissions.permission may
// reference.
type OAuthScope struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	API         string    `gorm:"column:api;not null"`
	Scope       string    `gorm:"column:scope;not null;unique"`
	Description string    `gorm:"column:description;not null"`
}

func (OAuthScope) TableName() string {
	return "oauth_scopes"
}
