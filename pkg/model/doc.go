// Package model defines the database models for Spire.
//
// This package contains GORM models that map to the Spire PostgreSQL
// schema. The relational store is the source of truth for journals,
// entries, tags and permission grants; search indices are derived
// projections maintained by pkg/search.
//
// # Core Models
//
//   - Journal: a named namespace of entries owned by a principal
//   - JournalEntry: free-text entry with optimistic version counter
//   - JournalEntryTag: tag attached to an entry, unique per entry
//   - JournalPermission: grant of a scope to a user or group holder
//   - OAuthScope: registry of recognized permission scope strings
package model
