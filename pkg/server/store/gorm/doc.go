// Package gorm provides GORM-backed implementations of the journal,
// entry, grant and health store interfaces defined in pkg/server/store.
package gorm
