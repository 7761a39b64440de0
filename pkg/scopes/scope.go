// Package scopes defines the closed enumeration of journal permission
// scopes and of grant holder kinds. The relational store keeps scopes as
// free-text columns (referencing the oauth_scopes registry); this package
// is the adapter between that column format and the typed enumeration so
// that a typo in the database can never become an unenforceable grant.
package scopes

//go:generate go run github.com/dmarkham/enumer -type Scope -trimprefix Scope -transform lower -json -output scope.gen.go
type Scope int

const (
	ScopeRead Scope = iota
	ScopeUpdate
	ScopeDelete
	ScopeManage
)

//go:generate go run github.com/dmarkham/enumer -type HolderKind -trimprefix HolderKind -transform lower -json -output holderkind.gen.go
type HolderKind int

const (
	HolderKindUser HolderKind = iota
	HolderKindGroup
)
