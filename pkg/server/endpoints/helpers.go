package endpoints

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/identity"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/search"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// accessDeniedMessage is returned for both missing journals and missing
// permissions, so callers cannot probe for journal existence.
const accessDeniedMessage = "no permissions for requested information"

// Authorizer is the slice of the permission resolver the endpoints use.
type Authorizer interface {
	Require(principal acl.Principal, journalID uuid.UUID, required ...scopes.Scope) (*store.Journal, error)
}

// SearchGateway is the slice of the search gateway the endpoints use.
type SearchGateway interface {
	Search(ctx context.Context, principal acl.Principal, req search.Request) (*search.Page, error)
	EnsureJournalIndex(ctx context.Context, journal *store.Journal) error
	IndexEntry(ctx context.Context, journal *store.Journal, entry *store.Entry)
	DeindexEntry(ctx context.Context, journal *store.Journal, entryID uuid.UUID)
	DropJournalIndex(ctx context.Context, journal *store.Journal) error
}

// principalFrom extracts the authenticated principal from the request
// context. The auth middleware guarantees an identity on protected routes.
func principalFrom(r *http.Request) (acl.Principal, bool) {
	id, ok := identity.Get(r.Context())
	if !ok {
		return acl.Principal{}, false
	}
	return acl.Principal{ID: id.UserID, Groups: id.Groups}, true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

// journalIDFrom parses the journal_id path variable. A malformed id is
// treated like a missing journal.
func journalIDFrom(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["journal_id"])
	return id, err == nil
}

func entryIDFrom(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["entry_id"])
	return id, err == nil
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
