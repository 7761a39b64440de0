// Package acl resolves a principal's effective permissions on a journal.
//
// The effective permission set is the union of scopes granted to the
// principal directly and to any group the principal belongs to. The
// journal owner implicitly holds every scope. Missing and soft-deleted
// journals resolve to the empty set, so callers cannot distinguish "no
// access" from "does not exist".
package acl

import (
	"errors"

	"github.com/google/uuid"

	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// ErrNoAccess is returned when a principal lacks a required scope on a
// journal, or the journal does not exist. The two cases are deliberately
// indistinguishable.
var ErrNoAccess = errors.New("no permissions for requested information")

// Principal is an authenticated identity together with the groups it
// belongs to, as reported by the identity collaborator.
type Principal struct {
	ID     string
	Groups []string
}

// Resolver computes effective permission sets from stored grants.
type Resolver struct {
	journals store.JournalsStore
	grants   store.GrantsStore
}

// NewResolver creates a new Resolver
func NewResolver(journals store.JournalsStore, grants store.GrantsStore) *Resolver {
	return &Resolver{journals: journals, grants: grants}
}

// Resolve computes the effective scope set of principal on the journal.
// It never reports whether the journal exists: unknown and soft-deleted
// journals yield an empty set.
func (r *Resolver) Resolve(principal Principal, journalID uuid.UUID) (scopes.Set, error) {
	journal, err := r.journals.FetchJournal(journalID)
	if err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return scopes.NewSet(), nil
		}
		return nil, err
	}
	return r.resolve(principal, journal)
}

// Require fetches the journal and verifies that principal holds every
// required scope on it. Returns ErrNoAccess when the journal is missing,
// soft-deleted, or the principal's effective set lacks a scope.
func (r *Resolver) Require(principal Principal, journalID uuid.UUID, required ...scopes.Scope) (*store.Journal, error) {
	journal, err := r.journals.FetchJournal(journalID)
	if err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			return nil, ErrNoAccess
		}
		return nil, err
	}

	effective, err := r.resolve(principal, journal)
	if err != nil {
		return nil, err
	}
	if !effective.HasAll(required...) {
		return nil, ErrNoAccess
	}
	return journal, nil
}

func (r *Resolver) resolve(principal Principal, journal *store.Journal) (scopes.Set, error) {
	// Owner bypass: evaluated before any grant lookup.
	if journal.OwnerID == principal.ID {
		return scopes.All(), nil
	}

	grants, err := r.grants.FetchGrants(journal.ID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]struct{}, len(principal.Groups))
	for _, group := range principal.Groups {
		groups[group] = struct{}{}
	}

	effective := scopes.NewSet()
	for _, grant := range grants {
		switch grant.HolderKind {
		case scopes.HolderKindUser:
			if grant.HolderID == principal.ID {
				effective.Add(grant.Scope)
			}
		case scopes.HolderKindGroup:
			if _, ok := groups[grant.HolderID]; ok {
				effective.Add(grant.Scope)
			}
		}
	}
	return effective, nil
}
