package scopes

import (
	"fmt"
	"sort"
	"strings"
)

// columnPrefix is how journal scopes are namespaced in the oauth_scopes
// registry and the journal_permissions.permission column.
const columnPrefix = "journals."

// Column returns the database representation of the scope.
func (i Scope) Column() string {
	return columnPrefix + i.String()
}

// FromColumn translates a permission column value into a typed Scope.
func FromColumn(value string) (Scope, error) {
	name := strings.TrimPrefix(value, columnPrefix)
	s, err := ScopeString(name)
	if err != nil {
		return 0, fmt.Errorf("unknown permission scope %q", value)
	}
	return s, nil
}

// Set is an unordered collection of scopes. Duplicate grants collapse.
type Set map[Scope]struct{}

// NewSet builds a Set from the given scopes.
func NewSet(ss ...Scope) Set {
	set := make(Set, len(ss))
	for _, s := range ss {
		set.Add(s)
	}
	return set
}

// All returns the full scope set, the effective permissions of a journal
// owner.
func All() Set {
	return NewSet(ScopeValues()...)
}

func (s Set) Add(scope Scope) {
	s[scope] = struct{}{}
}

func (s Set) Has(scope Scope) bool {
	_, ok := s[scope]
	return ok
}

// HasAll reports whether every scope in required is present.
func (s Set) HasAll(required ...Scope) bool {
	for _, r := range required {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// Slice returns the scopes in declaration order, for stable responses.
func (s Set) Slice() []Scope {
	out := make([]Scope, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
