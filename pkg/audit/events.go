package audit

import (
	"fmt"
	"strings"
)

// CheckEvent represents a permission check audit event
type CheckEvent struct {
	UserID    string
	ClientIP  string
	JournalID string
	Scope     string
	Allowed   bool
}

func (e CheckEvent) MessageID() string {
	return "check"
}

func (e CheckEvent) Message() string {
	if e.Allowed {
		return fmt.Sprintf("%s has %s on journal %s", e.UserID, e.Scope, e.JournalID)
	}
	return fmt.Sprintf("%s lacks %s on journal %s", e.UserID, e.Scope, e.JournalID)
}

func (e CheckEvent) Severity() Severity {
	if e.Allowed {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e CheckEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CheckEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"journal": e.JournalID,
			"scope":   e.Scope,
		},
		SDIDAction: {
			"operation": "check",
			"result":    boolResult(e.Allowed),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}

// SearchEvent represents a search audit event
type SearchEvent struct {
	UserID    string
	ClientIP  string
	JournalID string
	Query     string
	Tags      []string
	Hits      uint64
	Success   bool
}

func (e SearchEvent) MessageID() string {
	return "search"
}

func (e SearchEvent) Message() string {
	if !e.Success {
		return fmt.Sprintf("%s failed to search journal %s", e.UserID, e.JournalID)
	}
	return fmt.Sprintf("%s searched journal %s (%d hits)", e.UserID, e.JournalID, e.Hits)
}

func (e SearchEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e SearchEvent) Facility() int {
	return FacilityAuth
}

func (e SearchEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSearch: {
			"journal": e.JournalID,
			"query":   e.Query,
			"hits":    fmt.Sprintf("%d", e.Hits),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if len(e.Tags) > 0 {
		sd[SDIDSearch]["tags"] = strings.Join(e.Tags, ",")
	}
	return sd
}

// GrantEvent represents a permission grant or revocation audit event
type GrantEvent struct {
	UserID     string
	ClientIP   string
	JournalID  string
	HolderKind string
	HolderID   string
	Scopes     []string
	Revoked    bool
}

func (e GrantEvent) MessageID() string {
	if e.Revoked {
		return "revoke"
	}
	return "grant"
}

func (e GrantEvent) Message() string {
	verb := "granted"
	if e.Revoked {
		verb = "revoked"
	}
	return fmt.Sprintf("%s %s [%s] for %s %s on journal %s",
		e.UserID, verb, strings.Join(e.Scopes, ", "), e.HolderKind, e.HolderID, e.JournalID)
}

func (e GrantEvent) Severity() Severity {
	return SeverityNotice
}

func (e GrantEvent) Facility() int {
	return FacilityAuthPriv
}

func (e GrantEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"journal": e.JournalID,
			"holder":  e.HolderKind + ":" + e.HolderID,
			"scopes":  strings.Join(e.Scopes, ","),
		},
		SDIDAction: {
			"operation": e.MessageID(),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}

// PropagationEvent represents an index propagation failure. The
// relational write already committed; this records that the journal's
// index is temporarily behind.
type PropagationEvent struct {
	JournalID    string
	EntryID      string
	Operation    string
	ErrorMessage string
}

func (e PropagationEvent) MessageID() string {
	return "propagation"
}

func (e PropagationEvent) Message() string {
	return fmt.Sprintf("index %s for entry %s in journal %s failed: %s",
		e.Operation, e.EntryID, e.JournalID, e.ErrorMessage)
}

func (e PropagationEvent) Severity() Severity {
	return SeverityError
}

func (e PropagationEvent) Facility() int {
	return FacilityAuth
}

func (e PropagationEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSearch: {
			"journal":   e.JournalID,
			"entry":     e.EntryID,
			"operation": e.Operation,
		},
		SDIDAction: {
			"result": "failure",
		},
	}
}

func boolResult(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
