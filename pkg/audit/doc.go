// Package audit provides audit logging for Spire operations.
//
// This package implements structured audit logging for security-relevant
// operations such as permission checks, permission grant changes and
// search activity.
//
// # Event Types
//
// The package defines event types for various operations:
//
//   - Permission check events (allowed/denied)
//   - Permission grant and revocation events
//   - Search events
//   - Index propagation failure events
//
// # Usage
//
//	audit.Log(audit.CheckEvent{
//	    UserID:    userID,
//	    JournalID: journalID,
//	    Scope:     "read",
//	    Allowed:   true,
//	})
//
// Audit events are logged in RFC5424 syslog format suitable for security
// monitoring and compliance requirements.
package audit
