// Package spire provides a multi-tenant journal server with permission-gated
// full-text search.
//
// Journals hold entries (title, markdown content, tags) owned by a user.
// Owners can grant read, update, delete, or manage scopes to other users and
// to groups. Each journal carries its own on-disk search index that is kept
// in step with relational writes on a best-effort basis.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/acl: Permission resolution over journal grants
//   - pkg/scopes: The closed set of journal scopes and grant holder kinds
//   - pkg/search: Query planning, cursors, and the search gateway
//   - pkg/search/index: Bleve index lifecycle and queries
//   - pkg/identity: Access token issuance and verification
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/audit: Audit logging
//   - pkg/config: Configuration management
//
// # Quick Start
//
// The server is run via the spirectl CLI:
//
//	# Run database migrations
//	spirectl db migrate
//
//	# Start the server
//	spirectl server
//
//	# Issue an access token for a user
//	spirectl token issue --user alice --groups ops
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - SPIRE_TOKEN_SIGNING_KEY: Secret used to sign access tokens
//   - SPIRE_SEARCH_INDEX_ROOT: Directory holding per-journal search indices
//   - SPIRE_LOG_LEVEL: Log level (debug, info, warn, error)
//   - SPIRE_CONFIG_PATH: Config file directory (default: /etc/spire/config)
//
// For more information, see https://github.com/bugout-dev/spire
package main
