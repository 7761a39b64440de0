// Package server provides the HTTP server for the Spire API.
//
// This package implements the core HTTP server that handles all Spire REST
// API requests. It uses gorilla/mux for routing and provides middleware for
// authentication and request handling.
//
// # Server Setup
//
//	srv := server.NewServer(db, cfg, logger)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Stores: relational access to journals, entries and permission grants
//   - Resolver: effective permission computation
//   - Gateway: permission-gated search, backed by per-journal indices
//   - AuthMiddleware: bearer access token validation
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers all standard Spire API endpoints including:
//
//   - /journals - journal listing and creation
//   - /journals/{journal_id} - journal metadata and deletion
//   - /journals/{journal_id}/entries - entry CRUD
//   - /journals/{journal_id}/search - permission-gated search
//   - /journals/{journal_id}/scopes - permission grants
//   - /status - service health
package server
