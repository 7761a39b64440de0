package endpoints

import (
	"github.com/bugout-dev/spire/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterJournalsEndpoints(srv)
	RegisterEntriesEndpoints(srv)
	RegisterPermissionsEndpoints(srv)
	RegisterSearchEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
