package endpoints

import (
	"net/http"
	"os"

	"github.com/bugout-dev/spire/pkg/server"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// StatusResponse is the response from GET /status
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	DB      string `json:"db"`
	Index   string `json:"index"`
}

// Pinger reports whether the search index backend is reachable.
type Pinger interface {
	Ping() error
}

// RegisterStatusEndpoints registers the status endpoints. They require
// no authentication so load balancers can probe them.
func RegisterStatusEndpoints(s *server.Server) {
	healthStore := s.HealthStore
	indexes := s.Indexes

	// GET / - Basic liveness
	s.Router.HandleFunc("/", handlePing()).Methods("GET")

	// GET /ping - Basic liveness
	s.Router.HandleFunc("/ping", handlePing()).Methods("GET")

	// GET /status - DB and index backend health
	s.Router.HandleFunc("/status", handleStatus(healthStore, indexes)).Methods("GET")

	// GET /version - Build version
	s.Router.HandleFunc("/version", handleVersion()).Methods("GET")
}

func handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleStatus(healthStore store.HealthStore, indexes Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{
			Status:  "ok",
			Version: version(),
			DB:      "ok",
			Index:   "ok",
		}
		code := http.StatusOK

		if err := healthStore.CheckConnectivity(); err != nil {
			response.Status = "degraded"
			response.DB = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if err := indexes.Ping(); err != nil {
			response.Status = "degraded"
			response.Index = "unavailable"
			code = http.StatusServiceUnavailable
		}

		respondWithJSON(w, code, response)
	}
}

func handleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"version": version()})
	}
}

func version() string {
	if v := os.Getenv("SPIRE_VERSION_DISPLAY"); v != "" {
		return v
	}
	return "0.1.0"
}
