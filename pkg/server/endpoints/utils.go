package endpoints

import (
	"encoding/json"
	"net/http"
)

// respondWithError writes a JSON error payload. Every error response in
// the API shares the {"error": "..."} shape.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
