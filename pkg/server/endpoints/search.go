package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/audit"
	"github.com/bugout-dev/spire/pkg/search"
	"github.com/bugout-dev/spire/pkg/server"
)

// SearchResultResponse is a single search hit
type SearchResultResponse struct {
	Entry EntryResponse `json:"entry"`
	Score float64       `json:"score"`
}

// SearchResponse is the response from GET /journals/{id}/search
type SearchResponse struct {
	JournalID  string                 `json:"journal_id"`
	Query      string                 `json:"query"`
	Total      uint64                 `json:"total_results"`
	MaxScore   float64                `json:"max_score"`
	Results    []SearchResultResponse `json:"results"`
	NextCursor string                 `json:"next_cursor,omitempty"`
	TookMs     int64                  `json:"took_ms"`
}

func RegisterSearchEndpoints(s *server.Server) {
	gateway := s.Gateway

	searchRouter := s.Router.PathPrefix("/journals/{journal_id}/search").Subrouter()
	searchRouter.Use(s.AuthMiddleware.Middleware)

	// GET /journals/{journal_id}/search - Permission-gated entry search
	searchRouter.HandleFunc("", handleSearch(gateway)).Methods("GET")
}

func handleSearch(gateway SearchGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		journalID, ok := journalIDFrom(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, accessDeniedMessage)
			return
		}

		query := r.URL.Query().Get("q")
		filters := r.URL.Query()["filter"]
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		started := time.Now()
		page, err := gateway.Search(r.Context(), principal, search.Request{
			JournalID: journalID,
			Query:     query,
			Filters:   filters,
			Limit:     limit,
			Cursor:    r.URL.Query().Get("cursor"),
		})
		if err != nil {
			switch {
			case errors.Is(err, acl.ErrNoAccess):
				audit.Log(audit.SearchEvent{
					UserID:    principal.ID,
					ClientIP:  clientIP(r),
					JournalID: journalID.String(),
					Query:     query,
					Success:   false,
				})
				respondWithError(w, http.StatusNotFound, accessDeniedMessage)
			case errors.Is(err, search.ErrInvalidFilterSyntax):
				respondWithError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, search.ErrInvalidCursor):
				respondWithError(w, http.StatusBadRequest, err.Error())
			default:
				respondWithError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		audit.Log(audit.SearchEvent{
			UserID:    principal.ID,
			ClientIP:  clientIP(r),
			JournalID: journalID.String(),
			Query:     query,
			Tags:      filters,
			Hits:      page.Total,
			Success:   true,
		})

		response := SearchResponse{
			JournalID:  journalID.String(),
			Query:      query,
			Total:      page.Total,
			MaxScore:   page.MaxScore,
			Results:    make([]SearchResultResponse, 0, len(page.Results)),
			NextCursor: page.NextCursor,
			TookMs:     time.Since(started).Milliseconds(),
		}
		for i := range page.Results {
			response.Results = append(response.Results, SearchResultResponse{
				Entry: entryResponse(&page.Results[i].Entry),
				Score: page.Results[i].Score,
			})
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}
