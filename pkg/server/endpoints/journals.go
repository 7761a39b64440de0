package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/audit"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// JournalResponse is the API representation of a journal
type JournalResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"holder_id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JournalListResponse is the response from GET /journals
type JournalListResponse struct {
	Journals []JournalResponse `json:"journals"`
}

type journalRequest struct {
	Name string `json:"name"`
}

func RegisterJournalsEndpoints(s *server.Server) {
	journalsStore := s.JournalsStore
	resolver := s.Resolver
	gateway := s.Gateway

	journalsRouter := s.Router.PathPrefix("/journals").Subrouter()
	journalsRouter.Use(s.AuthMiddleware.Middleware)

	// GET /journals - List journals visible to the principal
	journalsRouter.HandleFunc("", handleListJournals(journalsStore)).Methods("GET")

	// POST /journals - Create a journal
	journalsRouter.HandleFunc("", handleCreateJournal(journalsStore, gateway)).Methods("POST")

	// GET /journals/{journal_id} - Fetch a journal
	journalsRouter.HandleFunc("/{journal_id}", handleFetchJournal(resolver)).Methods("GET")

	// PUT /journals/{journal_id} - Rename a journal
	journalsRouter.HandleFunc("/{journal_id}", handleRenameJournal(journalsStore, resolver)).Methods("PUT")

	// DELETE /journals/{journal_id} - Delete a journal (soft by default)
	journalsRouter.HandleFunc("/{journal_id}", handleDeleteJournal(journalsStore, resolver, gateway)).Methods("DELETE")
}

func handleListJournals(journalsStore store.JournalsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		journals, err := journalsStore.ListJournals(principal.ID, principal.Groups)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		response := JournalListResponse{Journals: make([]JournalResponse, 0, len(journals))}
		for i := range journals {
			response.Journals = append(response.Journals, journalResponse(&journals[i]))
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleCreateJournal(journalsStore store.JournalsStore, gateway SearchGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req journalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "journal name required")
			return
		}

		journal, err := journalsStore.CreateJournal(principal.ID, req.Name)
		if err != nil {
			if errors.Is(err, store.ErrJournalExists) {
				respondWithError(w, http.StatusConflict, "journal name already taken")
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Index creation is part of journal creation, but a failure here
		// must not orphan the journal row; the reconciliation pass picks
		// the index up later.
		if err := gateway.EnsureJournalIndex(r.Context(), journal); err != nil {
			audit.Log(audit.PropagationEvent{
				JournalID:    journal.ID.String(),
				Operation:    "create-index",
				ErrorMessage: err.Error(),
			})
		}

		respondWithJSON(w, http.StatusCreated, journalResponse(journal))
	}
}

func handleFetchJournal(resolver Authorizer) http.HandlerFunc {
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

		journal, err := resolver.Require(principal, journalID, scopes.ScopeRead)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeRead, err)
			return
		}

		respondWithJSON(w, http.StatusOK, journalResponse(journal))
	}
}

func handleRenameJournal(journalsStore store.JournalsStore, resolver Authorizer) http.HandlerFunc {
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

		var req journalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "journal name required")
			return
		}

		if _, err := resolver.Require(principal, journalID, scopes.ScopeUpdate); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}

		if err := journalsStore.RenameJournal(journalID, req.Name); err != nil {
			switch {
			case errors.Is(err, store.ErrJournalNotFound):
				respondWithError(w, http.StatusNotFound, accessDeniedMessage)
			case errors.Is(err, store.ErrJournalExists):
				respondWithError(w, http.StatusConflict, "journal name already taken")
			default:
				respondWithError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		journal, err := journalsStore.FetchJournal(journalID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, journalResponse(journal))
	}
}

func handleDeleteJournal(journalsStore store.JournalsStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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

		journal, err := resolver.Require(principal, journalID, scopes.ScopeDelete)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeDelete, err)
			return
		}

		purge := r.URL.Query().Get("purge") == "true"
		if purge {
			err = journalsStore.HardDeleteJournal(journalID)
		} else {
			err = journalsStore.SoftDeleteJournal(journalID)
		}
		if err != nil {
			if errors.Is(err, store.ErrJournalNotFound) {
				respondWithError(w, http.StatusNotFound, accessDeniedMessage)
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if err := gateway.DropJournalIndex(r.Context(), journal); err != nil {
			audit.Log(audit.PropagationEvent{
				JournalID:    journal.ID.String(),
				Operation:    "drop-index",
				ErrorMessage: err.Error(),
			})
		}

		respondWithJSON(w, http.StatusOK, journalResponse(journal))
	}
}

// respondWithResolverError maps resolver failures onto the API's status
// codes. Denied and missing journals share one payload; the audit trail
// records the denied check.
func respondWithResolverError(w http.ResponseWriter, r *http.Request, principal acl.Principal, journalID string, scope scopes.Scope, err error) {
	if errors.Is(err, acl.ErrNoAccess) {
		audit.Log(audit.CheckEvent{
			UserID:    principal.ID,
			ClientIP:  clientIP(r),
			JournalID: journalID,
			Scope:     scope.String(),
			Allowed:   false,
		})
		respondWithError(w, http.StatusNotFound, accessDeniedMessage)
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}

func journalResponse(journal *store.Journal) JournalResponse {
	return JournalResponse{
		ID:        journal.ID.String(),
		OwnerID:   journal.OwnerID,
		Name:      journal.Name,
		Version:   journal.Version,
		CreatedAt: journal.CreatedAt,
		UpdatedAt: journal.UpdatedAt,
	}
}
