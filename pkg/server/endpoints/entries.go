package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// EntryResponse is the API representation of a journal entry
type EntryResponse struct {
	ID        string    `json:"id"`
	JournalID string    `json:"journal_id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryListResponse is the response from GET /journals/{id}/entries
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// TagsResponse is the response from the tags sub-resource
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// TopTagsResponse is the response from GET /journals/{id}/tags
type TopTagsResponse struct {
	Tags []TagCountResponse `json:"tags"`
}

// TagCountResponse is a tag with its usage count
type TagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type createEntryRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type updateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Version int    `json:"version"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func RegisterEntriesEndpoints(s *server.Server) {
	entriesStore := s.EntriesStore
	resolver := s.Resolver
	gateway := s.Gateway

	journalRouter := s.Router.PathPrefix("/journals/{journal_id}").Subrouter()
	journalRouter.Use(s.AuthMiddleware.Middleware)

	// GET /journals/{journal_id}/entries - List entries
	journalRouter.HandleFunc("/entries", handleListEntries(entriesStore, resolver)).Methods("GET")

	// POST /journals/{journal_id}/entries - Create an entry
	journalRouter.HandleFunc("/entries", handleCreateEntry(entriesStore, resolver, gateway)).Methods("POST")

	// GET /journals/{journal_id}/entries/{entry_id} - Fetch an entry
	journalRouter.HandleFunc("/entries/{entry_id}", handleFetchEntry(entriesStore, resolver)).Methods("GET")

	// GET /journals/{journal_id}/entries/{entry_id}/content - Entry content, rendered on request
	journalRouter.HandleFunc("/entries/{entry_id}/content", handleEntryContent(entriesStore, resolver)).Methods("GET")

	// PUT /journals/{journal_id}/entries/{entry_id} - Update an entry
	journalRouter.HandleFunc("/entries/{entry_id}", handleUpdateEntry(entriesStore, resolver, gateway)).Methods("PUT")

	// DELETE /journals/{journal_id}/entries/{entry_id} - Delete an entry
	journalRouter.HandleFunc("/entries/{entry_id}", handleDeleteEntry(entriesStore, resolver, gateway)).Methods("DELETE")

	// GET /journals/{journal_id}/entries/{entry_id}/tags - Entry tags
	journalRouter.HandleFunc("/entries/{entry_id}/tags", handleGetTags(entriesStore, resolver)).Methods("GET")

	// POST /journals/{journal_id}/entries/{entry_id}/tags - Add tags
	journalRouter.HandleFunc("/entries/{entry_id}/tags", handleAddTags(entriesStore, resolver, gateway)).Methods("POST")

	// DELETE /journals/{journal_id}/entries/{entry_id}/tags/{tag} - Remove a tag
	journalRouter.HandleFunc("/entries/{entry_id}/tags/{tag}", handleRemoveTag(entriesStore, resolver, gateway)).Methods("DELETE")

	// GET /journals/{journal_id}/tags - Most used tags in the journal
	journalRouter.HandleFunc("/tags", handleTopTags(entriesStore, resolver)).Methods("GET")
}

func handleListEntries(entriesStore store.EntriesStore, resolver Authorizer) http.HandlerFunc {
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

		if _, err := resolver.Require(principal, journalID, scopes.ScopeRead); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeRead, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		entries, err := entriesStore.ListEntries(journalID, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		response := EntryListResponse{Entries: make([]EntryResponse, 0, len(entries))}
		for i := range entries {
			response.Entries = append(response.Entries, entryResponse(&entries[i]))
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleCreateEntry(entriesStore store.EntriesStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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

		var req createEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "malformed entry")
			return
		}
		if req.Content == "" {
			respondWithError(w, http.StatusBadRequest, "entry content required")
			return
		}

		journal, err := resolver.Require(principal, journalID, scopes.ScopeUpdate)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}

		entry, err := entriesStore.CreateEntry(journalID, req.Title, req.Content, req.Tags)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		gateway.IndexEntry(r.Context(), journal, entry)
		respondWithJSON(w, http.StatusCreated, entryResponse(entry))
	}
}

func handleFetchEntry(entriesStore store.EntriesStore, resolver Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := requireEntry(w, r, entriesStore, resolver, scopes.ScopeRead)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, entryResponse(entry))
	}
}

func handleEntryContent(entriesStore store.EntriesStore, resolver Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := requireEntry(w, r, entriesStore, resolver, scopes.ScopeRead)
		if !ok {
			return
		}

		if r.URL.Query().Get("format") == "html" {
			html, err := renderMarkdown(entry.Content)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(html)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(entry.Content))
	}
}

func handleUpdateEntry(entriesStore store.EntriesStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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
		entryID, ok := entryIDFrom(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		var req updateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			respondWithError(w, http.StatusBadRequest, "malformed entry")
			return
		}

		journal, err := resolver.Require(principal, journalID, scopes.ScopeUpdate)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}
		if !entryBelongs(entriesStore, entryID, journalID) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		entry, err := entriesStore.UpdateEntry(entryID, req.Title, req.Content, req.Version)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrEntryNotFound):
				respondWithError(w, http.StatusNotFound, "entry not found")
			case errors.Is(err, store.ErrEntryConflict):
				respondWithError(w, http.StatusConflict, "entry version conflict")
			default:
				respondWithError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		gateway.IndexEntry(r.Context(), journal, entry)
		respondWithJSON(w, http.StatusOK, entryResponse(entry))
	}
}

func handleDeleteEntry(entriesStore store.EntriesStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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
		entryID, ok := entryIDFrom(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		journal, err := resolver.Require(principal, journalID, scopes.ScopeUpdate)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}
		if !entryBelongs(entriesStore, entryID, journalID) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		if err := entriesStore.DeleteEntry(entryID); err != nil {
			if errors.Is(err, store.ErrEntryNotFound) {
				respondWithError(w, http.StatusNotFound, "entry not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		gateway.DeindexEntry(r.Context(), journal, entryID)
		respondWithJSON(w, http.StatusOK, map[string]string{"id": entryID.String()})
	}
}

func handleGetTags(entriesStore store.EntriesStore, resolver Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := requireEntry(w, r, entriesStore, resolver, scopes.ScopeRead)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, TagsResponse{Tags: entry.Tags})
	}
}

func handleAddTags(entriesStore store.EntriesStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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
		entryID, ok := entryIDFrom(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		var req tagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tags) == 0 {
			respondWithError(w, http.StatusBadRequest, "tags required")
			return
		}

		journal, err := resolver.Require(principal, journalID, scopes.ScopeUpdate)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}
		if !entryBelongs(entriesStore, entryID, journalID) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		entry, err := entriesStore.AddTags(entryID, req.Tags)
		if err != nil {
			if errors.Is(err, store.ErrEntryNotFound) {
				respondWithError(w, http.StatusNotFound, "entry not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		gateway.IndexEntry(r.Context(), journal, entry)
		respondWithJSON(w, http.StatusOK, TagsResponse{Tags: entry.Tags})
	}
}

func handleRemoveTag(entriesStore store.EntriesStore, resolver Authorizer, gateway SearchGateway) http.HandlerFunc {
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
		entryID, ok := entryIDFrom(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}
		tag := muxVar(r, "tag")
		if tag == "" {
			respondWithError(w, http.StatusBadRequest, "tag required")
			return
		}

		journal, err := resolver.Require(principal, journalID, scopes.ScopeUpdate)
		if err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeUpdate, err)
			return
		}
		if !entryBelongs(entriesStore, entryID, journalID) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}

		entry, err := entriesStore.RemoveTag(entryID, tag)
		if err != nil {
			if errors.Is(err, store.ErrEntryNotFound) {
				respondWithError(w, http.StatusNotFound, "entry not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		gateway.IndexEntry(r.Context(), journal, entry)
		respondWithJSON(w, http.StatusOK, TagsResponse{Tags: entry.Tags})
	}
}

func handleTopTags(entriesStore store.EntriesStore, resolver Authorizer) http.HandlerFunc {
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

		if _, err := resolver.Require(principal, journalID, scopes.ScopeRead); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeRead, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 10
		}

		counts, err := entriesStore.TopTags(journalID, limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		response := TopTagsResponse{Tags: make([]TagCountResponse, 0, len(counts))}
		for _, c := range counts {
			response.Tags = append(response.Tags, TagCountResponse{Tag: c.Tag, Count: c.Count})
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

// requireEntry authorizes a read on the journal and fetches the entry,
// writing the error response itself on failure.
func requireEntry(w http.ResponseWriter, r *http.Request, entriesStore store.EntriesStore, resolver Authorizer, scope scopes.Scope) (*store.Entry, bool) {
	principal, ok := principalFrom(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	journalID, ok := journalIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, accessDeniedMessage)
		return nil, false
	}
	entryID, ok := entryIDFrom(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "entry not found")
		return nil, false
	}

	if _, err := resolver.Require(principal, journalID, scope); err != nil {
		respondWithResolverError(w, r, principal, journalID.String(), scope, err)
		return nil, false
	}

	entry, err := entriesStore.FetchEntry(entryID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	// Entry ids are global; refuse cross-journal access.
	if entry.JournalID != journalID {
		respondWithError(w, http.StatusNotFound, "entry not found")
		return nil, false
	}
	return entry, true
}

func entryBelongs(entriesStore store.EntriesStore, entryID, journalID uuid.UUID) bool {
	entry, err := entriesStore.FetchEntry(entryID)
	return err == nil && entry.JournalID == journalID
}

func entryResponse(entry *store.Entry) EntryResponse {
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryResponse{
		ID:        entry.ID.String(),
		JournalID: entry.JournalID.String(),
		Title:     entry.Title,
		Content:   entry.Content,
		Tags:      tags,
		Version:   entry.Version,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}
