package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/bugout-dev/spire/pkg/audit"
	"github.com/bugout-dev/spire/pkg/scopes"
	"github.com/bugout-dev/spire/pkg/server"
	"github.com/bugout-dev/spire/pkg/server/store"
)

// GrantResponse is the API representation of a permission grant
type GrantResponse struct {
	HolderKind string `json:"holder_type"`
	HolderID   string `json:"holder_id"`
	Permission string `json:"permission"`
}

// GrantListResponse is the response from GET /journals/{id}/scopes
type GrantListResponse struct {
	JournalID string          `json:"journal_id"`
	Scopes    []GrantResponse `json:"scopes"`
}

type grantRequest struct {
	HolderKind  string   `json:"holder_type"`
	HolderID    string   `json:"holder_id"`
	Permissions []string `json:"permissions"`
}

func RegisterPermissionsEndpoints(s *server.Server) {
	grantsStore := s.GrantsStore
	resolver := s.Resolver

	scopesRouter := s.Router.PathPrefix("/journals/{journal_id}/scopes").Subrouter()
	scopesRouter.Use(s.AuthMiddleware.Middleware)

	// GET /journals/{journal_id}/scopes - List grants
	scopesRouter.HandleFunc("", handleListGrants(grantsStore, resolver)).Methods("GET")

	// PUT /journals/{journal_id}/scopes - Add grants
	scopesRouter.HandleFunc("", handleAddGrants(grantsStore, resolver)).Methods("PUT")

	// DELETE /journals/{journal_id}/scopes - Remove grants
	scopesRouter.HandleFunc("", handleRemoveGrants(grantsStore, resolver)).Methods("DELETE")
}

func handleListGrants(grantsStore store.GrantsStore, resolver Authorizer) http.HandlerFunc {
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

		if _, err := resolver.Require(principal, journalID, scopes.ScopeManage); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeManage, err)
			return
		}

		grants, err := grantsStore.FetchGrants(journalID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		response := GrantListResponse{
			JournalID: journalID.String(),
			Scopes:    make([]GrantResponse, 0, len(grants)),
		}
		for _, grant := range grants {
			response.Scopes = append(response.Scopes, GrantResponse{
				HolderKind: grant.HolderKind.String(),
				HolderID:   grant.HolderID,
				Permission: grant.Scope.Column(),
			})
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleAddGrants(grantsStore store.GrantsStore, resolver Authorizer) http.HandlerFunc {
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

		kind, holderID, requested, req, ok := decodeGrants(w, r)
		if !ok {
			return
		}

		if _, err := resolver.Require(principal, journalID, scopes.ScopeManage); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeManage, err)
			return
		}

		if err := grantsStore.AddGrants(journalID, kind, holderID, requested); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		audit.Log(audit.GrantEvent{
			UserID:     principal.ID,
			ClientIP:   clientIP(r),
			JournalID:  journalID.String(),
			HolderKind: req.HolderKind,
			HolderID:   req.HolderID,
			Scopes:     req.Permissions,
		})

		handleListGrants(grantsStore, resolver)(w, r)
	}
}

func handleRemoveGrants(grantsStore store.GrantsStore, resolver Authorizer) http.HandlerFunc {
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

		kind, holderID, requested, req, ok := decodeGrants(w, r)
		if !ok {
			return
		}

		if _, err := resolver.Require(principal, journalID, scopes.ScopeManage); err != nil {
			respondWithResolverError(w, r, principal, journalID.String(), scopes.ScopeManage, err)
			return
		}

		// The owner keeps implicit full access, so revocations cannot
		// lock a journal's owner out.
		if err := grantsStore.RemoveGrants(journalID, kind, holderID, requested); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		audit.Log(audit.GrantEvent{
			UserID:     principal.ID,
			ClientIP:   clientIP(r),
			JournalID:  journalID.String(),
			HolderKind: req.HolderKind,
			HolderID:   req.HolderID,
			Scopes:     req.Permissions,
			Revoked:    true,
		})

		handleListGrants(grantsStore, resolver)(w, r)
	}
}

// decodeGrants parses and validates a grant mutation request, writing
// the error response itself on failure. Holder kinds and permissions are
// closed enumerations; unknown values are rejected outright.
func decodeGrants(w http.ResponseWriter, r *http.Request) (scopes.HolderKind, string, []scopes.Scope, grantRequest, bool) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed grant request")
		return 0, "", nil, req, false
	}
	if req.HolderID == "" || len(req.Permissions) == 0 {
		respondWithError(w, http.StatusBadRequest, "holder_id and permissions required")
		return 0, "", nil, req, false
	}

	kind, err := scopes.HolderKindString(req.HolderKind)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unknown holder_type")
		return 0, "", nil, req, false
	}

	requested := make([]scopes.Scope, 0, len(req.Permissions))
	for _, permission := range req.Permissions {
		scope, err := scopes.FromColumn(permission)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unknown permission "+permission)
			return 0, "", nil, req, false
		}
		requested = append(requested, scope)
	}
	return kind, req.HolderID, requested, req, true
}
