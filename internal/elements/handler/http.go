// Package handler exposes elements-chain lookups over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"analytics-pipeline/ingestcore/internal/elements/domain"
	"analytics-pipeline/ingestcore/internal/server/respond"
)

// Resolver is the slice of the elements cache the handler needs.
type Resolver interface {
	Resolve(ctx context.Context, teamID int64, hash string) ([]domain.Element, error)
}

type Handler struct {
	resolver Resolver
}

func New(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Register mounts the elements routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/teams/{teamId}/elements/{hash}", h.getChain)
}

// getChain resolves a stored chain and returns it in the external event
// payload format. An unknown hash yields an empty array, mirroring the
// cache's empty-chain semantics.
func (h *Handler) getChain(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(r.PathValue("teamId"), 10, 64)
	if err != nil || teamID <= 0 {
		respond.WriteProblem(w, http.StatusBadRequest, "invalid team id", "teamId must be a positive integer", nil)
		return
	}
	hash := r.PathValue("hash")
	if hash == "" {
		respond.WriteProblem(w, http.StatusBadRequest, "invalid hash", "hash is required", nil)
		return
	}

	chain, err := h.resolver.Resolve(r.Context(), teamID, hash)
	if err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "resolve failed", err.Error(), nil)
		return
	}

	respond.WriteJSON(w, http.StatusOK, domain.ToEventPayloadFormat(chain))
}
