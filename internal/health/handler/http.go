// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"net/http"

	"analytics-pipeline/ingestcore/internal/server/respond"
)

// Readier reports whether the process's shared connections are usable.
type Readier interface {
	Ready(ctx context.Context) error
}

type Handler struct {
	readier Readier
}

func New(readier Readier) *Handler {
	return &Handler{readier: readier}
}

// Register mounts the probe routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.readier.Ready(r.Context()); err != nil {
		respond.WriteProblem(w, http.StatusServiceUnavailable, "not ready", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
