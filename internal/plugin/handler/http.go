// Package handler exposes the plugin store and registry over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"analytics-pipeline/ingestcore/internal/plugin/domain"
	"analytics-pipeline/ingestcore/internal/server/respond"
)

// Store is the read side of the plugin repository the handler needs.
type Store interface {
	ListPlugins(ctx context.Context) ([]*domain.Plugin, error)
	ListPluginConfigs(ctx context.Context) ([]*domain.PluginConfig, error)
	ListAttachments(ctx context.Context) ([]*domain.PluginAttachment, error)
}

// Mutator is the write side, served by the registry so the in-memory view
// stays consistent with the store.
type Mutator interface {
	RecordError(ctx context.Context, pluginConfigID int64, pluginErr *domain.PluginError) error
	Disable(ctx context.Context, pluginConfigID int64) error
	RecordMetrics(ctx context.Context, pluginConfigID int64, delta map[string]string) error
}

type Handler struct {
	store   Store
	mutator Mutator
}

func New(store Store, mutator Mutator) *Handler {
	return &Handler{store: store, mutator: mutator}
}

// Register mounts the plugin routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/plugins", h.listPlugins)
	mux.HandleFunc("GET /api/plugin-configs", h.listPluginConfigs)
	mux.HandleFunc("GET /api/plugin-attachments", h.listAttachments)
	mux.HandleFunc("POST /api/plugin-configs/{id}/disable", h.disable)
	mux.HandleFunc("PUT /api/plugin-configs/{id}/error", h.setError)
	mux.HandleFunc("POST /api/plugin-configs/{id}/metrics", h.recordMetrics)
}

type pluginView struct {
	ID             int64                      `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description,omitempty"`
	PluginType     domain.PluginType          `json:"plugin_type"`
	URL            string                     `json:"url,omitempty"`
	Tag            string                     `json:"tag,omitempty"`
	ConfigSchema   []domain.ConfigSchemaField `json:"config_schema"`
	Capabilities   []string                   `json:"capabilities"`
	Metrics        map[string]string          `json:"metrics"`
	OrganizationID string                     `json:"organization_id"`
	IsGlobal       bool                       `json:"is_global"`
	IsPreinstalled bool                       `json:"is_preinstalled"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func (h *Handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	plugins, err := h.store.ListPlugins(r.Context())
	if err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	out := make([]pluginView, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, pluginView{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			PluginType:     p.PluginType,
			URL:            p.URL,
			Tag:            p.Tag,
			ConfigSchema:   p.ConfigSchema,
			Capabilities:   p.Capabilities,
			Metrics:        p.Metrics,
			OrganizationID: p.OrganizationID.String(),
			IsGlobal:       p.IsGlobal,
			IsPreinstalled: p.IsPreinstalled,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		})
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

type configView struct {
	ID        int64               `json:"id"`
	PluginID  int64               `json:"plugin_id"`
	TeamID    int64               `json:"team_id"`
	Enabled   bool                `json:"enabled"`
	Order     int                 `json:"order"`
	Config    map[string]any      `json:"config"`
	Error     *domain.PluginError `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (h *Handler) listPluginConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListPluginConfigs(r.Context())
	if err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	out := make([]configView, 0, len(configs))
	for _, c := range configs {
		out = append(out, configView{
			ID:        c.ID,
			PluginID:  c.PluginID,
			TeamID:    c.TeamID,
			Enabled:   c.Enabled,
			Order:     c.Order,
			Config:    c.Config,
			Error:     c.Error,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

type attachmentView struct {
	ID             int64  `json:"id"`
	PluginConfigID int64  `json:"plugin_config_id"`
	TeamID         int64  `json:"team_id"`
	Key            string `json:"key"`
	FileName       string `json:"file_name"`
	FileSize       int    `json:"file_size"`
	ContentType    string `json:"content_type"`
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.store.ListAttachments(r.Context())
	if err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	// Contents stay out of list responses; only metadata is exposed.
	out := make([]attachmentView, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, attachmentView{
			ID:             a.ID,
			PluginConfigID: a.PluginConfigID,
			TeamID:         a.TeamID,
			Key:            a.Key,
			FileName:       a.FileName,
			FileSize:       a.FileSize,
			ContentType:    a.ContentType,
		})
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	if err := h.mutator.Disable(r.Context(), id); err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "disable failed", err.Error(), nil)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": false})
}

func (h *Handler) setError(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	// Body is either a plugin error object or JSON null to clear it.
	var pluginErr *domain.PluginError
	if err := respond.DecodeStrict(r, &pluginErr); err != nil {
		respond.WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	if err := h.mutator.RecordError(r.Context(), id, pluginErr); err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "set error failed", err.Error(), nil)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "error": pluginErr})
}

func (h *Handler) recordMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}
	var delta map[string]string
	if err := respond.DecodeStrict(r, &delta); err != nil {
		respond.WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	if len(delta) == 0 {
		respond.WriteProblem(w, http.StatusBadRequest, "empty delta", "metrics delta must not be empty", nil)
		return
	}
	if err := h.mutator.RecordMetrics(r.Context(), id, delta); err != nil {
		respond.WriteProblem(w, http.StatusInternalServerError, "record metrics failed", err.Error(), nil)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "metrics": delta})
}

func configID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteProblem(w, http.StatusBadRequest, "invalid id", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
