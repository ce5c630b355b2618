// Package registry maintains the in-memory view of installed plugins and
// per-team pipelines on top of the durable plugin repository. Ingestion
// workers read pipelines from the view; mutations write through to the
// store and update the view so the next reader sees them.
package registry

import (
	"context"
	"sort"
	"sync"

	"analytics-pipeline/ingestcore/internal/plugin/domain"
	"analytics-pipeline/ingestcore/internal/plugin/repository"
)

// Registry is the shared plugin-configuration view consumed by all workers.
// Mutations for configs the view has not loaded still reach the store; the
// view update is simply skipped.
type Registry struct {
	repo repository.Repository

	mu        sync.RWMutex
	plugins   map[int64]*domain.Plugin
	configs   map[int64]*domain.PluginConfig
	pipelines map[int64][]*domain.PluginConfig
}

// New returns an empty Registry over the given repository. Call Load before
// serving pipelines.
func New(repo repository.Repository) *Registry {
	return &Registry{
		repo:      repo,
		plugins:   map[int64]*domain.Plugin{},
		configs:   map[int64]*domain.PluginConfig{},
		pipelines: map[int64][]*domain.PluginConfig{},
	}
}

// Load snapshots plugins, configs, and attachments from the durable store
// and rebuilds the per-team pipelines. Attachments are attached to their
// owning config. Safe to call again to refresh.
func (r *Registry) Load(ctx context.Context) error {
	plugins, err := r.repo.ListPlugins(ctx)
	if err != nil {
		return err
	}
	configs, err := r.repo.ListPluginConfigs(ctx)
	if err != nil {
		return err
	}
	attachments, err := r.repo.ListAttachments(ctx)
	if err != nil {
		return err
	}

	pluginsByID := make(map[int64]*domain.Plugin, len(plugins))
	for _, p := range plugins {
		pluginsByID[p.ID] = p
	}
	configsByID := make(map[int64]*domain.PluginConfig, len(configs))
	for _, c := range configs {
		configsByID[c.ID] = c
	}
	for _, a := range attachments {
		if c, ok := configsByID[a.PluginConfigID]; ok {
			c.Attachments = append(c.Attachments, *a)
		}
	}

	pipelines := map[int64][]*domain.PluginConfig{}
	for _, c := range configs {
		pipelines[c.TeamID] = append(pipelines[c.TeamID], c)
	}
	for teamID := range pipelines {
		sortPipeline(pipelines[teamID])
	}

	r.mu.Lock()
	r.plugins = pluginsByID
	r.configs = configsByID
	r.pipelines = pipelines
	r.mu.Unlock()
	return nil
}

// sortPipeline orders configs by execution sequence: order asc, id asc.
func sortPipeline(configs []*domain.PluginConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Order != configs[j].Order {
			return configs[i].Order < configs[j].Order
		}
		return configs[i].ID < configs[j].ID
	})
}

// PipelineFor returns the team's enabled configs in execution order.
// The returned slice is a copy; the configs themselves are shared.
func (r *Registry) PipelineFor(teamID int64) []*domain.PluginConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pipeline := r.pipelines[teamID]
	out := make([]*domain.PluginConfig, len(pipeline))
	copy(out, pipeline)
	return out
}

// Plugin returns the plugin for id from the view.
func (r *Registry) Plugin(id int64) (*domain.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// RecordError writes the config's error state through to the store and
// mirrors it in the view. nil clears a previously recorded error.
func (r *Registry) RecordError(ctx context.Context, pluginConfigID int64, pluginErr *domain.PluginError) error {
	if err := r.repo.SetError(ctx, pluginConfigID, pluginErr); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.configs[pluginConfigID]; ok {
		c.Error = pluginErr
	}
	return nil
}

// Disable disables the config in the store (idempotently) and removes it
// from its team's pipeline view.
func (r *Registry) Disable(ctx context.Context, pluginConfigID int64) error {
	if err := r.repo.Disable(ctx, pluginConfigID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[pluginConfigID]
	if !ok {
		return nil
	}
	c.Enabled = false
	pipeline := r.pipelines[c.TeamID]
	for i, pc := range pipeline {
		if pc.ID == pluginConfigID {
			r.pipelines[c.TeamID] = append(pipeline[:i:i], pipeline[i+1:]...)
			break
		}
	}
	return nil
}

// RecordMetrics merges the delta into the referenced plugin's metrics,
// per-key overwrite, and writes it through to the store.
func (r *Registry) RecordMetrics(ctx context.Context, pluginConfigID int64, delta map[string]string) error {
	if err := r.repo.RecordMetrics(ctx, pluginConfigID, delta); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[pluginConfigID]
	if !ok {
		return nil
	}
	p, ok := r.plugins[c.PluginID]
	if !ok {
		return nil
	}
	if p.Metrics == nil {
		p.Metrics = map[string]string{}
	}
	for k, v := range delta {
		p.Metrics[k] = v
	}
	return nil
}
