package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"analytics-pipeline/ingestcore/internal/plugin/domain"
)

// memRepo is an in-memory plugin repository mirroring the Postgres semantics:
// conditional disable, single-column error update, per-key metric overwrite,
// team opt-in filtering.
type memRepo struct {
	mu          sync.Mutex
	plugins     map[int64]*domain.Plugin
	configs     map[int64]*domain.PluginConfig
	attachments []*domain.PluginAttachment
	teamOptIn   map[int64]bool
	failAll     error
}

func newMemRepo() *memRepo {
	return &memRepo{
		plugins:   map[int64]*domain.Plugin{},
		configs:   map[int64]*domain.PluginConfig{},
		teamOptIn: map[int64]bool{},
	}
}

func (r *memRepo) ListPlugins(ctx context.Context) ([]*domain.Plugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]*domain.Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		cp := *p
		cp.Metrics = map[string]string{}
		for k, v := range p.Metrics {
			cp.Metrics[k] = v
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) ListPluginConfigs(ctx context.Context) ([]*domain.PluginConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*domain.PluginConfig
	for _, c := range r.configs {
		if c.Enabled && r.teamOptIn[c.TeamID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) ListAttachments(ctx context.Context) ([]*domain.PluginAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []*domain.PluginAttachment
	for _, a := range r.attachments {
		if r.teamOptIn[a.TeamID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) SetError(ctx context.Context, id int64, pluginErr *domain.PluginError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if c, ok := r.configs[id]; ok {
		c.Error = pluginErr
	}
	return nil
}

func (r *memRepo) Disable(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if c, ok := r.configs[id]; ok && c.Enabled {
		c.Enabled = false
	}
	return nil
}

func (r *memRepo) RecordMetrics(ctx context.Context, id int64, delta map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	c, ok := r.configs[id]
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

func seedRepo() *memRepo {
	repo := newMemRepo()
	repo.teamOptIn[2] = true
	repo.teamOptIn[3] = false
	repo.plugins[60] = &domain.Plugin{
		ID:             60,
		Name:           "geoip-enricher",
		PluginType:     domain.PluginTypeCustom,
		OrganizationID: uuid.New(),
		Metrics:        map[string]string{},
	}
	repo.configs[39] = &domain.PluginConfig{ID: 39, PluginID: 60, TeamID: 2, Enabled: true, Order: 0}
	repo.configs[40] = &domain.PluginConfig{ID: 40, PluginID: 60, TeamID: 2, Enabled: true, Order: 2}
	repo.configs[41] = &domain.PluginConfig{ID: 41, PluginID: 60, TeamID: 2, Enabled: true, Order: 1}
	repo.configs[42] = &domain.PluginConfig{ID: 42, PluginID: 60, TeamID: 2, Enabled: true, Order: 1}
	repo.configs[50] = &domain.PluginConfig{ID: 50, PluginID: 60, TeamID: 3, Enabled: true, Order: 0}
	repo.configs[51] = &domain.PluginConfig{ID: 51, PluginID: 60, TeamID: 2, Enabled: false, Order: 0}
	repo.attachments = []*domain.PluginAttachment{
		{ID: 7, PluginConfigID: 39, TeamID: 2, Key: "mmdb", FileName: "geo.mmdb", FileSize: 4, ContentType: "application/octet-stream", Contents: []byte("test")},
		{ID: 8, PluginConfigID: 50, TeamID: 3, Key: "other", FileName: "x", FileSize: 1, ContentType: "text/plain", Contents: []byte("x")},
	}
	return repo
}

func TestLoad_PipelineOrderAndFiltering(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	pipeline := reg.PipelineFor(2)
	wantIDs := []int64{39, 41, 42, 40} // order asc, ties by id asc
	if len(pipeline) != len(wantIDs) {
		t.Fatalf("pipeline length = %d, want %d", len(pipeline), len(wantIDs))
	}
	for i, want := range wantIDs {
		if pipeline[i].ID != want {
			t.Errorf("pipeline[%d].ID = %d, want %d", i, pipeline[i].ID, want)
		}
	}

	// Team 3 is opted out; its configs must not appear even though the rows exist.
	if got := reg.PipelineFor(3); len(got) != 0 {
		t.Errorf("opted-out team pipeline length = %d, want 0", len(got))
	}
}

func TestLoad_AttachmentsJoinedToConfigs(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	pipeline := reg.PipelineFor(2)
	if len(pipeline) == 0 {
		t.Fatal("empty pipeline")
	}
	cfg := pipeline[0]
	if len(cfg.Attachments) != 1 {
		t.Fatalf("config 39 attachments = %d, want 1", len(cfg.Attachments))
	}
	a := cfg.Attachments[0]
	if a.Key != "mmdb" || string(a.Contents) != "test" {
		t.Errorf("attachment = %+v, want key mmdb contents 'test'", a)
	}
}

func TestDisable_RemovesFromPipelineAndIsIdempotent(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := reg.Disable(ctx, 39); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	for _, c := range reg.PipelineFor(2) {
		if c.ID == 39 {
			t.Error("disabled config still in pipeline")
		}
	}
	if repo.configs[39].Enabled {
		t.Error("store row still enabled")
	}

	// Disabling again is a no-op, not an error.
	if err := reg.Disable(ctx, 39); err != nil {
		t.Fatalf("Disable (second): %v", err)
	}
}

func TestRecordError_SetAndClear(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	perr := &domain.PluginError{Message: "error happened", Time: "now"}
	if err := reg.RecordError(ctx, 39, perr); err != nil {
		t.Fatalf("RecordError: %v", err)
	}
	if repo.configs[39].Error == nil || repo.configs[39].Error.Message != "error happened" {
		t.Errorf("store error = %+v, want recorded verbatim", repo.configs[39].Error)
	}

	if err := reg.RecordError(ctx, 39, nil); err != nil {
		t.Fatalf("RecordError clear: %v", err)
	}
	if repo.configs[39].Error != nil {
		t.Errorf("store error = %+v, want cleared", repo.configs[39].Error)
	}
}

func TestRecordMetrics_OverwritePerKey(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := reg.RecordMetrics(ctx, 39, map[string]string{"m": "sum", "events": "sum"}); err != nil {
		t.Fatalf("RecordMetrics: %v", err)
	}
	if err := reg.RecordMetrics(ctx, 39, map[string]string{"m": "max"}); err != nil {
		t.Fatalf("RecordMetrics (second): %v", err)
	}

	p, ok := reg.Plugin(60)
	if !ok {
		t.Fatal("plugin 60 not in view")
	}
	if p.Metrics["m"] != "max" {
		t.Errorf(`metrics["m"] = %q, want "max" (overwrite, not merge-accumulate)`, p.Metrics["m"])
	}
	if p.Metrics["events"] != "sum" {
		t.Errorf(`metrics["events"] = %q, want "sum" (other keys preserved)`, p.Metrics["events"])
	}
	if repo.plugins[60].Metrics["m"] != "max" {
		t.Errorf("store metrics not written through: %+v", repo.plugins[60].Metrics)
	}
}

func TestMutations_SurfaceStoreErrors(t *testing.T) {
	repo := seedRepo()
	reg := New(repo)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	storeErr := errors.New("durable store down")
	repo.failAll = storeErr

	if err := reg.Disable(ctx, 39); !errors.Is(err, storeErr) {
		t.Errorf("Disable error = %v, want store error surfaced", err)
	}
	if err := reg.RecordError(ctx, 39, nil); !errors.Is(err, storeErr) {
		t.Errorf("RecordError error = %v, want store error surfaced", err)
	}
	if err := reg.RecordMetrics(ctx, 39, map[string]string{"m": "sum"}); !errors.Is(err, storeErr) {
		t.Errorf("RecordMetrics error = %v, want store error surfaced", err)
	}
	if err := reg.Load(ctx); !errors.Is(err, storeErr) {
		t.Errorf("Load error = %v, want store error surfaced", err)
	}
}
