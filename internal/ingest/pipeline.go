package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	elemdomain "analytics-pipeline/ingestcore/internal/elements/domain"
	plugindomain "analytics-pipeline/ingestcore/internal/plugin/domain"
	"analytics-pipeline/ingestcore/internal/property"
	"analytics-pipeline/ingestcore/internal/propertysink"
	"analytics-pipeline/ingestcore/internal/telemetry"
	telemetrydomain "analytics-pipeline/ingestcore/internal/telemetry/domain"
)

// elementsHashProperty is stamped on autocapture events after their chain is
// stored, so downstream consumers carry the reference instead of the chain.
const elementsHashProperty = "$elements_hash"

// Runner executes one plugin config against one event. Plugin execution
// itself lives outside this package; the pipeline only sequences calls and
// records outcomes.
type Runner interface {
	Run(ctx context.Context, cfg *plugindomain.PluginConfig, event *Event) error
}

// ElementsStore is the slice of the elements cache the pipeline needs.
type ElementsStore interface {
	Store(ctx context.Context, teamID int64, chain []elemdomain.Element) (string, error)
}

// RegistryView is the slice of the plugin registry the pipeline needs.
type RegistryView interface {
	PipelineFor(teamID int64) []*plugindomain.PluginConfig
	RecordError(ctx context.Context, pluginConfigID int64, pluginErr *plugindomain.PluginError) error
}

// Pipeline processes events end to end. sink, emitter, and elements may be
// nil; the corresponding step is skipped.
type Pipeline struct {
	sink        propertysink.Sink
	elements    ElementsStore
	registry    RegistryView
	runner      Runner
	emitter     telemetry.EventEmitter
	callTimeout time.Duration
}

// NewPipeline wires a Pipeline. callTimeout bounds each store, cache, and
// runner call; zero disables the bound.
func NewPipeline(sink propertysink.Sink, elements ElementsStore, registry RegistryView, runner Runner, emitter telemetry.EventEmitter, callTimeout time.Duration) *Pipeline {
	return &Pipeline{
		sink:        sink,
		elements:    elements,
		registry:    registry,
		runner:      runner,
		emitter:     emitter,
		callTimeout: callTimeout,
	}
}

// Process runs one event through property discovery, elements storage, and
// the team's plugin pipeline. A plugin failure is recorded on its config and
// does not stop the remaining configs; an elements storage failure aborts the
// event so the consumer can retry it.
func (p *Pipeline) Process(ctx context.Context, ev *Event) error {
	p.discoverProperties(ctx, ev)

	if len(ev.Elements) > 0 && p.elements != nil {
		storeCtx, cancel := p.callContext(ctx)
		hash, err := p.elements.Store(storeCtx, ev.TeamID, ev.Elements)
		cancel()
		if err != nil {
			return fmt.Errorf("store elements chain: %w", err)
		}
		if ev.Properties == nil {
			ev.Properties = map[string]any{}
		}
		ev.Properties[elementsHashProperty] = hash
	}

	for _, cfg := range p.registry.PipelineFor(ev.TeamID) {
		runCtx, cancel := p.callContext(ctx)
		err := p.runner.Run(runCtx, cfg, ev)
		cancel()
		if err != nil {
			p.recordFailure(ctx, cfg, ev, err)
			continue
		}
		if cfg.Error != nil {
			if clearErr := p.registry.RecordError(ctx, cfg.ID, nil); clearErr != nil {
				log.Printf("ingest: clear error for config %d: %v", cfg.ID, clearErr)
			}
		}
	}
	return nil
}

// discoverProperties classifies every event property and publishes the
// inferences that produced a type. Best-effort; sink failures are logged.
func (p *Pipeline) discoverProperties(ctx context.Context, ev *Event) {
	if p.sink == nil {
		return
	}
	for key, value := range ev.Properties {
		inf := property.Classify(value, key)
		if inf.Type == nil {
			continue
		}
		def := &propertysink.Definition{TeamID: ev.TeamID, Key: key, Inference: inf}
		if err := p.sink.Emit(ctx, def); err != nil {
			log.Printf("ingest: emit property definition %q: %v", key, err)
		}
	}
}

// recordFailure writes the runner error verbatim onto the config and emits a
// telemetry event for it.
func (p *Pipeline) recordFailure(ctx context.Context, cfg *plugindomain.PluginConfig, ev *Event, runErr error) {
	pluginErr := &plugindomain.PluginError{
		Message: runErr.Error(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.registry.RecordError(ctx, cfg.ID, pluginErr); err != nil {
		log.Printf("ingest: record error for config %d: %v", cfg.ID, err)
	}

	metadata, _ := json.Marshal(map[string]any{
		"plugin_config_id": cfg.ID,
		"event":            ev.Event,
		"message":          pluginErr.Message,
	})
	telemetry.EmitAsync(p.emitter, ctx, &telemetrydomain.IngestionEvent{
		TeamID:    ev.TeamID,
		EventType: "plugin_error",
		Source:    "ingest",
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.callTimeout)
}
