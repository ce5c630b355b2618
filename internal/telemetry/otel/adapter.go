package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"analytics-pipeline/ingestcore/internal/telemetry"
	"analytics-pipeline/ingestcore/internal/telemetry/domain"
)

// recordLogger is the subset of otellog.Logger the emitter needs; tests
// substitute a capture implementation.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("ingestcore.telemetry")}
}

// NewEventEmitterWithLogger returns an EventEmitter over an explicit record logger.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.IngestionEvent) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the ingestion event to an OTel log record and emits it. Best-effort; errors are logged.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.IngestionEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	}
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	if event.TeamID != 0 {
		rec.AddAttributes(otellog.Int64("team_id", event.TeamID))
	}
	if event.EventType != "" {
		rec.AddAttributes(otellog.String("event_type", event.EventType))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	e.logger.Emit(ctx, rec)
	return nil
}
