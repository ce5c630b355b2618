package telemetry

import (
	"context"

	"analytics-pipeline/ingestcore/internal/telemetry/domain"
)

// EventEmitter emits ingestion events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.IngestionEvent) error
}
