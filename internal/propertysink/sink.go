// Package propertysink defines the interface for publishing discovered
// property definitions (e.g. to Kafka) for downstream schema consumers.
package propertysink

import (
	"context"

	"analytics-pipeline/ingestcore/internal/property"
)

// Definition is one discovered property: the team and key it was seen on plus
// the inferred type and format.
type Definition struct {
	TeamID    int64              `json:"team_id"`
	Key       string             `json:"key"`
	Inference property.Inference `json:"inference"`
}

// Sink publishes property definitions. Callers use it best-effort: log and ignore errors.
type Sink interface {
	// Emit sends a single definition. Implementations may block briefly; call from a goroutine if needed.
	// Returns an error only on write failure; callers typically log and ignore.
	Emit(ctx context.Context, def *Definition) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
