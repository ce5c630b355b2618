package domain

import "time"

// IngestionEvent represents an operational event from the ingestion pipeline
// (team-scoped, e.g. plugin failures, cache population, property discovery).
type IngestionEvent struct {
	TeamID    int64
	EventType string
	Source    string
	Metadata  []byte // JSON
	CreatedAt time.Time
}
