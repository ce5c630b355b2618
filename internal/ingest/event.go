// Package ingest processes inbound analytics events: property type
// discovery, elements-chain storage, and per-team plugin pipeline execution.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"analytics-pipeline/ingestcore/internal/elements/domain"
)

// ErrInvalidEvent is returned when an inbound event fails validation.
var ErrInvalidEvent = errors.New("invalid ingestion event")

// Event is one inbound analytics event as consumed from the events topic.
// Elements is present only for autocapture events.
type Event struct {
	TeamID     int64            `json:"team_id"`
	Event      string           `json:"event"`
	Properties map[string]any   `json:"properties"`
	Elements   []domain.Element `json:"elements,omitempty"`
}

// DecodeEvent parses a raw Kafka message payload into an Event. Numbers are
// decoded as json.Number so large and fractional values keep their exact
// decimal form for type classification.
func DecodeEvent(payload []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var ev Event
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.TeamID <= 0 {
		return nil, fmt.Errorf("%w: team_id must be positive", ErrInvalidEvent)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidEvent)
	}
	return &ev, nil
}
