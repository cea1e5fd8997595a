package model

import "time"

// Analysis is one persisted projection run: the event-level summary plus the
// per-entity projections it rolled up. Projections are omitted by list
// endpoints and loaded on demand.
type Analysis struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	Summary     EventRiskSummary `json:"summary"`
	Projections []Projection     `json:"projections,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
