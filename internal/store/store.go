package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
)

// ErrNotFound is returned by Get operations when no row matches. Both
// drivers wrap their no-rows condition with it so callers can branch
// without knowing the backend.
var ErrNotFound = eris.New("store: not found")

// EventFilter specifies criteria for listing events.
type EventFilter struct {
	Type   model.EventType `json:"type,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	EventID string          `json:"event_id,omitempty"`
	Level   model.RiskLevel `json:"level,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the risk engine.
type Store interface {
	// Events
	SaveEvent(ctx context.Context, event model.Event) error
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)

	// Entity graph
	SaveGraph(ctx context.Context, sites []model.Site, suppliers []model.Supplier, rels []model.Relationship) error
	ListSites(ctx context.Context) ([]model.Site, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	ListRelationships(ctx context.Context) ([]model.Relationship, error)

	// Analyses
	SaveAnalysis(ctx context.Context, summary model.EventRiskSummary, projections []model.Projection) (*model.Analysis, error)
	GetAnalysis(ctx context.Context, eventID string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LoadGraph assembles a normalized graph snapshot from any Store.
func LoadGraph(ctx context.Context, s Store) (*graph.Graph, error) {
	sites, err := s.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := s.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}
	return graph.New(sites, suppliers, rels), nil
}
