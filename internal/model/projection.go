package model

import "time"

// RiskLevel is the aggregate event classification. The French labels are the
// wire values consumed by the notification collaborator; do not translate.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "FAIBLE"
	RiskLevelMedium   RiskLevel = "MOYEN"
	RiskLevelHigh     RiskLevel = "ÉLEVÉ"
	RiskLevelCritical RiskLevel = "CRITIQUE"
)

// RiskLevelFor maps a 0-100 score to its aggregate level.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskLevelCritical
	case score >= 60:
		return RiskLevelHigh
	case score >= 40:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// CriticalityTier is the categorical criticality of an entity, independent of
// any specific event. Same label convention as RiskLevel: wire values stay
// French.
type CriticalityTier string

const (
	TierCritical   CriticalityTier = "critique"
	TierStrong     CriticalityTier = "fort"
	TierModerate   CriticalityTier = "moyen"
	TierWeak       CriticalityTier = "faible"
	TierNegligible CriticalityTier = "negligeable"
)

// CriticalityAssessment is the output of the criticality analyzer: an
// informational enrichment attached to each concerned projection.
type CriticalityAssessment struct {
	Tier        CriticalityTier `json:"tier"`
	Score       int             `json:"score"`
	Urgency     int             `json:"urgency"` // 1-5, 5 = sole supplier with no backup on a critical edge
	Mitigations []string        `json:"mitigations,omitempty"`
}

// ImpactLine is one line item of a business impact breakdown.
type ImpactLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// BusinessImpact is the financially-grounded daily impact of an interruption
// at one entity, with the line-item breakdown the report generator reads
// instead of re-deriving arithmetic.
type BusinessImpact struct {
	DailyRevenueLoss        float64      `json:"daily_revenue_loss"`
	CustomerPenaltiesPerDay float64      `json:"customer_penalties_per_day"`
	TotalDailyImpact        float64      `json:"total_daily_impact"`
	RevenueImpactPct        float64      `json:"revenue_impact_pct"`
	SwitchTimeDays          int          `json:"switch_time_days"`
	StockCoverageDays       float64      `json:"stock_coverage_days"`
	IsSoleSupplier          bool         `json:"is_sole_supplier"`
	AffectedCustomers       []string     `json:"affected_customers,omitempty"`
	Breakdown               []ImpactLine `json:"breakdown,omitempty"`

	// NoData marks the zero-impact fallback when no relationship data exists
	// for the entity. Aggregation must not be blocked by missing data.
	NoData bool `json:"no_data,omitempty"`
}

// Reasoning is the structured, auditable breakdown of how a projection was
// computed. It is machine-readable by design: the prose generator consumes
// these fields, it never re-derives them.
type Reasoning struct {
	Applicability     string                 `json:"applicability"`
	MatchedAxes       []string               `json:"matched_axes,omitempty"`
	SeverityBasis     string                 `json:"severity_basis,omitempty"`
	ProbabilityBasis  string                 `json:"probability_basis,omitempty"`
	ExposureBasis     string                 `json:"exposure_basis,omitempty"`
	UrgencyBasis      string                 `json:"urgency_basis,omitempty"`
	Formula           string                 `json:"formula,omitempty"`
	Substituted       string                 `json:"substituted,omitempty"`
	WeatherAdjustment string                 `json:"weather_adjustment,omitempty"`
	Criticality       *CriticalityAssessment `json:"criticality,omitempty"`
}

// Projection is the per-entity, per-event output of the engine. When
// IsConcerned is false every score is exactly zero and BusinessImpact is nil.
type Projection struct {
	EventID    string     `json:"event_id"`
	EntityID   string     `json:"entity_id"`
	EntityName string     `json:"entity_name"`
	EntityKind EntityKind `json:"entity_kind"`

	IsConcerned bool `json:"is_concerned"`

	Severity    float64 `json:"severity"`
	Probability float64 `json:"probability"`
	Exposure    float64 `json:"exposure"`
	Urgency     float64 `json:"urgency"`

	RiskScore360              float64 `json:"risk_score_360"`
	WeatherRiskScore          float64 `json:"weather_risk_score"`
	BusinessInterruptionScore float64 `json:"business_interruption_score"`

	BusinessImpact          *BusinessImpact `json:"business_impact,omitempty"`
	EstimatedDisruptionDays int             `json:"estimated_disruption_days"`

	Reasoning Reasoning `json:"reasoning"`

	// ComputedAt is metadata only; equality checks exclude it.
	ComputedAt time.Time `json:"computed_at"`
}

// WeatherSummary rolls up weather risk across all concerned entities.
type WeatherSummary struct {
	EntitiesWithAlerts int            `json:"entities_with_alerts"`
	TotalAlerts        int            `json:"total_alerts"`
	MaxSeverity        AlertSeverity  `json:"max_severity,omitempty"`
	ScoreSum           float64        `json:"score_sum"`
	ScoreAvg           float64        `json:"score_avg"`
	AlertsByType       map[string]int `json:"alerts_by_type,omitempty"`
}

// EventRiskSummary is the event-level rollup over all projections. Rollups
// are max-based: one catastrophic entity must not be diluted by averages.
type EventRiskSummary struct {
	EventID string `json:"event_id"`

	OverallRiskLevel          RiskLevel `json:"overall_risk_level"`
	OverallRiskScore360       float64   `json:"overall_risk_score_360"`
	BusinessInterruptionScore float64   `json:"business_interruption_score"`
	MaxProbability            float64   `json:"max_probability"`
	MaxExposure               float64   `json:"max_exposure"`

	Weather WeatherSummary `json:"weather_summary"`

	AffectedSites     []string `json:"affected_sites"`
	AffectedSuppliers []string `json:"affected_suppliers"`
	ConcernedCount    int      `json:"concerned_count"`
	SkippedEntities   int      `json:"skipped_entities"`

	// InvalidEventType flags a caller error: the event type was not one of
	// the known types, so no entity could be concerned.
	InvalidEventType bool `json:"invalid_event_type,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}
