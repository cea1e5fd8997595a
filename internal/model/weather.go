package model

// AlertSeverity grades a meteorological alert.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Rank orders severities for max-based rollups. Unknown severities rank
// below low so they never win a comparison.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// MaxSeverity returns the higher-ranked of two severities.
func MaxSeverity(a, b AlertSeverity) AlertSeverity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// WeatherRisk is the forecast-derived risk snapshot for one entity over the
// forecast horizon. It is event-agnostic: the prefetch collaborator computes
// it once per entity and the engine only reads it.
type WeatherRisk struct {
	EntityID     string         `json:"entity_id"`
	HasRisk      bool           `json:"has_risk"`
	RiskScore    float64        `json:"risk_score"` // 0-100
	MaxSeverity  AlertSeverity  `json:"max_severity,omitempty"`
	AlertsByType map[string]int `json:"alerts_by_type,omitempty"`
	AlertsCount  int            `json:"alerts_count"`
}
