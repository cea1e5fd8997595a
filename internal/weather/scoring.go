// Package weather converts forecast-derived alerts into per-entity risk
// scores and overlays a weather adjustment on the 360° composite. Scoring is
// pure; the forecast prefetch collaborator in client.go performs all I/O
// before the engine runs.
package weather

import (
	"fmt"

	"github.com/sells-group/risk-engine/internal/model"
)

// AlertType names a meteorological alert family.
type AlertType string

const (
	AlertStorm     AlertType = "storm"
	AlertHeavyRain AlertType = "heavy_rain"
	AlertSnow      AlertType = "snow"
	AlertHeatWave  AlertType = "heat_wave"
	AlertFrost     AlertType = "frost"
	AlertWind      AlertType = "wind"
)

// Alert is one typed alert derived from the forecast for a single day.
type Alert struct {
	Type     AlertType           `json:"type"`
	Severity model.AlertSeverity `json:"severity"`
	Day      string              `json:"day"` // YYYY-MM-DD
	Detail   string              `json:"detail,omitempty"`
}

// severityWeights is the default severity weighting.
var severityWeights = map[model.AlertSeverity]float64{
	model.SeverityCritical: 1.0,
	model.SeverityHigh:     0.8,
	model.SeverityMedium:   0.5,
	model.SeverityLow:      0.2,
}

// stormSeverityWeights applies to storm alerts, which escalate faster.
var stormSeverityWeights = map[model.AlertSeverity]float64{
	model.SeverityCritical: 1.0,
	model.SeverityHigh:     0.9,
	model.SeverityMedium:   0.6,
	model.SeverityLow:      0.3,
}

// transportFactors and productionFactors rate how strongly each alert type
// disrupts logistics and on-site production respectively, on a 0-1 scale.
var transportFactors = map[AlertType]float64{
	AlertStorm:     0.9,
	AlertSnow:      0.8,
	AlertWind:      0.7,
	AlertHeavyRain: 0.6,
	AlertFrost:     0.5,
	AlertHeatWave:  0.3,
}

var productionFactors = map[AlertType]float64{
	AlertStorm:     0.7,
	AlertHeatWave:  0.6,
	AlertSnow:      0.5,
	AlertHeavyRain: 0.4,
	AlertFrost:     0.4,
	AlertWind:      0.3,
}

// severityWeight returns the weight for an alert, using the storm table for
// storm alerts and the default table otherwise.
func severityWeight(typ AlertType, sev model.AlertSeverity) float64 {
	if typ == AlertStorm {
		if w, ok := stormSeverityWeights[sev]; ok {
			return w
		}
	}
	if w, ok := severityWeights[sev]; ok {
		return w
	}
	return 0
}

// Score folds a set of alerts into the entity's WeatherRisk:
//
//	min(100, base + severity_component + impact_component)
//
// where base = min(30, 10*alert_count), severity_component weights the
// highest severity observed, and impact_component combines the worst
// transport and production sub-risks.
func Score(entityID string, alerts []Alert) model.WeatherRisk {
	wr := model.WeatherRisk{EntityID: entityID}
	if len(alerts) == 0 {
		return wr
	}

	wr.HasRisk = true
	wr.AlertsCount = len(alerts)
	wr.AlertsByType = make(map[string]int, len(alerts))

	var maxAlert Alert
	var transportRisk, productionRisk float64
	for _, a := range alerts {
		wr.AlertsByType[string(a.Type)]++
		if a.Severity.Rank() > maxAlert.Severity.Rank() {
			maxAlert = a
		}
		w := severityWeight(a.Type, a.Severity)
		if tr := transportFactors[a.Type] * w; tr > transportRisk {
			transportRisk = tr
		}
		if pr := productionFactors[a.Type] * w; pr > productionRisk {
			productionRisk = pr
		}
	}
	wr.MaxSeverity = maxAlert.Severity

	base := 10.0 * float64(len(alerts))
	if base > 30 {
		base = 30
	}
	severityComponent := severityWeight(maxAlert.Type, maxAlert.Severity) * 50
	impactComponent := (transportRisk + productionRisk) * 10

	score := base + severityComponent + impactComponent
	if score > 100 {
		score = 100
	}
	wr.RiskScore = score
	return wr
}

// adjustmentCoefficients scale how much of the weather score bleeds into the
// 360° composite, by max severity.
var adjustmentCoefficients = map[model.AlertSeverity]float64{
	model.SeverityCritical: 0.25,
	model.SeverityHigh:     0.15,
	model.SeverityMedium:   0.08,
	model.SeverityLow:      0.03,
}

const defaultAdjustmentCoefficient = 0.05

// Adjust overlays the weather risk on a base 360° score. The addition is
// (weather_score/100) * coefficient * 100, clamped to 100. The returned
// reason string is the audit trail for the projection's reasoning block.
func Adjust(base360 float64, wr model.WeatherRisk) (float64, string) {
	if !wr.HasRisk || wr.RiskScore <= 0 {
		return base360, ""
	}

	coef, ok := adjustmentCoefficients[wr.MaxSeverity]
	if !ok {
		coef = defaultAdjustmentCoefficient
	}

	delta := (wr.RiskScore / 100.0) * coef * 100.0
	adjusted := base360 + delta
	if adjusted > 100 {
		adjusted = 100
	}

	reason := fmt.Sprintf("weather risk %.1f (%s, %d alerts): +%.1f points",
		wr.RiskScore, wr.MaxSeverity, wr.AlertsCount, delta)
	return adjusted, reason
}
