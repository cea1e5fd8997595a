package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/risk-engine/internal/model"
)

func TestScore_NoAlerts(t *testing.T) {
	wr := Score("site-1", nil)
	assert.False(t, wr.HasRisk)
	assert.Equal(t, 0.0, wr.RiskScore)
	assert.Equal(t, 0, wr.AlertsCount)
}

func TestScore_SingleLowAlert(t *testing.T) {
	wr := Score("site-1", []Alert{
		{Type: AlertHeavyRain, Severity: model.SeverityLow, Day: "2026-09-02"},
	})
	assert.True(t, wr.HasRisk)
	assert.Equal(t, 1, wr.AlertsCount)
	assert.Equal(t, model.SeverityLow, wr.MaxSeverity)
	// base 10 + severity 0.2*50=10 + impact (0.6*0.2 + 0.4*0.2)*10 = 2 -> 22
	assert.InDelta(t, 22, wr.RiskScore, 0.01)
}

func TestScore_StormUsesStormWeights(t *testing.T) {
	wr := Score("site-1", []Alert{
		{Type: AlertStorm, Severity: model.SeverityHigh, Day: "2026-09-02"},
	})
	// base 10 + severity 0.9*50=45 + impact (0.9*0.9 + 0.7*0.9)*10 = 14.4 -> 69.4
	assert.InDelta(t, 69.4, wr.RiskScore, 0.01)
	assert.Equal(t, model.SeverityHigh, wr.MaxSeverity)
}

func TestScore_BaseCapsAtThirty(t *testing.T) {
	alerts := make([]Alert, 6)
	for i := range alerts {
		alerts[i] = Alert{Type: AlertFrost, Severity: model.SeverityMedium}
	}
	wr := Score("site-1", alerts)
	// base capped at 30 + severity 0.5*50=25 + impact (0.5*0.5 + 0.4*0.5)*10 = 4.5 -> 59.5
	assert.InDelta(t, 59.5, wr.RiskScore, 0.01)
	assert.Equal(t, 6, wr.AlertsCount)
	assert.Equal(t, 6, wr.AlertsByType[string(AlertFrost)])
}

func TestScore_WorstCaseSaturation(t *testing.T) {
	alerts := []Alert{
		{Type: AlertStorm, Severity: model.SeverityCritical},
		{Type: AlertHeavyRain, Severity: model.SeverityCritical},
		{Type: AlertSnow, Severity: model.SeverityHigh},
		{Type: AlertWind, Severity: model.SeverityCritical},
	}
	wr := Score("site-1", alerts)
	// base min(30, 4*10)=30 + severity 1.0*50=50 + impact (0.9+0.7)*10=16 -> 96.
	// Sub-risks take the per-alert max, so 96 is the ceiling for any alert set.
	assert.InDelta(t, 96.0, wr.RiskScore, 0.01)
	assert.Equal(t, model.SeverityCritical, wr.MaxSeverity)
}

func TestAdjust_NoRiskIsIdentity(t *testing.T) {
	adjusted, reason := Adjust(64.5, model.WeatherRisk{})
	assert.Equal(t, 64.5, adjusted)
	assert.Empty(t, reason)
}

func TestAdjust_CriticalSeverity(t *testing.T) {
	wr := model.WeatherRisk{
		HasRisk:     true,
		RiskScore:   80,
		MaxSeverity: model.SeverityCritical,
		AlertsCount: 4,
	}
	adjusted, reason := Adjust(60, wr)
	// delta = (80/100) * 0.25 * 100 = 20
	assert.InDelta(t, 80, adjusted, 0.01)
	assert.Contains(t, reason, "+20.0 points")
}

func TestAdjust_UnknownSeverityUsesDefaultCoefficient(t *testing.T) {
	wr := model.WeatherRisk{HasRisk: true, RiskScore: 50, MaxSeverity: "weird"}
	adjusted, _ := Adjust(60, wr)
	// delta = (50/100) * 0.05 * 100 = 2.5
	assert.InDelta(t, 62.5, adjusted, 0.01)
}

func TestAdjust_ClampsAtHundred(t *testing.T) {
	wr := model.WeatherRisk{HasRisk: true, RiskScore: 100, MaxSeverity: model.SeverityCritical}
	adjusted, _ := Adjust(95, wr)
	assert.Equal(t, 100.0, adjusted)
}

func TestDeriveAlerts_StormSuppressesWindAndRain(t *testing.T) {
	alerts := DeriveAlerts([]DailyForecast{
		{Day: "2026-09-02", PrecipitationMM: 60, WindSpeedMaxKMH: 95},
	})
	assert.Len(t, alerts, 1)
	assert.Equal(t, AlertStorm, alerts[0].Type)
	assert.Equal(t, model.SeverityHigh, alerts[0].Severity)
}

func TestDeriveAlerts_CriticalStorm(t *testing.T) {
	alerts := DeriveAlerts([]DailyForecast{
		{Day: "2026-09-02", PrecipitationMM: 30, WindSpeedMaxKMH: 110},
	})
	assert.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
}

func TestDeriveAlerts_IndependentAxes(t *testing.T) {
	alerts := DeriveAlerts([]DailyForecast{
		{Day: "2026-09-02", PrecipitationMM: 30, SnowfallCM: 20, TemperatureMinC: -12},
	})
	types := map[AlertType]model.AlertSeverity{}
	for _, a := range alerts {
		types[a.Type] = a.Severity
	}
	assert.Equal(t, model.SeverityMedium, types[AlertHeavyRain])
	assert.Equal(t, model.SeverityHigh, types[AlertSnow])
	assert.Equal(t, model.SeverityHigh, types[AlertFrost])
}

func TestDeriveAlerts_QuietDay(t *testing.T) {
	alerts := DeriveAlerts([]DailyForecast{
		{Day: "2026-09-02", PrecipitationMM: 2, WindSpeedMaxKMH: 20, TemperatureMaxC: 24, TemperatureMinC: 12},
	})
	assert.Empty(t, alerts)
}
