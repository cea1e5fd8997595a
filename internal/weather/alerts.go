package weather

import (
	"fmt"

	"github.com/sells-group/risk-engine/internal/model"
)

// DailyForecast is one day of forecast data for a coordinate.
type DailyForecast struct {
	Day             string // YYYY-MM-DD
	PrecipitationMM float64
	WindSpeedMaxKMH float64
	SnowfallCM      float64
	TemperatureMaxC float64
	TemperatureMinC float64
}

// Alert derivation thresholds. Tuned against Météo-France vigilance bands;
// a day can emit several alert types.
const (
	rainLowMM      = 10.0
	rainMediumMM   = 25.0
	rainHighMM     = 50.0
	rainCriticalMM = 80.0

	windMediumKMH   = 60.0
	windHighKMH     = 75.0
	windCriticalKMH = 100.0

	stormWindKMH = 90.0
	stormRainMM  = 20.0

	snowMediumCM = 5.0
	snowHighCM   = 15.0

	heatMediumC = 35.0
	heatHighC   = 40.0

	frostMediumC = -5.0
	frostHighC   = -10.0
)

// DeriveAlerts converts daily forecast rows into typed alerts.
func DeriveAlerts(days []DailyForecast) []Alert {
	var alerts []Alert
	for _, d := range days {
		alerts = append(alerts, deriveDay(d)...)
	}
	return alerts
}

func deriveDay(d DailyForecast) []Alert {
	var out []Alert

	// Combined high wind and rain reads as a storm; the individual wind and
	// rain alerts are suppressed for that day to avoid double counting.
	if d.WindSpeedMaxKMH >= stormWindKMH && d.PrecipitationMM >= stormRainMM {
		sev := model.SeverityHigh
		if d.WindSpeedMaxKMH >= windCriticalKMH || d.PrecipitationMM >= rainCriticalMM {
			sev = model.SeverityCritical
		}
		out = append(out, Alert{
			Type:     AlertStorm,
			Severity: sev,
			Day:      d.Day,
			Detail:   fmt.Sprintf("wind %.0f km/h with %.0f mm rain", d.WindSpeedMaxKMH, d.PrecipitationMM),
		})
	} else {
		if sev, ok := rainSeverity(d.PrecipitationMM); ok {
			out = append(out, Alert{
				Type:     AlertHeavyRain,
				Severity: sev,
				Day:      d.Day,
				Detail:   fmt.Sprintf("%.0f mm precipitation", d.PrecipitationMM),
			})
		}
		if sev, ok := windSeverity(d.WindSpeedMaxKMH); ok {
			out = append(out, Alert{
				Type:     AlertWind,
				Severity: sev,
				Day:      d.Day,
				Detail:   fmt.Sprintf("wind %.0f km/h", d.WindSpeedMaxKMH),
			})
		}
	}

	switch {
	case d.SnowfallCM >= snowHighCM:
		out = append(out, Alert{Type: AlertSnow, Severity: model.SeverityHigh, Day: d.Day,
			Detail: fmt.Sprintf("%.0f cm snowfall", d.SnowfallCM)})
	case d.SnowfallCM >= snowMediumCM:
		out = append(out, Alert{Type: AlertSnow, Severity: model.SeverityMedium, Day: d.Day,
			Detail: fmt.Sprintf("%.0f cm snowfall", d.SnowfallCM)})
	}

	switch {
	case d.TemperatureMaxC >= heatHighC:
		out = append(out, Alert{Type: AlertHeatWave, Severity: model.SeverityHigh, Day: d.Day,
			Detail: fmt.Sprintf("max %.0f°C", d.TemperatureMaxC)})
	case d.TemperatureMaxC >= heatMediumC:
		out = append(out, Alert{Type: AlertHeatWave, Severity: model.SeverityMedium, Day: d.Day,
			Detail: fmt.Sprintf("max %.0f°C", d.TemperatureMaxC)})
	}

	switch {
	case d.TemperatureMinC <= frostHighC:
		out = append(out, Alert{Type: AlertFrost, Severity: model.SeverityHigh, Day: d.Day,
			Detail: fmt.Sprintf("min %.0f°C", d.TemperatureMinC)})
	case d.TemperatureMinC <= frostMediumC:
		out = append(out, Alert{Type: AlertFrost, Severity: model.SeverityMedium, Day: d.Day,
			Detail: fmt.Sprintf("min %.0f°C", d.TemperatureMinC)})
	}

	return out
}

func rainSeverity(mm float64) (model.AlertSeverity, bool) {
	switch {
	case mm >= rainCriticalMM:
		return model.SeverityCritical, true
	case mm >= rainHighMM:
		return model.SeverityHigh, true
	case mm >= rainMediumMM:
		return model.SeverityMedium, true
	case mm >= rainLowMM:
		return model.SeverityLow, true
	default:
		return "", false
	}
}

func windSeverity(kmh float64) (model.AlertSeverity, bool) {
	switch {
	case kmh >= windCriticalKMH:
		return model.SeverityCritical, true
	case kmh >= windHighKMH:
		return model.SeverityHigh, true
	case kmh >= windMediumKMH:
		return model.SeverityMedium, true
	default:
		return "", false
	}
}
