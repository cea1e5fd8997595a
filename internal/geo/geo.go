// Package geo provides great-circle distance and distance-band classification
// for climatic event applicability and probability scaling.
package geo

import (
	"math"

	"github.com/sells-group/risk-engine/internal/model"
)

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// Distance band thresholds (kilometers).
const (
	bandCriticalKM  = 10.0
	bandStrongKM    = 50.0
	bandModerateKM  = 100.0
	bandWeakKM      = 200.0
	ConcernRadiusKM = 200.0 // climatic is-concerned gate
)

// Haversine returns the great-circle distance in kilometers between two
// points. Antipodal coincidence can lose precision at floating-point edge
// cases; the asin argument is clamped so the result stays finite.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180.0

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	if a > 1 {
		a = 1
	}
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// ImpactBand classifies a distance into a criticality tier.
// Rules:
//   - critique: <= 10 km
//   - fort: <= 50 km
//   - moyen: <= 100 km
//   - faible: <= 200 km
//   - negligeable: beyond 200 km
func ImpactBand(km float64) model.CriticalityTier {
	switch {
	case km <= bandCriticalKM:
		return model.TierCritical
	case km <= bandStrongKM:
		return model.TierStrong
	case km <= bandModerateKM:
		return model.TierModerate
	case km <= bandWeakKM:
		return model.TierWeak
	default:
		return model.TierNegligible
	}
}

// ClimaticProbability maps event-entity distance to an occurrence
// probability on the 0-100 scale. Closer is never less risky.
func ClimaticProbability(km float64) float64 {
	switch {
	case km <= 50:
		return 100
	case km <= 100:
		return 80
	case km <= 150:
		return 60
	case km <= 200:
		return 40
	default:
		return 20
	}
}
