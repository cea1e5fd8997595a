package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/risk-engine/internal/model"
)

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(43.6047, 1.4442, 43.6047, 1.4442)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Toulouse -> Paris is roughly 589 km great-circle.
	d := Haversine(43.6047, 1.4442, 48.8566, 2.3522)
	assert.InDelta(t, 589, d, 5)
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(43.6, 1.44, 48.85, 2.35)
	b := Haversine(48.85, 2.35, 43.6, 1.44)
	assert.InDelta(t, a, b, 1e-9)
}

func TestHaversine_Antipodal(t *testing.T) {
	// Half the Earth's circumference at radius 6371 km is ~20015 km.
	d := Haversine(0, 0, 0, 180)
	assert.InDelta(t, 20015, d, 5)
}

func TestImpactBand(t *testing.T) {
	tests := []struct {
		km   float64
		want model.CriticalityTier
	}{
		{0, model.TierCritical},
		{10, model.TierCritical},
		{10.1, model.TierStrong},
		{50, model.TierStrong},
		{99.9, model.TierModerate},
		{150, model.TierWeak},
		{200, model.TierWeak},
		{200.1, model.TierNegligible},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImpactBand(tt.km), "km=%v", tt.km)
	}
}

func TestClimaticProbability_Bands(t *testing.T) {
	tests := []struct {
		km   float64
		want float64
	}{
		{0, 100},
		{50, 100},
		{51, 80},
		{100, 80},
		{150, 60},
		{199, 40},
		{201, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClimaticProbability(tt.km), "km=%v", tt.km)
	}
}

func TestClimaticProbability_MonotoneInDistance(t *testing.T) {
	prev := 100.0
	for km := 0.0; km <= 300; km += 1.0 {
		p := ClimaticProbability(km)
		assert.LessOrEqual(t, p, prev, "probability must not increase with distance (km=%v)", km)
		prev = p
	}
}
