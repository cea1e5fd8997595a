package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/risk-engine/internal/model"
)

func scopeFR() model.GeographicScope {
	return model.GeographicScope{
		AffectedCountries: []string{"France"},
		AffectedSectors:   []string{"automotive"},
	}
}

func TestRegulatory_NoOverlapCountry(t *testing.T) {
	ent := EntityScope{Country: "Germany", Sectors: []string{"automotive"}}
	res := Regulatory(scopeFR(), ent)
	assert.False(t, res.Concerned)
	assert.Empty(t, res.Matches)
}

func TestRegulatory_AllAxesMatch(t *testing.T) {
	scope := model.GeographicScope{
		AffectedCountries:    []string{"France"},
		AffectedSectors:      []string{"automotive"},
		AffectedRawMaterials: []string{"rubber"},
	}
	ent := EntityScope{
		Country:      "france",
		Sectors:      []string{"Automotive", "aerospace"},
		RawMaterials: []string{"rubberized coating"},
	}
	res := Regulatory(scope, ent)
	assert.True(t, res.Concerned)
	assert.Equal(t, 3, res.MatchedAxes())
}

func TestRegulatory_EmptyScopeMatchesEverything(t *testing.T) {
	// No constraint on any axis: every entity is concerned with zero matches.
	res := Regulatory(model.GeographicScope{}, EntityScope{Country: "Japan"})
	assert.True(t, res.Concerned)
	assert.Equal(t, 0, res.MatchedAxes())
}

func TestRegulatory_AccentAndCaseInsensitive(t *testing.T) {
	scope := model.GeographicScope{
		AffectedSectors: []string{"électronique"},
	}
	ent := EntityScope{Country: "France", Sectors: []string{"Electronique"}}
	res := Regulatory(scope, ent)
	assert.True(t, res.Concerned)
	assert.Equal(t, 1, res.MatchedAxes())
}

func TestRegulatory_SubstringProductMatch(t *testing.T) {
	scope := model.GeographicScope{
		AffectedProducts: []string{"semiconductor"},
	}
	ent := EntityScope{Products: []string{"automotive semiconductors"}}
	res := Regulatory(scope, ent)
	assert.True(t, res.Concerned)
}

func TestRegulatory_ProductConstraintUnmet(t *testing.T) {
	scope := model.GeographicScope{
		AffectedProducts: []string{"lithium"},
	}
	ent := EntityScope{Country: "France", Products: []string{"steel plate"}}
	res := Regulatory(scope, ent)
	assert.False(t, res.Concerned)
}

func TestRegulatoryStrength(t *testing.T) {
	assert.Equal(t, model.TierCritical, RegulatoryStrength(3, false))
	assert.Equal(t, model.TierCritical, RegulatoryStrength(4, false))
	assert.Equal(t, model.TierStrong, RegulatoryStrength(2, false))
	assert.Equal(t, model.TierStrong, RegulatoryStrength(1, true))
	assert.Equal(t, model.TierModerate, RegulatoryStrength(1, false))
	assert.Equal(t, model.TierWeak, RegulatoryStrength(0, true))
}

func TestGeopolitical_Tiers(t *testing.T) {
	directly := []string{"Ukraine"}
	indirectly := []string{"Poland", "Roumanie"}

	assert.Equal(t, TierDirect, Geopolitical(directly, indirectly, "ukraine"))
	assert.Equal(t, TierIndirect, Geopolitical(directly, indirectly, "Poland"))
	assert.Equal(t, TierUnaffected, Geopolitical(directly, indirectly, "Spain"))
}

func TestGeopolitical_DirectWinsOverIndirect(t *testing.T) {
	tier := Geopolitical([]string{"Taiwan"}, []string{"Taiwan"}, "Taiwan")
	assert.Equal(t, TierDirect, tier)
}

func TestCountryTier_Probability(t *testing.T) {
	assert.Equal(t, 90.0, TierDirect.Probability())
	assert.Equal(t, 50.0, TierIndirect.Probability())
	assert.Equal(t, 10.0, TierUnaffected.Probability())
	assert.True(t, TierIndirect.Concerned())
	assert.False(t, TierUnaffected.Concerned())
}
