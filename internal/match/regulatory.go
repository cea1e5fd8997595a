package match

import (
	"github.com/sells-group/risk-engine/internal/model"
)

// Axis names used in match reporting.
const (
	AxisCountry     = "country"
	AxisSector      = "sector"
	AxisProduct     = "product"
	AxisRawMaterial = "raw_material"
)

// EntityScope is the matcher-facing view of an entity: its country and the
// attribute sets the regulatory matcher intersects against.
type EntityScope struct {
	Country      string
	Sectors      []string
	Products     []string
	RawMaterials []string
}

// AxisMatch records one matched axis and the event-side values that hit.
type AxisMatch struct {
	Axis   string   `json:"axis"`
	Values []string `json:"values"`
}

// RegulatoryResult is the outcome of matching one entity against a
// regulatory event's scope.
type RegulatoryResult struct {
	Concerned bool
	Matches   []AxisMatch
}

// MatchedAxes returns the number of distinct axes that matched.
func (r RegulatoryResult) MatchedAxes() int {
	return len(r.Matches)
}

// Regulatory matches an entity against a regulatory event scope. An empty
// set on an axis means the event places no constraint there. The entity is
// concerned iff every constrained axis is satisfied:
//   - country: entity country in the affected set (folded comparison)
//   - sector: nonempty intersection (folded comparison)
//   - product/raw material: nonempty partial intersection (substring, both
//     directions) on at least one of the two sets when either is constrained
func Regulatory(scope model.GeographicScope, ent EntityScope) RegulatoryResult {
	var res RegulatoryResult

	countryOK := true
	if len(scope.AffectedCountries) > 0 {
		if v, ok := containsFolded(scope.AffectedCountries, ent.Country); ok {
			res.Matches = append(res.Matches, AxisMatch{Axis: AxisCountry, Values: []string{v}})
		} else {
			countryOK = false
		}
	}

	sectorOK := true
	if len(scope.AffectedSectors) > 0 {
		if hit := intersectFolded(scope.AffectedSectors, ent.Sectors); len(hit) > 0 {
			res.Matches = append(res.Matches, AxisMatch{Axis: AxisSector, Values: hit})
		} else {
			sectorOK = false
		}
	}

	productConstrained := len(scope.AffectedProducts) > 0 || len(scope.AffectedRawMaterials) > 0
	productOK := true
	if productConstrained {
		prodHit := intersectSubstring(scope.AffectedProducts, ent.Products)
		matHit := intersectSubstring(scope.AffectedRawMaterials, ent.RawMaterials)
		if len(prodHit) > 0 {
			res.Matches = append(res.Matches, AxisMatch{Axis: AxisProduct, Values: prodHit})
		}
		if len(matHit) > 0 {
			res.Matches = append(res.Matches, AxisMatch{Axis: AxisRawMaterial, Values: matHit})
		}
		productOK = len(prodHit) > 0 || len(matHit) > 0
	}

	res.Concerned = countryOK && sectorOK && productOK
	if !res.Concerned {
		// Partial matches on a non-concerned entity are noise downstream.
		res.Matches = nil
	}
	return res
}

// RegulatoryStrength maps the matched-axis count to an impact tier.
// A single-axis match on a strategically important entity still rates fort.
func RegulatoryStrength(matchCount int, strategic bool) model.CriticalityTier {
	switch {
	case matchCount >= 3:
		return model.TierCritical
	case matchCount == 2:
		return model.TierStrong
	case matchCount == 1:
		if strategic {
			return model.TierStrong
		}
		return model.TierModerate
	default:
		return model.TierWeak
	}
}
