// Package criticality computes the categorical criticality of an entity from
// its structural position in the supply graph: backup availability, strategic
// importance, sole-supplier status and contracted volumes. It is independent
// of any specific event's severity and enriches projections as a secondary
// signal next to the 360° score.
package criticality

import (
	"github.com/sells-group/risk-engine/internal/model"
)

// Site thresholds.
const (
	siteCriticalScore = 8
	siteStrongScore   = 6
	siteModerateScore = 4
)

// Supplier thresholds.
const (
	supplierCriticalScore = 9
	supplierStrongScore   = 6
	supplierModerateScore = 4
)

// Production value bonus thresholds (daily revenue, EUR).
const (
	productionBonusHigh = 1_000_000
	productionBonusLow  = 250_000
)

// Volume bonus thresholds (summed annual volume, EUR).
const (
	volumeBonusHigh = 10_000_000
	volumeBonusLow  = 1_000_000
)

// tierScore converts an impact tier into its additive score component.
func tierScore(t model.CriticalityTier) int {
	switch t {
	case model.TierCritical:
		return 4
	case model.TierStrong:
		return 3
	case model.TierModerate:
		return 2
	case model.TierWeak:
		return 1
	default:
		return 0
	}
}

func importanceScore(imp model.StrategicImportance) int {
	switch imp {
	case model.ImportanceHigh:
		return 3
	case model.ImportanceMedium:
		return 2
	default:
		return 1
	}
}

func relationScore(c model.RelationshipCriticality) int {
	switch c {
	case model.RelationCritical:
		return 3
	case model.RelationImportant:
		return 2
	default:
		return 1
	}
}

// AnalyzeSite scores a site given the impact tier the matcher assigned.
func AnalyzeSite(site model.Site, impactTier model.CriticalityTier) model.CriticalityAssessment {
	score := tierScore(impactTier) + importanceScore(site.StrategicImportance)
	if !site.HasBackupSite {
		score += 2
	}
	switch {
	case site.DailyRevenue >= productionBonusHigh:
		score += 2
	case site.DailyRevenue >= productionBonusLow:
		score++
	}

	tier := siteTier(score)
	a := model.CriticalityAssessment{
		Tier:        tier,
		Score:       score,
		Urgency:     urgency(tier, !site.HasBackupSite && site.StrategicImportance == model.ImportanceHigh),
		Mitigations: siteMitigations(site, tier),
	}
	return a
}

// AnalyzeSupplier scores a supplier from its edges to sites.
func AnalyzeSupplier(sup model.Supplier, rels []model.Relationship, impactTier model.CriticalityTier) model.CriticalityAssessment {
	score := tierScore(impactTier)

	switch {
	case sup.IsSoleSupplier && !sup.HasBackup:
		score += 4
	case sup.IsSoleSupplier:
		score += 2
	}

	maxRel := 0
	var volume float64
	for _, r := range rels {
		if s := relationScore(r.Criticality); s > maxRel {
			maxRel = s
		}
		volume += r.AnnualVolume
	}
	score += maxRel

	switch {
	case volume >= volumeBonusHigh:
		score += 2
	case volume >= volumeBonusLow:
		score++
	}

	tier := supplierTier(score)
	return model.CriticalityAssessment{
		Tier:        tier,
		Score:       score,
		Urgency:     urgency(tier, sup.IsSoleSupplier && !sup.HasBackup),
		Mitigations: supplierMitigations(sup, rels, tier),
	}
}

func siteTier(score int) model.CriticalityTier {
	switch {
	case score >= siteCriticalScore:
		return model.TierCritical
	case score >= siteStrongScore:
		return model.TierStrong
	case score >= siteModerateScore:
		return model.TierModerate
	default:
		return model.TierWeak
	}
}

func supplierTier(score int) model.CriticalityTier {
	switch {
	case score >= supplierCriticalScore:
		return model.TierCritical
	case score >= supplierStrongScore:
		return model.TierStrong
	case score >= supplierModerateScore:
		return model.TierModerate
	default:
		return model.TierWeak
	}
}

// urgency maps the tier to 1-5. The single-point-of-failure flag bumps the
// result so a critical sole supplier without backup always reads 5.
func urgency(tier model.CriticalityTier, singlePointOfFailure bool) int {
	u := tierScore(tier)
	if u < 1 {
		u = 1
	}
	if singlePointOfFailure {
		u++
	}
	if u > 5 {
		u = 5
	}
	return u
}

func siteMitigations(site model.Site, tier model.CriticalityTier) []string {
	var out []string
	if !site.HasBackupSite {
		out = append(out, "qualifier un site de repli pour la production critique")
	}
	if site.SafetyStockDays < 15 {
		out = append(out, "augmenter le stock de sécurité à 15 jours minimum")
	}
	if tier == model.TierCritical && site.RecoveryTimeDays > 30 {
		out = append(out, "établir un plan de reprise d'activité sous 30 jours")
	}
	return out
}

func supplierMitigations(sup model.Supplier, rels []model.Relationship, tier model.CriticalityTier) []string {
	var out []string
	if sup.IsSoleSupplier && !sup.HasBackup {
		out = append(out, "qualifier un fournisseur alternatif (source unique sans repli)")
	}
	if sup.SwitchTimeDays > 30 {
		out = append(out, "réduire le délai de bascule fournisseur (actuellement supérieur à 30 jours)")
	}
	for _, r := range rels {
		if r.StockCoverageDays != nil && *r.StockCoverageDays < 15 {
			out = append(out, "augmenter la couverture de stock sur les flux critiques")
			break
		}
	}
	if tier == model.TierCritical {
		out = append(out, "mettre en place un suivi hebdomadaire de la relation fournisseur")
	}
	return out
}
