// Package projector is the risk projection engine: it decides per-entity
// applicability of an event, computes the 360° composite score, overlays the
// weather adjustment, derives the business interruption score and rolls
// everything up to an event-level summary. The engine is stateless and
// side-effect-free: it reads an immutable snapshot and returns new records.
package projector

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sells-group/risk-engine/internal/config"
	"github.com/sells-group/risk-engine/internal/criticality"
	"github.com/sells-group/risk-engine/internal/geo"
	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/impact"
	"github.com/sells-group/risk-engine/internal/match"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/internal/weather"
)

// Engine computes projections for one event against an entity graph.
type Engine struct {
	cfg     config.ScoringConfig
	workers int
}

// New creates an Engine. workers <= 0 falls back to a per-CPU bound at
// Project time.
func New(cfg config.ScoringConfig, workers int) *Engine {
	return &Engine{cfg: cfg, workers: workers}
}

// Base severity per event type.
var baseSeverity = map[model.EventType]float64{
	model.EventClimatic:     70,
	model.EventRegulatory:   50,
	model.EventGeopolitical: 80,
}

// Disruption-day baselines per event type.
var baseDisruptionDays = map[model.EventType]int{
	model.EventClimatic:     10,
	model.EventRegulatory:   0,
	model.EventGeopolitical: 60,
}

// highSeverityKeywords bump severity by 20 when found in the subtype.
// Subtypes arrive in French or English depending on the source document.
var highSeverityKeywords = []string{
	"guerre", "war", "invasion",
	"inondation", "flood", "crue",
	"séisme", "seisme", "earthquake", "tremblement",
	"ouragan", "hurricane", "cyclone", "typhon", "typhoon", "tsunami",
	"embargo", "sanction", "interdiction", "ban",
}

// highUrgencyKeywords raise geopolitical urgency from 70 to 95.
var highUrgencyKeywords = []string{
	"guerre", "war", "invasion", "coup", "blocus", "blockade", "embargo",
}

const severityBonus = 20

// Weather-driven extra disruption days by max severity.
var severityExtraDays = map[model.AlertSeverity]int{
	model.SeverityCritical: 7,
	model.SeverityHigh:     5,
	model.SeverityMedium:   3,
	model.SeverityLow:      1,
}

// entityView is the type-agnostic slice of an entity the scoring steps need.
type entityView struct {
	id       string
	name     string
	kind     model.EntityKind
	country  string
	lat, lon *float64
	scope    match.EntityScope

	site     *model.Site
	supplier *model.Supplier
}

func siteView(s *model.Site) entityView {
	return entityView{
		id: s.ID, name: s.Name, kind: model.KindSite, country: s.Country,
		lat: s.Lat, lon: s.Lon,
		scope: match.EntityScope{
			Country: s.Country, Sectors: s.Sectors,
			Products: s.Products, RawMaterials: s.RawMaterials,
		},
		site: s,
	}
}

func supplierView(s *model.Supplier) entityView {
	return entityView{
		id: s.ID, name: s.Name, kind: model.KindSupplier, country: s.Country,
		lat: s.Lat, lon: s.Lon,
		scope: match.EntityScope{
			Country: s.Country, Sectors: s.Sectors,
			Products: s.Products, RawMaterials: s.RawMaterials,
		},
		supplier: s,
	}
}

// gate is the applicability decision plus whatever the match produced that
// later steps reuse.
type gate struct {
	concerned   bool
	reason      string
	matchedAxes []string

	distanceKM float64 // climatic only; <0 when coordinates are missing
	regMatches int
	geoTier    match.CountryTier
	impactTier model.CriticalityTier
}

// projectEntity runs the full per-entity pipeline.
// The returned projection is always well-formed; a non-concerned entity gets
// zero event scores with the event-agnostic weather risk still attached.
func (e *Engine) projectEntity(event model.Event, ev entityView, g *graph.Graph, wr model.WeatherRisk) model.Projection {
	p := model.Projection{
		EventID:    event.ID,
		EntityID:   ev.id,
		EntityName: ev.name,
		EntityKind: ev.kind,
		ComputedAt: time.Now().UTC(),
	}

	gt := e.applicability(event, ev)
	p.Reasoning.Applicability = gt.reason
	p.Reasoning.MatchedAxes = gt.matchedAxes
	p.WeatherRiskScore = round2(wr.RiskScore)

	if !gt.concerned {
		return p
	}
	p.IsConcerned = true

	p.Severity = e.severity(event, &p.Reasoning)
	p.Probability = e.probability(event, ev, gt, &p.Reasoning)
	p.Exposure = e.exposure(ev, g, &p.Reasoning)
	p.Urgency = e.urgency(event, &p.Reasoning)

	base := e.cfg.SeverityWeight*p.Severity +
		e.cfg.ProbabilityWeight*p.Probability +
		e.cfg.ExposureWeight*p.Exposure +
		e.cfg.UrgencyWeight*p.Urgency
	base = clamp(base)

	p.Reasoning.Formula = fmt.Sprintf("%.2f*severity + %.2f*probability + %.2f*exposure + %.2f*urgency",
		e.cfg.SeverityWeight, e.cfg.ProbabilityWeight, e.cfg.ExposureWeight, e.cfg.UrgencyWeight)
	p.Reasoning.Substituted = fmt.Sprintf("%.2f*%.1f + %.2f*%.1f + %.2f*%.1f + %.2f*%.1f = %.2f",
		e.cfg.SeverityWeight, p.Severity, e.cfg.ProbabilityWeight, p.Probability,
		e.cfg.ExposureWeight, p.Exposure, e.cfg.UrgencyWeight, p.Urgency, base)

	adjusted, weatherReason := weather.Adjust(base, wr)
	p.RiskScore360 = round2(adjusted)
	p.Reasoning.WeatherAdjustment = weatherReason

	p.EstimatedDisruptionDays = disruptionDays(event.Type, wr)

	if ev.kind == model.KindSupplier {
		p.BusinessImpact = impact.ForSupplier(*ev.supplier, g)
	} else {
		p.BusinessImpact = impact.ForSite(*ev.site)
	}
	p.BusinessInterruptionScore = e.businessInterruptionScore(p.Exposure, p.EstimatedDisruptionDays, p.BusinessImpact)

	crit := e.assessCriticality(ev, g, gt)
	p.Reasoning.Criticality = &crit

	return p
}

// applicability dispatches the is-concerned gate on the event type.
func (e *Engine) applicability(event model.Event, ev entityView) gate {
	switch event.Type {
	case model.EventClimatic:
		return climaticGate(event, ev)

	case model.EventRegulatory:
		res := match.Regulatory(event.Scope, ev.scope)
		gt := gate{concerned: res.Concerned, regMatches: res.MatchedAxes()}
		for _, m := range res.Matches {
			gt.matchedAxes = append(gt.matchedAxes, m.Axis)
		}
		strategic := ev.site != nil && ev.site.StrategicImportance == model.ImportanceHigh
		gt.impactTier = match.RegulatoryStrength(gt.regMatches, strategic)
		if res.Concerned {
			gt.reason = fmt.Sprintf("regulatory scope matches on %d axes", gt.regMatches)
		} else {
			gt.reason = "outside regulatory scope"
		}
		return gt

	case model.EventGeopolitical:
		tier := match.Geopolitical(event.Scope.DirectlyAffectedCountries, event.Scope.IndirectlyAffectedCountries, ev.country)
		gt := gate{concerned: tier.Concerned(), geoTier: tier}
		switch tier {
		case match.TierDirect:
			gt.reason = fmt.Sprintf("country %s directly affected", ev.country)
			gt.impactTier = model.TierCritical
		case match.TierIndirect:
			gt.reason = fmt.Sprintf("country %s indirectly affected", ev.country)
			gt.impactTier = model.TierModerate
		default:
			gt.reason = fmt.Sprintf("country %s not in affected set", ev.country)
		}
		return gt

	default:
		return gate{reason: fmt.Sprintf("unknown event type %q", event.Type)}
	}
}

// climaticGate applies the 200 km concern radius. An event without
// coordinates cannot concern anyone; an entity without coordinates cannot be
// ruled out, so it passes the gate with a degraded probability later.
func climaticGate(event model.Event, ev entityView) gate {
	if !event.Scope.HasCoordinates() {
		return gate{reason: "climatic event has no coordinates", distanceKM: -1}
	}
	if ev.lat == nil || ev.lon == nil {
		return gate{
			concerned:  true,
			reason:     "entity coordinates unknown, cannot be ruled out",
			distanceKM: -1,
			impactTier: model.TierModerate,
		}
	}
	km := geo.Haversine(*event.Scope.Lat, *event.Scope.Lon, *ev.lat, *ev.lon)
	if km > geo.ConcernRadiusKM {
		return gate{
			reason:     fmt.Sprintf("%.0f km from event, beyond %.0f km radius", km, geo.ConcernRadiusKM),
			distanceKM: km,
		}
	}
	return gate{
		concerned:  true,
		reason:     fmt.Sprintf("%.0f km from event (%s band)", km, geo.ImpactBand(km)),
		distanceKM: km,
		impactTier: geo.ImpactBand(km),
	}
}

func (e *Engine) severity(event model.Event, r *model.Reasoning) float64 {
	sev := baseSeverity[event.Type]
	basis := fmt.Sprintf("base %.0f for %s event", sev, event.Type)
	for _, kw := range highSeverityKeywords {
		if strings.Contains(event.Subtype, kw) {
			sev += severityBonus
			basis += fmt.Sprintf(", +%d for subtype %q", severityBonus, event.Subtype)
			break
		}
	}
	sev = clamp(sev)
	r.SeverityBasis = basis
	return sev
}

func (e *Engine) probability(event model.Event, ev entityView, gt gate, r *model.Reasoning) float64 {
	switch event.Type {
	case model.EventClimatic:
		if gt.distanceKM < 0 {
			r.ProbabilityBasis = "default 50: coordinates unavailable"
			return 50
		}
		p := geo.ClimaticProbability(gt.distanceKM)
		r.ProbabilityBasis = fmt.Sprintf("distance band %.0f km", gt.distanceKM)
		return p

	case model.EventRegulatory:
		var p float64
		switch {
		case gt.regMatches >= 3:
			p = 90
		case gt.regMatches == 2:
			p = 75
		case gt.regMatches == 1:
			p = 60
		default:
			p = 40
		}
		r.ProbabilityBasis = fmt.Sprintf("%d matched axes", gt.regMatches)
		return p

	default:
		p := gt.geoTier.Probability()
		r.ProbabilityBasis = "country tier"
		return p
	}
}

func (e *Engine) exposure(ev entityView, g *graph.Graph, r *model.Reasoning) float64 {
	if ev.kind == model.KindSite {
		switch ev.site.StrategicImportance {
		case model.ImportanceHigh:
			r.ExposureBasis = "strategic importance HIGH"
			return 80
		case model.ImportanceMedium:
			r.ExposureBasis = "strategic importance MEDIUM"
			return 60
		default:
			r.ExposureBasis = "strategic importance LOW"
			return 40
		}
	}

	rels := g.RelationsOfSupplier(ev.id)
	maxTier := model.RelationStandard
	for _, rel := range rels {
		if rel.IsSoleSupplier {
			r.ExposureBasis = "sole supplier on at least one relationship"
			return 100
		}
		if rel.Criticality == model.RelationCritical {
			maxTier = model.RelationCritical
		} else if rel.Criticality == model.RelationImportant && maxTier != model.RelationCritical {
			maxTier = model.RelationImportant
		}
	}
	switch maxTier {
	case model.RelationCritical:
		r.ExposureBasis = "critical relationship"
		return 80
	case model.RelationImportant:
		r.ExposureBasis = "important relationship"
		return 60
	default:
		r.ExposureBasis = "baseline supplier exposure"
		return 50
	}
}

func (e *Engine) urgency(event model.Event, r *model.Reasoning) float64 {
	switch event.Type {
	case model.EventClimatic:
		r.UrgencyBasis = "climatic events are in progress"
		return 90
	case model.EventRegulatory:
		// Placeholder constant: the application date is not reliably
		// extracted from regulation text upstream.
		r.UrgencyBasis = "regulatory urgency placeholder"
		return e.cfg.RegulatoryUrgency
	default:
		for _, kw := range highUrgencyKeywords {
			if strings.Contains(event.Subtype, kw) {
				r.UrgencyBasis = fmt.Sprintf("high-urgency subtype %q", event.Subtype)
				return 95
			}
		}
		r.UrgencyBasis = "geopolitical baseline"
		return 70
	}
}

// disruptionDays estimates interruption duration: a type baseline plus
// weather-driven extra days.
func disruptionDays(t model.EventType, wr model.WeatherRisk) int {
	days := baseDisruptionDays[t]
	if wr.HasRisk {
		days += severityExtraDays[wr.MaxSeverity]
		extra := wr.AlertsCount / 2
		if extra > 3 {
			extra = 3
		}
		days += extra
	}
	return days
}

// businessInterruptionScore blends normalized financial impact, exposure,
// effective disruption duration and sole-supplier amplification:
//
//	0.4*min(100, impact/norm*100) + 0.3*exposure + 0.2*(effective/30*100) + 0.1*sole
//
// falling back to exposure * (days/30) * (revenue_impact_pct/100) when no
// financial data exists. RevenueImpactPct is a percentage (15 means 15%) and
// is consumed as a fraction here so the fallback stays on the same scale as
// the weighted path. Result clamped to [0,100].
func (e *Engine) businessInterruptionScore(exposure float64, days int, bi *model.BusinessImpact) float64 {
	if bi == nil {
		return 0
	}

	effectiveDays := float64(days) - bi.StockCoverageDays
	if effectiveDays < 0 {
		effectiveDays = 0
	}

	if bi.TotalDailyImpact > 0 {
		impactComponent := bi.TotalDailyImpact / e.cfg.BIImpactNormalization * 100
		if impactComponent > 100 {
			impactComponent = 100
		}
		sole := 0.0
		if bi.IsSoleSupplier {
			sole = 100
		}
		score := e.cfg.BIImpactWeight*impactComponent +
			e.cfg.BIExposureWeight*exposure +
			e.cfg.BIDurationWeight*(effectiveDays/30*100) +
			e.cfg.BISoleSourceWeight*sole
		return round2(clamp(score))
	}

	score := exposure * (float64(days) / 30) * (bi.RevenueImpactPct / 100)
	return round2(clamp(score))
}

// assessCriticality attaches the event-independent criticality enrichment.
func (e *Engine) assessCriticality(ev entityView, g *graph.Graph, gt gate) model.CriticalityAssessment {
	if ev.kind == model.KindSite {
		return criticality.AnalyzeSite(*ev.site, gt.impactTier)
	}
	return criticality.AnalyzeSupplier(*ev.supplier, g.RelationsOfSupplier(ev.id), gt.impactTier)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
