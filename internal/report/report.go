// Package report turns a finished analysis into executive prose. The text
// synthesis is strictly downstream of the engine: it reads the structured
// summary and reasoning blocks and never feeds anything back into scoring.
// Without an API key the generator degrades to a deterministic template so
// the CLI still produces a readable report offline.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-engine/internal/config"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/pkg/anthropic"
)

const systemPrompt = `You are a supply chain risk analyst writing for an executive audience.
You receive a structured risk analysis: one event, an event-level summary and per-entity projections with score breakdowns.
Write a concise executive brief in the language of the event title: what happened, which sites and suppliers are exposed, the financial stakes per day, and the recommended immediate actions.
Use only the numbers provided. Never invent scores, distances or amounts.`

// Generator produces executive briefs from analyses.
type Generator struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
}

// New creates a Generator. client may be nil; the generator then renders the
// template fallback instead of calling the API.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Executive renders the executive brief for one analysis.
func (g *Generator) Executive(ctx context.Context, event model.Event, summary model.EventRiskSummary, projections []model.Projection) (string, error) {
	if g.client == nil {
		zap.L().Info("no anthropic client configured, rendering template report",
			zap.String("event_id", event.ID))
		return renderTemplate(event, summary, projections), nil
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(event, summary, projections)},
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "report: generate brief for event %s", event.ID)
	}
	resp.Usage.LogCost(g.cfg.Model, "report")

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", eris.Errorf("report: empty response for event %s", event.ID)
	}
	return sb.String(), nil
}

// buildPrompt serializes the analysis for the model. Only concerned entities
// are included, most critical first, capped so the prompt stays bounded on
// large graphs.
func buildPrompt(event model.Event, summary model.EventRiskSummary, projections []model.Projection) string {
	const maxEntities = 25

	concerned := make([]model.Projection, 0, len(projections))
	for _, p := range projections {
		if p.IsConcerned {
			concerned = append(concerned, p)
		}
	}
	sort.SliceStable(concerned, func(i, j int) bool {
		return concerned[i].RiskScore360 > concerned[j].RiskScore360
	})
	if len(concerned) > maxEntities {
		concerned = concerned[:maxEntities]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "EVENT: %s (%s / %s)\n", event.Title, event.Type, event.Subtype)
	fmt.Fprintf(&sb, "OVERALL: level=%s score_360=%.1f bi_score=%.1f concerned=%d sites=%d suppliers=%d\n",
		summary.OverallRiskLevel, summary.OverallRiskScore360, summary.BusinessInterruptionScore,
		summary.ConcernedCount, len(summary.AffectedSites), len(summary.AffectedSuppliers))
	if summary.Weather.EntitiesWithAlerts > 0 {
		fmt.Fprintf(&sb, "WEATHER: %d entities with alerts, %d alerts, max severity %s\n",
			summary.Weather.EntitiesWithAlerts, summary.Weather.TotalAlerts, summary.Weather.MaxSeverity)
	}

	sb.WriteString("\nENTITIES:\n")
	for _, p := range concerned {
		fmt.Fprintf(&sb, "- %s (%s): 360=%.1f severity=%.0f probability=%.0f exposure=%.0f urgency=%.0f disruption=%dd\n",
			p.EntityName, p.EntityKind, p.RiskScore360, p.Severity, p.Probability, p.Exposure, p.Urgency,
			p.EstimatedDisruptionDays)
		fmt.Fprintf(&sb, "  applicability: %s\n", p.Reasoning.Applicability)
		if bi := p.BusinessImpact; bi != nil && !bi.NoData {
			fmt.Fprintf(&sb, "  impact: %.0f EUR/day (revenue %.0f, penalties %.0f), stock coverage %.0fd, sole_supplier=%t\n",
				bi.TotalDailyImpact, bi.DailyRevenueLoss, bi.CustomerPenaltiesPerDay, bi.StockCoverageDays, bi.IsSoleSupplier)
		}
		if crit := p.Reasoning.Criticality; crit != nil {
			fmt.Fprintf(&sb, "  criticality: %s (urgency %d/5)\n", crit.Tier, crit.Urgency)
			for _, m := range crit.Mitigations {
				fmt.Fprintf(&sb, "  mitigation: %s\n", m)
			}
		}
	}
	return sb.String()
}

// renderTemplate is the offline fallback: a plain sectioned brief built from
// the same structured fields the model would read.
func renderTemplate(event model.Event, summary model.EventRiskSummary, projections []model.Projection) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "RISK ANALYSIS — %s\n", event.Title)
	fmt.Fprintf(&sb, "Event: %s / %s\n", event.Type, event.Subtype)
	fmt.Fprintf(&sb, "Overall risk: %s (%.1f/100)\n", summary.OverallRiskLevel, summary.OverallRiskScore360)
	fmt.Fprintf(&sb, "Business interruption: %.1f/100\n", summary.BusinessInterruptionScore)
	fmt.Fprintf(&sb, "Concerned entities: %d (%d sites, %d suppliers)\n\n",
		summary.ConcernedCount, len(summary.AffectedSites), len(summary.AffectedSuppliers))

	for _, p := range projections {
		if !p.IsConcerned {
			continue
		}
		fmt.Fprintf(&sb, "%s [%s] — 360 score %.1f, estimated disruption %d days\n",
			p.EntityName, p.EntityKind, p.RiskScore360, p.EstimatedDisruptionDays)
		fmt.Fprintf(&sb, "  %s\n", p.Reasoning.Applicability)
		if bi := p.BusinessImpact; bi != nil && bi.TotalDailyImpact > 0 {
			fmt.Fprintf(&sb, "  Daily impact: %.0f EUR\n", bi.TotalDailyImpact)
		}
		if crit := p.Reasoning.Criticality; crit != nil {
			for _, m := range crit.Mitigations {
				fmt.Fprintf(&sb, "  Action: %s\n", m)
			}
		}
	}
	return sb.String()
}
