// Package export renders a finished analysis to analyst-facing files: an
// XLSX workbook for the risk review meeting and a GeoJSON overlay for the
// map view. Everything here reads the engine's structured output; nothing is
// re-derived.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/risk-engine/internal/model"
)

// WriteXLSX writes one workbook: a Summary sheet with the event rollup and a
// Projections sheet with one row per entity.
func WriteXLSX(path string, event model.Event, summary model.EventRiskSummary, projections []model.Projection) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, event, summary); err != nil {
		return err
	}
	if err := addProjectionsSheet(f, projections); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, event model.Event, summary model.EventRiskSummary) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	kv := func(key, value string) {
		row := sheet.AddRow()
		row.AddCell().Value = key
		row.AddCell().Value = value
	}

	kv("Event ID", event.ID)
	kv("Event type", string(event.Type))
	kv("Subtype", event.Subtype)
	kv("Title", event.Title)
	kv("Overall risk level", string(summary.OverallRiskLevel))
	kv("Overall 360 score", fmt.Sprintf("%.2f", summary.OverallRiskScore360))
	kv("Business interruption score", fmt.Sprintf("%.2f", summary.BusinessInterruptionScore))
	kv("Max probability", fmt.Sprintf("%.1f", summary.MaxProbability))
	kv("Max exposure", fmt.Sprintf("%.1f", summary.MaxExposure))
	kv("Concerned entities", fmt.Sprintf("%d", summary.ConcernedCount))
	kv("Affected sites", fmt.Sprintf("%d", len(summary.AffectedSites)))
	kv("Affected suppliers", fmt.Sprintf("%d", len(summary.AffectedSuppliers)))
	kv("Skipped entities", fmt.Sprintf("%d", summary.SkippedEntities))
	kv("Entities with weather alerts", fmt.Sprintf("%d", summary.Weather.EntitiesWithAlerts))
	kv("Weather alerts total", fmt.Sprintf("%d", summary.Weather.TotalAlerts))
	if summary.Weather.MaxSeverity != "" {
		kv("Weather max severity", string(summary.Weather.MaxSeverity))
	}
	kv("Computed at", summary.ComputedAt.Format("2006-01-02 15:04:05 UTC"))

	return nil
}

var projectionHeaders = []string{
	"Entity ID", "Entity name", "Kind", "Concerned",
	"Severity", "Probability", "Exposure", "Urgency",
	"360 score", "Weather score", "BI score",
	"Disruption days", "Daily revenue loss", "Penalties/day", "Total daily impact",
	"Stock coverage days", "Sole supplier", "Criticality tier", "Urgency tier",
	"Applicability",
}

func addProjectionsSheet(f *xlsx.File, projections []model.Projection) error {
	sheet, err := f.AddSheet("Projections")
	if err != nil {
		return eris.Wrap(err, "export: add projections sheet")
	}

	header := sheet.AddRow()
	for _, h := range projectionHeaders {
		header.AddCell().Value = h
	}

	for _, p := range projections {
		row := sheet.AddRow()
		row.AddCell().Value = p.EntityID
		row.AddCell().Value = p.EntityName
		row.AddCell().Value = string(p.EntityKind)
		row.AddCell().SetBool(p.IsConcerned)
		row.AddCell().SetFloat(p.Severity)
		row.AddCell().SetFloat(p.Probability)
		row.AddCell().SetFloat(p.Exposure)
		row.AddCell().SetFloat(p.Urgency)
		row.AddCell().SetFloat(p.RiskScore360)
		row.AddCell().SetFloat(p.WeatherRiskScore)
		row.AddCell().SetFloat(p.BusinessInterruptionScore)
		row.AddCell().SetInt(p.EstimatedDisruptionDays)

		if bi := p.BusinessImpact; bi != nil {
			row.AddCell().SetFloat(bi.DailyRevenueLoss)
			row.AddCell().SetFloat(bi.CustomerPenaltiesPerDay)
			row.AddCell().SetFloat(bi.TotalDailyImpact)
			row.AddCell().SetFloat(bi.StockCoverageDays)
			row.AddCell().SetBool(bi.IsSoleSupplier)
		} else {
			for range 5 {
				row.AddCell().Value = ""
			}
		}

		if crit := p.Reasoning.Criticality; crit != nil {
			row.AddCell().Value = string(crit.Tier)
			row.AddCell().SetInt(crit.Urgency)
		} else {
			row.AddCell().Value = ""
			row.AddCell().Value = ""
		}

		row.AddCell().Value = p.Reasoning.Applicability
	}

	return nil
}
