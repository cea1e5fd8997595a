// Package impact converts relationship-level financial attributes into a
// per-entity daily monetary impact with a line-itemized breakdown. The report
// generator reads the breakdown; it never re-derives arithmetic from a single
// float.
package impact

import (
	"fmt"

	"github.com/sells-group/risk-engine/internal/graph"
	"github.com/sells-group/risk-engine/internal/model"
)

// defaultStockCoverageDays applies when no relationship tracks coverage.
const defaultStockCoverageDays = 30.0

// Revenue impact proxies by strategic importance, in percent. Used for sites,
// where no bottom-up estimate exists.
var importancePct = map[model.StrategicImportance]float64{
	model.ImportanceHigh:   15,
	model.ImportanceMedium: 8,
	model.ImportanceLow:    3,
}

// ForSupplier folds the supplier's edges into a daily impact. Zero
// relationships yield a zero-impact record flagged NoData so upstream
// aggregation is never blocked by missing data.
func ForSupplier(sup model.Supplier, g *graph.Graph) *model.BusinessImpact {
	rels := g.RelationsOfSupplier(sup.ID)
	if len(rels) == 0 {
		return &model.BusinessImpact{
			SwitchTimeDays:    sup.SwitchTimeDays,
			StockCoverageDays: defaultStockCoverageDays,
			NoData:            true,
		}
	}

	bi := &model.BusinessImpact{
		SwitchTimeDays:    sup.SwitchTimeDays,
		StockCoverageDays: defaultStockCoverageDays,
	}

	var consumption, contractPenalties, customerPenalties float64
	coverageSeen := false
	for _, r := range rels {
		consumption += r.DailyConsumptionValue
		contractPenalties += r.ContractPenaltiesPerDay
		if r.IsSoleSupplier {
			bi.IsSoleSupplier = true
		}
		if r.StockCoverageDays != nil {
			if !coverageSeen || *r.StockCoverageDays < bi.StockCoverageDays {
				bi.StockCoverageDays = *r.StockCoverageDays
			}
			coverageSeen = true
		}

		site, ok := g.SiteByID(r.SiteID)
		if !ok {
			continue
		}
		if r.DailyConsumptionValue > 0 {
			bi.Breakdown = append(bi.Breakdown, model.ImpactLine{
				Label:  fmt.Sprintf("consommation quotidienne — %s", site.Name),
				Amount: r.DailyConsumptionValue,
			})
		}
		// Explicit per-customer penalties on the affected site add to the
		// supplier's penalty exposure.
		for _, kc := range site.KeyCustomers {
			if kc.PenaltyPerDay > 0 {
				customerPenalties += kc.PenaltyPerDay
				bi.AffectedCustomers = append(bi.AffectedCustomers, kc.Name)
			}
		}
	}

	bi.DailyRevenueLoss = consumption
	bi.CustomerPenaltiesPerDay = contractPenalties + customerPenalties
	bi.TotalDailyImpact = bi.DailyRevenueLoss + bi.CustomerPenaltiesPerDay

	if contractPenalties > 0 {
		bi.Breakdown = append(bi.Breakdown, model.ImpactLine{
			Label:  "pénalités contractuelles par jour",
			Amount: contractPenalties,
		})
	}
	if customerPenalties > 0 {
		bi.Breakdown = append(bi.Breakdown, model.ImpactLine{
			Label:  "pénalités clients par jour",
			Amount: customerPenalties,
		})
	}

	// Percentage of company revenue, bottom-up when total revenue is known,
	// criticality-score proxy otherwise.
	if total := g.TotalDailyRevenue(); total > 0 {
		bi.RevenueImpactPct = bi.TotalDailyImpact / total * 100
	} else {
		bi.RevenueImpactPct = sup.CriticalityScore * 1.0
	}

	return bi
}

// ForSite computes the impact of losing the site itself: its full daily
// revenue plus contractual penalties owed to its key customers.
func ForSite(site model.Site) *model.BusinessImpact {
	bi := &model.BusinessImpact{
		DailyRevenueLoss:  site.DailyRevenue,
		StockCoverageDays: float64(site.SafetyStockDays),
		RevenueImpactPct:  importancePct[site.StrategicImportance],
	}
	if bi.RevenueImpactPct == 0 {
		bi.RevenueImpactPct = importancePct[model.ImportanceLow]
	}

	if site.DailyRevenue > 0 {
		bi.Breakdown = append(bi.Breakdown, model.ImpactLine{
			Label:  "perte de chiffre d'affaires quotidien",
			Amount: site.DailyRevenue,
		})
	}

	var penalties float64
	for _, kc := range site.KeyCustomers {
		if kc.PenaltyPerDay > 0 {
			penalties += kc.PenaltyPerDay
			bi.AffectedCustomers = append(bi.AffectedCustomers, kc.Name)
			bi.Breakdown = append(bi.Breakdown, model.ImpactLine{
				Label:  fmt.Sprintf("pénalité client — %s", kc.Name),
				Amount: kc.PenaltyPerDay,
			})
		}
	}
	bi.CustomerPenaltiesPerDay = penalties
	bi.TotalDailyImpact = bi.DailyRevenueLoss + bi.CustomerPenaltiesPerDay
	bi.NoData = bi.TotalDailyImpact == 0

	return bi
}
