package criticality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/risk-engine/internal/model"
)

func TestAnalyzeSite_CriticalNoBackup(t *testing.T) {
	site := model.Site{
		StrategicImportance: model.ImportanceHigh,
		DailyRevenue:        2_000_000,
		HasBackupSite:       false,
		SafetyStockDays:     5,
		RecoveryTimeDays:    45,
	}
	// tier 4 + importance 3 + no backup 2 + production bonus 2 = 11
	a := AnalyzeSite(site, model.TierCritical)
	assert.Equal(t, 11, a.Score)
	assert.Equal(t, model.TierCritical, a.Tier)
	assert.Equal(t, 5, a.Urgency)
	assert.Len(t, a.Mitigations, 3)
}

func TestAnalyzeSite_WeakTier(t *testing.T) {
	site := model.Site{
		StrategicImportance: model.ImportanceLow,
		HasBackupSite:       true,
		SafetyStockDays:     30,
	}
	// tier 1 + importance 1 = 2
	a := AnalyzeSite(site, model.TierWeak)
	assert.Equal(t, 2, a.Score)
	assert.Equal(t, model.TierWeak, a.Tier)
	assert.Equal(t, 1, a.Urgency)
	assert.Empty(t, a.Mitigations)
}

func TestAnalyzeSite_ThresholdBoundaries(t *testing.T) {
	// importance MEDIUM (2) + backup (0) + no bonus, vary tier.
	site := model.Site{StrategicImportance: model.ImportanceMedium, HasBackupSite: true, SafetyStockDays: 20}
	// Scores: critical tier 4+2=6, moderate 2+2=4, weak 1+2=3.
	assert.Equal(t, model.TierStrong, AnalyzeSite(site, model.TierCritical).Tier)
	assert.Equal(t, model.TierModerate, AnalyzeSite(site, model.TierModerate).Tier)
	assert.Equal(t, model.TierWeak, AnalyzeSite(site, model.TierWeak).Tier)
}

func TestAnalyzeSupplier_SoleNoBackupCritical(t *testing.T) {
	sup := model.Supplier{IsSoleSupplier: true, HasBackup: false, SwitchTimeDays: 60}
	rels := []model.Relationship{
		{Criticality: model.RelationCritical, AnnualVolume: 12_000_000},
	}
	// tier 4 + sole/no-backup 4 + relation 3 + volume 2 = 13
	a := AnalyzeSupplier(sup, rels, model.TierCritical)
	assert.Equal(t, 13, a.Score)
	assert.Equal(t, model.TierCritical, a.Tier)
	assert.Equal(t, 5, a.Urgency)
	assert.Contains(t, a.Mitigations[0], "fournisseur alternatif")
}

func TestAnalyzeSupplier_SoleWithBackup(t *testing.T) {
	sup := model.Supplier{IsSoleSupplier: true, HasBackup: true}
	rels := []model.Relationship{{Criticality: model.RelationStandard}}
	// tier 2 + sole-with-backup 2 + relation 1 = 5
	a := AnalyzeSupplier(sup, rels, model.TierModerate)
	assert.Equal(t, 5, a.Score)
	assert.Equal(t, model.TierModerate, a.Tier)
}

func TestAnalyzeSupplier_NoRelationships(t *testing.T) {
	a := AnalyzeSupplier(model.Supplier{}, nil, model.TierWeak)
	assert.Equal(t, 1, a.Score)
	assert.Equal(t, model.TierWeak, a.Tier)
	assert.Equal(t, 1, a.Urgency)
}

func TestAnalyzeSupplier_LowStockCoverageMitigation(t *testing.T) {
	cov := 5.0
	sup := model.Supplier{}
	rels := []model.Relationship{{Criticality: model.RelationImportant, StockCoverageDays: &cov}}
	a := AnalyzeSupplier(sup, rels, model.TierStrong)
	assert.Contains(t, a.Mitigations, "augmenter la couverture de stock sur les flux critiques")
}

func TestUrgency_CapsAtFive(t *testing.T) {
	assert.Equal(t, 5, urgency(model.TierCritical, true))
	assert.Equal(t, 4, urgency(model.TierCritical, false))
	assert.Equal(t, 2, urgency(model.TierWeak, true))
	assert.Equal(t, 1, urgency(model.TierWeak, false))
}
