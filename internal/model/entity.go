package model

import "strings"

// EntityKind distinguishes the two entity families in the supply graph.
type EntityKind string

const (
	KindSite     EntityKind = "site"
	KindSupplier EntityKind = "supplier"
)

// StrategicImportance is the coarse site tier set by the business.
type StrategicImportance string

const (
	ImportanceHigh   StrategicImportance = "HIGH"
	ImportanceMedium StrategicImportance = "MEDIUM"
	ImportanceLow    StrategicImportance = "LOW"
)

// NormalizeImportance maps free-form input to a StrategicImportance tier.
// Unknown values fall back to LOW rather than failing the load.
func NormalizeImportance(s string) StrategicImportance {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH", "HAUTE", "CRITIQUE":
		return ImportanceHigh
	case "MEDIUM", "MOYENNE":
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// KeyCustomer is a downstream customer of a site with contractual exposure.
type KeyCustomer struct {
	Name            string  `json:"name" yaml:"name"`
	PenaltyPerDay   float64 `json:"penalty_per_day" yaml:"penalty_per_day"`
	RevenueSharePct float64 `json:"revenue_share_pct" yaml:"revenue_share_pct"`
}

// Site is a company facility.
type Site struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Country string   `json:"country" yaml:"country"`
	Lat     *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`

	Sectors      []string `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Products     []string `json:"products,omitempty" yaml:"products,omitempty"`
	RawMaterials []string `json:"raw_materials,omitempty" yaml:"raw_materials,omitempty"`

	StrategicImportance  StrategicImportance `json:"strategic_importance" yaml:"strategic_importance"`
	DailyRevenue         float64             `json:"daily_revenue" yaml:"daily_revenue"`
	DailyProductionUnits float64             `json:"daily_production_units" yaml:"daily_production_units"`
	SafetyStockDays      int                 `json:"safety_stock_days" yaml:"safety_stock_days"`
	RecoveryTimeDays     int                 `json:"recovery_time_days" yaml:"recovery_time_days"`
	HasBackupSite        bool                `json:"has_backup_site" yaml:"has_backup_site"`
	KeyCustomers         []KeyCustomer       `json:"key_customers,omitempty" yaml:"key_customers,omitempty"`
}

// Supplier is an external supplier feeding one or more sites.
// IsSoleSupplier is derived from the relationship edges at graph load time,
// never set directly by the source data.
type Supplier struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Country string   `json:"country" yaml:"country"`
	Lat     *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`

	Sectors      []string `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Products     []string `json:"products,omitempty" yaml:"products,omitempty"`
	RawMaterials []string `json:"raw_materials,omitempty" yaml:"raw_materials,omitempty"`

	SwitchTimeDays   int     `json:"switch_time_days" yaml:"switch_time_days"`
	CriticalityScore float64 `json:"criticality_score" yaml:"criticality_score"`
	HasBackup        bool    `json:"has_backup" yaml:"has_backup"`
	IsSoleSupplier   bool    `json:"is_sole_supplier" yaml:"is_sole_supplier"`
}

// RelationshipCriticality is the contractual tier of a site-supplier edge.
type RelationshipCriticality string

const (
	RelationStandard  RelationshipCriticality = "Standard"
	RelationImportant RelationshipCriticality = "Important"
	RelationCritical  RelationshipCriticality = "Critique"
)

// NormalizeRelationCriticality maps free-form input to a relationship tier.
func NormalizeRelationCriticality(s string) RelationshipCriticality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critique", "critical":
		return RelationCritical
	case "important":
		return RelationImportant
	default:
		return RelationStandard
	}
}

// Relationship is a site-supplier edge carrying the financial attributes the
// business impact calculator folds over. StockCoverageDays is optional in the
// source data; nil means "not tracked" and defaults downstream.
type Relationship struct {
	ID         string `json:"id" yaml:"id"`
	SiteID     string `json:"site_id" yaml:"site_id"`
	SupplierID string `json:"supplier_id" yaml:"supplier_id"`

	DailyConsumptionValue   float64                 `json:"daily_consumption_value" yaml:"daily_consumption_value"`
	StockCoverageDays       *float64                `json:"stock_coverage_days,omitempty" yaml:"stock_coverage_days,omitempty"`
	ContractPenaltiesPerDay float64                 `json:"contract_penalties_per_day" yaml:"contract_penalties_per_day"`
	IsSoleSupplier          bool                    `json:"is_sole_supplier" yaml:"is_sole_supplier"`
	Criticality             RelationshipCriticality `json:"criticality" yaml:"criticality"`
	LeadTimeDays            int                     `json:"lead_time_days" yaml:"lead_time_days"`
	AnnualVolume            float64                 `json:"annual_volume" yaml:"annual_volume"`
}
