// Package model contains domain records passed between engine stages.
package model

import (
	"math"
	"time"
)

// EventType enumerates the classified disruption categories.
type EventType string

// Known event types produced by the upstream classifier.
const (
	EventStrike                EventType = "strike"
	EventBankruptcy            EventType = "bankruptcy"
	EventEnvironmentalShutdown EventType = "environmental_shutdown"
	EventRegulatoryAction      EventType = "regulatory_action"
	EventInfrastructureOutage  EventType = "infrastructure_outage"
	EventLaborProtest          EventType = "labor_protest"
)

// Scope describes how widespread an event is according to its indicators.
type Scope string

const (
	ScopeNone     Scope = "none"
	ScopeModerate Scope = "moderate"
	ScopeMajor    Scope = "major"
)

// ImpactLevel is the historical-impact hint attached by the classifier.
type ImpactLevel string

const (
	ImpactNone   ImpactLevel = "none"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Indicators carry optional severity hints extracted from the source article.
type Indicators struct {
	Scope            Scope       `json:"scope,omitempty"`
	Participants     int         `json:"participants,omitempty"`
	HistoricalImpact ImpactLevel `json:"historical_impact,omitempty"`
}

// Event is a single classified disruption signal. The engine only reads it;
// it is never mutated after classification.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Severity   int         `json:"severity"`
	Confidence float64     `json:"confidence"`
	DetectedAt time.Time   `json:"detected_at"`
	Indicators *Indicators `json:"indicators,omitempty"`
	FacilityID string      `json:"facility_id"`
	Region     string      `json:"region"`
	Commodity  string      `json:"commodity"`
}

// Facility is a physical production site from the reference catalog.
type Facility struct {
	ID                   string  `json:"id"`
	Country              string  `json:"country"`
	Region               string  `json:"region"`
	Commodity            string  `json:"commodity"`
	AnnualCapacityTonnes float64 `json:"annual_capacity_tonnes"`
	RegionalSharePct     float64 `json:"regional_share_pct"`
}

// Region holds the production share a region represents for a commodity,
// expressed as a fraction of global production in [0,1].
type Region struct {
	Name            string  `json:"name"`
	Commodity       string  `json:"commodity"`
	ProductionShare float64 `json:"production_share"`
}

// Difficulty rates how hard a commodity source is to replace.
type Difficulty string

const (
	DifficultyHigh   Difficulty = "high"
	DifficultyMedium Difficulty = "medium"
	DifficultyLow    Difficulty = "low"
)

// Commodity is static reference data describing a traded material.
type Commodity struct {
	Code                   string     `json:"code"`
	Category               string     `json:"category"`
	SubstitutionDifficulty Difficulty `json:"substitution_difficulty"`
}

// Raw-material commodity classes eligible for financial hedging.
var rawMaterialCategories = map[string]struct{}{
	"raw_material": {},
	"metal":        {},
	"mineral":      {},
	"agricultural": {},
}

// IsRawMaterial reports whether the commodity belongs to a raw-material
// class for which hedging instruments exist.
func (c Commodity) IsRawMaterial() bool {
	_, ok := rawMaterialCategories[c.Category]
	return ok
}

// RiskStatus tracks the lifecycle of an aggregated risk.
type RiskStatus string

const (
	RiskActive     RiskStatus = "active"
	RiskEscalating RiskStatus = "escalating"
	RiskResolved   RiskStatus = "resolved"
	RiskMitigated  RiskStatus = "mitigated"
)

// Risk is an aggregated, scored disruption instance tied to one or more
// events and facilities. The engine computes its exposure and disruption
// probability; aggregation of events into risks happens upstream.
type Risk struct {
	ID            string     `json:"id"`
	Category      EventType  `json:"category"`
	Region        string     `json:"region"`
	Commodity     string     `json:"commodity"`
	FacilityID    string     `json:"facility_id"`
	Severity      int        `json:"severity"`
	Confidence    float64    `json:"confidence"`
	RiskScore     float64    `json:"risk_score"`
	ExposureScore float64    `json:"exposure_score"`
	DetectedAt    time.Time  `json:"detected_at"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	DurationDays  int        `json:"duration_days"`
	Status        RiskStatus `json:"status"`
}

// SupplyChainConnection is a supplier -> buyer edge. Tier 1 edges feed an
// OEM directly; tier 2 edges feed a tier-1 supplier.
type SupplyChainConnection struct {
	SupplierID     string  `json:"supplier_id"`
	BuyerID        string  `json:"buyer_id"`
	Tier           int     `json:"tier"`
	DependencyPct  float64 `json:"dependency_pct"`
	Commodity      string  `json:"commodity"`
	HasAlternative bool    `json:"has_alternative"`
}

// Priority orders mitigation recommendations.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Recommendation is a single mitigation action derived from exposure.
type Recommendation struct {
	Action   string   `json:"action"`
	Detail   string   `json:"detail"`
	Priority Priority `json:"priority"`
	Timeline string   `json:"timeline"`
}

// ImpactAssessment summarizes the business impact attached to an exposure.
type ImpactAssessment struct {
	RiskLevel         RiskLevel        `json:"risk_level"`
	SupplyGapEstimate float64          `json:"supply_gap_estimate"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// OEMExposure is the engine's per-OEM, per-risk output.
type OEMExposure struct {
	OEMID                   string           `json:"oem_id"`
	RiskID                  string           `json:"risk_id"`
	ExposureScore           float64          `json:"exposure_score"`
	AffectedTier1Suppliers  int              `json:"affected_tier1_suppliers"`
	Commodity               string           `json:"commodity"`
	DependencyPct           float64          `json:"dependency_percentage"`
	AlternativeSources      int              `json:"alternative_sources"`
	DisruptionProbability6W float64          `json:"disruption_probability_6w"`
	EstimatedDisruptionDays int              `json:"estimated_disruption_days"`
	Impact                  ImpactAssessment `json:"impact_assessment"`
}

// ConcentrationRisk labels how concentrated an OEM's sourcing is by region.
type ConcentrationRisk string

const (
	ConcentrationUnknown ConcentrationRisk = "UNKNOWN"
	ConcentrationHigh    ConcentrationRisk = "HIGH"
	ConcentrationMedium  ConcentrationRisk = "MEDIUM"
	ConcentrationLow     ConcentrationRisk = "LOW"
)

// CommodityExposure describes an OEM's standing exposure to one commodity,
// independent of a specific risk.
type CommodityExposure struct {
	Commodity                 string            `json:"commodity"`
	DependencyPct             float64           `json:"dependency_percentage"`
	PrimarySourceRegions      []string          `json:"primary_source_regions"`
	RegionalConcentrationRisk ConcentrationRisk `json:"regional_concentration_risk"`
	Tier2SupplierCount        int               `json:"tier2_supplier_count"`
	AlternativeSupplierCount  int               `json:"alternative_supplier_count"`
	ActiveRisks               int               `json:"active_risks"`
	ExposureScore             float64           `json:"exposure_score"`
	LeadTimeWeeks             int               `json:"lead_time_weeks"`
	RecommendedBufferWeeks    int               `json:"recommended_buffer_weeks"`
}

// OEMCommodityReport is the standing per-commodity exposure view for one
// OEM plus the aggregate mitigation actions.
type OEMCommodityReport struct {
	OEMID           string              `json:"oem_id"`
	Commodities     []CommodityExposure `json:"commodities"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// ForecastPoint is one weekly step of a disruption forecast.
type ForecastPoint struct {
	Week               int       `json:"week"`
	Probability        float64   `json:"probability"`
	ExpectedDisruption float64   `json:"expected_disruption"`
	RiskLevel          RiskLevel `json:"risk_level"`
}

// ForecastResult projects disruption probability over a weekly horizon.
type ForecastResult struct {
	TimeHorizonWeeks int             `json:"time_horizon_weeks"`
	Points           []ForecastPoint `json:"forecast"`
	PeakRiskWeek     int             `json:"peak_risk_week"`
}

// RiskLevel buckets a 0-1 score for display purposes.
type RiskLevel string

const (
	LevelHigh   RiskLevel = "HIGH"
	LevelMedium RiskLevel = "MEDIUM"
	LevelLow    RiskLevel = "LOW"
)

// LevelFor maps a 0-1 score to its display bucket. The same boundaries
// apply to exposure and disruption scores across the engine.
func LevelFor(score float64) RiskLevel {
	switch {
	case score > 0.6:
		return LevelHigh
	case score > 0.3:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Clamp01 bounds a score to [0,1]. NaN collapses to 0 so a bad intermediate
// never leaks outside the invariant range.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
