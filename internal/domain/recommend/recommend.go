// Package recommend derives mitigation actions from propagated exposure.
package recommend

import (
	"fmt"

	"github.com/okian/supplyline/internal/domain/exposure"
	"github.com/okian/supplyline/internal/domain/model"
)

// Thresholds for rule evaluation.
const (
	urgentSeverity      = 4
	alternativesWanted  = 2
	diversifyCostPerPct = 25_000 // rough USD estimate per dependency point
)

// Canonical action names emitted by the generator.
const (
	ActionInventoryBuffer      = "increase inventory buffer"
	ActionActivateAlternatives = "activate alternative suppliers"
	ActionFinancialHedging     = "hedge commodity price exposure"
	ActionSupplierRelations    = "strengthen supplier relationships"
	ActionDiversifyBase        = "diversify supplier base"
	ActionContingencyPlans     = "activate contingency plans"
)

// Input is the per-exposure slice of state the rules evaluate.
type Input struct {
	DependencyPct      float64
	AlternativeSources int
	Commodity          model.Commodity
	// EarliestImpactWeeks is the facility's lead-time estimate used as the
	// timeline for sourcing actions.
	EarliestImpactWeeks int
}

// Generator evaluates the mitigation rule list. Stateless.
type Generator struct{}

// NewGenerator creates a recommendation generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// ForExposure evaluates the deterministic rule list in order; any subset
// may fire, and the buffer and relationship rules always do.
func (g *Generator) ForExposure(in Input, risk model.Risk) []model.Recommendation {
	recs := make([]model.Recommendation, 0, 4)

	buffer := exposure.BufferWeeks(in.DependencyPct)
	bufferPriority := model.PriorityHigh
	if risk.Severity >= urgentSeverity {
		bufferPriority = model.PriorityUrgent
	}
	recs = append(recs, model.Recommendation{
		Action:   ActionInventoryBuffer,
		Detail:   fmt.Sprintf("hold %d-%d weeks of %s inventory against the disruption window", buffer, buffer+2, in.Commodity.Code),
		Priority: bufferPriority,
		Timeline: "immediate",
	})

	if in.AlternativeSources < alternativesWanted {
		recs = append(recs, model.Recommendation{
			Action:   ActionActivateAlternatives,
			Detail:   fmt.Sprintf("qualify and activate backup sources for %s before the impact window", in.Commodity.Code),
			Priority: model.PriorityHigh,
			Timeline: fmt.Sprintf("within %d weeks", maxInt(in.EarliestImpactWeeks, 1)),
		})
	}

	if in.Commodity.IsRawMaterial() {
		recs = append(recs, model.Recommendation{
			Action:   ActionFinancialHedging,
			Detail:   fmt.Sprintf("hedge %s price exposure via futures or fixed-price contracts", in.Commodity.Code),
			Priority: model.PriorityMedium,
			Timeline: "1-2 weeks",
		})
	}

	recs = append(recs, model.Recommendation{
		Action:   ActionSupplierRelations,
		Detail:   "open direct communication with affected suppliers to track recovery progress",
		Priority: model.PriorityMedium,
		Timeline: "within 1 week",
	})

	return recs
}

// ForOEM evaluates the aggregate rules across an OEM's commodity exposures
// and active risks.
func (g *Generator) ForOEM(commodities []model.CommodityExposure, activeRisks []model.Risk) []model.Recommendation {
	var recs []model.Recommendation

	for _, c := range commodities {
		if c.RegionalConcentrationRisk != model.ConcentrationHigh {
			continue
		}
		cost := int(c.DependencyPct) * diversifyCostPerPct
		recs = append(recs, model.Recommendation{
			Action:   ActionDiversifyBase,
			Detail:   fmt.Sprintf("%s sourcing is concentrated in a single region; qualifying a second region is estimated at $%d", c.Commodity, cost),
			Priority: model.PriorityHigh,
			Timeline: "1-3 months",
		})
		break
	}

	for _, r := range activeRisks {
		if r.Status != model.RiskActive && r.Status != model.RiskEscalating {
			continue
		}
		if r.Severity >= urgentSeverity {
			recs = append(recs, model.Recommendation{
				Action:   ActionContingencyPlans,
				Detail:   fmt.Sprintf("severity-%d %s risk in %s warrants activating prepared contingency plans", r.Severity, r.Category, r.Region),
				Priority: model.PriorityUrgent,
				Timeline: "1-2 weeks",
			})
			break
		}
	}

	return recs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
