// Package exposure propagates a scored risk through the supply-chain graph
// (facility -> tier-2 -> tier-1 -> OEM) and computes per-OEM exposure.
package exposure

import (
	"math"
	"sort"

	"github.com/okian/supplyline/internal/domain/model"
)

// Propagation constants. The single-source penalty and the per-alternative
// discounts are calibration constants carried over for compatibility, not
// derived from a market model.
const (
	defaultDependencyPct = 5.0

	alternativeDiscount = 0.2
	alternativeFloor    = 0.1

	singleSourcePenalty = 1.5

	commodityAlternativeDiscount = 0.25

	// materialityThreshold excludes noise from ranked OEM lists. Exposure
	// must be strictly above it to be reported.
	materialityThreshold = 0.10

	bufferWeeksPerDependency = 20.0
)

// defaultLeadTimes maps source regions to fixed shipping lead times in
// weeks. Unlisted regions fall back to leadTimeOtherWeeks.
var defaultLeadTimes = map[string]int{
	"peru":    4,
	"mexico":  2,
	"vietnam": 3,
	"china":   4,
	"india":   5,
}

const leadTimeOtherWeeks = 6

// Result is the raw propagation outcome for one facility's chain.
type Result struct {
	ExposureScore          float64 `json:"exposure_score"`
	AffectedTier1Suppliers int     `json:"affected_tier1_suppliers"`
	Tier2Suppliers         int     `json:"tier2_suppliers"`
	MeanDependencyPct      float64 `json:"mean_dependency_pct"`
	AlternativeSources     int     `json:"alternative_sources"`
}

// Option applies a configuration option to the Propagator.
type Option func(*Propagator)

// WithLeadTimes replaces the per-region lead-time table.
func WithLeadTimes(weeks map[string]int) Option {
	return func(p *Propagator) {
		if len(weeks) > 0 {
			p.leadTimes = weeks
		}
	}
}

// WithMaterialityThreshold overrides the ranked-list inclusion threshold.
func WithMaterialityThreshold(t float64) Option {
	return func(p *Propagator) {
		if t >= 0 && t < 1 {
			p.materiality = t
		}
	}
}

// Propagator walks the supply-chain graph outward from an at-risk facility.
// It is stateless and safe for concurrent use.
type Propagator struct {
	leadTimes   map[string]int
	materiality float64
}

// NewPropagator creates a propagator with the default tables.
func NewPropagator(opts ...Option) *Propagator {
	p := &Propagator{
		leadTimes:   defaultLeadTimes,
		materiality: materialityThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reachable gathers the connections on chains leading away from the
// facility: edges supplied by the facility, then edges supplied by those
// buyers, up to the OEM. The graph is small (tens to low hundreds of
// edges), so a plain frontier walk suffices.
func (p *Propagator) Reachable(facilityID string, conns []model.SupplyChainConnection) []model.SupplyChainConnection {
	if facilityID == "" || len(conns) == 0 {
		return nil
	}

	frontier := map[string]struct{}{facilityID: {}}
	visited := map[string]struct{}{}
	var chain []model.SupplyChainConnection

	for len(frontier) > 0 {
		next := map[string]struct{}{}
		for _, c := range conns {
			if _, ok := frontier[c.SupplierID]; !ok {
				continue
			}
			if _, seen := visited[c.SupplierID+"->"+c.BuyerID]; seen {
				continue
			}
			visited[c.SupplierID+"->"+c.BuyerID] = struct{}{}
			chain = append(chain, c)
			next[c.BuyerID] = struct{}{}
		}
		frontier = next
	}
	return chain
}

// Propagate computes the exposure a risk at one facility creates across
// the given chain. Missing dependency percentages fall back to the
// documented default; an empty chain yields the zero Result, which callers
// treat as "exposure unknown".
func (p *Propagator) Propagate(risk model.Risk, facility model.Facility, conns []model.SupplyChainConnection) Result {
	chain := p.Reachable(facility.ID, conns)
	if len(chain) == 0 {
		return Result{}
	}
	return p.propagateChain(risk, chain)
}

// propagateChain scores an already-gathered chain.
func (p *Propagator) propagateChain(risk model.Risk, chain []model.SupplyChainConnection) Result {
	if len(chain) == 0 {
		return Result{}
	}

	res := Result{}
	depSum := 0.0
	for _, c := range chain {
		dep := c.DependencyPct
		if dep <= 0 {
			dep = defaultDependencyPct
		}
		depSum += dep
		switch c.Tier {
		case 1:
			res.AffectedTier1Suppliers++
		case 2:
			res.Tier2Suppliers++
		}
		if c.HasAlternative {
			res.AlternativeSources++
		}
	}

	// Mean, not sum: averaging prevents double counting when multiple
	// paths share a commodity.
	res.MeanDependencyPct = depSum / float64(len(chain))

	score := (res.MeanDependencyPct / 100.0) * (float64(clampSeverity(risk.Severity)) / 5.0)
	if res.AlternativeSources > 0 {
		score *= math.Max(alternativeFloor, 1.0-float64(res.AlternativeSources)*alternativeDiscount)
	}
	if res.AffectedTier1Suppliers == 1 {
		// Single-source concentration penalty; the product may exceed 1
		// here, hence the final clamp.
		score *= singleSourcePenalty
	}
	res.ExposureScore = model.Clamp01(score)
	return res
}

// AffectedOEMs ranks the OEMs exposed to a risk, descending by exposure
// score with OEM id as the deterministic tiebreak. OEMs at or below the
// materiality threshold are excluded as noise.
func (p *Propagator) AffectedOEMs(risk model.Risk, facility model.Facility, conns []model.SupplyChainConnection) []model.OEMExposure {
	chain := p.Reachable(facility.ID, conns)
	if len(chain) == 0 {
		return nil
	}

	byOEM := p.chainsByOEM(chain)
	out := make([]model.OEMExposure, 0, len(byOEM))
	for oemID, oemChain := range byOEM {
		res := p.propagateChain(risk, oemChain)
		if res.ExposureScore <= p.materiality {
			continue
		}
		out = append(out, model.OEMExposure{
			OEMID:                  oemID,
			RiskID:                 risk.ID,
			ExposureScore:          res.ExposureScore,
			AffectedTier1Suppliers: res.AffectedTier1Suppliers,
			Commodity:              risk.Commodity,
			DependencyPct:          res.MeanDependencyPct,
			AlternativeSources:     res.AlternativeSources,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExposureScore != out[j].ExposureScore {
			return out[i].ExposureScore > out[j].ExposureScore
		}
		return out[i].OEMID < out[j].OEMID
	})
	return out
}

// chainsByOEM partitions a chain into per-OEM sub-chains: each tier-1
// edge's buyer is an OEM; tier-2 edges attach to the tier-1 supplier they
// feed.
func (p *Propagator) chainsByOEM(chain []model.SupplyChainConnection) map[string][]model.SupplyChainConnection {
	byOEM := map[string][]model.SupplyChainConnection{}
	for _, c := range chain {
		if c.Tier != 1 {
			continue
		}
		byOEM[c.BuyerID] = append(byOEM[c.BuyerID], c)
		for _, up := range chain {
			if up.Tier == 2 && up.BuyerID == c.SupplierID {
				byOEM[c.BuyerID] = append(byOEM[c.BuyerID], up)
			}
		}
	}
	return byOEM
}

// CommodityInput bundles what the per-commodity computation needs; the
// surrounding layer resolves it from the catalog before invoking.
type CommodityInput struct {
	Commodity                string
	DependencyPct            float64
	SourceRegions            []string
	Tier2SupplierCount       int
	AlternativeSupplierCount int
	// MaxActiveRiskSeverity is the highest severity among the commodity's
	// active risks; zero when none are active.
	MaxActiveRiskSeverity int
	ActiveRisks           int
}

// CommodityExposure computes an OEM's standing exposure to one commodity,
// independent of a specific risk.
func (p *Propagator) CommodityExposure(in CommodityInput) model.CommodityExposure {
	dep := in.DependencyPct
	if dep <= 0 {
		dep = defaultDependencyPct
	}

	score := (dep / 100.0) *
		(float64(in.MaxActiveRiskSeverity) / 5.0) *
		(1.0 - float64(in.AlternativeSupplierCount)*commodityAlternativeDiscount)

	return model.CommodityExposure{
		Commodity:                 in.Commodity,
		DependencyPct:             dep,
		PrimarySourceRegions:      in.SourceRegions,
		RegionalConcentrationRisk: concentrationRisk(len(in.SourceRegions)),
		Tier2SupplierCount:        in.Tier2SupplierCount,
		AlternativeSupplierCount:  in.AlternativeSupplierCount,
		ActiveRisks:               in.ActiveRisks,
		ExposureScore:             model.Clamp01(score),
		LeadTimeWeeks:             p.leadTimeWeeks(in.SourceRegions),
		RecommendedBufferWeeks:    BufferWeeks(dep),
	}
}

// BufferWeeks is one week of buffer inventory per 20 percentage points of
// dependency.
func BufferWeeks(dependencyPct float64) int {
	if dependencyPct <= 0 {
		return 1
	}
	return int(math.Ceil(dependencyPct / bufferWeeksPerDependency))
}

// LeadTime returns the fixed shipping lead time for one source region,
// in weeks.
func (p *Propagator) LeadTime(region string) int {
	if w, ok := p.leadTimes[region]; ok {
		return w
	}
	return leadTimeOtherWeeks
}

// leadTimeWeeks averages the fixed per-region lead times, rounded up.
func (p *Propagator) leadTimeWeeks(regions []string) int {
	if len(regions) == 0 {
		return leadTimeOtherWeeks
	}
	sum := 0
	for _, r := range regions {
		if w, ok := p.leadTimes[r]; ok {
			sum += w
		} else {
			sum += leadTimeOtherWeeks
		}
	}
	return int(math.Ceil(float64(sum) / float64(len(regions))))
}

func concentrationRisk(regionCount int) model.ConcentrationRisk {
	switch {
	case regionCount == 0:
		return model.ConcentrationUnknown
	case regionCount == 1:
		return model.ConcentrationHigh
	case regionCount == 2:
		return model.ConcentrationMedium
	default:
		return model.ConcentrationLow
	}
}

func clampSeverity(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
