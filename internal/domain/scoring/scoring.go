// Package scoring computes the 0-1 risk score for one classified event
// against one facility, region, and commodity.
package scoring

import (
	"math"
	"time"

	"github.com/okian/supplyline/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultEventWeight    = 0.65
	defaultDecayRate      = 0.05 // per week
	defaultMinConfidence  = 0.60
	defaultFallbackScore  = 0.30
	defaultConfidence     = 0.5
	defaultCapacityTonnes = 1000

	// Capacity heuristic: smaller facilities are treated as more critical
	// per unit of disruption. A simplifying heuristic, not a market model.
	capacityReference = 100.0
	capacityFloor     = 10.0

	// Substitution multipliers are capped then normalized by this divisor,
	// yielding a factor roughly in [0.33, 0.67].
	substitutionCap     = 2.0
	substitutionDivisor = 3.0

	hoursPerWeek = 24 * 7
)

// Weights is the immutable configuration for the calculator. Construct it
// once and pass it in; tests can substitute deterministic tables.
type Weights struct {
	EventType     map[model.EventType]float64
	DefaultWeight float64
	// DecayRate is the weekly exponential relevance decay.
	DecayRate float64
	// MinConfidence is the documented upstream filter threshold. The
	// calculator does not reject values below it; they simply yield a
	// proportionally smaller score.
	MinConfidence float64
	Substitution  map[model.Difficulty]float64
	// FallbackScore is the conservative mid-score returned when a
	// computation degrades instead of failing the batch.
	FallbackScore float64
}

// DefaultWeights returns the calibrated production weight set.
func DefaultWeights() Weights {
	return Weights{
		EventType: map[model.EventType]float64{
			model.EventStrike:                0.85,
			model.EventBankruptcy:            0.90,
			model.EventEnvironmentalShutdown: 0.75,
			model.EventRegulatoryAction:      0.70,
			model.EventInfrastructureOutage:  0.60,
			model.EventLaborProtest:          0.65,
		},
		DefaultWeight: defaultEventWeight,
		DecayRate:     defaultDecayRate,
		MinConfidence: defaultMinConfidence,
		Substitution: map[model.Difficulty]float64{
			model.DifficultyHigh:   3.0,
			model.DifficultyMedium: 2.0,
			model.DifficultyLow:    1.0,
		},
		FallbackScore: defaultFallbackScore,
	}
}

// DiagnosticKind classifies a degraded-mode condition.
type DiagnosticKind string

const (
	// DiagDefaulted marks a missing or out-of-range input replaced by a
	// documented neutral value.
	DiagDefaulted DiagnosticKind = "defaulted"
	// DiagFallback marks a computation that collapsed to the conservative
	// fallback score.
	DiagFallback DiagnosticKind = "fallback"
)

// Diagnostic reports a degraded-mode condition so callers can log or
// assert on it instead of inferring it from a suspicious constant.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Field string         `json:"field"`
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights replaces the default weight set.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.DefaultWeight > 0 {
			c.weights = w
		}
	}
}

// Calculator turns classified events into 0-1 risk scores. It is stateless
// and safe for concurrent use.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator with the default weight set.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MinConfidence exposes the documented upstream filter threshold.
func (c *Calculator) MinConfidence() float64 {
	return c.weights.MinConfidence
}

// Score computes the risk score for an event at a facility. Each stage
// multiplies into a running value, so a zero anywhere collapses the score:
// missing confidence or expired relevance suppresses it deliberately.
// Missing inputs fall back to documented defaults and are reported as
// diagnostics; the function never returns an error.
func (c *Calculator) Score(e model.Event, f model.Facility, r model.Region, com model.Commodity, now time.Time) (float64, []Diagnostic) {
	var diags []Diagnostic

	weight, ok := c.weights.EventType[e.Type]
	if !ok {
		weight = c.weights.DefaultWeight
		diags = append(diags, Diagnostic{Kind: DiagDefaulted, Field: "event_type"})
	}

	sev := e.Severity
	if sev < 1 || sev > 5 {
		sev = clampSeverity(sev)
		diags = append(diags, Diagnostic{Kind: DiagDefaulted, Field: "severity"})
	}
	score := float64(sev) / 5.0 * weight

	conf := e.Confidence
	if conf <= 0 || conf > 1 {
		conf = defaultConfidence
		diags = append(diags, Diagnostic{Kind: DiagDefaulted, Field: "confidence"})
	}
	score *= conf

	score *= c.decayFactor(e.DetectedAt, now, &diags)

	// When no region production-share record resolves, the facility's own
	// regional share (a percentage) stands in for it.
	share := r.ProductionShare
	if share <= 0 && f.RegionalSharePct > 0 {
		share = f.RegionalSharePct / 100.0
		diags = append(diags, Diagnostic{Kind: DiagDefaulted, Field: "production_share"})
	}
	score *= regionalMultiplier(share)
	score *= c.substitutionFactor(com.SubstitutionDifficulty, &diags)
	score *= capacityFactor(f.AnnualCapacityTonnes, &diags)

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return c.weights.FallbackScore, append(diags, Diagnostic{Kind: DiagFallback, Field: "score"})
	}
	return model.Clamp01(score), diags
}

// decayFactor models events losing relevance as weeks pass without
// escalation: (1 - rate) ^ weeksSinceDetected.
func (c *Calculator) decayFactor(detected, now time.Time, diags *[]Diagnostic) float64 {
	if detected.IsZero() {
		*diags = append(*diags, Diagnostic{Kind: DiagDefaulted, Field: "detected_at"})
		return 1.0
	}
	weeks := now.Sub(detected).Hours() / hoursPerWeek
	if weeks < 0 {
		weeks = 0
	}
	return math.Pow(1.0-c.weights.DecayRate, weeks)
}

// regionalMultiplier scales by the region's share of global production,
// capped at 1.
func regionalMultiplier(share float64) float64 {
	if share <= 0 {
		return 1.0
	}
	return math.Min(1.0, share)
}

// substitutionFactor amplifies risk for harder-to-substitute commodities.
// The raw multiplier is capped at 2 before normalizing by 3.
func (c *Calculator) substitutionFactor(d model.Difficulty, diags *[]Diagnostic) float64 {
	mult, ok := c.weights.Substitution[d]
	if !ok {
		mult = c.weights.Substitution[model.DifficultyLow]
		if mult == 0 {
			mult = 1.0
		}
		*diags = append(*diags, Diagnostic{Kind: DiagDefaulted, Field: "substitution_difficulty"})
	}
	return math.Min(mult, substitutionCap) / substitutionDivisor
}

// capacityFactor treats small absolute tonnage as fragile: a specialized
// facility with no scale buffer is more critical per unit of disruption.
func capacityFactor(tonnes float64, diags *[]Diagnostic) float64 {
	if tonnes <= 0 {
		tonnes = defaultCapacityTonnes
		*diags = append(*diags, Diagnostic{Kind: DiagDefaulted, Field: "annual_capacity_tonnes"})
	}
	return math.Min(1.0, capacityReference/math.Max(tonnes, capacityFloor))
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
