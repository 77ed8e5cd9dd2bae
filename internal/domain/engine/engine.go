// Package engine composes the scoring stages into an explicit pipeline:
// severity -> risk score -> exposure -> forecast -> recommendations.
// Every stage is a pure computation; the surrounding layer supplies fully
// resolved catalog records before invoking it.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/supplyline/internal/domain/exposure"
	"github.com/okian/supplyline/internal/domain/forecast"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/internal/domain/recommend"
	"github.com/okian/supplyline/internal/domain/scoring"
	"github.com/okian/supplyline/internal/domain/severity"
)

// forecastReportingHorizonWeeks is the standard horizon reported on
// exposure results.
const forecastReportingHorizonWeeks = 6

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithSeverityModel replaces the severity model.
func WithSeverityModel(m *severity.Model) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.severity = m
		}
	}
}

// WithCalculator replaces the risk score calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.calculator = c
		}
	}
}

// WithPropagator replaces the exposure propagator.
func WithPropagator(pr *exposure.Propagator) Option {
	return func(p *Pipeline) {
		if pr != nil {
			p.propagator = pr
		}
	}
}

// WithForecaster replaces the forecast engine.
func WithForecaster(f *forecast.Engine) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.forecaster = f
		}
	}
}

// Pipeline wires the five engine stages. All stages are stateless, so a
// single Pipeline may score many (risk, facility) pairs concurrently.
type Pipeline struct {
	severity   *severity.Model
	calculator *scoring.Calculator
	propagator *exposure.Propagator
	forecaster *forecast.Engine
	recommend  *recommend.Generator
}

// New builds a Pipeline from default stages, applying any options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		severity:   severity.New(),
		calculator: scoring.NewCalculator(),
		propagator: exposure.NewPropagator(),
		forecaster: forecast.New(),
		recommend:  recommend.NewGenerator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Severity exposes the severity model for callers resolving indicators.
func (p *Pipeline) Severity() *severity.Model { return p.severity }

// Propagator exposes the exposure stage for standing commodity queries.
func (p *Pipeline) Propagator() *exposure.Propagator { return p.propagator }

// Recommender exposes the recommendation stage for OEM-aggregate rules.
func (p *Pipeline) Recommender() *recommend.Generator { return p.recommend }

// ScoreEvent computes the 0-1 risk score for a classified event. Events
// arriving without a severity get one derived from their indicators first.
func (p *Pipeline) ScoreEvent(e model.Event, f model.Facility, r model.Region, c model.Commodity, now time.Time) (float64, []scoring.Diagnostic) {
	if e.Severity == 0 {
		e.Severity = p.severity.Severity(e.Type, e.Indicators)
	}
	return p.calculator.Score(e, f, r, c, now)
}

// RiskFromEvent lifts a classified event into a scoreable risk record.
// Aggregating multiple events into one risk is an upstream concern; the
// service maps each signal to its own risk instance.
func (p *Pipeline) RiskFromEvent(e model.Event, now time.Time) model.Risk {
	sev := e.Severity
	if sev == 0 {
		sev = p.severity.Severity(e.Type, e.Indicators)
	}
	detected := e.DetectedAt
	if detected.IsZero() {
		detected = now
	}
	return model.Risk{
		ID:           uuid.NewString(),
		Category:     e.Type,
		Region:       e.Region,
		Commodity:    e.Commodity,
		FacilityID:   e.FacilityID,
		Severity:     sev,
		Confidence:   e.Confidence,
		DetectedAt:   detected,
		DurationDays: p.severity.DurationDays(e.Type),
		Status:       model.RiskActive,
	}
}

// Assess runs the full downstream pipeline for one risk: propagate the
// exposure through the supply-chain graph, forecast each exposed OEM at
// the standard six-week horizon, and attach the impact assessment with
// mitigation recommendations. Results arrive sorted descending by
// exposure score.
func (p *Pipeline) Assess(risk model.Risk, facility model.Facility, commodity model.Commodity, conns []model.SupplyChainConnection, now time.Time) []model.OEMExposure {
	exposed := p.propagator.AffectedOEMs(risk, facility, conns)
	impactWeeks := p.propagator.LeadTime(facility.Region)

	for i := range exposed {
		fc := p.forecaster.Disruption(risk, exposed[i].ExposureScore, forecastReportingHorizonWeeks, now)
		exposed[i].DisruptionProbability6W = fc.Points[0].Probability
		exposed[i].EstimatedDisruptionDays = risk.DurationDays
		if exposed[i].EstimatedDisruptionDays == 0 {
			exposed[i].EstimatedDisruptionDays = p.severity.DurationDays(risk.Category)
		}

		recs := p.recommend.ForExposure(recommend.Input{
			DependencyPct:       exposed[i].DependencyPct,
			AlternativeSources:  exposed[i].AlternativeSources,
			Commodity:           commodity,
			EarliestImpactWeeks: impactWeeks,
		}, risk)

		exposed[i].Impact = model.ImpactAssessment{
			RiskLevel: model.LevelFor(exposed[i].ExposureScore),
			// Supply gap as the dependency share jeopardized by this risk.
			SupplyGapEstimate: model.Clamp01(exposed[i].ExposureScore * exposed[i].DependencyPct / 100.0),
			Recommendations:   recs,
		}
	}
	return exposed
}

// Forecast projects a risk against a baseline exposure over the requested
// horizon. Horizon validation happens at the API boundary; benign edge
// values are tolerated here.
func (p *Pipeline) Forecast(risk model.Risk, baselineExposure float64, horizonWeeks int, now time.Time) model.ForecastResult {
	return p.forecaster.Disruption(risk, baselineExposure, horizonWeeks, now)
}
