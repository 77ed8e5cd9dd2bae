// Package forecast projects a risk's disruption probability forward over a
// weekly horizon.
package forecast

import (
	"math"
	"time"

	"github.com/okian/supplyline/internal/domain/model"
)

// Forecast configuration constants.
const (
	defaultWeeklyDecay = 0.95
	escalationBoost    = 1.2

	// Timeline factors: a start date near the horizon edge contributes
	// less, a start beyond it contributes a fixed floor, and an unknown
	// start sits in the middle.
	timelineAttenuation   = 0.3
	beyondHorizonFactor   = 0.2
	unknownTimelineFactor = 0.5

	hoursPerWeek = 24 * 7
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeeklyDecay overrides the temporal decay applied per forecast week.
func WithWeeklyDecay(d float64) Option {
	return func(e *Engine) {
		if d > 0 && d <= 1 {
			e.weeklyDecay = d
		}
	}
}

// Engine computes disruption forecasts. Stateless, safe for concurrent use.
type Engine struct {
	weeklyDecay float64
}

// New creates a forecast engine with the default decay.
func New(opts ...Option) *Engine {
	e := &Engine{weeklyDecay: defaultWeeklyDecay}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Disruption projects the risk over weeks 0..horizonWeeks inclusive against
// a baseline supply-chain exposure. The caller validates horizonWeeks >= 0;
// benign edge values (horizon 0) return a single week-0 entry. Peak week is
// the entry with maximum probability, earliest week winning ties.
func (e *Engine) Disruption(risk model.Risk, exposure float64, horizonWeeks int, now time.Time) model.ForecastResult {
	if horizonWeeks < 0 {
		horizonWeeks = 0
	}

	points := make([]model.ForecastPoint, 0, horizonWeeks+1)
	peakWeek := 0
	peakProb := -1.0
	for w := 0; w <= horizonWeeks; w++ {
		p := e.Probability(risk, horizonWeeks-w, now)
		decay := math.Pow(e.weeklyDecay, float64(w))
		points = append(points, model.ForecastPoint{
			Week:               w,
			Probability:        p,
			ExpectedDisruption: model.Clamp01(p * exposure * decay),
			RiskLevel:          model.LevelFor(p),
		})
		if p > peakProb {
			peakProb = p
			peakWeek = w
		}
	}

	return model.ForecastResult{
		TimeHorizonWeeks: horizonWeeks,
		Points:           points,
		PeakRiskWeek:     peakWeek,
	}
}

// Probability estimates the chance the risk materializes into an actual
// supply interruption within the remaining horizon of h weeks. Clamped to
// [0,1]; monotonically non-decreasing in severity and confidence.
func (e *Engine) Probability(risk model.Risk, h int, now time.Time) float64 {
	sev := risk.Severity
	if sev < 1 {
		sev = 1
	}
	if sev > 5 {
		sev = 5
	}
	severityFactor := float64(sev) / 5.0 * model.Clamp01(risk.Confidence)

	phaseFactor := 1.0
	if risk.Status == model.RiskEscalating {
		phaseFactor = escalationBoost
	}

	return model.Clamp01(severityFactor * phaseFactor * e.timelineFactor(risk.StartsAt, h, now))
}

// timelineFactor weighs how soon the risk's start date falls within the
// remaining horizon. Division is guarded with max(h,1) so a zero horizon
// cannot fault.
func (e *Engine) timelineFactor(start *time.Time, h int, now time.Time) float64 {
	if start == nil {
		return unknownTimelineFactor
	}

	weeksUntil := start.Sub(now).Hours() / hoursPerWeek
	if weeksUntil < 0 {
		// Already started: full weight.
		weeksUntil = 0
	}
	if weeksUntil > float64(h) {
		return beyondHorizonFactor
	}
	return 1.0 - (weeksUntil/math.Max(float64(h), 1))*timelineAttenuation
}
