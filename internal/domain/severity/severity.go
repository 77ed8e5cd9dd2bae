// Package severity maps classified event types and their indicators to a
// 1-5 severity and fixed default disruption durations.
package severity

import (
	"math"

	"github.com/okian/supplyline/internal/domain/model"
)

// Indicator thresholds that promote an event within its severity range.
const (
	majorParticipants    = 1000
	moderateParticipants = 500
)

// bounds is the baseline severity range for one event type.
type bounds struct {
	min int
	max int
}

var defaultRanges = map[model.EventType]bounds{
	model.EventStrike:                {min: 3, max: 5},
	model.EventBankruptcy:            {min: 4, max: 5},
	model.EventEnvironmentalShutdown: {min: 3, max: 5},
	model.EventRegulatoryAction:      {min: 2, max: 4},
	model.EventInfrastructureOutage:  {min: 1, max: 3},
	model.EventLaborProtest:          {min: 1, max: 3},
}

// unknownRange applies to event types the classifier invents later.
var unknownRange = bounds{min: 1, max: 3}

var defaultDurations = map[model.EventType]int{
	model.EventStrike:                21,
	model.EventBankruptcy:            60,
	model.EventEnvironmentalShutdown: 30,
	model.EventRegulatoryAction:      45,
	model.EventInfrastructureOutage:  7,
	model.EventLaborProtest:          14,
}

const unknownDurationDays = 14

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithRange overrides the baseline severity range for an event type.
// Invalid bounds are ignored.
func WithRange(t model.EventType, minSev, maxSev int) Option {
	return func(m *Model) {
		if minSev >= 1 && maxSev <= 5 && minSev <= maxSev {
			m.ranges[t] = bounds{min: minSev, max: maxSev}
		}
	}
}

// WithDuration overrides the default disruption duration for an event type.
func WithDuration(t model.EventType, days int) Option {
	return func(m *Model) {
		if days > 0 {
			m.durations[t] = days
		}
	}
}

// Model holds the severity ranges and duration defaults. It is immutable
// after construction so test suites can substitute deterministic tables.
type Model struct {
	ranges    map[model.EventType]bounds
	durations map[model.EventType]int
}

// New builds a Model with the baseline tables, applying any options.
func New(opts ...Option) *Model {
	m := &Model{
		ranges:    make(map[model.EventType]bounds, len(defaultRanges)),
		durations: make(map[model.EventType]int, len(defaultDurations)),
	}
	for t, b := range defaultRanges {
		m.ranges[t] = b
	}
	for t, d := range defaultDurations {
		m.durations[t] = d
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Severity returns the 1-5 severity for an event type given its optional
// indicators. Absent indicators fall through to the range minimum; the
// result is always within [1,5]. Pure function, no error conditions.
func (m *Model) Severity(t model.EventType, ind *model.Indicators) int {
	r, ok := m.ranges[t]
	if !ok {
		r = unknownRange
	}

	s := r.min
	if ind != nil {
		switch {
		case ind.Scope == model.ScopeMajor ||
			ind.Participants > majorParticipants ||
			ind.HistoricalImpact == model.ImpactHigh:
			s = r.max
		case ind.Scope == model.ScopeModerate ||
			ind.Participants > moderateParticipants ||
			ind.HistoricalImpact == model.ImpactMedium:
			s = int(math.Ceil(float64(r.min+r.max) / 2))
		}
	}

	return clampSeverity(s)
}

// DurationDays returns the default expected disruption duration for an
// event type, used when no explicit duration is supplied.
func (m *Model) DurationDays(t model.EventType) int {
	if d, ok := m.durations[t]; ok {
		return d
	}
	return unknownDurationDays
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
