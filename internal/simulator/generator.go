package simulator

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/supplyline/pkg/logger"
)

// Scenario mixes mirror the event-type distribution seen in real signal
// feeds: infrastructure noise dominates, bankruptcies are rare.
var signalTypes = []struct {
	name   string
	weight int
}{
	{"infrastructure_outage", 30},
	{"labor_protest", 20},
	{"strike", 18},
	{"regulatory_action", 15},
	{"environmental_shutdown", 12},
	{"bankruptcy", 5},
}

var regions = []string{"peru", "mexico", "vietnam", "china", "india", "chile"}

var commodities = []string{"copper", "zinc", "silver", "rare_earth", "lithium"}

var scopes = []string{"", "moderate", "major"}

// generateSignals creates NumSignals synthetic classified signals. The
// generator is deterministic for a given seed.
func generateSignals(ctx context.Context, config *Config, stats *Stats) []Signal {
	logger.Get().Info(ctx, "generating signals",
		logger.Int("count", config.NumSignals),
		logger.Any("seed", config.Seed))

	rng := rand.New(rand.NewSource(config.Seed))
	now := time.Now().UTC()

	signals := make([]Signal, config.NumSignals)
	for i := range signals {
		signals[i] = generateSingleSignal(rng, i, now)
	}

	stats.SignalsGenerated = len(signals)
	return signals
}

func generateSingleSignal(rng *rand.Rand, index int, now time.Time) Signal {
	typ := pickType(rng)
	region := regions[rng.Intn(len(regions))]
	commodity := commodities[rng.Intn(len(commodities))]

	// Detected up to four weeks in the past so decay shows in scores.
	detected := now.Add(-time.Duration(rng.Intn(28*24)) * time.Hour)

	s := Signal{
		SignalID:   "sim_" + strconv.Itoa(index) + "_" + strconv.FormatInt(now.Unix(), 10),
		Type:       typ,
		Confidence: 0.4 + rng.Float64()*0.6,
		DetectedAt: detected.Format(time.RFC3339),
		FacilityID: "fac-" + region + "-" + strconv.Itoa(rng.Intn(4)),
		Region:     region,
		Commodity:  commodity,
	}

	// Half the signals carry indicators instead of a pre-set severity,
	// exercising the severity model on the other side.
	if rng.Intn(2) == 0 {
		s.Indicators = randomIndicators(rng)
	} else {
		s.Severity = 1 + rng.Intn(5)
	}
	return s
}

func pickType(rng *rand.Rand) string {
	total := 0
	for _, t := range signalTypes {
		total += t.weight
	}
	n := rng.Intn(total)
	for _, t := range signalTypes {
		n -= t.weight
		if n < 0 {
			return t.name
		}
	}
	return signalTypes[0].name
}

func randomIndicators(rng *rand.Rand) *Indicators {
	ind := &Indicators{
		Scope: scopes[rng.Intn(len(scopes))],
	}
	if rng.Intn(2) == 0 {
		ind.Participants = rng.Intn(2000)
	}
	switch rng.Intn(3) {
	case 0:
		ind.HistoricalImpact = "high"
	case 1:
		ind.HistoricalImpact = "medium"
	}
	return ind
}
