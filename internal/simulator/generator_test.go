package simulator

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestGenerateSignals(t *testing.T) {
	Convey("Given a seeded generator config", t, func() {
		ctx := context.Background()
		config := &Config{NumSignals: 500, Seed: 42}

		Convey("When generating a batch", func() {
			stats := &Stats{}
			signals := generateSignals(ctx, config, stats)

			Convey("Then the requested count is produced and counted", func() {
				So(signals, ShouldHaveLength, 500)
				So(stats.SignalsGenerated, ShouldEqual, 500)
			})

			Convey("And every signal is well formed", func() {
				known := map[string]bool{}
				for _, st := range signalTypes {
					known[st.name] = true
				}
				ids := map[string]bool{}

				for _, s := range signals {
					So(s.SignalID, ShouldNotBeEmpty)
					So(ids[s.SignalID], ShouldBeFalse)
					ids[s.SignalID] = true

					So(known[s.Type], ShouldBeTrue)
					So(s.Confidence, ShouldBeBetweenOrEqual, 0.4, 1.0)
					_, err := time.Parse(time.RFC3339, s.DetectedAt)
					So(err, ShouldBeNil)
					So(s.FacilityID, ShouldStartWith, "fac-"+s.Region)
					So(s.Commodity, ShouldBeIn, commodities)

					if s.Indicators == nil {
						So(s.Severity, ShouldBeBetweenOrEqual, 1, 5)
					} else {
						So(s.Severity, ShouldEqual, 0)
					}
				}
			})

			Convey("And the same seed reproduces the same batch", func() {
				again := generateSignals(ctx, &Config{NumSignals: 500, Seed: 42}, &Stats{})
				So(again, ShouldHaveLength, len(signals))
				for i := range signals {
					So(again[i].Type, ShouldEqual, signals[i].Type)
					So(again[i].Severity, ShouldEqual, signals[i].Severity)
					So(again[i].Confidence, ShouldEqual, signals[i].Confidence)
					So(again[i].Region, ShouldEqual, signals[i].Region)
					So(again[i].Commodity, ShouldEqual, signals[i].Commodity)
				}
			})

			Convey("And the type mix leans toward infrastructure noise", func() {
				counts := map[string]int{}
				for _, s := range signals {
					counts[s.Type]++
				}
				So(counts["infrastructure_outage"], ShouldBeGreaterThan, counts["bankruptcy"])
			})
		})
	})
}
