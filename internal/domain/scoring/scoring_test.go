package scoring_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/internal/domain/scoring"
)

func fullyResolvedInputs(now time.Time) (model.Event, model.Facility, model.Region, model.Commodity) {
	e := model.Event{
		ID:         "sig-1",
		Type:       model.EventStrike,
		Severity:   5,
		Confidence: 0.9,
		DetectedAt: now,
		FacilityID: "fac-peru-0",
		Region:     "peru",
		Commodity:  "copper",
	}
	f := model.Facility{ID: "fac-peru-0", Region: "peru", Commodity: "copper", AnnualCapacityTonnes: 50}
	r := model.Region{Name: "peru", Commodity: "copper", ProductionShare: 0.8}
	c := model.Commodity{Code: "copper", Category: "metal", SubstitutionDifficulty: model.DifficultyHigh}
	return e, f, r, c
}

func TestScore(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewCalculator()
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		Convey("When scoring a fully resolved severe strike", func() {
			e, f, r, c := fullyResolvedInputs(now)
			score, diags := calc.Score(e, f, r, c, now)

			Convey("Then the score is positive, bounded and clean", func() {
				So(score, ShouldBeGreaterThan, 0)
				So(score, ShouldBeLessThanOrEqualTo, 1)
				So(diags, ShouldBeEmpty)
			})

			Convey("And the exact composition holds", func() {
				// 1.0 * 0.85 * 0.9 * 1.0 * 0.8 * (2/3) * 1.0
				So(score, ShouldAlmostEqual, 0.408, 0.0001)
			})

			Convey("And scoring the same inputs again yields the same score", func() {
				again, _ := calc.Score(e, f, r, c, now)
				So(again, ShouldEqual, score)
			})
		})

		Convey("When confidence increases", func() {
			e, f, r, c := fullyResolvedInputs(now)
			low := e
			low.Confidence = 0.6
			high := e
			high.Confidence = 0.95

			lowScore, _ := calc.Score(low, f, r, c, now)
			highScore, _ := calc.Score(high, f, r, c, now)

			Convey("Then the score does not decrease", func() {
				So(highScore, ShouldBeGreaterThan, lowScore)
			})
		})

		Convey("When an event ages", func() {
			e, f, r, c := fullyResolvedInputs(now)
			fresh, _ := calc.Score(e, f, r, c, now)

			stale := e
			stale.DetectedAt = now.Add(-8 * 7 * 24 * time.Hour)
			staleScore, _ := calc.Score(stale, f, r, c, now)

			Convey("Then relevance decays", func() {
				So(staleScore, ShouldBeLessThan, fresh)
				So(staleScore, ShouldBeGreaterThan, 0)
			})

			Convey("And a future detection time does not inflate the score", func() {
				future := e
				future.DetectedAt = now.Add(24 * time.Hour)
				futureScore, _ := calc.Score(future, f, r, c, now)
				So(futureScore, ShouldEqual, fresh)
			})
		})

		Convey("When inputs are missing", func() {
			e, f, r, c := fullyResolvedInputs(now)

			Convey("Then zero confidence defaults and is diagnosed", func() {
				e.Confidence = 0
				_, diags := calc.Score(e, f, r, c, now)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "confidence"})
			})

			Convey("Then a zero detection time skips decay and is diagnosed", func() {
				e.DetectedAt = time.Time{}
				score, diags := calc.Score(e, f, r, c, now)
				So(score, ShouldBeGreaterThan, 0)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "detected_at"})
			})

			Convey("Then unknown substitution difficulty degrades to low", func() {
				c.SubstitutionDifficulty = ""
				_, diags := calc.Score(e, f, r, c, now)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "substitution_difficulty"})
			})

			Convey("Then missing capacity defaults and is diagnosed", func() {
				f.AnnualCapacityTonnes = 0
				score, diags := calc.Score(e, f, r, c, now)
				So(score, ShouldBeGreaterThan, 0)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "annual_capacity_tonnes"})
			})

			Convey("Then a missing region record falls back to the facility share", func() {
				r.ProductionShare = 0
				f.RegionalSharePct = 40
				score, diags := calc.Score(e, f, r, c, now)
				// 1.0 * 0.85 * 0.9 * 1.0 * 0.4 * (2/3) * 1.0
				So(score, ShouldAlmostEqual, 0.204, 0.0001)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "production_share"})
			})

			Convey("Then no share at all leaves the multiplier neutral", func() {
				r.ProductionShare = 0
				f.RegionalSharePct = 0
				score, diags := calc.Score(e, f, r, c, now)
				// 1.0 * 0.85 * 0.9 * 1.0 * 1.0 * (2/3) * 1.0
				So(score, ShouldAlmostEqual, 0.51, 0.0001)
				So(diags, ShouldNotContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "production_share"})
			})

			Convey("Then an unknown event type uses the default weight", func() {
				e.Type = "cyber_attack"
				score, diags := calc.Score(e, f, r, c, now)
				So(score, ShouldBeGreaterThan, 0)
				So(diags, ShouldContain, scoring.Diagnostic{Kind: scoring.DiagDefaulted, Field: "event_type"})
			})
		})

		Convey("When scoring every known event type", func() {
			e, f, r, c := fullyResolvedInputs(now)
			types := []model.EventType{
				model.EventStrike, model.EventBankruptcy, model.EventEnvironmentalShutdown,
				model.EventRegulatoryAction, model.EventInfrastructureOutage, model.EventLaborProtest,
			}

			Convey("Then every score stays in [0,1]", func() {
				for _, typ := range types {
					e.Type = typ
					score, _ := calc.Score(e, f, r, c, now)
					So(score, ShouldBeGreaterThanOrEqualTo, 0)
					So(score, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})
	})

	Convey("Given a calculator with custom weights", t, func() {
		w := scoring.DefaultWeights()
		w.EventType[model.EventStrike] = 1.0
		w.DecayRate = 0.10
		calc := scoring.NewCalculator(scoring.WithWeights(w))
		now := time.Now().UTC()

		Convey("Then the overrides flow into the score", func() {
			e, f, r, c := fullyResolvedInputs(now)
			score, _ := calc.Score(e, f, r, c, now)
			// 1.0 * 1.0 * 0.9 * 0.8 * (2/3)
			So(score, ShouldAlmostEqual, 0.48, 0.0001)
		})

		Convey("And MinConfidence reflects the configured threshold", func() {
			So(calc.MinConfidence(), ShouldEqual, 0.60)
		})
	})
}
