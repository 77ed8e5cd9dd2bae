package engine_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/domain/engine"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/internal/domain/recommend"
)

func testGraph() []model.SupplyChainConnection {
	return []model.SupplyChainConnection{
		{SupplierID: "fac-peru-0", BuyerID: "proc-peru", Tier: 2, DependencyPct: 40, Commodity: "copper"},
		{SupplierID: "proc-peru", BuyerID: "oem-aurora", Tier: 1, DependencyPct: 35, Commodity: "copper"},
		{SupplierID: "proc-peru", BuyerID: "oem-helix", Tier: 1, DependencyPct: 55, Commodity: "copper", HasAlternative: true},
	}
}

func TestScoreEvent(t *testing.T) {
	Convey("Given a default pipeline", t, func() {
		p := engine.New()
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		facility := model.Facility{ID: "fac-peru-0", Region: "peru", AnnualCapacityTonnes: 80}
		region := model.Region{Name: "peru", Commodity: "copper", ProductionShare: 0.3}
		commodity := model.Commodity{Code: "copper", Category: "metal", SubstitutionDifficulty: model.DifficultyHigh}

		Convey("When the event carries an explicit severity", func() {
			e := model.Event{Type: model.EventStrike, Severity: 4, Confidence: 0.9, DetectedAt: now}
			score, diags := p.ScoreEvent(e, facility, region, commodity, now)

			So(score, ShouldBeGreaterThan, 0)
			So(score, ShouldBeLessThanOrEqualTo, 1)
			So(diags, ShouldBeEmpty)
		})

		Convey("When the event has no severity", func() {
			withInd := model.Event{
				Type:       model.EventStrike,
				Confidence: 0.9,
				DetectedAt: now,
				Indicators: &model.Indicators{Scope: model.ScopeMajor},
			}
			bare := withInd
			bare.Indicators = nil

			Convey("Then severity is derived from indicators before scoring", func() {
				high, _ := p.ScoreEvent(withInd, facility, region, commodity, now)
				low, _ := p.ScoreEvent(bare, facility, region, commodity, now)
				So(high, ShouldBeGreaterThan, low)
			})
		})
	})
}

func TestRiskFromEvent(t *testing.T) {
	Convey("Given a default pipeline", t, func() {
		p := engine.New()
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		Convey("When lifting a fully specified event", func() {
			e := model.Event{
				ID:         "sig-1",
				Type:       model.EventStrike,
				Severity:   4,
				Confidence: 0.85,
				DetectedAt: now.Add(-24 * time.Hour),
				FacilityID: "fac-peru-0",
				Region:     "peru",
				Commodity:  "copper",
			}
			risk := p.RiskFromEvent(e, now)

			Convey("Then the risk mirrors the event and gets defaults", func() {
				So(risk.ID, ShouldNotBeEmpty)
				So(risk.Category, ShouldEqual, model.EventStrike)
				So(risk.Severity, ShouldEqual, 4)
				So(risk.Confidence, ShouldEqual, 0.85)
				So(risk.DurationDays, ShouldEqual, 21)
				So(risk.Status, ShouldEqual, model.RiskActive)
				So(risk.DetectedAt, ShouldResemble, e.DetectedAt)
			})

			Convey("And every lift mints a fresh risk id", func() {
				So(p.RiskFromEvent(e, now).ID, ShouldNotEqual, risk.ID)
			})
		})

		Convey("When the event lacks severity and detection time", func() {
			e := model.Event{ID: "sig-2", Type: model.EventBankruptcy, Confidence: 0.7}
			risk := p.RiskFromEvent(e, now)

			So(risk.Severity, ShouldEqual, 4)
			So(risk.DetectedAt, ShouldResemble, now)
			So(risk.DurationDays, ShouldEqual, 60)
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a default pipeline and a two-OEM graph", t, func() {
		p := engine.New()
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		risk := model.Risk{
			ID:           "risk-1",
			Category:     model.EventStrike,
			Severity:     5,
			Confidence:   0.9,
			DetectedAt:   now,
			DurationDays: 21,
			Status:       model.RiskActive,
			Commodity:    "copper",
		}
		facility := model.Facility{ID: "fac-peru-0", Region: "peru", AnnualCapacityTonnes: 80}
		commodity := model.Commodity{Code: "copper", Category: "metal", SubstitutionDifficulty: model.DifficultyHigh}

		Convey("When assessing the risk", func() {
			out := p.Assess(risk, facility, commodity, testGraph(), now)

			Convey("Then both OEMs are exposed, ranked by score", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].ExposureScore, ShouldBeGreaterThanOrEqualTo, out[1].ExposureScore)
			})

			Convey("And each assessment is fully populated", func() {
				for _, a := range out {
					So(a.RiskID, ShouldEqual, "risk-1")
					So(a.DisruptionProbability6W, ShouldBeGreaterThan, 0)
					So(a.DisruptionProbability6W, ShouldBeLessThanOrEqualTo, 1)
					So(a.EstimatedDisruptionDays, ShouldEqual, 21)
					So(a.Impact.Recommendations, ShouldNotBeEmpty)
					So(a.Impact.SupplyGapEstimate, ShouldBeLessThanOrEqualTo, 1)
				}
			})

			Convey("And the sourcing timeline follows the facility's region lead time", func() {
				for _, a := range out {
					if alt, ok := findAction(a.Impact.Recommendations, recommend.ActionActivateAlternatives); ok {
						So(alt.Timeline, ShouldEqual, "within 4 weeks")
					}
				}
			})
		})

		Convey("When the facility is not connected", func() {
			orphan := model.Facility{ID: "fac-ghost", Region: "peru"}
			So(p.Assess(risk, orphan, commodity, testGraph(), now), ShouldBeEmpty)
		})

		Convey("When the risk has no duration", func() {
			r := risk
			r.DurationDays = 0
			out := p.Assess(r, facility, commodity, testGraph(), now)

			Convey("Then the category default fills it", func() {
				So(out[0].EstimatedDisruptionDays, ShouldEqual, 21)
			})
		})
	})
}

func TestForecastPassthrough(t *testing.T) {
	Convey("Given a default pipeline", t, func() {
		p := engine.New()
		now := time.Now().UTC()
		risk := model.Risk{ID: "risk-1", Severity: 4, Confidence: 0.8, Status: model.RiskActive}

		Convey("When forecasting over eight weeks", func() {
			fc := p.Forecast(risk, 0.4, 8, now)
			So(fc.TimeHorizonWeeks, ShouldEqual, 8)
			So(fc.Points, ShouldHaveLength, 9)
		})
	})
}

func findAction(recs []model.Recommendation, action string) (model.Recommendation, bool) {
	for _, r := range recs {
		if r.Action == action {
			return r, true
		}
	}
	return model.Recommendation{}, false
}
