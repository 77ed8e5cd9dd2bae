package exposure_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/domain/exposure"
	"github.com/okian/supplyline/internal/domain/model"
)

func miningChain() []model.SupplyChainConnection {
	return []model.SupplyChainConnection{
		{SupplierID: "fac-peru-0", BuyerID: "proc-peru", Tier: 2, DependencyPct: 40, Commodity: "copper"},
		{SupplierID: "proc-peru", BuyerID: "oem-aurora", Tier: 1, DependencyPct: 30, Commodity: "copper"},
		{SupplierID: "proc-peru", BuyerID: "oem-helix", Tier: 1, DependencyPct: 60, Commodity: "copper", HasAlternative: true},
		// Unrelated chain that must not be reached.
		{SupplierID: "fac-china-0", BuyerID: "proc-china", Tier: 2, DependencyPct: 50, Commodity: "zinc"},
	}
}

func TestReachable(t *testing.T) {
	Convey("Given a propagator and a small graph", t, func() {
		p := exposure.NewPropagator()

		Convey("When walking from an at-risk facility", func() {
			chain := p.Reachable("fac-peru-0", miningChain())

			Convey("Then only the connected chain is gathered", func() {
				So(chain, ShouldHaveLength, 3)
				for _, c := range chain {
					So(c.SupplierID, ShouldNotEqual, "fac-china-0")
				}
			})
		})

		Convey("When the facility has no outgoing edges", func() {
			So(p.Reachable("fac-orphan", miningChain()), ShouldBeEmpty)
		})

		Convey("When inputs are empty", func() {
			So(p.Reachable("", miningChain()), ShouldBeEmpty)
			So(p.Reachable("fac-peru-0", nil), ShouldBeEmpty)
		})
	})
}

func TestPropagate(t *testing.T) {
	Convey("Given a propagator", t, func() {
		p := exposure.NewPropagator()
		risk := model.Risk{ID: "risk-1", Severity: 5, Commodity: "copper"}
		facility := model.Facility{ID: "fac-peru-0", Region: "peru"}

		Convey("When propagating through the chain", func() {
			res := p.Propagate(risk, facility, miningChain())

			Convey("Then counts and mean dependency are aggregated", func() {
				So(res.AffectedTier1Suppliers, ShouldEqual, 2)
				So(res.Tier2Suppliers, ShouldEqual, 1)
				So(res.AlternativeSources, ShouldEqual, 1)
				So(res.MeanDependencyPct, ShouldAlmostEqual, (40.0+30.0+60.0)/3, 0.0001)
			})

			Convey("And the score stays in [0,1]", func() {
				So(res.ExposureScore, ShouldBeGreaterThan, 0)
				So(res.ExposureScore, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When the chain is empty", func() {
			res := p.Propagate(risk, model.Facility{ID: "fac-orphan"}, miningChain())
			So(res, ShouldResemble, exposure.Result{})
		})

		Convey("When inputs are extreme", func() {
			conns := []model.SupplyChainConnection{
				{SupplierID: "fac-x", BuyerID: "oem-x", Tier: 1, DependencyPct: 1000},
			}
			res := p.Propagate(risk, model.Facility{ID: "fac-x"}, conns)

			Convey("Then the single-source penalty cannot push past 1", func() {
				So(res.ExposureScore, ShouldEqual, 1.0)
			})
		})

		Convey("When dependency percentages are missing", func() {
			conns := []model.SupplyChainConnection{
				{SupplierID: "fac-x", BuyerID: "oem-x", Tier: 1},
			}
			res := p.Propagate(risk, model.Facility{ID: "fac-x"}, conns)

			Convey("Then the documented default applies", func() {
				So(res.MeanDependencyPct, ShouldEqual, 5.0)
			})
		})
	})
}

func TestAffectedOEMs(t *testing.T) {
	Convey("Given a propagator with the default materiality threshold", t, func() {
		p := exposure.NewPropagator()
		risk := model.Risk{ID: "risk-1", Severity: 5, Commodity: "copper"}
		facility := model.Facility{ID: "fac-peru-0", Region: "peru"}

		Convey("When ranking exposed OEMs", func() {
			out := p.AffectedOEMs(risk, facility, miningChain())

			Convey("Then results are ordered descending by exposure", func() {
				So(len(out), ShouldBeGreaterThan, 0)
				for i := 1; i < len(out); i++ {
					So(out[i-1].ExposureScore, ShouldBeGreaterThanOrEqualTo, out[i].ExposureScore)
				}
			})

			Convey("And each entry carries the risk id and commodity", func() {
				So(out[0].RiskID, ShouldEqual, "risk-1")
				So(out[0].Commodity, ShouldEqual, "copper")
			})
		})

		Convey("When an OEM's exposure is at or below materiality", func() {
			// 6% dependency at severity 5 single-sourced: 0.06 * 1.5 = 0.09.
			conns := []model.SupplyChainConnection{
				{SupplierID: "fac-x", BuyerID: "oem-quiet", Tier: 1, DependencyPct: 6},
				{SupplierID: "fac-x", BuyerID: "oem-loud", Tier: 1, DependencyPct: 8},
			}
			out := p.AffectedOEMs(risk, model.Facility{ID: "fac-x"}, conns)

			Convey("Then only strictly material exposures are reported", func() {
				// 0.08 * 1.5 = 0.12 > 0.10; 0.09 <= 0.10.
				So(out, ShouldHaveLength, 1)
				So(out[0].OEMID, ShouldEqual, "oem-loud")
			})
		})

		Convey("When an OEM's exposure lands exactly on the threshold", func() {
			// Two tier-1 suppliers avoid the single-source penalty, so at
			// severity 5 the exposure is exactly meanDependency/100.
			dualSourced := func(dep float64) []model.SupplyChainConnection {
				return []model.SupplyChainConnection{
					{SupplierID: "fac-x", BuyerID: "proc-a", Tier: 2, DependencyPct: dep},
					{SupplierID: "fac-x", BuyerID: "proc-b", Tier: 2, DependencyPct: dep},
					{SupplierID: "proc-a", BuyerID: "oem-edge", Tier: 1, DependencyPct: dep},
					{SupplierID: "proc-b", BuyerID: "oem-edge", Tier: 1, DependencyPct: dep},
				}
			}

			Convey("Then exactly 0.10 is excluded", func() {
				out := p.AffectedOEMs(risk, model.Facility{ID: "fac-x"}, dualSourced(10))
				So(out, ShouldBeEmpty)
			})

			Convey("And 0.11 is included", func() {
				out := p.AffectedOEMs(risk, model.Facility{ID: "fac-x"}, dualSourced(11))
				So(out, ShouldHaveLength, 1)
				So(out[0].OEMID, ShouldEqual, "oem-edge")
				So(out[0].ExposureScore, ShouldAlmostEqual, 0.11, 0.0001)
			})
		})

		Convey("When two OEMs tie on exposure", func() {
			conns := []model.SupplyChainConnection{
				{SupplierID: "fac-x", BuyerID: "oem-b", Tier: 1, DependencyPct: 40},
				{SupplierID: "fac-x", BuyerID: "oem-a", Tier: 1, DependencyPct: 40},
			}
			out := p.AffectedOEMs(risk, model.Facility{ID: "fac-x"}, conns)

			Convey("Then OEM id breaks the tie deterministically", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].OEMID, ShouldEqual, "oem-a")
				So(out[1].OEMID, ShouldEqual, "oem-b")
			})
		})
	})
}

func TestCommodityExposure(t *testing.T) {
	Convey("Given a propagator", t, func() {
		p := exposure.NewPropagator()

		Convey("When computing standing exposure with an active risk", func() {
			out := p.CommodityExposure(exposure.CommodityInput{
				Commodity:             "copper",
				DependencyPct:         60,
				SourceRegions:         []string{"peru"},
				MaxActiveRiskSeverity: 5,
				ActiveRisks:           2,
			})

			Convey("Then the score reflects dependency and severity", func() {
				So(out.ExposureScore, ShouldAlmostEqual, 0.6, 0.0001)
				So(out.ActiveRisks, ShouldEqual, 2)
			})

			Convey("And a single source region is flagged as concentrated", func() {
				So(out.RegionalConcentrationRisk, ShouldEqual, model.ConcentrationHigh)
			})

			Convey("And the lead time follows the region table", func() {
				So(out.LeadTimeWeeks, ShouldEqual, 4)
			})

			Convey("And the buffer scales with dependency", func() {
				So(out.RecommendedBufferWeeks, ShouldEqual, 3)
			})
		})

		Convey("When alternative suppliers exist", func() {
			out := p.CommodityExposure(exposure.CommodityInput{
				Commodity:                "copper",
				DependencyPct:            60,
				AlternativeSupplierCount: 2,
				MaxActiveRiskSeverity:    5,
			})

			Convey("Then each alternative discounts the score", func() {
				So(out.ExposureScore, ShouldAlmostEqual, 0.3, 0.0001)
			})
		})

		Convey("When no risks are active", func() {
			out := p.CommodityExposure(exposure.CommodityInput{
				Commodity:     "copper",
				DependencyPct: 60,
			})
			So(out.ExposureScore, ShouldEqual, 0)
		})

		Convey("When region counts vary", func() {
			none := p.CommodityExposure(exposure.CommodityInput{Commodity: "x"})
			two := p.CommodityExposure(exposure.CommodityInput{Commodity: "x", SourceRegions: []string{"peru", "chile"}})
			three := p.CommodityExposure(exposure.CommodityInput{Commodity: "x", SourceRegions: []string{"peru", "chile", "china"}})

			Convey("Then the concentration labels follow the buckets", func() {
				So(none.RegionalConcentrationRisk, ShouldEqual, model.ConcentrationUnknown)
				So(two.RegionalConcentrationRisk, ShouldEqual, model.ConcentrationMedium)
				So(three.RegionalConcentrationRisk, ShouldEqual, model.ConcentrationLow)
			})
		})
	})
}

func TestLeadTimeAndBuffer(t *testing.T) {
	Convey("Given the default lead-time table", t, func() {
		p := exposure.NewPropagator()

		Convey("Then known regions resolve and the rest fall back", func() {
			So(p.LeadTime("peru"), ShouldEqual, 4)
			So(p.LeadTime("mexico"), ShouldEqual, 2)
			So(p.LeadTime("vietnam"), ShouldEqual, 3)
			So(p.LeadTime("china"), ShouldEqual, 4)
			So(p.LeadTime("india"), ShouldEqual, 5)
			So(p.LeadTime("atlantis"), ShouldEqual, 6)
		})

		Convey("And buffer weeks are one per twenty dependency points", func() {
			So(exposure.BufferWeeks(10), ShouldEqual, 1)
			So(exposure.BufferWeeks(20), ShouldEqual, 1)
			So(exposure.BufferWeeks(21), ShouldEqual, 2)
			So(exposure.BufferWeeks(100), ShouldEqual, 5)
			So(exposure.BufferWeeks(0), ShouldEqual, 1)
		})
	})
}
