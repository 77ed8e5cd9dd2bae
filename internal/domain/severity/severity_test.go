package severity_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/internal/domain/severity"
)

func TestSeverity(t *testing.T) {
	Convey("Given the default severity model", t, func() {
		m := severity.New()

		Convey("When classifying without indicators", func() {
			Convey("Then each type lands on its range minimum", func() {
				So(m.Severity(model.EventStrike, nil), ShouldEqual, 3)
				So(m.Severity(model.EventBankruptcy, nil), ShouldEqual, 4)
				So(m.Severity(model.EventEnvironmentalShutdown, nil), ShouldEqual, 3)
				So(m.Severity(model.EventRegulatoryAction, nil), ShouldEqual, 2)
				So(m.Severity(model.EventInfrastructureOutage, nil), ShouldEqual, 1)
				So(m.Severity(model.EventLaborProtest, nil), ShouldEqual, 1)
			})
		})

		Convey("When indicators mark the event as major", func() {
			ind := &model.Indicators{Scope: model.ScopeMajor}

			Convey("Then the range maximum applies", func() {
				So(m.Severity(model.EventStrike, ind), ShouldEqual, 5)
				So(m.Severity(model.EventInfrastructureOutage, ind), ShouldEqual, 3)
			})
		})

		Convey("When a protest exceeds the major participant threshold", func() {
			ind := &model.Indicators{Participants: 1500}

			Convey("Then it is promoted to the range maximum", func() {
				So(m.Severity(model.EventLaborProtest, ind), ShouldEqual, 3)
			})
		})

		Convey("When indicators mark the event as moderate", func() {
			ind := &model.Indicators{Scope: model.ScopeModerate}

			Convey("Then the ceil midpoint of the range applies", func() {
				So(m.Severity(model.EventStrike, ind), ShouldEqual, 4)
				So(m.Severity(model.EventRegulatoryAction, ind), ShouldEqual, 3)
				So(m.Severity(model.EventLaborProtest, ind), ShouldEqual, 2)
			})

			Convey("And high historical impact still wins", func() {
				ind.HistoricalImpact = model.ImpactHigh
				So(m.Severity(model.EventStrike, ind), ShouldEqual, 5)
			})
		})

		Convey("When the event type is unknown", func() {
			Convey("Then severity stays in the conservative 1-3 band", func() {
				So(m.Severity("cyber_attack", nil), ShouldEqual, 1)
				So(m.Severity("cyber_attack", &model.Indicators{Scope: model.ScopeMajor}), ShouldEqual, 3)
			})
		})

		Convey("When a severity range is overridden", func() {
			custom := severity.New(severity.WithRange(model.EventStrike, 2, 4))

			Convey("Then the override applies", func() {
				So(custom.Severity(model.EventStrike, nil), ShouldEqual, 2)
				So(custom.Severity(model.EventStrike, &model.Indicators{Scope: model.ScopeMajor}), ShouldEqual, 4)
			})
		})
	})
}

func TestDurationDays(t *testing.T) {
	Convey("Given the default severity model", t, func() {
		m := severity.New()

		Convey("Then default durations match the calibrated table", func() {
			So(m.DurationDays(model.EventInfrastructureOutage), ShouldEqual, 7)
			So(m.DurationDays(model.EventStrike), ShouldEqual, 21)
			So(m.DurationDays(model.EventLaborProtest), ShouldEqual, 14)
			So(m.DurationDays(model.EventEnvironmentalShutdown), ShouldEqual, 30)
			So(m.DurationDays(model.EventRegulatoryAction), ShouldEqual, 45)
			So(m.DurationDays(model.EventBankruptcy), ShouldEqual, 60)
		})

		Convey("And unknown types fall back to two weeks", func() {
			So(m.DurationDays("cyber_attack"), ShouldEqual, 14)
		})

		Convey("And a duration override applies", func() {
			custom := severity.New(severity.WithDuration(model.EventStrike, 28))
			So(custom.DurationDays(model.EventStrike), ShouldEqual, 28)
		})
	})
}
