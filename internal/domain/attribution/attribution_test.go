package attribution_test

import (
	"testing"

	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRankTopWithinGroup(t *testing.T) {
	Convey("Given an explainer and a set of contributors", t, func() {
		e := attribution.New()
		contributors := []model.Contributor{
			{Name: "UNRATE", Value: 4.1, Shap: 0.04},
			{Name: "PAYEMS", Value: 157000, Shap: -0.10},
			{Name: "HOUST", Value: 1.3, Shap: 0.07},
		}

		Convey("When no group filter is applied", func() {
			top, ok := e.RankTopWithinGroup(contributors, nil)

			Convey("Then the largest absolute shap wins", func() {
				So(ok, ShouldBeTrue)
				So(top.Name, ShouldEqual, "PAYEMS")
			})
		})

		Convey("When the group excludes the global leader", func() {
			top, ok := e.RankTopWithinGroup(contributors, attribution.Allow("UNRATE", "HOUST"))

			Convey("Then the leader within the group wins", func() {
				So(ok, ShouldBeTrue)
				So(top.Name, ShouldEqual, "HOUST")
			})
		})

		Convey("When the group is empty", func() {
			_, ok := e.RankTopWithinGroup(contributors, attribution.Allow())

			Convey("Then nothing matches", func() {
				So(ok, ShouldBeFalse)
			})

			Convey("And Explain falls back to the given factor", func() {
				got := e.Explain(contributors, map[string]struct{}{}, "USREC")
				So(got.Label, ShouldResemble, model.Contributor{Name: "USREC"})
				So(got.Category, ShouldEqual, attribution.CategoryStability)
			})
		})

		Convey("When no contributor is in the group", func() {
			_, ok := e.RankTopWithinGroup(contributors, attribution.Allow("GS10"))

			Convey("Then nothing is returned", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When magnitudes tie", func() {
			top, _ := e.RankTopWithinGroup([]model.Contributor{
				{Name: "A", Shap: -0.2},
				{Name: "B", Shap: 0.2},
			}, nil)

			Convey("Then the first encountered wins", func() {
				So(top.Name, ShouldEqual, "A")
			})
		})
	})
}

func TestExplain(t *testing.T) {
	Convey("Given the dashboard contributors", t, func() {
		e := attribution.New()
		contributors := []model.Contributor{
			{Name: "UNRATE", Shap: 0.04},
			{Name: "PAYEMS", Shap: -0.10},
		}

		Convey("When explaining the full set", func() {
			got := e.Explain(contributors, nil, "USREC")

			Convey("Then payrolls support stability", func() {
				So(got.Label.Name, ShouldEqual, "PAYEMS")
				So(got.Category, ShouldEqual, attribution.CategoryStability)
				So(got.Text, ShouldEqual, "Robust job creation continues.")
			})

			Convey("Then explaining again gives the same result", func() {
				So(e.Explain(contributors, nil, "USREC"), ShouldResemble, got)
			})
		})

		Convey("When the group has no match", func() {
			got := e.Explain(contributors, attribution.Allow("GS10"), "USREC")

			Convey("Then the zero-attribution fallback is explained", func() {
				So(got.Label, ShouldResemble, model.Contributor{Name: "USREC"})
				So(got.Category, ShouldEqual, attribution.CategoryStability)
				So(got.Text, ShouldEqual, attribution.FallbackRiskDown)
			})
		})
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given the built-in rule table", t, func() {
		e := attribution.New()

		Convey("Then names match case-insensitively by substring", func() {
			So(e.Describe("unrate", 0.3), ShouldEqual, "Unemployment is rising, signaling labor weakness.")
			So(e.Describe("PAYEMS_YoY", 0.1), ShouldEqual, "Job growth has slowed significantly.")
			So(e.Describe("CSCICP03USM665S", -1), ShouldEqual, "Consumers remain optimistic.")
			So(e.Describe("PERMIT", 1), ShouldEqual, "Housing activity is contracting.")
			So(e.Describe("CPILFESL", 1), ShouldEqual, "Inflationary pressures persist.")
			So(e.Describe("FEDFUNDS", -0.01), ShouldEqual, "Interest rate levels are accommodative.")
		})

		Convey("Then the first matching rule wins", func() {
			So(e.Describe("CREDIT_SPREAD_PCE", 1), ShouldEqual, "The yield curve is inverted (recession signal).")
			So(e.Describe("AAA10Y", 1), ShouldEqual, "Credit spreads are widening (financial stress).")
		})

		Convey("Then zero shap reads as supporting", func() {
			So(e.Describe("INDPRO", 0), ShouldEqual, "Manufacturing activity is strong.")
		})

		Convey("Then unknown names use the generic sentences", func() {
			So(e.Describe("GS10", 0.5), ShouldEqual, attribution.FallbackRiskUp)
			So(e.Describe("", -0.5), ShouldEqual, attribution.FallbackRiskDown)
		})
	})

	Convey("Given a custom rule table", t, func() {
		rules := []attribution.Rule{{Keywords: []string{"gold"}, RiskUp: "up", RiskDown: "down"}}
		e := attribution.New(attribution.WithRules(rules))
		rules[0].RiskUp = "mutated"

		Convey("Then the explainer keeps its own copy", func() {
			So(e.Describe("Gold_Price", 1), ShouldEqual, "up")
			So(e.Describe("UNRATE", 1), ShouldEqual, attribution.FallbackRiskUp)
		})
	})
}

func TestDisplayName(t *testing.T) {
	Convey("Given the built-in name table", t, func() {
		e := attribution.New()

		Convey("Then known ids resolve to friendly names", func() {
			So(e.DisplayName("UNRATE"), ShouldEqual, "Unemployment Rate")
			So(e.DisplayName("PAYEMS_YoY"), ShouldEqual, "Nonfarm Payrolls")
			So(e.DisplayName("T10Y2Y"), ShouldEqual, "Yield Curve Spread")
		})

		Convey("Then unknown ids pass through cleaned", func() {
			So(e.DisplayName("GOLD"), ShouldEqual, "GOLD")
			So(e.DisplayName("MY_SERIES_YoY"), ShouldEqual, "MYSERIES")
		})
	})

	Convey("Given a custom name table", t, func() {
		names := map[string]string{"GOLD": "Gold Price"}
		e := attribution.New(attribution.WithNames(names))
		delete(names, "GOLD")

		Convey("Then lookups use the copy taken at construction", func() {
			So(e.DisplayName("GOLD"), ShouldEqual, "Gold Price")
		})
	})
}

func TestImpactHelpers(t *testing.T) {
	Convey("Given contributor magnitudes", t, func() {
		Convey("Then classification treats zero as stability", func() {
			So(attribution.Classify(0.01), ShouldEqual, attribution.CategoryRisk)
			So(attribution.Classify(0), ShouldEqual, attribution.CategoryStability)
			So(attribution.Classify(-0.01), ShouldEqual, attribution.CategoryStability)
		})

		Convey("Then impact labels follow the sign", func() {
			So(attribution.ImpactLabel(0.2), ShouldEqual, "Increasing Risk")
			So(attribution.ImpactLabel(-0.2), ShouldEqual, "Supporting Stability")
		})

		Convey("Then impact width scales and caps at 100", func() {
			So(attribution.ImpactWidth(-0.1), ShouldAlmostEqual, 50, 1e-9)
			So(attribution.ImpactWidth(0.5), ShouldEqual, 100)
		})
	})

	Convey("Given contributors to order", t, func() {
		in := []model.Contributor{
			{Name: "A", Shap: 0.01},
			{Name: "B", Shap: -0.3},
			{Name: "C", Shap: 0.3},
			{Name: "D", Shap: 0.2},
		}

		Convey("Then TopN keeps the strongest in stable order", func() {
			got := attribution.TopN(in, 3)
			So(got, ShouldHaveLength, 3)
			So(got[0].Name, ShouldEqual, "B")
			So(got[1].Name, ShouldEqual, "C")
			So(got[2].Name, ShouldEqual, "D")
			So(in[0].Name, ShouldEqual, "A")
		})

		Convey("Then a non-positive n gives nothing", func() {
			So(attribution.TopN(in, 0), ShouldBeEmpty)
			So(attribution.TopN(nil, 3), ShouldBeEmpty)
		})
	})
}
