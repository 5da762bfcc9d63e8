package riskband_test

import (
	"math"
	"testing"

	"github.com/crashcompass/compass/internal/domain/riskband"
	"github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	convey.Convey("Given rounded dial scores", t, func() {
		convey.Convey("Then band edges are inclusive on the lower side", func() {
			convey.So(riskband.Classify(29).Label, convey.ShouldEqual, "Low Risk")
			convey.So(riskband.Classify(30).Label, convey.ShouldEqual, "Elevated Risk")
			convey.So(riskband.Classify(60).Label, convey.ShouldEqual, "Elevated Risk")
			convey.So(riskband.Classify(61).Label, convey.ShouldEqual, "Critical Warning")
		})

		convey.Convey("Then each band carries its colour class", func() {
			convey.So(riskband.Classify(0).ColorClass, convey.ShouldEqual, "text-green-600")
			convey.So(riskband.Classify(45).ColorClass, convey.ShouldEqual, "text-orange-500")
			convey.So(riskband.Classify(100).ColorClass, convey.ShouldEqual, "text-red-600")
		})

		convey.Convey("Then out-of-range scores use the edge bands", func() {
			convey.So(riskband.Classify(-5).Label, convey.ShouldEqual, "Low Risk")
			convey.So(riskband.Classify(140).Label, convey.ShouldEqual, "Critical Warning")
		})
	})

	convey.Convey("Given the band table", t, func() {
		b := riskband.Bands()

		convey.Convey("Then it partitions 0..100 in order", func() {
			convey.So(b, convey.ShouldHaveLength, 3)
			convey.So(b[0].Min, convey.ShouldEqual, 0)
			convey.So(b[2].Max, convey.ShouldEqual, 100)
			for i := 1; i < len(b); i++ {
				convey.So(b[i].Min, convey.ShouldEqual, b[i-1].Max+1)
				convey.So(riskband.Classify(b[i].Min), convey.ShouldResemble, b[i].Status)
			}
		})
	})
}

func TestRound(t *testing.T) {
	convey.Convey("Given raw dial values", t, func() {
		convey.So(riskband.Round(29.4), convey.ShouldEqual, 29)
		convey.So(riskband.Round(29.5), convey.ShouldEqual, 30)
		convey.So(riskband.Round(60.49), convey.ShouldEqual, 60)
		convey.So(riskband.Round(0), convey.ShouldEqual, 0)
		convey.So(riskband.Round(math.NaN()), convey.ShouldEqual, 0)
	})
}

func TestSegments(t *testing.T) {
	convey.Convey("Given the gauge segments", t, func() {
		s := riskband.Segments()

		convey.Convey("Then the seven stops are reproduced exactly", func() {
			convey.So(s, convey.ShouldHaveLength, 7)
			convey.So(s[0], convey.ShouldResemble, riskband.Segment{Stop: 0.05, Color: "#86B99A"})
			convey.So(s[3], convey.ShouldResemble, riskband.Segment{Stop: 0.65, Color: "#D1C5AF"})
			convey.So(s[6], convey.ShouldResemble, riskband.Segment{Stop: 1.0, Color: "#D95B4A"})
		})

		convey.Convey("Then callers get a fresh copy", func() {
			s[0].Color = "#000000"
			convey.So(riskband.Segments()[0].Color, convey.ShouldEqual, "#86B99A")
		})

		convey.Convey("When resolved onto a 0..100 scale", func() {
			arcs := riskband.SegmentGeometry(s, 0, 100)

			convey.Convey("Then arcs are contiguous and span the range", func() {
				convey.So(arcs[0].From, convey.ShouldEqual, 0)
				convey.So(arcs[0].To, convey.ShouldAlmostEqual, 5, 1e-9)
				convey.So(arcs[0].StartAngle, convey.ShouldEqual, 180)
				for i := 1; i < len(arcs); i++ {
					convey.So(arcs[i].From, convey.ShouldEqual, arcs[i-1].To)
				}
				convey.So(arcs[6].To, convey.ShouldEqual, 100)
				convey.So(arcs[6].EndAngle, convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given needle scores", t, func() {
		convey.So(riskband.NeedleAngle(0, 0, 100), convey.ShouldEqual, 180)
		convey.So(riskband.NeedleAngle(50, 0, 100), convey.ShouldEqual, 90)
		convey.So(riskband.NeedleAngle(150, 0, 100), convey.ShouldEqual, 0)
		convey.So(riskband.NeedleAngle(10, 5, 5), convey.ShouldEqual, 180)
	})
}
