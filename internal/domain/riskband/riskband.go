// Package riskband maps the dial score to a qualitative status and to the
// gauge arc segments.
package riskband

import "math"

// Status is the qualitative reading of a score.
type Status struct {
	Label      string `json:"label"`
	ColorClass string `json:"color_class"`
}

// Band is a closed score range [Min, Max] bound to a status.
type Band struct {
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Status Status `json:"status"`
}

var bands = [...]Band{
	{Min: 0, Max: 29, Status: Status{Label: "Low Risk", ColorClass: "text-green-600"}},
	{Min: 30, Max: 60, Status: Status{Label: "Elevated Risk", ColorClass: "text-orange-500"}},
	{Min: 61, Max: 100, Status: Status{Label: "Critical Warning", ColorClass: "text-red-600"}},
}

// Bands returns the ordered band table.
func Bands() []Band {
	return append([]Band(nil), bands[:]...)
}

// Round rounds a raw dial value half up to an integer score.
func Round(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Floor(score + 0.5))
}

// Classify returns the status for a rounded score. Scores outside [0,100]
// fall into the nearest edge band.
func Classify(score int) Status {
	switch {
	case score < 30:
		return bands[0].Status
	case score <= 60:
		return bands[1].Status
	default:
		return bands[2].Status
	}
}

// Segment is a gauge colour stop. Stop is the cumulative fraction of the
// full range where the colour ends.
type Segment struct {
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

var segments = [...]Segment{
	{Stop: 0.05, Color: "#86B99A"},
	{Stop: 0.20, Color: "#A9CBB6"},
	{Stop: 0.35, Color: "#CEDDCB"},
	{Stop: 0.65, Color: "#D1C5AF"},
	{Stop: 0.80, Color: "#E6B2A6"},
	{Stop: 0.95, Color: "#E49588"},
	{Stop: 1.0, Color: "#D95B4A"},
}

// Segments returns the seven gauge segments from stable to severe.
func Segments() []Segment {
	return append([]Segment(nil), segments[:]...)
}

// Arc is a segment resolved onto a score scale and a half-circle gauge
// drawn from 180 degrees (min) to 0 degrees (max).
type Arc struct {
	Color      string  `json:"color"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

// SegmentGeometry resolves segments onto the [lo, hi] scale. Each arc
// starts where the previous one ended.
func SegmentGeometry(segs []Segment, lo, hi float64) []Arc {
	out := make([]Arc, len(segs))
	prev := 0.0
	for i, s := range segs {
		out[i] = Arc{
			Color:      s.Color,
			From:       lo + prev*(hi-lo),
			To:         lo + s.Stop*(hi-lo),
			StartAngle: 180 * (1 - prev),
			EndAngle:   180 * (1 - s.Stop),
		}
		prev = s.Stop
	}
	return out
}

// NeedleAngle is the gauge needle angle in degrees for score on [lo, hi],
// clamped to the arc.
func NeedleAngle(score, lo, hi float64) float64 {
	if hi <= lo {
		return 180
	}
	f := (score - lo) / (hi - lo)
	f = math.Max(0, math.Min(1, f))
	return 180 * (1 - f)
}
