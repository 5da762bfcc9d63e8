// Package series turns raw observations into chart-ready values.
package series

import (
	"math"
	"strconv"
	"strings"

	"github.com/crashcompass/compass/internal/domain/model"
)

// Parsed is one observation after parsing. OK is false when the value was
// missing or not a number.
type Parsed struct {
	Date  string
	Value float64
	OK    bool
}

// LinePoint is a chart point; a nil Value is a gap in the line.
type LinePoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// ParseValue parses a single raw observation value. Non-finite values are
// rejected like unparseable ones.
func ParseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Parse parses every point, keeping unparseable entries with OK=false.
func Parse(points []model.TimePoint) []Parsed {
	out := make([]Parsed, len(points))
	for i, p := range points {
		v, ok := ParseValue(p.Value)
		out[i] = Parsed{Date: p.Date, Value: v, OK: ok}
	}
	return out
}

// NormalizeTrailing returns the numeric values of the last window points in
// their original order. Missing and unparseable values are dropped, so the
// result may be shorter than window. A non-positive window yields an empty
// slice.
func NormalizeTrailing(points []model.TimePoint, window int) []float64 {
	out := []float64{}
	if window <= 0 {
		return out
	}
	if len(points) > window {
		points = points[len(points)-window:]
	}
	for _, p := range Parse(points) {
		if p.OK {
			out = append(out, p.Value)
		}
	}
	return out
}

// LinePoints maps every observation to a chart point, keeping missing values
// as gaps.
func LinePoints(points []model.TimePoint) []LinePoint {
	out := make([]LinePoint, len(points))
	for i, p := range Parse(points) {
		out[i].Date = p.Date
		if p.OK {
			v := p.Value
			out[i].Value = &v
		}
	}
	return out
}

// Bounds returns the smallest and largest parsed values. ok is false when
// no value parses.
func Bounds(points []model.TimePoint) (lo, hi float64, ok bool) {
	for _, p := range Parse(points) {
		if !p.OK {
			continue
		}
		if !ok {
			lo, hi, ok = p.Value, p.Value, true
			continue
		}
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	return lo, hi, ok
}

// Latest returns the most recent parseable observation.
func Latest(points []model.TimePoint) (Parsed, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if v, ok := ParseValue(points[i].Value); ok {
			return Parsed{Date: points[i].Date, Value: v, OK: true}, true
		}
	}
	return Parsed{}, false
}
