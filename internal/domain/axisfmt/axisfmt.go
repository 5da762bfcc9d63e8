// Package axisfmt compacts large numbers into short chart axis labels.
package axisfmt

import (
	"math"
	"strconv"
	"strings"
)

type scale struct {
	threshold float64
	suffix    string
}

// scales is ordered from largest to smallest; the first match wins.
var scales = [...]scale{
	{threshold: 1e9, suffix: "b"},
	{threshold: 1e6, suffix: "m"},
	{threshold: 1e3, suffix: "k"},
}

// Format renders v as an axis label: 1500 -> "1.5k", 2e6 -> "2m",
// -3e9 -> "-3b", 999 -> "999", 1e-7 -> "1e-7". Scaled values keep one decimal unless they
// are whole. Non-finite values are passed through as "NaN", "Infinity" and
// "-Infinity".
func Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	for _, s := range scales {
		if abs >= s.threshold {
			return fixed(v/s.threshold) + s.suffix
		}
	}
	return raw(v)
}

// fixed renders n with no decimals when whole and one decimal otherwise.
// Exact binary ties round away from zero.
func fixed(n float64) string {
	if math.Trunc(n) == n {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	s := n * 10
	if math.FMA(n, 10, -s) == 0 && math.Abs(s-math.Trunc(s)) == 0.5 {
		return strconv.FormatFloat((math.Trunc(s)+math.Copysign(1, s))/10, 'f', 1, 64)
	}
	return strconv.FormatFloat(n, 'f', 1, 64)
}

// raw renders v as the shortest round-trip decimal. Magnitudes below 1e-6
// switch to exponent form ("1e-7", "-2.5e-8").
func raw(v float64) string {
	if v == 0 {
		return "0" // also covers -0
	}
	if math.Abs(v) >= 1e-6 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	n, _ := strconv.Atoi(exp)
	return mant + "e" + strconv.Itoa(n)
}
