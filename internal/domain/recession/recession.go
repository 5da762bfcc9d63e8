// Package recession derives chart data from the model backtest history.
package recession

import (
	"strconv"

	"github.com/crashcompass/compass/internal/domain/model"
)

// ExtractIntervals returns the maximal runs of recession-flagged points as
// inclusive date ranges, ordered by start. Points must already be sorted
// ascending by date.
//
// A flag of 1 opens a run, a flag of 0 closes it at the previous point's
// date. Any other flag value leaves the run unchanged. A run still open at
// the end closes at the last point's date.
func ExtractIntervals(points []model.HistoryPoint) []model.Interval {
	out := []model.Interval{}
	open := false
	var start string

	for i, p := range points {
		switch p.IsRecession {
		case 1:
			if !open {
				open = true
				start = p.Date
			}
		case 0:
			if open {
				out = append(out, model.Interval{Start: start, End: points[i-1].Date})
				open = false
			}
		}
	}
	if open {
		out = append(out, model.Interval{Start: start, End: points[len(points)-1].Date})
	}
	return out
}

// ChartPoint is one history point ready for plotting.
type ChartPoint struct {
	Date        string `json:"date"`
	Year        string `json:"year"`
	Percent     string `json:"percent"`
	IsRecession int    `json:"is_recession"`
}

// ChartPoints converts probabilities to percentages with one decimal.
func ChartPoints(points []model.HistoryPoint) []ChartPoint {
	out := make([]ChartPoint, len(points))
	for i, p := range points {
		out[i] = ChartPoint{
			Date:        p.Date,
			Year:        YearLabel(p.Date),
			Percent:     strconv.FormatFloat(p.Prob*100, 'f', 1, 64),
			IsRecession: p.IsRecession,
		}
	}
	return out
}

// YearLabel returns the leading four characters of an ISO date.
func YearLabel(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// Marker annotates a historical event on the history chart.
type Marker struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DefaultMarkers returns the annotated downturns shown on the history chart.
func DefaultMarkers() []Marker {
	return []Marker{
		{Label: "Dot-com", Date: "2001-03-01", Value: 95},
		{Label: "2008 Crisis", Date: "2008-09-01", Value: 98},
		{Label: "COVID-19", Date: "2020-03-01", Value: 98},
	}
}
