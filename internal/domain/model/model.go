// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TimePoint is one observation of a series. An empty Value is a missing
// observation and must render as a gap, never as zero.
type TimePoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts the value as a string, a bare number or null.
func (p *TimePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  string          `json:"date"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Date = raw.Date
	p.Value = ""

	v := bytes.TrimSpace(raw.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		if err := json.Unmarshal(v, &p.Value); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("time point %q: %w", raw.Date, err)
		}
		p.Value = n.String()
	}
	return nil
}

// Series is an ordered sequence of observations, ascending by date.
type Series []TimePoint

// HistoryPoint is one month of model backtest output.
type HistoryPoint struct {
	Date        string  `json:"date"`
	Prob        float64 `json:"prob"`
	IsRecession int     `json:"is_recession"`
}

// Contributor is a named factor's signed attribution to the dial score.
// Positive Shap increases risk.
type Contributor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Shap  float64 `json:"shap"`
}

// Interval is an inclusive date range taken from a source series.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Category is one entry of the upstream category listing.
type Category struct {
	Series       []string `json:"series"`
	OutlookScore *float64 `json:"outlook_score,omitempty"`
}

// CategoryListing maps category keys to their series.
type CategoryListing map[string]Category

// SeriesResponse is the upstream single-series payload.
type SeriesResponse struct {
	SeriesID  string `json:"seriesId,omitempty"`
	Name      string `json:"name"`
	Frequency string `json:"frequency,omitempty"`
	Units     string `json:"units,omitempty"`
	Category  string `json:"category,omitempty"`
	Citation  string `json:"citation,omitempty"`
	Count     int    `json:"count,omitempty"`
	Series    Series `json:"series"`
}

// DialScore is the upstream dial payload. Upstream sends either a bare
// number or an object carrying contributors.
type DialScore struct {
	Score        float64       `json:"score"`
	Contributors []Contributor `json:"contributors"`
}

// UnmarshalJSON decodes both dial score shapes.
func (d *DialScore) UnmarshalJSON(data []byte) error {
	v := bytes.TrimSpace(data)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		*d = DialScore{}
		return nil
	}
	if v[0] != '{' {
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("dial score: %w", err)
		}
		*d = DialScore{Score: f}
		return nil
	}
	type plain DialScore
	var p plain
	if err := json.Unmarshal(v, &p); err != nil {
		return err
	}
	*d = DialScore(p)
	return nil
}

// RefreshKind names the upstream snapshot a refresh job reloads.
type RefreshKind string

// Refresh kinds.
const (
	RefreshCategories RefreshKind = "categories"
	RefreshDial       RefreshKind = "dial_score"
	RefreshHistory    RefreshKind = "history"
	RefreshSeries     RefreshKind = "series"
)

// RefreshJob asks for one snapshot to be reloaded into the cache.
// SeriesID is set only for RefreshSeries.
type RefreshJob struct {
	Kind     RefreshKind
	SeriesID string
}

// Key identifies the job for de-duplication.
func (j RefreshJob) Key() string {
	if j.SeriesID == "" {
		return string(j.Kind)
	}
	return string(j.Kind) + ":" + j.SeriesID
}
