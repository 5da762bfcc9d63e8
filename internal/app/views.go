package service

import (
	"time"

	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/internal/domain/recession"
	"github.com/crashcompass/compass/internal/domain/riskband"
	"github.com/crashcompass/compass/internal/domain/series"
)

// Dashboard is the home page view.
type Dashboard struct {
	Dial        Dial           `json:"dial"`
	Drivers     []Driver       `json:"drivers"`
	Categories  []CategoryCard `json:"categories"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Dial is the gauge reading.
type Dial struct {
	Score       float64         `json:"score"`
	Rounded     int             `json:"rounded"`
	Status      riskband.Status `json:"status"`
	Arcs        []riskband.Arc  `json:"arcs"`
	NeedleAngle float64         `json:"needle_angle"`
	// Degraded is set when the dial could not be fetched and reads zero.
	Degraded bool `json:"degraded,omitempty"`
}

// Driver is one of the key factors behind the dial.
type Driver struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Value       float64 `json:"value"`
	Shap        float64 `json:"shap"`
	Category    string  `json:"category"`
	Impact      string  `json:"impact"`
	ImpactWidth float64 `json:"impact_width"`
	Explanation string  `json:"explanation"`
}

// CategoryCard summarises a category on the home page.
type CategoryCard struct {
	Key          string     `json:"key"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	OutlookScore *float64   `json:"outlook_score,omitempty"`
	ScoreLabel   string     `json:"score_label"`
	Hero         *Sparkline `json:"hero,omitempty"`
	OtherSeries  []string   `json:"other_series"`
}

// Sparkline is the compact trailing trend of a series.
type Sparkline struct {
	SeriesID string    `json:"series_id"`
	Name     string    `json:"name"`
	Values   []float64 `json:"values"`
}

// CategoryPage is the detail view of one category.
type CategoryPage struct {
	Key          string                  `json:"key"`
	Slug         string                  `json:"slug"`
	Title        string                  `json:"title"`
	OutlookScore *float64                `json:"outlook_score,omitempty"`
	Driver       attribution.Explanation `json:"driver"`
	Charts       []SeriesChart           `json:"charts"`
	Missing      []string                `json:"missing"`
}

// SeriesChart is a full line chart for one series.
type SeriesChart struct {
	SeriesID  string             `json:"series_id"`
	Title     string             `json:"title"`
	Citation  string             `json:"citation,omitempty"`
	Units     string             `json:"units,omitempty"`
	Frequency string             `json:"frequency,omitempty"`
	Points    []series.LinePoint `json:"points"`
	Axis      *Axis              `json:"axis,omitempty"`
	Latest    *Latest            `json:"latest,omitempty"`
}

// Axis holds the y-axis range and its compact labels.
type Axis struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MinLabel string  `json:"min_label"`
	MaxLabel string  `json:"max_label"`
}

// Latest is the most recent observed value.
type Latest struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// History is the recession probability chart.
type History struct {
	Points    []recession.ChartPoint `json:"points"`
	Intervals []model.Interval       `json:"intervals"`
	Markers   []recession.Marker     `json:"markers"`
}

// ExplainRequest asks for the explanation of the top contributor.
type ExplainRequest struct {
	Contributors []model.Contributor `json:"contributors"`
	Allowed      []string            `json:"allowed,omitempty"`
	Fallback     string              `json:"fallback,omitempty"`
}

// Stats describes the running service.
type Stats struct {
	Started         bool   `json:"started"`
	UpstreamURL     string `json:"upstream_url,omitempty"`
	CacheTTL        string `json:"cache_ttl"`
	CachedSeries    int    `json:"cached_series"`
	SparklineWindow int    `json:"sparkline_window"`
	TopContributors int    `json:"top_contributors"`
	WarmInterval    string `json:"warm_interval"`
	RefreshPending  int    `json:"refresh_pending"`
	Uptime          string `json:"uptime"`
}
