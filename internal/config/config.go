// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and COMPASS_ env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"regexp"
	"time"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the base URL of the model API.
	UpstreamURL string `koanf:"upstream_url"`

	// UpstreamTimeoutMS bounds every upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// CacheTTLSeconds controls how long upstream snapshots are reused. Zero disables caching.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// SparklineWindow is the trailing number of points shown on category cards.
	SparklineWindow int `koanf:"sparkline_window"`

	// TopContributors caps the key drivers list on the dashboard.
	TopContributors int `koanf:"top_contributors"`

	// FetchConcurrency bounds parallel series fetches for one category page.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// RateLimitRPS and RateLimitBurst configure the API token bucket. RPS <= 0 disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// WarmIntervalSeconds is how often cached snapshots are refreshed in the background. Zero disables warming.
	WarmIntervalSeconds int `koanf:"warm_interval_seconds"`

	// WarmWorkers and WarmQueueSize size the background refresh pool.
	WarmWorkers   int `koanf:"warm_workers"`
	WarmQueueSize int `koanf:"warm_queue_size"`

	// MetricsEnabled exposes metrics on /healthz when true.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels added to every metric, e.g. an instance name.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsLatencyBucketsMS overrides the latency histogram buckets. Empty keeps the Prometheus defaults.
	MetricsLatencyBucketsMS []float64 `koanf:"metrics_latency_buckets_ms"`

	// MetricsRefreshSeconds is how often system gauges are sampled.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`

	// FallbackContributor names the zero-attribution contributor used when nothing matches.
	FallbackContributor string `koanf:"fallback_contributor"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		UpstreamURL:           "http://127.0.0.1:8000",
		UpstreamTimeoutMS:     10_000,
		CacheTTLSeconds:       300,
		SparklineWindow:       24,
		TopContributors:       3,
		FetchConcurrency:      4,
		RateLimitRPS:          50,
		RateLimitBurst:        100,
		WarmIntervalSeconds:   240,
		WarmWorkers:           2,
		WarmQueueSize:         256,
		MetricsEnabled:        true,
		MetricsNamespace:      "compass",
		MetricsSubsystem:      "dashboard",
		MetricsRefreshSeconds: 10,
		FallbackContributor:   "USREC",
	}
}

// UpstreamTimeout returns the upstream timeout as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// CacheTTL returns the snapshot cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// WarmInterval returns the background refresh interval as a duration.
func (c *Config) WarmInterval() time.Duration {
	return time.Duration(c.WarmIntervalSeconds) * time.Second
}

// MetricsRefresh returns the system gauge sampling interval.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.UpstreamURL == "":
		return fmt.Errorf("%w: upstream_url must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.SparklineWindow <= 0:
		return fmt.Errorf("%w: sparkline_window must be positive", ErrInvalidConfig)
	case c.TopContributors <= 0:
		return fmt.Errorf("%w: top_contributors must be positive", ErrInvalidConfig)
	case c.FetchConcurrency <= 0:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.WarmIntervalSeconds < 0:
		return fmt.Errorf("%w: warm_interval_seconds must not be negative", ErrInvalidConfig)
	case c.WarmIntervalSeconds > 0 && (c.WarmWorkers <= 0 || c.WarmQueueSize <= 0):
		return fmt.Errorf("%w: warm_workers and warm_queue_size must be positive", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	case c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("%w: metrics_subsystem %q is not a valid metric name", ErrInvalidConfig, c.MetricsSubsystem)
	case !validLabelNames(c.MetricsLabels):
		return fmt.Errorf("%w: metrics_labels names must be valid label names", ErrInvalidConfig)
	case c.MetricsRefreshSeconds <= 0:
		return fmt.Errorf("%w: metrics_refresh_seconds must be positive", ErrInvalidConfig)
	case !strictlyAscending(c.MetricsLatencyBucketsMS):
		return fmt.Errorf("%w: metrics_latency_buckets_ms must be strictly ascending", ErrInvalidConfig)
	}
	return nil
}

func validLabelNames(labels map[string]string) bool {
	for name := range labels {
		if !metricName.MatchString(name) {
			return false
		}
	}
	return true
}

func strictlyAscending(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}
