package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/crashcompass/compass/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://127.0.0.1:8000")
			convey.So(cfg.UpstreamTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.SparklineWindow, convey.ShouldEqual, 24)
			convey.So(cfg.TopContributors, convey.ShouldEqual, 3)
			convey.So(cfg.FallbackContributor, convey.ShouldEqual, "USREC")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SparklineWindow, convey.ShouldEqual, 24)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 50.0)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COMPASS_ADDR", ":8080")
			_ = os.Setenv("COMPASS_UPSTREAM_URL", "http://backend:8000")
			_ = os.Setenv("COMPASS_SPARKLINE_WINDOW", "36")
			_ = os.Setenv("COMPASS_RATE_LIMIT_RPS", "12.5")
			_ = os.Setenv("COMPASS_LOG_JSON", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://backend:8000")
				convey.So(cfg.SparklineWindow, convey.ShouldEqual, 36)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 12.5)
				convey.So(cfg.LogJSON, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
# upstream settings
addr: ":9090"
upstream_url: "http://model:8000"
cache_ttl_seconds: 60
top_contributors: 5
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COMPASS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge the file over the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://model:8000")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.TopContributors, convey.ShouldEqual, 5)
				convey.So(cfg.SparklineWindow, convey.ShouldEqual, 24)
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("COMPASS_TOP_CONTRIBUTORS", "7")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopContributors, convey.ShouldEqual, 7)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COMPASS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("COMPASS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric env var is not a number", func() {
			_ = os.Setenv("COMPASS_SPARKLINE_WINDOW", "wide")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When addr is empty", func() {
			_ = os.Setenv("COMPASS_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When warming is enabled without workers", func() {
			_ = os.Setenv("COMPASS_WARM_WORKERS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "warm_workers")
			})

			convey.Convey("And disabling warming makes it valid", func() {
				_ = os.Setenv("COMPASS_WARM_INTERVAL_SECONDS", "0")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WarmInterval(), convey.ShouldEqual, time.Duration(0))
			})
		})

		convey.Convey("When metrics settings come from a YAML file", func() {
			tmpFile := createTempConfigFile(`
metrics_namespace: crash
metrics_subsystem: api
metrics_labels:
  instance: eu-1
metrics_latency_buckets_ms: [5, 50, 500]
metrics_refresh_seconds: 30
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("COMPASS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "crash")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "api")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"instance": "eu-1"})
				convey.So(cfg.MetricsLatencyBucketsMS, convey.ShouldResemble, []float64{5, 50, 500})
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When the metrics namespace is not a metric name", func() {
			_ = os.Setenv("COMPASS_METRICS_NAMESPACE", "crash-compass")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_namespace")
			})
		})

		convey.Convey("When the sparkline window is zero", func() {
			_ = os.Setenv("COMPASS_SPARKLINE_WINDOW", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sparkline_window")
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"COMPASS_CONFIG",
		"COMPASS_ADDR",
		"COMPASS_UPSTREAM_URL",
		"COMPASS_SPARKLINE_WINDOW",
		"COMPASS_RATE_LIMIT_RPS",
		"COMPASS_LOG_JSON",
		"COMPASS_TOP_CONTRIBUTORS",
		"COMPASS_WARM_WORKERS",
		"COMPASS_WARM_INTERVAL_SECONDS",
		"COMPASS_METRICS_NAMESPACE",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "compass-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func TestConfig_ValidateMetrics(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When latency buckets are not strictly ascending", func() {
			cfg.MetricsLatencyBucketsMS = []float64{10, 10, 20}

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a constant label name is invalid", func() {
			cfg.MetricsLabels = map[string]string{"data center": "x"}

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the subsystem is empty", func() {
			cfg.MetricsSubsystem = ""

			convey.Convey("Then it is allowed", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
