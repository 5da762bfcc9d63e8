package cache

import "time"

const defaultSweepInterval = time.Minute

type options struct {
	obs           Observer
	now           func() time.Time
	sweepInterval time.Duration
}

// Option applies a configuration option to a Cache.
type Option func(*options)

// WithObserver replaces the Prometheus-backed observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSweepInterval sets how often Run removes expired entries.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}
