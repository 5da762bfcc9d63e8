// Package service composes the upstream client, the snapshot caches and the
// domain packages into the view models served by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/crashcompass/compass/internal/adapters/cache"
	"github.com/crashcompass/compass/internal/adapters/mq/queue"
	"github.com/crashcompass/compass/internal/adapters/mq/worker"
	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/internal/domain/axisfmt"
	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/pkg/logger"
)

// Upstream is the raw data source.
type Upstream interface {
	Categories(ctx context.Context) (model.CategoryListing, error)
	Series(ctx context.Context, id string) (model.SeriesResponse, error)
	DialScore(ctx context.Context) (model.DialScore, error)
	History(ctx context.Context) ([]model.HistoryPoint, error)
}

// Default configuration values.
const (
	defaultCacheTTL         = 5 * time.Minute
	defaultSparklineWindow  = 24
	defaultTopContributors  = 3
	defaultFetchConcurrency = 4
	defaultFallback         = "USREC"
	defaultWarmWorkers      = 2
	defaultWarmQueueSize    = 256
	warmShutdownTimeout     = 5 * time.Second
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	upstream  Upstream
	explainer *attribution.Explainer

	categories *cache.Cache[model.CategoryListing]
	series     *cache.Cache[model.SeriesResponse]
	dial       *cache.Cache[model.DialScore]
	history    *cache.Cache[[]model.HistoryPoint]

	// Configuration
	upstreamURL      string
	cacheTTL         time.Duration
	sparklineWindow  int
	topContributors  int
	fetchConcurrency int
	fallback         string
	warmInterval     time.Duration
	warmWorkers      int
	warmQueueSize    int

	// Background refresh
	refreshQueue *queue.InMemoryQueue
	refreshPool  *worker.Pool

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithUpstream sets the raw data source.
func WithUpstream(u Upstream) Option {
	return func(s *Service) {
		s.upstream = u
	}
}

// WithUpstreamURL records the upstream base URL for stats.
func WithUpstreamURL(u string) Option {
	return func(s *Service) {
		s.upstreamURL = u
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithExplainer replaces the default attribution explainer.
func WithExplainer(e *attribution.Explainer) Option {
	return func(s *Service) {
		if e != nil {
			s.explainer = e
		}
	}
}

// WithCacheTTL sets how long upstream snapshots are reused. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithSparklineWindow sets the number of trailing points in a sparkline.
func WithSparklineWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sparklineWindow = n
		}
	}
}

// WithTopContributors sets how many drivers the dashboard lists.
func WithTopContributors(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topContributors = n
		}
	}
}

// WithFetchConcurrency bounds concurrent series fetches per request.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithFallbackContributor sets the contributor explained when no
// contributor belongs to a category.
func WithFallbackContributor(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.fallback = id
		}
	}
}

// WithWarmInterval enables background cache refresh every d. Zero
// disables it.
func WithWarmInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.warmInterval = d
		}
	}
}

// WithWarmPool sizes the background refresh pool.
func WithWarmPool(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.warmWorkers = workers
		}
		if queueSize > 0 {
			s.warmQueueSize = queueSize
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		explainer:        attribution.New(),
		cacheTTL:         defaultCacheTTL,
		sparklineWindow:  defaultSparklineWindow,
		topContributors:  defaultTopContributors,
		fetchConcurrency: defaultFetchConcurrency,
		fallback:         defaultFallback,
		warmWorkers:      defaultWarmWorkers,
		warmQueueSize:    defaultWarmQueueSize,
		logger:           logger.Nop(),
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	clock := cache.WithClock(s.now)
	s.categories = cache.New[model.CategoryListing]("categories", s.cacheTTL, clock)
	s.series = cache.New[model.SeriesResponse]("series", s.cacheTTL, clock)
	s.dial = cache.New[model.DialScore]("dial_score", s.cacheTTL, clock)
	s.history = cache.New[[]model.HistoryPoint]("history", s.cacheTTL, clock)

	return s
}

// Start launches the cache sweepers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.upstream == nil {
		return ErrNotStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	for _, run := range []func(context.Context){s.categories.Run, s.series.Run, s.dial.Run, s.history.Run} {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(runCtx)
		}()
	}

	if s.warmInterval > 0 && s.cacheTTL > 0 {
		s.startWarming(runCtx)
	}

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "dashboard service started",
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Int("sparklineWindow", s.sparklineWindow),
		logger.Int("topContributors", s.topContributors),
		logger.Int("fetchConcurrency", s.fetchConcurrency),
		logger.Duration("warmInterval", s.warmInterval),
	)
	return nil
}

// Stop stops the cache sweepers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	if s.refreshPool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), warmShutdownTimeout)
		if err := s.refreshPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "refresh pool shutdown", logger.Error(err))
		}
		cancel()
		s.refreshPool, s.refreshQueue = nil, nil
	}
	s.wg.Wait()
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// Format renders a compact axis label.
func (s *Service) Format(v float64) string {
	return axisfmt.Format(v)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:         s.started,
		UpstreamURL:     s.upstreamURL,
		CacheTTL:        s.cacheTTL.String(),
		CachedSeries:    s.series.Len(),
		SparklineWindow: s.sparklineWindow,
		TopContributors: s.topContributors,
		WarmInterval:    s.warmInterval.String(),
		Uptime:          "0s",
	}
	if s.refreshQueue != nil {
		st.RefreshPending = s.refreshQueue.Len()
	}
	if s.started {
		st.Uptime = s.now().Sub(s.startedAt).Truncate(time.Second).String()
	}
	return st
}

func (s *Service) loadCategories(ctx context.Context) (model.CategoryListing, error) {
	return s.categories.GetOrLoad(ctx, "categories", s.upstream.Categories)
}

func (s *Service) loadSeries(ctx context.Context, id string) (model.SeriesResponse, error) {
	return s.series.GetOrLoad(ctx, id, func(ctx context.Context) (model.SeriesResponse, error) {
		return s.upstream.Series(ctx, id)
	})
}

func (s *Service) loadDial(ctx context.Context) (model.DialScore, error) {
	return s.dial.GetOrLoad(ctx, "dial", s.upstream.DialScore)
}

func (s *Service) loadHistory(ctx context.Context) ([]model.HistoryPoint, error) {
	return s.history.GetOrLoad(ctx, "history", s.upstream.History)
}
