package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/internal/domain/axisfmt"
	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/internal/domain/riskband"
	"github.com/crashcompass/compass/internal/domain/series"
	"github.com/crashcompass/compass/internal/domain/slug"
	"github.com/crashcompass/compass/pkg/logger"
	"github.com/crashcompass/compass/pkg/metrics"
)

// Gauge scale.
const (
	dialMin = 0
	dialMax = 100
)

// Dashboard builds the home page view. A failing dial fetch reads as a
// zero score; a failing category listing fails the view.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.upstream == nil {
		return Dashboard{}, ErrNotStarted
	}
	start := time.Now()

	var (
		listing model.CategoryListing
		dial    model.DialScore
		dialErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing, err = s.loadCategories(gctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		dial, dialErr = s.loadDial(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	degraded := false
	if dialErr != nil {
		s.logger.Warn(ctx, "dial score unavailable, reading zero", logger.Error(dialErr))
		dial = model.DialScore{}
		degraded = true
	}

	cards, err := s.categoryCards(ctx, listing)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		Dial:        s.buildDial(dial.Score, degraded),
		Drivers:     s.buildDrivers(dial.Contributors),
		Categories:  cards,
		GeneratedAt: s.now().UTC(),
	}
	metrics.UpdateDialScore(out.Dial.Rounded)
	metrics.RecordViewBuilt("dashboard", float64(time.Since(start).Microseconds())/1000)
	return out, nil
}

func (s *Service) buildDial(score float64, degraded bool) Dial {
	rounded := riskband.Round(score)
	return Dial{
		Score:       score,
		Rounded:     rounded,
		Status:      riskband.Classify(rounded),
		Arcs:        riskband.SegmentGeometry(riskband.Segments(), dialMin, dialMax),
		NeedleAngle: riskband.NeedleAngle(score, dialMin, dialMax),
		Degraded:    degraded,
	}
}

func (s *Service) buildDrivers(contributors []model.Contributor) []Driver {
	top := attribution.TopN(contributors, s.topContributors)
	out := make([]Driver, len(top))
	for i, c := range top {
		category := attribution.Classify(c.Shap)
		out[i] = Driver{
			Name:        c.Name,
			DisplayName: s.explainer.DisplayName(c.Name),
			Value:       c.Value,
			Shap:        c.Shap,
			Category:    category,
			Impact:      attribution.ImpactLabel(c.Shap),
			ImpactWidth: attribution.ImpactWidth(c.Shap),
			Explanation: s.explainer.Describe(c.Name, c.Shap),
		}
		metrics.RecordExplanation(category)
	}
	return out
}

// categoryCards builds one card per category, ordered by key. Hero series
// are fetched concurrently; a failed fetch leaves the card without one.
func (s *Service) categoryCards(ctx context.Context, listing model.CategoryListing) ([]CategoryCard, error) {
	keys := sortedKeys(listing)
	cards := make([]CategoryCard, len(keys))

	g := new(errgroup.Group)
	g.SetLimit(s.fetchConcurrency)
	for i, key := range keys {
		cat := listing[key]
		cards[i] = CategoryCard{
			Key:          key,
			Slug:         slug.Slugify(key),
			Title:        slug.ToDisplayName(key),
			OutlookScore: cat.OutlookScore,
			ScoreLabel:   scoreLabel(cat.OutlookScore),
			OtherSeries:  []string{},
		}
		if len(cat.Series) == 0 {
			continue
		}
		cards[i].OtherSeries = slices.Clone(cat.Series[1:])

		heroID := cat.Series[0]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			resp, err := s.loadSeries(ctx, heroID)
			if err != nil {
				s.logger.Warn(ctx, "hero series unavailable",
					logger.String("category", key),
					logger.String("series", heroID),
					logger.Error(err))
				metrics.RecordSeriesDropped()
				return nil
			}
			cards[i].Hero = &Sparkline{
				SeriesID: heroID,
				Name:     seriesTitle(resp, heroID),
				Values:   series.NormalizeTrailing(resp.Series, s.sparklineWindow),
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// Category builds the detail view for the category whose slug matches.
func (s *Service) Category(ctx context.Context, categorySlug string) (CategoryPage, error) {
	if s.upstream == nil {
		return CategoryPage{}, ErrNotStarted
	}
	start := time.Now()

	listing, err := s.loadCategories(ctx)
	if err != nil {
		return CategoryPage{}, fmt.Errorf("categories: %w", err)
	}
	key, ok := slug.Find(sortedKeys(listing), categorySlug)
	if !ok {
		return CategoryPage{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, categorySlug)
	}
	cat := listing[key]

	var (
		mu      sync.Mutex
		missing []string
	)
	charts := make([]*SeriesChart, len(cat.Series))

	g := new(errgroup.Group)
	g.SetLimit(s.fetchConcurrency)
	for i, id := range cat.Series {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			resp, err := s.loadSeries(ctx, id)
			if err != nil {
				s.logger.Warn(ctx, "series unavailable, omitting",
					logger.String("category", key),
					logger.String("series", id),
					logger.Error(err))
				metrics.RecordSeriesDropped()
				mu.Lock()
				missing = append(missing, id)
				mu.Unlock()
				return nil
			}
			chart := buildChart(resp, id)
			charts[i] = &chart
			return nil
		})
	}

	var dial model.DialScore
	g.Go(func() error {
		d, err := s.loadDial(ctx)
		if err != nil {
			s.logger.Warn(ctx, "dial score unavailable for category driver", logger.Error(err))
			return nil
		}
		dial = d
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return CategoryPage{}, err
	}

	out := CategoryPage{
		Key:          key,
		Slug:         slug.Slugify(key),
		Title:        slug.ToDisplayName(key),
		OutlookScore: cat.OutlookScore,
		Driver:       s.explainer.Explain(dial.Contributors, groupOf(cat.Series), s.fallback),
		Charts:       make([]SeriesChart, 0, len(charts)),
		Missing:      []string{},
	}
	for _, c := range charts {
		if c != nil {
			out.Charts = append(out.Charts, *c)
		}
	}
	// Keep the category's series order for missing ids too.
	for _, id := range cat.Series {
		if slices.Contains(missing, id) {
			out.Missing = append(out.Missing, id)
		}
	}
	metrics.RecordExplanation(out.Driver.Category)
	metrics.RecordViewBuilt("category", float64(time.Since(start).Microseconds())/1000)
	return out, nil
}

func buildChart(resp model.SeriesResponse, id string) SeriesChart {
	chart := SeriesChart{
		SeriesID:  id,
		Title:     seriesTitle(resp, id),
		Citation:  resp.Citation,
		Units:     resp.Units,
		Frequency: resp.Frequency,
		Points:    series.LinePoints(resp.Series),
	}
	if lo, hi, ok := series.Bounds(resp.Series); ok {
		chart.Axis = &Axis{Min: lo, Max: hi, MinLabel: axisfmt.Format(lo), MaxLabel: axisfmt.Format(hi)}
	}
	if p, ok := series.Latest(resp.Series); ok {
		chart.Latest = &Latest{Date: p.Date, Value: p.Value, Label: axisfmt.Format(p.Value)}
	}
	return chart
}

// groupOf is the allowed-name set for a category. Model features carry a
// "_YoY" suffix for level series, so both forms are allowed.
func groupOf(ids []string) map[string]struct{} {
	names := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		names = append(names, id, id+"_YoY")
	}
	return attribution.Allow(names...)
}

func seriesTitle(resp model.SeriesResponse, id string) string {
	if strings.TrimSpace(resp.Name) != "" {
		return resp.Name
	}
	return id
}

func scoreLabel(score *float64) string {
	if score == nil {
		return "—%"
	}
	return axisfmt.Format(*score) + "%"
}

func sortedKeys(listing model.CategoryListing) []string {
	keys := make([]string, 0, len(listing))
	for k := range listing {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
