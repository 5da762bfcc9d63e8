package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/internal/domain/recession"
	"github.com/crashcompass/compass/pkg/metrics"
)

// History builds the recession probability chart.
func (s *Service) History(ctx context.Context) (History, error) {
	if s.upstream == nil {
		return History{}, ErrNotStarted
	}
	start := time.Now()

	points, err := s.loadHistory(ctx)
	if err != nil {
		return History{}, fmt.Errorf("history: %w", err)
	}

	out := History{
		Points:    recession.ChartPoints(points),
		Intervals: recession.ExtractIntervals(points),
		Markers:   recession.DefaultMarkers(),
	}
	metrics.RecordViewBuilt("history", float64(time.Since(start).Microseconds())/1000)
	return out, nil
}

// Explain explains the top contributor of req. An empty allowed list
// ranks every contributor.
func (s *Service) Explain(_ context.Context, req ExplainRequest) (attribution.Explanation, error) {
	fallback := req.Fallback
	if fallback == "" {
		fallback = s.fallback
	}
	var allowed map[string]struct{}
	if len(req.Allowed) > 0 {
		allowed = attribution.Allow(req.Allowed...)
	}
	for _, c := range req.Contributors {
		if c.Name == "" {
			return attribution.Explanation{}, fmt.Errorf("%w: contributor name must not be empty", ErrInvalidInput)
		}
	}

	out := s.explainer.Explain(req.Contributors, allowed, fallback)
	metrics.RecordExplanation(out.Category)
	return out, nil
}
