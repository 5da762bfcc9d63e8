package service

import (
	"context"
	"errors"
	"time"

	"github.com/crashcompass/compass/internal/adapters/mq/queue"
	"github.com/crashcompass/compass/internal/adapters/mq/worker"
	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/pkg/logger"
)

// warmer reloads snapshots into the caches ahead of their expiry.
type warmer struct {
	s *Service
	q queue.Queue
}

// startWarming launches the refresh pool and the tick loop. Callers hold s.mu.
func (s *Service) startWarming(ctx context.Context) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.warmQueueSize))
	s.refreshQueue = q
	s.refreshPool = worker.NewPool(s.warmWorkers, q, warmer{s: s, q: q},
		worker.WithLogger(s.logger.Named("refresh")),
	)
	s.refreshPool.Start(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.warmInterval)
		defer ticker.Stop()
		for {
			s.enqueueRoots(ctx, q)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// enqueueRoots queues the snapshots every view depends on. Series jobs are
// queued by the categories refresh.
func (s *Service) enqueueRoots(ctx context.Context, q queue.Queue) {
	for _, kind := range []model.RefreshKind{model.RefreshCategories, model.RefreshDial, model.RefreshHistory} {
		s.enqueue(ctx, q, queue.Job{Kind: kind})
	}
}

func (s *Service) enqueue(ctx context.Context, q queue.Queue, job queue.Job) {
	err := q.Enqueue(ctx, job)
	switch {
	case err == nil, errors.Is(err, queue.ErrDuplicate), errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
	default:
		s.logger.Debug(ctx, "refresh job dropped", logger.String("job", job.Key()), logger.Error(err))
	}
}

// Refresh implements worker.Refresher.
func (w warmer) Refresh(ctx context.Context, job queue.Job) error {
	s := w.s
	switch job.Kind {
	case model.RefreshCategories:
		listing, err := s.upstream.Categories(ctx)
		if err != nil {
			return err
		}
		s.categories.Set("categories", listing)
		for _, key := range sortedKeys(listing) {
			for _, id := range listing[key].Series {
				s.enqueue(ctx, w.q, queue.Job{Kind: model.RefreshSeries, SeriesID: id})
			}
		}
	case model.RefreshDial:
		dial, err := s.upstream.DialScore(ctx)
		if err != nil {
			return err
		}
		s.dial.Set("dial", dial)
	case model.RefreshHistory:
		hist, err := s.upstream.History(ctx)
		if err != nil {
			return err
		}
		s.history.Set("history", hist)
	case model.RefreshSeries:
		resp, err := s.upstream.Series(ctx, job.SeriesID)
		if err != nil {
			return err
		}
		s.series.Set(job.SeriesID, resp)
	}
	return nil
}
