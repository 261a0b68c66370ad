// Package pipeline fans a batch of reach ids out over a worker pool. Each
// worker fetches the source record, resolves the hydroline, and publishes
// the result; one reach failing never stops the others.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

// ReachFetcher loads a reach record from the upstream source.
type ReachFetcher interface {
	FetchReach(ctx context.Context, reachID string) (*domain.Reach, error)
}

// Resolver traces the reach hydroline in place.
type Resolver interface {
	Resolve(ctx context.Context, reach *domain.Reach) error
}

// Publisher writes a processed reach to the feature store.
type Publisher interface {
	PublishReach(ctx context.Context, reach *domain.Reach) error
}

// ReachSink optionally mirrors processed reaches to a message topic.
type ReachSink interface {
	PublishResolved(ctx context.Context, reach *domain.Reach) error
}

// Pipeline orchestrates the fetch-resolve-publish run.
type Pipeline struct {
	fetcher   ReachFetcher
	resolver  Resolver
	publisher Publisher
	sink      ReachSink
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	workers   int
}

// New creates a Pipeline. sink may be nil when no message sink is configured.
func New(f ReachFetcher, r Resolver, p Publisher, sink ReachSink, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		fetcher:   f,
		resolver:  r,
		publisher: p,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// reach, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any reaches yet")
	}
	return nil
}

// Run processes the given reach ids and returns how many completed without a
// processing failure. Reaches that resolve with a recorded domain failure
// still publish and count as processed.
func (p *Pipeline) Run(ctx context.Context, reachIDs []string) (int, error) {
	p.logger.Info("pipeline started", "reaches", len(reachIDs), "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ids := make(chan string)
	var processed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				if err := p.processReach(ctx, id); err != nil {
					if ctx.Err() != nil {
						return
					}
					p.logger.Error("reach processing failed", "reach_id", id, "error", err)
					continue
				}
				processed.Add(1)
				p.ready.Store(true)
			}
		}()
	}

feed:
	for _, id := range reachIDs {
		select {
		case <-ctx.Done():
			break feed
		case ids <- id:
		}
	}
	close(ids)
	wg.Wait()

	n := int(processed.Load())
	p.logger.Info("pipeline finished", "processed", n, "failed", len(reachIDs)-n)
	if ctx.Err() != nil {
		return n, ctx.Err()
	}
	return n, nil
}

// processReach runs the fetch-resolve-publish cycle for one reach.
func (p *Pipeline) processReach(ctx context.Context, reachID string) error {
	start := time.Now()

	reach, err := p.fetcher.FetchReach(ctx, reachID)
	if err != nil {
		return err
	}

	if err := p.resolver.Resolve(ctx, reach); err != nil {
		return err
	}

	reach.MarkExported()
	if err := p.publisher.PublishReach(ctx, reach); err != nil {
		return err
	}

	if p.sink != nil {
		if err := p.sink.PublishResolved(ctx, reach); err != nil {
			// The feature store write already landed, so a sink failure is
			// logged but does not fail the reach.
			p.logger.Warn("sink publish failed", "reach_id", reachID, "error", err)
		}
	}

	p.logger.Debug("reach processed",
		"reach_id", reachID,
		"tracing_method", reach.TracingMethod,
		"error_flag", reach.Error,
		"duration", time.Since(start),
	)
	return nil
}
