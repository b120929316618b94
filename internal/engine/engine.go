package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
	"github.com/xkilldash9x/matrix-engine/internal/config"
	"github.com/xkilldash9x/matrix-engine/internal/resolver"
)

// Executor is the interface the engine needs from the resolver. Narrow on
// purpose so tests can swap in stubs.
type Executor interface {
	Execute(ctx context.Context, gap schemas.CognitiveGap, run resolver.SearchRunner, snap schemas.GraphSnapshot) schemas.ExecutionResult
}

// Engine fans independent gap executions out across a bounded worker pool.
// It owns only the mechanics of concurrent dispatch; what to do with the
// results, whether to iterate, and how gaps cascade stays with the caller.
type Engine struct {
	log           *zap.Logger
	executor      Executor
	concurrency   int
	searchTimeout time.Duration
}

// New creates an Engine using the resolver settings from cfg.
func New(cfg *config.Config, logger *zap.Logger, executor Executor) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Resolver.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 4 // A sensible default.
	}
	return &Engine{
		log:           logger.With(zap.String("component", "gap_engine")),
		executor:      executor,
		concurrency:   concurrency,
		searchTimeout: cfg.Resolver.SearchTimeout,
	}
}

// ExecuteAll runs every gap through the executor concurrently, at most
// concurrency at a time, each under its own search timeout. Results come
// back in input order; a failed execution occupies its slot as an
// error-status result rather than aborting the batch.
func (e *Engine) ExecuteAll(ctx context.Context, gaps []schemas.CognitiveGap, run resolver.SearchRunner, snap schemas.GraphSnapshot) []schemas.ExecutionResult {
	if len(gaps) == 0 {
		return nil
	}

	batchID := uuid.New().String()
	e.log.Info("Dispatching gap batch",
		zap.String("batch_id", batchID),
		zap.Int("gaps", len(gaps)),
		zap.Int("concurrency", e.concurrency))

	results := make([]schemas.ExecutionResult, len(gaps))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, gap := range gaps {
		i, gap := i, gap
		g.Go(func() error {
			gapCtx := groupCtx
			if e.searchTimeout > 0 {
				var cancel context.CancelFunc
				gapCtx, cancel = context.WithTimeout(groupCtx, e.searchTimeout)
				defer cancel()
			}
			// Execute never returns an error; failures arrive as
			// error-status envelopes, so the group never short-circuits.
			results[i] = e.executor.Execute(gapCtx, gap, run, snap)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, res := range results {
		if res.OK() {
			succeeded++
		}
	}
	e.log.Info("Gap batch complete",
		zap.String("batch_id", batchID),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(results)-succeeded))
	return results
}
