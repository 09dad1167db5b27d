package resolution

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Collector fans out one gateway call per context and waits for all of them.
type Collector struct {
	gateway     Disambiguator
	logger      ectologger.Logger
	concurrency int
	callTimeout time.Duration
}

// CollectorConfig bounds the fan-out. Zero values mean unlimited concurrency and no per-call timeout.
type CollectorConfig struct {
	Concurrency int
	CallTimeout time.Duration
}

// NewCollector creates a new collector
func NewCollector(gateway Disambiguator, cfg CollectorConfig, logger ectologger.Logger) *Collector {
	return &Collector{
		gateway:     gateway,
		logger:      logger,
		concurrency: cfg.Concurrency,
		callTimeout: cfg.CallTimeout,
	}
}

// Collect returns every pair emitted for the batch, grouped by mention in context order.
// The first failing call cancels the rest and fails the whole batch.
func (c *Collector) Collect(ctx context.Context, contexts []models.ResolutionContext) ([]models.ResolvedPair, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Collector.Collect")
	defer span.End()

	if len(contexts) == 0 {
		return nil, nil
	}

	// one slot per mention so completion order cannot reorder results
	slots := make([][]models.ResolvedPair, len(contexts))

	g, gCtx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i := range contexts {
		idx := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			pairs, err := c.call(gCtx, contexts[idx])
			if err != nil {
				return &DisambiguationError{TmpID: contexts[idx].Current.TmpID, Err: err}
			}
			slots[idx] = pairs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("mentions", len(contexts)).Error("Disambiguation fan-out failed")
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	pairs := make([]models.ResolvedPair, 0, total)
	for _, s := range slots {
		pairs = append(pairs, s...)
	}

	metrics.ResolvedPairsTotal.Add(float64(len(pairs)))
	return pairs, nil
}

func (c *Collector) call(ctx context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	start := time.Now()
	pairs, err := c.gateway.Disambiguate(ctx, rc)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DisambiguationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"tmp_id": rc.Current.TmpID,
		"pairs":  len(pairs),
	}).Debug("Mention disambiguated")
	return pairs, nil
}
