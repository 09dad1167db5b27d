package resolution

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service runs the resolve-and-link pipeline for one batch at a time.
// A Service holds no per-batch state and is safe for concurrent use.
type Service struct {
	collector *Collector
	executor  *Executor
	validate  *validator.Validate
	observers []Observer
	logger    ectologger.Logger
}

// NewService creates a new resolution service
func NewService(collector *Collector, executor *Executor, logger ectologger.Logger, observers ...Observer) *Service {
	return &Service{
		collector: collector,
		executor:  executor,
		validate:  validator.New(),
		observers: observers,
		logger:    logger,
	}
}

// ResolveAndLink resolves every mention of the batch, links declared relations in the graph
// and returns the correlation list. Any gateway or commit failure fails the whole batch.
func (s *Service) ResolveAndLink(ctx context.Context, req models.BatchRequest) (*models.ResponseList, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.ResolveAndLink")
	defer span.End()

	start := time.Now()
	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":     req.TenantID,
		"ingestion_id":  req.IngestionID,
		"content_id":    req.ContentID,
		"datasource_id": req.DatasourceID,
		"mentions":      len(req.Entities),
	})

	if err := s.validate.Struct(req); err != nil {
		s.observe("invalid", start)
		log.WithError(err).Warn("Rejected invalid batch")
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	metrics.MentionsTotal.Add(float64(len(req.Entities)))

	contexts := BuildContexts(req)

	pairs, err := s.collector.Collect(ctx, contexts)
	if err != nil {
		s.observe("disambiguation_error", start)
		return nil, err
	}

	writeStart := time.Now()
	mutations, dropped := compile(pairs)
	for _, d := range dropped {
		log.WithFields(map[string]any{
			"source_tmp_id": d.SourceTmpID,
			"target_tmp_id": d.Relation.To,
			"relation":      d.Relation.Name,
		}).Debug("Dropped relation with unresolved target")
	}
	metrics.RelationsDroppedTotal.Add(float64(len(dropped)))

	if err := s.executor.Commit(ctx, mutations); err != nil {
		s.observe("commit_error", start)
		return nil, err
	}
	log.WithFields(map[string]any{
		"statements": len(mutations),
		"dropped":    len(dropped),
		"elapsed":    time.Since(writeStart).String(),
	}).Info("write-relations")

	result := BatchResult{
		Correlations: Assemble(pairs),
		Mutations:    mutations,
	}

	for _, o := range s.observers {
		if err := o.BatchResolved(ctx, req, result); err != nil {
			log.WithError(err).Warn("Batch observer failed")
		}
	}

	s.observe("success", start)
	log.WithFields(map[string]any{
		"pairs":   len(pairs),
		"elapsed": time.Since(start).String(),
	}).Info("Resolved batch")

	return &models.ResponseList{
		Message:  "",
		Response: result.Correlations,
	}, nil
}

func (s *Service) observe(status string, start time.Time) {
	metrics.BatchesTotal.WithLabelValues(status).Inc()
	metrics.BatchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
