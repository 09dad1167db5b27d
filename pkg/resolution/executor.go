package resolution

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	commitModeSingle = "single"
	commitModeUnion  = "union"
)

// Executor commits compiled graph mutations with as few store round trips as possible.
type Executor struct {
	writer GraphWriter
	logger ectologger.Logger
}

// NewExecutor creates a new executor
func NewExecutor(writer GraphWriter, logger ectologger.Logger) *Executor {
	return &Executor{
		writer: writer,
		logger: logger,
	}
}

// Commit writes nothing for zero mutations, a single statement for one,
// and one combined statement for two or more. There is no retry.
func (e *Executor) Commit(ctx context.Context, mutations []models.GraphMutation) error {
	ctx, span := tracing.StartSpan(ctx, "resolution.Executor.Commit")
	defer span.End()

	log := e.logger.WithContext(ctx).WithField("statements", len(mutations))

	var (
		mode string
		err  error
	)
	switch len(mutations) {
	case 0:
		log.Debug("No relationships to commit")
		return nil
	case 1:
		mode = commitModeSingle
		err = e.writer.Write(ctx, mutations[0])
	default:
		mode = commitModeUnion
		err = e.writer.WriteBatch(ctx, mutations)
	}

	if err != nil {
		metrics.GraphWritesTotal.WithLabelValues(mode, "error").Inc()
		log.WithError(err).Error("Failed to commit relationships")
		return &CommitError{Statements: len(mutations), Err: err}
	}

	metrics.GraphWritesTotal.WithLabelValues(mode, "success").Inc()
	metrics.GraphStatementsTotal.Add(float64(len(mutations)))
	log.WithField("mode", mode).Debug("Committed relationships")
	return nil
}
