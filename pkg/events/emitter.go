// Package events publishes resolution outcomes to downstream consumers
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Publisher sends one message and waits for the broker acknowledgement
type Publisher interface {
	Publish(ctx context.Context, msg kafka.OutgoingMessage) error
}

// Emitter handles event emission for fern
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	timeout   time.Duration
}

var _ resolution.Observer = (*Emitter)(nil)

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// WithTimeout bounds how long BatchResolved waits for the broker acknowledgement
func (e *Emitter) WithTimeout(timeout time.Duration) *Emitter {
	e.timeout = timeout
	return e
}

// BatchResolved emits a batch.resolved event keyed by ingestion id
func (e *Emitter) BatchResolved(ctx context.Context, req models.BatchRequest, result resolution.BatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.BatchResolved")
	defer span.End()

	event := BatchResolvedEvent{
		BaseEvent:    NewBaseEvent(EventTypeBatchResolved, req.TenantID, fctx.GetRequestID(ctx)),
		IngestionID:  req.IngestionID,
		ContentID:    req.ContentID,
		DatasourceID: req.DatasourceID,
		Correlations: result.Correlations,
		Edges:        EdgesFromMutations(result.Mutations),
	}
	if event.Correlations == nil {
		event.Correlations = []models.CorrelationEntry{}
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}

	key := req.IngestionID
	if key == "" {
		key = req.ContentID
	}

	msg := kafka.OutgoingMessage{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			kafka.HeaderEventType:   string(event.EventType),
			kafka.HeaderTenantID:    req.TenantID,
			kafka.HeaderIngestionID: req.IngestionID,
		},
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.publisher.Publish(ctx, msg); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "error").Inc()
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch.resolved event")
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "success").Inc()
	return nil
}
