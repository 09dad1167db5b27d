package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	fctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrSkipMessage marks a handler failure that redelivery cannot fix. The message is committed.
var ErrSkipMessage = errors.New("skip message")

// BatchHandler resolves one batch taken from the ingestion stream
type BatchHandler func(ctx context.Context, req models.BatchRequest) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer pulls ingested documents from Kafka one message at a time
type Consumer struct {
	reader  messageReader
	topic   string
	logger  ectologger.Logger
	handler BatchHandler
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	backoffUnit time.Duration
	maxBackoff  time.Duration
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig, logger ectologger.Logger, handler BatchHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})
	return newConsumer(reader, cfg.Topic, logger, handler)
}

func newConsumer(reader messageReader, topic string, logger ectologger.Logger, handler BatchHandler) *Consumer {
	return &Consumer{
		reader:  reader,
		topic:   topic,
		logger:  logger,
		handler: handler,

		backoffUnit: time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// Start begins consuming messages in the background
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.WithContext(ctx).WithField("topic", c.topic).Info("Kafka consumer started")
	return nil
}

// Stop cancels the loop, waits for the in-flight message and closes the reader
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info("Consumer loop stopping")
				return
			}
			c.logger.WithContext(ctx).WithError(err).Error("Failed to fetch message")
			continue
		}
		c.processMessage(ctx, msg)
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	ctx = tracing.ExtractTraceParent(ctx, headers[HeaderTraceParent])
	ctx, span := tracing.StartSpan(ctx, "kafka.Consumer.processMessage")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	incoming := &IncomingMessage{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Topic:     msg.Topic,
	}

	req, err := incoming.DecodeBatch()
	if err != nil {
		// a payload that cannot be decoded will never succeed, skip it
		log.WithError(err).Error("Failed to parse message")
		c.commit(ctx, log, msg)
		return
	}

	ctx = fctx.SetTenantID(ctx, req.TenantID)
	ctx = fctx.SetIngestionID(ctx, req.IngestionID)

	if err := c.handle(ctx, log, req); err != nil {
		// shutting down, the uncommitted message is redelivered to the next reader
		log.WithError(err).Warn("Stopped retrying message")
		return
	}

	c.commit(ctx, log, msg)
}

// handle runs the handler until it succeeds or asks to skip, waiting with fibonacci
// backoff between attempts. Later offsets are never fetched past a failed one.
func (c *Consumer) handle(ctx context.Context, log ectologger.Logger, req models.BatchRequest) error {
	a, b := 1, 1
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, req)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrSkipMessage) {
			log.WithError(err).Warn("Skipping message")
			return nil
		}

		wait := time.Duration(a) * c.backoffUnit
		if c.maxBackoff > 0 && wait > c.maxBackoff {
			wait = c.maxBackoff
		}
		log.WithError(err).WithFields(map[string]any{
			"attempt":  attempt,
			"retry_in": wait.String(),
		}).Error("Failed to process message")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		a, b = b, a+b
	}
}

func (c *Consumer) commit(ctx context.Context, log ectologger.Logger, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to commit message")
	}
}
