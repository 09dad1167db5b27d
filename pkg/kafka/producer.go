package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/async"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes messages with an async kafka writer. The writer reports delivery
// through its completion callback, which settles one promise per message.
type Producer struct {
	writer  messageWriter
	logger  ectologger.Logger
	topic   string
	mu      sync.Mutex
	pending map[string]*async.Promise[kafka.Message]
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	p := newProducer(nil, cfg.Topic, logger)
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressionCodec(cfg.Compression),
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             p.complete,
	}
	return p
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer:  writer,
		logger:  logger,
		topic:   topic,
		pending: make(map[string]*async.Promise[kafka.Message]),
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "none":
		return 0
	default:
		return kafka.Snappy
	}
}

// Close flushes pending writes and closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishAsync hands msg to the writer and returns a promise settled on delivery
func (p *Producer) PublishAsync(ctx context.Context, msg OutgoingMessage) *async.Promise[kafka.Message] {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishAsync")
	defer span.End()

	id := uuid.New().String()
	promise := async.NewPromise[kafka.Message](id, p.logger)

	headers := []kafka.Header{{Key: HeaderMessageID, Value: []byte(id)}}
	if tp := tracing.GetTraceParent(ctx); tp != "" {
		headers = append(headers, kafka.Header{Key: HeaderTraceParent, Value: []byte(tp)})
	}
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	p.mu.Lock()
	p.pending[id] = promise
	p.mu.Unlock()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topic,
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		p.forget(id)
		promise.OnFailure(fmt.Errorf("failed to enqueue message: %w", err))
	}
	return promise
}

// Publish sends msg and waits for the broker to acknowledge it
func (p *Producer) Publish(ctx context.Context, msg OutgoingMessage) error {
	promise := p.PublishAsync(ctx, msg)
	if _, err := promise.Await(ctx); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("key", msg.Key).Error("Failed to publish message")
		return err
	}
	return nil
}

// Pending returns the number of messages still waiting for delivery
func (p *Producer) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Producer) forget(id string) *async.Promise[kafka.Message] {
	p.mu.Lock()
	defer p.mu.Unlock()
	promise := p.pending[id]
	delete(p.pending, id)
	return promise
}

// complete is the writer's completion callback
func (p *Producer) complete(messages []kafka.Message, err error) {
	for _, m := range messages {
		id := headerValue(m, HeaderMessageID)
		promise := p.forget(id)
		if promise == nil {
			p.logger.WithField("message_id", id).Warn("Delivery report for unknown message")
			continue
		}
		if err != nil {
			promise.OnFailure(err)
		} else {
			promise.OnResponse(m)
		}
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
