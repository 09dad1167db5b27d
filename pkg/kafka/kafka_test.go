package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeWriter reports delivery through the producer's completion callback
type fakeWriter struct {
	mu       sync.Mutex
	written  []kafka.Message
	complete func([]kafka.Message, error)
	fail     error
	enqueue  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.enqueue != nil {
		return w.enqueue
	}
	w.mu.Lock()
	w.written = append(w.written, msgs...)
	w.mu.Unlock()
	go w.complete(msgs, w.fail)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	p := newProducer(w, "entities-resolved", testLogger())
	w.complete = p.complete
	return p
}

func TestProducer_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("acknowledged delivery", func(t *testing.T) {
		w := &fakeWriter{}
		p := newTestProducer(w)

		err := p.Publish(ctx, OutgoingMessage{Key: "k", Value: []byte(`{}`), Headers: map[string]string{HeaderEventType: "x"}})
		require.NoError(t, err)
		require.Len(t, w.written, 1)
		assert.Equal(t, "entities-resolved", w.written[0].Topic)
		assert.NotEmpty(t, headerValue(w.written[0], HeaderMessageID))
		assert.Equal(t, "x", headerValue(w.written[0], HeaderEventType))
		assert.Equal(t, 0, p.Pending())
	})

	t.Run("delivery failure", func(t *testing.T) {
		w := &fakeWriter{fail: errors.New("leader not available")}
		p := newTestProducer(w)

		err := p.Publish(ctx, OutgoingMessage{Key: "k"})
		assert.EqualError(t, err, "leader not available")
		assert.Equal(t, 0, p.Pending())
	})

	t.Run("enqueue failure", func(t *testing.T) {
		w := &fakeWriter{enqueue: errors.New("writer closed")}
		p := newTestProducer(w)

		err := p.Publish(ctx, OutgoingMessage{Key: "k"})
		assert.ErrorContains(t, err, "writer closed")
		assert.Equal(t, 0, p.Pending())
	})

	t.Run("repeated delivery reports are ignored", func(t *testing.T) {
		w := &fakeWriter{}
		p := newTestProducer(w)

		promise := p.PublishAsync(ctx, OutgoingMessage{Key: "k"})
		_, err := promise.Await(ctx)
		require.NoError(t, err)

		p.complete(w.written, errors.New("late"))
		_, err = promise.Await(ctx)
		assert.NoError(t, err)
	})
}

type fakeReader struct {
	mu        sync.Mutex
	messages  chan kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func batchBody(t *testing.T, ingestionID string) []byte {
	t.Helper()
	body, err := json.Marshal(models.BatchRequest{
		IngestionID: ingestionID,
		Entities:    []models.EntityMention{{TmpID: 1, Type: "Company", Name: "Acme"}},
	})
	require.NoError(t, err)
	return body
}

func TestConsumer_CommitPolicy(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 4)}
	reader.messages <- kafka.Message{Offset: 1, Value: batchBody(t, "ing-1"), Headers: []kafka.Header{{Key: HeaderTenantID, Value: []byte("tenant-1")}}}
	reader.messages <- kafka.Message{Offset: 2, Value: []byte("not json")}
	reader.messages <- kafka.Message{Offset: 3, Value: batchBody(t, "ing-3")}
	reader.messages <- kafka.Message{Offset: 4, Value: batchBody(t, "ing-4")}

	var mu sync.Mutex
	var seen []models.BatchRequest
	failed := false
	handler := func(_ context.Context, req models.BatchRequest) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, req)
		switch {
		case req.IngestionID == "ing-3" && !failed:
			failed = true
			return errors.New("graph unavailable")
		case req.IngestionID == "ing-4":
			return fmt.Errorf("bad batch: %w", ErrSkipMessage)
		}
		return nil
	}

	c := newConsumer(reader, "batches", testLogger(), handler)
	c.backoffUnit = time.Millisecond
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 4
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())

	// offset 3 is retried in place before offset 4 is fetched
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committedOffsets())

	mu.Lock()
	defer mu.Unlock()
	ids := make([]string, 0, len(seen))
	for _, req := range seen {
		ids = append(ids, req.IngestionID)
	}
	assert.Equal(t, []string{"ing-1", "ing-3", "ing-3", "ing-4"}, ids)
	assert.Equal(t, "tenant-1", seen[0].TenantID)
}

func TestConsumer_StopWhileRetrying(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 2)}
	reader.messages <- kafka.Message{Offset: 10, Value: batchBody(t, "ing-10")}
	reader.messages <- kafka.Message{Offset: 11, Value: batchBody(t, "ing-11")}

	var mu sync.Mutex
	var seen []string
	handler := func(_ context.Context, req models.BatchRequest) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, req.IngestionID)
		return errors.New("graph unavailable")
	}

	c := newConsumer(reader, "batches", testLogger(), handler)
	c.backoffUnit = time.Millisecond
	c.maxBackoff = 2 * time.Millisecond
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 3
	}, time.Second, time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Empty(t, reader.committedOffsets())
	mu.Lock()
	defer mu.Unlock()
	for _, id := range seen {
		assert.Equal(t, "ing-10", id, "offset 11 must not be fetched while 10 is failing")
	}
}
