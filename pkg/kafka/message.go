package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	HeaderTenantID    = "tenant_id"
	HeaderIngestionID = "ingestion_id"
	HeaderTraceParent = "traceparent"
	HeaderMessageID   = "message_id"
	HeaderEventType   = "event_type"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// DecodeBatch parses the message value as a batch request. Tenant and ingestion
// headers fill in ids the payload leaves empty.
func (m *IncomingMessage) DecodeBatch() (models.BatchRequest, error) {
	var req models.BatchRequest
	if err := json.Unmarshal(m.Value, &req); err != nil {
		return models.BatchRequest{}, fmt.Errorf("failed to decode batch request: %w", err)
	}
	if req.TenantID == "" {
		req.TenantID = m.Headers[HeaderTenantID]
	}
	if req.IngestionID == "" {
		req.IngestionID = m.Headers[HeaderIngestionID]
	}
	return req, nil
}

// OutgoingMessage is a message handed to the producer
type OutgoingMessage struct {
	Key     string
	Value   []byte
	Headers map[string]string
}
