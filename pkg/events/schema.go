package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeBatchResolved EventType = "batch.resolved"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// NewBaseEvent creates a base event with a fresh id
func NewBaseEvent(eventType EventType, tenantID, correlationID string) BaseEvent {
	return BaseEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		TenantID:      tenantID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// Edge is a relationship merged while linking a batch
type Edge struct {
	SourceID   int64  `json:"source_id"`
	SourceType string `json:"source_type"`
	TargetID   int64  `json:"target_id"`
	TargetType string `json:"target_type"`
	Relation   string `json:"relation"`
}

// BatchResolvedEvent is emitted once a batch has been resolved and its relationships committed
type BatchResolvedEvent struct {
	BaseEvent
	IngestionID  string                    `json:"ingestion_id,omitempty"`
	ContentID    string                    `json:"content_id,omitempty"`
	DatasourceID string                    `json:"datasource_id,omitempty"`
	Correlations []models.CorrelationEntry `json:"correlations"`
	Edges        []Edge                    `json:"edges"`
}

// EdgesFromMutations converts committed mutations to event edges
func EdgesFromMutations(mutations []models.GraphMutation) []Edge {
	edges := make([]Edge, 0, len(mutations))
	for _, m := range mutations {
		edges = append(edges, Edge{
			SourceID:   m.SourceID,
			SourceType: m.SourceType,
			TargetID:   m.TargetID,
			TargetType: m.TargetType,
			Relation:   m.Relation,
		})
	}
	return edges
}
