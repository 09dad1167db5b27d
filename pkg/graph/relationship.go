package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RelationshipService reads linked edges back out of the graph database
type RelationshipService struct {
	client *Client
	logger ectologger.Logger
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(client *Client, logger ectologger.Logger) *RelationshipService {
	return &RelationshipService{
		client: client,
		logger: logger,
	}
}

// Relationship is one edge adjacent to an entity
type Relationship struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Direction  string `json:"direction"`
	TargetID   int64  `json:"target_id"`
	TargetType string `json:"target_type"`
	TargetName string `json:"target_name"`
}

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionBoth     = "both"
)

// GetRelationships lists the edges of the entity with store id entityID
func (s *RelationshipService) GetRelationships(ctx context.Context, tenantID string, entityType string, entityID int64, direction string) ([]Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.RelationshipService.GetRelationships")
	defer span.End()

	cypher, err := relationshipsQuery(entityType, direction)
	if err != nil {
		return nil, err
	}

	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, relationshipsParams(tenantID, entityID))
		if err != nil {
			return nil, err
		}

		rels := make([]Relationship, 0)
		for result.Next(ctx) {
			record := result.Record()
			rel := Relationship{}
			if v, ok := record.Get("rel_id"); ok {
				rel.ID, _ = v.(int64)
			}
			if v, ok := record.Get("rel_type"); ok {
				rel.Type, _ = v.(string)
			}
			if v, ok := record.Get("direction"); ok {
				rel.Direction, _ = v.(string)
			}
			if v, ok := record.Get("target_id"); ok {
				rel.TargetID, _ = v.(int64)
			}
			if v, ok := record.Get("target_type"); ok {
				rel.TargetType, _ = v.(string)
			}
			if v, ok := record.Get("target_name"); ok {
				rel.TargetName, _ = v.(string)
			}
			rels = append(rels, rel)
		}
		return rels, result.Err()
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to get relationships from graph")
		return nil, fmt.Errorf("failed to get relationships from graph: %w", err)
	}

	return res.([]Relationship), nil
}

func relationshipsQuery(entityType, direction string) (string, error) {
	const returns = `RETURN id(r) AS rel_id, type(r) AS rel_type, %s AS direction,
			id(t) AS target_id, t.entity_type AS target_type, t.name AS target_name`
	label := sanitizeLabel(entityType)

	outgoing := fmt.Sprintf(`MATCH (e:%s)-[r]->(t) WHERE id(e) = $id AND e.tenant_id = $tenant_id `+returns, label, "$outgoing")
	incoming := fmt.Sprintf(`MATCH (t)-[r]->(e:%s) WHERE id(e) = $id AND e.tenant_id = $tenant_id `+returns, label, "$incoming")

	switch direction {
	case DirectionOutgoing:
		return outgoing, nil
	case DirectionIncoming:
		return incoming, nil
	case DirectionBoth, "":
		return outgoing + "\nUNION ALL\n" + incoming, nil
	default:
		return "", fmt.Errorf("unknown direction %q", direction)
	}
}

func relationshipsParams(tenantID string, entityID int64) map[string]any {
	return map[string]any{
		"id":        entityID,
		"tenant_id": tenantID,
		"outgoing":  DirectionOutgoing,
		"incoming":  DirectionIncoming,
	}
}
