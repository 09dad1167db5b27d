package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EntityService handles canonical entity nodes in the graph database
type EntityService struct {
	client *Client
	logger ectologger.Logger
}

// NewEntityService creates a new entity service
func NewEntityService(client *Client, logger ectologger.Logger) *EntityService {
	return &EntityService{
		client: client,
		logger: logger,
	}
}

// EntityKey identifies a canonical entity within a tenant
type EntityKey struct {
	TenantID string
	Type     string
	MatchKey string
}

// FindOrCreate returns the node for key, creating it with name and attributes when it does not exist.
func (s *EntityService) FindOrCreate(ctx context.Context, key EntityKey, name string, attributes map[string]any) (models.CanonicalEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.EntityService.FindOrCreate")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_type": key.Type,
		"tenant_id":   key.TenantID,
		"match_key":   key.MatchKey,
	})

	cypher := fmt.Sprintf(`
		MERGE (e:%s {tenant_id: $tenant_id, match_key: $match_key})
		ON CREATE SET e += $props, e.name = $name, e.entity_type = $entity_type, e.created_at = $now
		SET e.last_seen_at = $now
		RETURN id(e) AS id, e.name AS name
	`, sanitizeLabel(key.Type))

	res, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id":   key.TenantID,
			"match_key":   key.MatchKey,
			"name":        name,
			"entity_type": key.Type,
			"props":       scalarProps(attributes),
			"now":         time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		return entityFromRecord(record, key), nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to find or create entity in graph")
		return models.CanonicalEntity{}, fmt.Errorf("failed to find or create entity in graph: %w", err)
	}

	entity := res.(models.CanonicalEntity)
	log.WithField("entity_id", entity.ID).Debug("Resolved entity in graph")
	return entity, nil
}

// Get retrieves an entity by store id. A missing entity returns nil.
func (s *EntityService) Get(ctx context.Context, tenantID string, entityType string, id int64) (*models.CanonicalEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.EntityService.Get")
	defer span.End()

	cypher := fmt.Sprintf(`
		MATCH (e:%s)
		WHERE id(e) = $id AND e.tenant_id = $tenant_id
		RETURN id(e) AS id, e.name AS name
	`, sanitizeLabel(entityType))

	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		entity := entityFromRecord(result.Record(), EntityKey{TenantID: tenantID, Type: entityType})
		return &entity, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entity from graph: %w", err)
	}
	if res == nil {
		return nil, nil
	}
	return res.(*models.CanonicalEntity), nil
}

func entityFromRecord(record *neo4j.Record, key EntityKey) models.CanonicalEntity {
	entity := models.CanonicalEntity{
		Type:     key.Type,
		TenantID: key.TenantID,
	}
	if v, ok := record.Get("id"); ok {
		entity.ID, _ = v.(int64)
	}
	if v, ok := record.Get("name"); ok {
		entity.Name, _ = v.(string)
	}
	return entity
}

var reservedProps = map[string]bool{
	"tenant_id":    true,
	"match_key":    true,
	"entity_type":  true,
	"name":         true,
	"created_at":   true,
	"last_seen_at": true,
}

// scalarProps keeps the attributes that can be stored as node properties.
func scalarProps(attributes map[string]any) map[string]any {
	props := make(map[string]any, len(attributes))
	for k, v := range attributes {
		key := sanitizeIdentifier(k, "attr")
		if reservedProps[key] {
			continue
		}
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			props[key] = v
		}
	}
	return props
}
