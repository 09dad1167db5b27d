package models

import (
	"errors"
	"fmt"
	"strings"
)

// BatchRequest is one ingested document together with the entity mentions extracted from it.
type BatchRequest struct {
	Content      string          `json:"content"`
	ContentID    string          `json:"contentId"`
	TenantID     string          `json:"tenantId"`
	IngestionID  string          `json:"ingestionId"`
	DatasourceID string          `json:"datasourceId"`
	Entities     []EntityMention `json:"entities" validate:"required,min=1,dive"`
}

// EntityMention is a raw, not-yet-resolved entity candidate. TmpID is only meaningful inside its batch.
type EntityMention struct {
	TmpID      int64              `json:"tmpId"`
	Type       string             `json:"type" validate:"required"`
	Name       string             `json:"name"`
	Attributes map[string]any     `json:"attributes,omitempty"`
	Relations  []DeclaredRelation `json:"relations,omitempty" validate:"omitempty,dive"`
}

// DeclaredRelation points from its owning mention to another mention of the same batch.
type DeclaredRelation struct {
	Name string `json:"name" validate:"required"`
	To   int64  `json:"to"`
}

// NewDeclaredRelation builds a relation, rejecting a blank name.
func NewDeclaredRelation(name string, to int64) (DeclaredRelation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DeclaredRelation{}, errors.New("relation name is required")
	}
	return DeclaredRelation{Name: name, To: to}, nil
}

// NewEntityMention builds a mention. Relations are copied so later mutation of the input is not observed.
func NewEntityMention(tmpID int64, entityType, name string, attributes map[string]any, relations ...DeclaredRelation) (EntityMention, error) {
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		return EntityMention{}, fmt.Errorf("mention %d: type is required", tmpID)
	}

	var rels []DeclaredRelation
	if len(relations) > 0 {
		rels = make([]DeclaredRelation, len(relations))
		copy(rels, relations)
	}

	var attrs map[string]any
	if len(attributes) > 0 {
		attrs = make(map[string]any, len(attributes))
		for k, v := range attributes {
			attrs[k] = v
		}
	}

	return EntityMention{
		TmpID:      tmpID,
		Type:       entityType,
		Name:       name,
		Attributes: attrs,
		Relations:  rels,
	}, nil
}

// NewBatchRequest builds a request for one document. At least one mention is required.
func NewBatchRequest(tenantID, contentID, content, ingestionID, datasourceID string, entities []EntityMention) (BatchRequest, error) {
	if len(entities) == 0 {
		return BatchRequest{}, errors.New("at least one entity mention is required")
	}
	mentions := make([]EntityMention, len(entities))
	copy(mentions, entities)

	return BatchRequest{
		Content:      content,
		ContentID:    contentID,
		TenantID:     tenantID,
		IngestionID:  ingestionID,
		DatasourceID: datasourceID,
		Entities:     mentions,
	}, nil
}

// HasRelations reports whether the mention declares any outgoing relation.
func (m EntityMention) HasRelations() bool {
	return len(m.Relations) > 0
}
