package models

// ResolutionContext is the input handed to the disambiguation gateway for a single mention.
// Rest carries every other mention of the batch, in batch order.
type ResolutionContext struct {
	Current      EntityMention
	Rest         []EntityMention
	Content      string
	ContentID    string
	TenantID     string
	IngestionID  string
	DatasourceID string
}

// CanonicalEntity is a resolved entity as persisted in the graph store.
type CanonicalEntity struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	TenantID string `json:"tenantId"`
}

// ResolvedPair binds a mention to the canonical entity it resolved to.
type ResolvedPair struct {
	Mention EntityMention
	Entity  CanonicalEntity
}

// GraphMutation merges the directed edge Source -[Relation]-> Target between two stored entities.
type GraphMutation struct {
	SourceID   int64
	SourceType string
	TargetID   int64
	TargetType string
	Relation   string
}

// CorrelationEntry maps a batch-local temp id to the entity it resolved to.
type CorrelationEntry struct {
	TmpID  int64           `json:"tmpId"`
	Entity CanonicalEntity `json:"entity"`
}

// ResponseList is the payload returned for a resolved batch.
type ResponseList struct {
	Message  string             `json:"message"`
	Response []CorrelationEntry `json:"response"`
}
