package models

import "time"

// ResolutionRecord is the audit row written for every correlation entry of a committed batch.
type ResolutionRecord struct {
	ID           string    `json:"id" db:"id"`
	TenantID     string    `json:"tenant_id" db:"tenant_id"`
	IngestionID  string    `json:"ingestion_id" db:"ingestion_id"`
	ContentID    string    `json:"content_id" db:"content_id"`
	DatasourceID string    `json:"datasource_id" db:"datasource_id"`
	TmpID        int64     `json:"tmp_id" db:"tmp_id"`
	EntityID     int64     `json:"entity_id" db:"entity_id"`
	EntityType   string    `json:"entity_type" db:"entity_type"`
	EntityName   string    `json:"entity_name" db:"entity_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ResolutionRecordList is a page of audit rows.
type ResolutionRecordList struct {
	Items    []ResolutionRecord `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}
