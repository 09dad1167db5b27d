package resolutionrecord

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ResolutionRecordRepository defines the audit log operations
type ResolutionRecordRepository interface {
	BatchInsert(ctx context.Context, records []models.ResolutionRecord) error
	ListByIngestion(ctx context.Context, tenantID, ingestionID string, page, pageSize int) (*models.ResolutionRecordList, error)
}

// Repository implements ResolutionRecordRepository
type Repository struct {
	db        database.DB
	logger    ectologger.Logger
	chunkSize int
}

// NewRepository creates a new resolution record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:        db,
		logger:    logger,
		chunkSize: 500,
	}
}

const tableName = "resolution_records"

var columns = []string{
	"id", "tenant_id", "ingestion_id", "content_id", "datasource_id",
	"tmp_id", "entity_id", "entity_type", "entity_name", "created_at",
}

func insertQuery(records []models.ResolutionRecord) (string, []any) {
	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols(columns...)
	for _, r := range records {
		ib.Values(r.ID, r.TenantID, r.IngestionID, r.ContentID, r.DatasourceID,
			r.TmpID, r.EntityID, r.EntityType, r.EntityName, r.CreatedAt)
	}
	ib.OnConflictDoNothing("tenant_id", "ingestion_id", "content_id", "tmp_id", "entity_id")
	return ib.Build()
}

// BatchInsert writes the records. Rows already recorded for the same batch are skipped.
func (r *Repository) BatchInsert(ctx context.Context, records []models.ResolutionRecord) error {
	ctx, span := tracing.StartSpan(ctx, "ResolutionRecordRepository.BatchInsert")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	if len(records) <= r.chunkSize {
		query, args := insertQuery(records)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to insert resolution records")
			return fmt.Errorf("failed to insert resolution records: %w", err)
		}
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(records); start += r.chunkSize {
		end := min(start+r.chunkSize, len(records))
		query, args := insertQuery(records[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to insert resolution records")
			return fmt.Errorf("failed to insert resolution records: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByIngestion lists the records of one ingestion with pagination
func (r *Repository) ListByIngestion(ctx context.Context, tenantID, ingestionID string, page, pageSize int) (*models.ResolutionRecordList, error) {
	ctx, span := tracing.StartSpan(ctx, "ResolutionRecordRepository.ListByIngestion")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 500 {
		pageSize = 500
	}

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("ingestion_id", ingestionID),
	)
	countQuery, countArgs := countSb.Build()

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count resolution records")
		return nil, fmt.Errorf("failed to count resolution records: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("ingestion_id", ingestionID),
	)
	sb.OrderBy("created_at ASC", "tmp_id ASC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)
	query, args := sb.Build()

	items := []models.ResolutionRecord{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list resolution records")
		return nil, fmt.Errorf("failed to list resolution records: %w", err)
	}

	return &models.ResolutionRecordList{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Recorder writes the audit rows of every resolved batch
type Recorder struct {
	repo ResolutionRecordRepository
}

var _ resolution.Observer = (*Recorder)(nil)

func NewRecorder(repo ResolutionRecordRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) BatchResolved(ctx context.Context, req models.BatchRequest, result resolution.BatchResult) error {
	return r.repo.BatchInsert(ctx, RecordsFromResult(req, result, time.Now().UTC()))
}

// RecordsFromResult builds one record per correlation entry
func RecordsFromResult(req models.BatchRequest, result resolution.BatchResult, at time.Time) []models.ResolutionRecord {
	records := make([]models.ResolutionRecord, 0, len(result.Correlations))
	for _, c := range result.Correlations {
		records = append(records, models.ResolutionRecord{
			ID:           uuid.New().String(),
			TenantID:     req.TenantID,
			IngestionID:  req.IngestionID,
			ContentID:    req.ContentID,
			DatasourceID: req.DatasourceID,
			TmpID:        c.TmpID,
			EntityID:     c.Entity.ID,
			EntityType:   c.Entity.Type,
			EntityName:   c.Entity.Name,
			CreatedAt:    at,
		})
	}
	return records
}
