package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/postgres"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	galleryTable = "gallery_records"

	// Columns
	nameColumn            = "name"
	originalNameColumn    = "original_name"
	optimizedNameColumn   = "optimized_name"
	previewNameColumn     = "preview_name"
	sourceBucketColumn    = "source_bucket"
	optimizedBucketColumn = "optimized_bucket"
	originalSizeColumn    = "original_size"
	contentTypeColumn     = "content_type"
	statusColumn          = "status"
	descriptionColumn     = "ai_description"
	qaColumn              = "qa"
	createdAtColumn       = "created_at"
	finalizedAtColumn     = "finalized_at"
)

type GalleryRecordRepo struct {
	*postgres.Postgres
}

func NewGalleryRecordRepo(pg *postgres.Postgres) *GalleryRecordRepo {
	return &GalleryRecordRepo{pg}
}

// UpsertTransformed creates the record after the transform stage, or refreshes
// the transform-owned columns on a retried event. The AI columns are not
// touched, so a retry after finalization cannot erase them.
func (r *GalleryRecordRepo) UpsertTransformed(ctx context.Context, record *entity.GalleryRecord) error {
	sql, args, err := r.Builder.
		Insert(galleryTable).
		Columns(
			nameColumn,
			originalNameColumn,
			optimizedNameColumn,
			previewNameColumn,
			sourceBucketColumn,
			optimizedBucketColumn,
			originalSizeColumn,
			contentTypeColumn,
			statusColumn,
			createdAtColumn,
		).
		Values(
			record.Name,
			record.OriginalName,
			record.OptimizedName,
			record.PreviewName,
			record.SourceBucket,
			record.OptimizedBucket,
			record.OriginalSize,
			record.ContentType,
			record.Status,
			record.CreatedAt,
		).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s",
			nameColumn,
			originalNameColumn, originalNameColumn,
			optimizedNameColumn, optimizedNameColumn,
			previewNameColumn, previewNameColumn,
			sourceBucketColumn, sourceBucketColumn,
			optimizedBucketColumn, optimizedBucketColumn,
			originalSizeColumn, originalSizeColumn,
			contentTypeColumn, contentTypeColumn,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("GalleryRecordRepo - UpsertTransformed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("GalleryRecordRepo - UpsertTransformed - executor.Exec: %w", err)
	}

	return nil
}

// MergeSynthesis merges the AI-generated fields into an existing record.
// Missing record is an error: a synthesis must never materialize a record
// that the publisher did not create.
func (r *GalleryRecordRepo) MergeSynthesis(ctx context.Context, name, description string, qa []entity.QAPair) error {
	if qa == nil {
		qa = []entity.QAPair{}
	}

	qaJSON, err := json.Marshal(qa)
	if err != nil {
		return fmt.Errorf("GalleryRecordRepo - MergeSynthesis - json.Marshal: %w", err)
	}

	now := time.Now()

	sql, args, err := r.Builder.
		Update(galleryTable).
		Set(descriptionColumn, description).
		Set(qaColumn, qaJSON).
		Set(statusColumn, entity.Finalized).
		Set(finalizedAtColumn, now).
		Where(squirrel.Eq{nameColumn: name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("GalleryRecordRepo - MergeSynthesis - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("GalleryRecordRepo - MergeSynthesis - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("GalleryRecordRepo - MergeSynthesis: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *GalleryRecordRepo) GetByName(ctx context.Context, name string) (*entity.GalleryRecord, error) {
	sql, args, err := r.selectRecords().
		Where(squirrel.Eq{nameColumn: name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("GalleryRecordRepo - GetByName - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	record, err := scanRecord(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("GalleryRecordRepo - GetByName: %w", errs.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("GalleryRecordRepo - GetByName - scanRecord: %w", err)
	}

	return record, nil
}

// List returns records ordered by creation time descending, the order the
// gallery UI renders them in.
func (r *GalleryRecordRepo) List(ctx context.Context, limit, offset int) ([]*entity.GalleryRecord, error) {
	sql, args, err := r.selectRecords().
		OrderBy(createdAtColumn + " DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("GalleryRecordRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("GalleryRecordRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.GalleryRecord, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GalleryRecordRepo - List - scanRecord: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GalleryRecordRepo - List - rows.Err: %w", err)
	}

	return records, nil
}

func (r *GalleryRecordRepo) selectRecords() squirrel.SelectBuilder {
	return r.Builder.
		Select(
			nameColumn,
			originalNameColumn,
			optimizedNameColumn,
			previewNameColumn,
			sourceBucketColumn,
			optimizedBucketColumn,
			originalSizeColumn,
			contentTypeColumn,
			statusColumn,
			descriptionColumn,
			qaColumn,
			createdAtColumn,
			finalizedAtColumn,
		).
		From(galleryTable)
}

func scanRecord(row pgx.Row) (*entity.GalleryRecord, error) {
	var record entity.GalleryRecord
	var qaJSON []byte

	err := row.Scan(
		&record.Name,
		&record.OriginalName,
		&record.OptimizedName,
		&record.PreviewName,
		&record.SourceBucket,
		&record.OptimizedBucket,
		&record.OriginalSize,
		&record.ContentType,
		&record.Status,
		&record.Description,
		&qaJSON,
		&record.CreatedAt,
		&record.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(qaJSON) > 0 {
		if err := json.Unmarshal(qaJSON, &record.QA); err != nil {
			return nil, fmt.Errorf("json.Unmarshal qa: %w", err)
		}
	}

	return &record, nil
}
