package repo

import (
	"context"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/google/uuid"
)

type (
	// ObjectRepo is object storage scoped to one bucket.
	ObjectRepo interface {
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		UploadBytes(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
		Bucket() string
	}

	// GalleryRecordRepo persists gallery records. Both write operations have
	// merge semantics: they only touch the columns they own, so the two
	// pipeline writes never clobber each other.
	GalleryRecordRepo interface {
		UpsertTransformed(ctx context.Context, record *entity.GalleryRecord) error
		MergeSynthesis(ctx context.Context, name, description string, qa []entity.QAPair) error
		GetByName(ctx context.Context, name string) (*entity.GalleryRecord, error)
		List(ctx context.Context, limit, offset int) ([]*entity.GalleryRecord, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
