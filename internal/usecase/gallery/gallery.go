package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/repo"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// OptimizedMarker is written as user metadata on every published rendition so
// notification events from the destination bucket short-circuit in the intake
// filter.
const OptimizedMarker = "optimized"

type GalleryUseCase struct {
	objects    repo.ObjectRepo // destination bucket
	records    repo.GalleryRecordRepo
	outbox     repo.OutboxRepo
	transactor repo.Transactor

	logger logger.Interface
}

func New(
	objects repo.ObjectRepo,
	records repo.GalleryRecordRepo,
	outbox repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *GalleryUseCase {
	return &GalleryUseCase{
		objects:    objects,
		records:    records,
		outbox:     outbox,
		transactor: transactor,
		logger:     l,
	}
}

// PublishRenditions uploads both renditions concurrently, then creates or
// merges the gallery record. The record write happens only after both uploads
// succeed: orphaned renditions are an acceptable partial state, a record
// without renditions is not.
func (uc *GalleryUseCase) PublishRenditions(ctx context.Context, record *entity.GalleryRecord, renditions *dto.Renditions) error {
	metadata := map[string]string{OptimizedMarker: "true"}

	// 1. both uploads in parallel, jointly awaited
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return uc.objects.UploadBytes(gctx, record.OptimizedName, renditions.Optimized, renditions.ContentType, metadata)
	})
	g.Go(func() error {
		return uc.objects.UploadBytes(gctx, record.PreviewName, renditions.Preview, renditions.ContentType, metadata)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("GalleryUseCase - PublishRenditions - g.Wait: %w", err)
	}

	record.Status = entity.Transformed
	record.CreatedAt = time.Now()

	// 2. record upsert + outbox event in one transaction
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.records.UpsertTransformed(ctx, record); err != nil {
			return fmt.Errorf("GalleryUseCase - PublishRenditions - uc.records.UpsertTransformed: %w", err)
		}

		event, err := createOutboxEvent(record, entity.EventGalleryTransformed)
		if err != nil {
			return fmt.Errorf("GalleryUseCase - PublishRenditions - createOutboxEvent: %w", err)
		}
		if err := uc.outbox.Create(ctx, event); err != nil {
			return fmt.Errorf("GalleryUseCase - PublishRenditions - uc.outbox.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("GalleryUseCase - PublishRenditions - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

// FinalizeRecord merges the synthesized description and Q&A pairs into the
// record created by PublishRenditions. Merge semantics: only the AI columns
// and the status change.
func (uc *GalleryUseCase) FinalizeRecord(ctx context.Context, name string, synthesis dto.Synthesis) error {
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.records.MergeSynthesis(ctx, name, synthesis.Description, synthesis.QA); err != nil {
			return fmt.Errorf("GalleryUseCase - FinalizeRecord - uc.records.MergeSynthesis: %w", err)
		}

		record, err := uc.records.GetByName(ctx, name)
		if err != nil {
			return fmt.Errorf("GalleryUseCase - FinalizeRecord - uc.records.GetByName: %w", err)
		}

		event, err := createOutboxEvent(record, entity.EventGalleryFinalized)
		if err != nil {
			return fmt.Errorf("GalleryUseCase - FinalizeRecord - createOutboxEvent: %w", err)
		}
		if err := uc.outbox.Create(ctx, event); err != nil {
			return fmt.Errorf("GalleryUseCase - FinalizeRecord - uc.outbox.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("GalleryUseCase - FinalizeRecord - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *GalleryUseCase) GetRecord(ctx context.Context, name string) (*entity.GalleryRecord, error) {
	record, err := uc.records.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - GetRecord - uc.records.GetByName: %w", err)
	}

	return record, nil
}

func (uc *GalleryUseCase) ListRecords(ctx context.Context, limit, offset int) ([]*entity.GalleryRecord, error) {
	records, err := uc.records.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - ListRecords - uc.records.List: %w", err)
	}

	return records, nil
}

func (uc *GalleryUseCase) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	events, err := uc.outbox.GetPendingEvents(ctx, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("GalleryUseCase - GetPendingEvents - uc.outbox.GetPendingEvents: %w", err)
	}

	return events, nil
}

func (uc *GalleryUseCase) MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outbox.MarkAsProcessingBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("GalleryUseCase - MarkAsProcessingBatch - uc.outbox.MarkAsProcessingBatch: %w", err)
	}

	return nil
}

func (uc *GalleryUseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outbox.MarkAsProcessedBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("GalleryUseCase - MarkAsProcessedBatch - uc.outbox.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *GalleryUseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outbox.IncrementRetryCountBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("GalleryUseCase - IncrementRetryCountBatch - uc.outbox.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *GalleryUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.outbox.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("GalleryUseCase - MarkMaxRetriesAsFailed - uc.outbox.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *GalleryUseCase) CleanupOutbox(ctx context.Context) error {
	count, err := uc.outbox.DeleteOldProcessedAndFailed(ctx)
	if err != nil {
		return fmt.Errorf("GalleryUseCase - CleanupOutbox - uc.outbox.DeleteOldProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old outbox events, count = %d", count)
	}

	return nil
}

func eventIDs(events []*entity.OutboxEvent) uuid.UUIDs {
	var IDs uuid.UUIDs

	for _, event := range events {
		IDs = append(IDs, event.ID)
	}

	return IDs
}
