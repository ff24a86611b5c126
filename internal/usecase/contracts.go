package usecase

import (
	"context"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
)

type (
	// OptimizerUseCase runs the whole pipeline for one upload event.
	OptimizerUseCase interface {
		ProcessUpload(ctx context.Context, event dto.UploadEvent) error
	}

	// SynthesizerUseCase produces the best-effort AI description and Q&A
	// set. It never fails; everything degrades to empty values.
	SynthesizerUseCase interface {
		Synthesize(ctx context.Context, gen infrastructure.Generative, image []byte, mimeType string) dto.Synthesis
	}

	GalleryUseCase interface {
		PublishRenditions(ctx context.Context, record *entity.GalleryRecord, renditions *dto.Renditions) error
		FinalizeRecord(ctx context.Context, name string, synthesis dto.Synthesis) error

		GetRecord(ctx context.Context, name string) (*entity.GalleryRecord, error)
		ListRecords(ctx context.Context, limit, offset int) ([]*entity.GalleryRecord, error)

		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}
)
