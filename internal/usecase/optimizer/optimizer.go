package optimizer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/repo"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
)

type OptimizerUseCase struct {
	source repo.ObjectRepo
	dest   repo.ObjectRepo

	gallery     usecase.GalleryUseCase
	synthesizer usecase.SynthesizerUseCase

	processor     infrastructure.ImageProcessor
	secrets       infrastructure.SecretProvider
	newGenerative infrastructure.GenerativeFactory

	watermarkKey string

	logger logger.Interface
}

func New(
	source repo.ObjectRepo,
	dest repo.ObjectRepo,
	galleryUC usecase.GalleryUseCase,
	synthesizerUC usecase.SynthesizerUseCase,
	processor infrastructure.ImageProcessor,
	secrets infrastructure.SecretProvider,
	newGenerative infrastructure.GenerativeFactory,
	watermarkKey string,
	l logger.Interface,
) *OptimizerUseCase {
	return &OptimizerUseCase{
		source:        source,
		dest:          dest,
		gallery:       galleryUC,
		synthesizer:   synthesizerUC,
		processor:     processor,
		secrets:       secrets,
		newGenerative: newGenerative,
		watermarkKey:  watermarkKey,
		logger:        l,
	}
}

// ProcessUpload runs the five pipeline stages for one upload event: intake
// filter, image transform, asset publishing, description synthesis, record
// finalization. A returned error means the event must be redelivered;
// generative failures degrade instead of erroring.
func (uc *OptimizerUseCase) ProcessUpload(ctx context.Context, event dto.UploadEvent) error {
	// 1. intake filter
	if skip, reason := shouldSkip(event); skip {
		uc.logger.Info("OptimizerUseCase - ProcessUpload - skipping %q: %s", event.Key, reason)

		return nil
	}

	// 2. transform
	source, err := uc.source.DownloadBytes(ctx, event.Key)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.source.DownloadBytes: %w", err)
	}

	// watermark is fetched fresh per event, never cached
	watermark, err := uc.dest.DownloadBytes(ctx, uc.watermarkKey)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.dest.DownloadBytes(watermark): %w", err)
	}

	ext := strings.ToLower(path.Ext(event.Key))

	renditions, err := uc.processor.Renditions(ctx, ext, source, watermark)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.processor.Renditions: %w", err)
	}

	// 3. publish
	record := buildRecord(event, renditions, uc.dest.Bucket())

	err = uc.gallery.PublishRenditions(ctx, record, renditions)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.gallery.PublishRenditions: %w", err)
	}

	// 4. synthesize, best-effort after the credential is in hand
	apiKey, err := uc.secrets.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.secrets.APIKey: %w", err)
	}

	var synthesis dto.Synthesis

	gen, err := uc.newGenerative(ctx, apiKey)
	if err != nil {
		uc.logger.Error(err, "OptimizerUseCase - ProcessUpload - uc.newGenerative")
	} else {
		synthesis = uc.synthesizer.Synthesize(ctx, gen, renditions.Preview, renditions.ContentType)
	}

	// 5. finalize
	err = uc.gallery.FinalizeRecord(ctx, record.Name, synthesis)
	if err != nil {
		return fmt.Errorf("OptimizerUseCase - ProcessUpload - uc.gallery.FinalizeRecord: %w", err)
	}

	uc.logger.Info("OptimizerUseCase - ProcessUpload - optimized and published %q", record.OptimizedName)

	return nil
}

func buildRecord(event dto.UploadEvent, renditions *dto.Renditions, destBucket string) *entity.GalleryRecord {
	// renditions always land at the destination bucket root, keyed by the
	// source base name without extension
	base := strings.TrimSuffix(path.Base(event.Key), path.Ext(event.Key))

	return &entity.GalleryRecord{
		Name:            base,
		OriginalName:    event.Key,
		OptimizedName:   base + "_optimized" + renditions.Ext,
		PreviewName:     base + "_preview_optimized" + renditions.Ext,
		SourceBucket:    event.Bucket,
		OptimizedBucket: destBucket,
		OriginalSize:    event.Size,
		ContentType:     event.ContentType,
	}
}
