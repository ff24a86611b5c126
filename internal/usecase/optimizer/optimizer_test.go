package optimizer

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
)

type fakeObjects struct {
	bucket    string
	data      map[string][]byte
	downloads []string
	err       error
}

func (f *fakeObjects) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	f.downloads = append(f.downloads, key)
	if f.err != nil {
		return nil, f.err
	}

	return f.data[key], nil
}

func (f *fakeObjects) UploadBytes(_ context.Context, _ string, _ []byte, _ string, _ map[string]string) error {
	return nil
}

func (f *fakeObjects) Bucket() string { return f.bucket }

type fakeGallery struct {
	published   *entity.GalleryRecord
	finalized   string
	synthesis   dto.Synthesis
	publishErr  error
	finalizeErr error
}

func (f *fakeGallery) PublishRenditions(_ context.Context, record *entity.GalleryRecord, _ *dto.Renditions) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = record

	return nil
}

func (f *fakeGallery) FinalizeRecord(_ context.Context, name string, synthesis dto.Synthesis) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalized = name
	f.synthesis = synthesis

	return nil
}

func (f *fakeGallery) GetRecord(context.Context, string) (*entity.GalleryRecord, error) {
	return nil, nil
}

func (f *fakeGallery) ListRecords(context.Context, int, int) ([]*entity.GalleryRecord, error) {
	return nil, nil
}

func (f *fakeGallery) GetPendingEvents(context.Context, int, int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeGallery) MarkAsProcessingBatch(context.Context, []*entity.OutboxEvent) error { return nil }
func (f *fakeGallery) MarkAsProcessedBatch(context.Context, []*entity.OutboxEvent) error  { return nil }
func (f *fakeGallery) IncrementRetryCountBatch(context.Context, []*entity.OutboxEvent) error {
	return nil
}
func (f *fakeGallery) MarkMaxRetriesAsFailed(context.Context, int) error { return nil }
func (f *fakeGallery) CleanupOutbox(context.Context) error               { return nil }

type fakeSynthesizer struct {
	synthesis dto.Synthesis
	called    bool
}

func (f *fakeSynthesizer) Synthesize(context.Context, infrastructure.Generative, []byte, string) dto.Synthesis {
	f.called = true

	return f.synthesis
}

type fakeProcessor struct {
	renditions *dto.Renditions
	err        error
}

func (f *fakeProcessor) Renditions(context.Context, string, []byte, []byte) (*dto.Renditions, error) {
	return f.renditions, f.err
}

type fakeSecrets struct {
	key string
	err error
}

func (f *fakeSecrets) APIKey(context.Context) (string, error) { return f.key, f.err }

type fakeGenerative struct{}

func (fakeGenerative) Describe(context.Context, []byte, string) (string, error) { return "", nil }
func (fakeGenerative) ListQuestions(context.Context, []byte, string) ([]string, error) {
	return nil, nil
}
func (fakeGenerative) Answer(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

func okGenerative(context.Context, string) (infrastructure.Generative, error) {
	return fakeGenerative{}, nil
}

func newTestOptimizer(
	source, dest *fakeObjects,
	gallery *fakeGallery,
	synth *fakeSynthesizer,
	proc *fakeProcessor,
	secrets *fakeSecrets,
	factory infrastructure.GenerativeFactory,
) *OptimizerUseCase {
	return New(source, dest, gallery, synth, proc, secrets, factory, "watermark/watermark.png", logger.New("error"))
}

func TestProcessUpload(t *testing.T) {
	c := qt.New(t)

	renditions := &dto.Renditions{
		Optimized:   []byte("optimized"),
		Preview:     []byte("preview"),
		Width:       2000,
		Height:      1333,
		Ext:         ".jpg",
		ContentType: "image/jpeg",
	}

	event := dto.UploadEvent{
		Bucket:      "gallery-uploads",
		Key:         "photos/opening-keynote.jpg",
		Size:        123456,
		ContentType: "image/jpeg",
	}

	t.Run("full pipeline", func(t *testing.T) {
		source := &fakeObjects{bucket: "gallery-uploads", data: map[string][]byte{event.Key: []byte("src")}}
		dest := &fakeObjects{bucket: "gallery-site", data: map[string][]byte{"watermark/watermark.png": []byte("wm")}}
		gallery := &fakeGallery{}
		synth := &fakeSynthesizer{synthesis: dto.Synthesis{Description: "a keynote"}}

		uc := newTestOptimizer(source, dest, gallery, synth, &fakeProcessor{renditions: renditions},
			&fakeSecrets{key: "api-key"}, okGenerative)

		err := uc.ProcessUpload(context.Background(), event)
		c.Assert(err, qt.IsNil)

		c.Assert(gallery.published, qt.IsNotNil)
		c.Assert(gallery.published.Name, qt.Equals, "opening-keynote")
		c.Assert(gallery.published.OptimizedName, qt.Equals, "opening-keynote_optimized.jpg")
		c.Assert(gallery.published.PreviewName, qt.Equals, "opening-keynote_preview_optimized.jpg")
		c.Assert(gallery.published.SourceBucket, qt.Equals, "gallery-uploads")
		c.Assert(gallery.published.OptimizedBucket, qt.Equals, "gallery-site")
		c.Assert(gallery.published.OriginalSize, qt.Equals, int64(123456))

		c.Assert(synth.called, qt.IsTrue)
		c.Assert(gallery.finalized, qt.Equals, "opening-keynote")
		c.Assert(gallery.synthesis.Description, qt.Equals, "a keynote")
	})

	t.Run("skipped event touches nothing", func(t *testing.T) {
		source := &fakeObjects{}
		dest := &fakeObjects{}
		gallery := &fakeGallery{}

		uc := newTestOptimizer(source, dest, gallery, &fakeSynthesizer{}, &fakeProcessor{},
			&fakeSecrets{}, okGenerative)

		err := uc.ProcessUpload(context.Background(), dto.UploadEvent{Key: "keynote_optimized.jpg"})
		c.Assert(err, qt.IsNil)
		c.Assert(source.downloads, qt.HasLen, 0)
		c.Assert(gallery.published, qt.IsNil)
	})

	t.Run("generative factory failure degrades", func(t *testing.T) {
		source := &fakeObjects{data: map[string][]byte{event.Key: []byte("src")}}
		dest := &fakeObjects{bucket: "gallery-site", data: map[string][]byte{"watermark/watermark.png": []byte("wm")}}
		gallery := &fakeGallery{}
		synth := &fakeSynthesizer{}

		brokenFactory := func(context.Context, string) (infrastructure.Generative, error) {
			return nil, errors.New("unreachable")
		}

		uc := newTestOptimizer(source, dest, gallery, synth, &fakeProcessor{renditions: renditions},
			&fakeSecrets{key: "api-key"}, brokenFactory)

		err := uc.ProcessUpload(context.Background(), event)
		c.Assert(err, qt.IsNil)

		// finalized with an empty synthesis, never synthesized
		c.Assert(synth.called, qt.IsFalse)
		c.Assert(gallery.finalized, qt.Equals, "opening-keynote")
		c.Assert(gallery.synthesis, qt.DeepEquals, dto.Synthesis{})
	})

	t.Run("secret failure aborts for redelivery", func(t *testing.T) {
		source := &fakeObjects{data: map[string][]byte{event.Key: []byte("src")}}
		dest := &fakeObjects{bucket: "gallery-site", data: map[string][]byte{"watermark/watermark.png": []byte("wm")}}
		gallery := &fakeGallery{}

		uc := newTestOptimizer(source, dest, gallery, &fakeSynthesizer{}, &fakeProcessor{renditions: renditions},
			&fakeSecrets{err: errors.New("denied")}, okGenerative)

		err := uc.ProcessUpload(context.Background(), event)
		c.Assert(err, qt.IsNotNil)
		c.Assert(gallery.finalized, qt.Equals, "")
	})

	t.Run("download failure aborts", func(t *testing.T) {
		source := &fakeObjects{err: errors.New("no such key")}
		gallery := &fakeGallery{}

		uc := newTestOptimizer(source, &fakeObjects{}, gallery, &fakeSynthesizer{}, &fakeProcessor{},
			&fakeSecrets{}, okGenerative)

		err := uc.ProcessUpload(context.Background(), event)
		c.Assert(err, qt.IsNotNil)
		c.Assert(gallery.published, qt.IsNil)
	})

	t.Run("publish failure aborts before synthesis", func(t *testing.T) {
		source := &fakeObjects{data: map[string][]byte{event.Key: []byte("src")}}
		dest := &fakeObjects{data: map[string][]byte{"watermark/watermark.png": []byte("wm")}}
		gallery := &fakeGallery{publishErr: errors.New("bucket down")}
		synth := &fakeSynthesizer{}

		uc := newTestOptimizer(source, dest, gallery, synth, &fakeProcessor{renditions: renditions},
			&fakeSecrets{key: "api-key"}, okGenerative)

		err := uc.ProcessUpload(context.Background(), event)
		c.Assert(err, qt.IsNotNil)
		c.Assert(synth.called, qt.IsFalse)
	})
}
