package gallery

import (
	"context"
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/google/uuid"
)

type upload struct {
	key         string
	contentType string
	metadata    map[string]string
}

type fakeObjects struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeObjects) DownloadBytes(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeObjects) UploadBytes(_ context.Context, key string, _ []byte, contentType string, metadata map[string]string) error {
	if f.err != nil {
		return f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{key: key, contentType: contentType, metadata: metadata})

	return nil
}

func (f *fakeObjects) Bucket() string { return "gallery-site" }

type fakeRecords struct {
	upserted *entity.GalleryRecord
	merged   string
	mergeErr error
	record   *entity.GalleryRecord
}

func (f *fakeRecords) UpsertTransformed(_ context.Context, record *entity.GalleryRecord) error {
	f.upserted = record

	return nil
}

func (f *fakeRecords) MergeSynthesis(_ context.Context, name, _ string, _ []entity.QAPair) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.merged = name

	return nil
}

func (f *fakeRecords) GetByName(context.Context, string) (*entity.GalleryRecord, error) {
	return f.record, nil
}

func (f *fakeRecords) List(context.Context, int, int) ([]*entity.GalleryRecord, error) {
	return nil, nil
}

type fakeOutbox struct {
	created []*entity.OutboxEvent
}

func (f *fakeOutbox) Create(_ context.Context, event *entity.OutboxEvent) error {
	f.created = append(f.created, event)

	return nil
}

func (f *fakeOutbox) GetPendingEvents(context.Context, int, int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkAsProcessingBatch(context.Context, uuid.UUIDs) error    { return nil }
func (f *fakeOutbox) MarkAsProcessedBatch(context.Context, uuid.UUIDs) error     { return nil }
func (f *fakeOutbox) IncrementRetryCountBatch(context.Context, uuid.UUIDs) error { return nil }
func (f *fakeOutbox) MarkMaxRetriesAsFailed(context.Context, int) error          { return nil }
func (f *fakeOutbox) DeleteOldProcessedAndFailed(context.Context) (int64, error) { return 0, nil }

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++

	return fn(ctx)
}

func TestPublishRenditions(t *testing.T) {
	c := qt.New(t)

	record := &entity.GalleryRecord{
		Name:          "keynote",
		OptimizedName: "keynote_optimized.jpg",
		PreviewName:   "keynote_preview_optimized.jpg",
	}
	renditions := &dto.Renditions{
		Optimized:   []byte("optimized"),
		Preview:     []byte("preview"),
		ContentType: "image/jpeg",
	}

	t.Run("uploads then record and outbox event", func(t *testing.T) {
		objects := &fakeObjects{}
		records := &fakeRecords{}
		outbox := &fakeOutbox{}
		tx := &fakeTransactor{}

		uc := New(objects, records, outbox, tx, logger.New("error"))

		rec := *record
		err := uc.PublishRenditions(context.Background(), &rec, renditions)
		c.Assert(err, qt.IsNil)

		c.Assert(objects.uploads, qt.HasLen, 2)
		keys := []string{objects.uploads[0].key, objects.uploads[1].key}
		c.Assert(keys, qt.Contains, "keynote_optimized.jpg")
		c.Assert(keys, qt.Contains, "keynote_preview_optimized.jpg")
		for _, u := range objects.uploads {
			c.Assert(u.metadata, qt.DeepEquals, map[string]string{OptimizedMarker: "true"})
			c.Assert(u.contentType, qt.Equals, "image/jpeg")
		}

		c.Assert(tx.calls, qt.Equals, 1)
		c.Assert(records.upserted, qt.IsNotNil)
		c.Assert(records.upserted.Status, qt.Equals, entity.Transformed)
		c.Assert(records.upserted.CreatedAt.IsZero(), qt.IsFalse)

		c.Assert(outbox.created, qt.HasLen, 1)
		c.Assert(outbox.created[0].Kind, qt.Equals, entity.EventGalleryTransformed)
		c.Assert(outbox.created[0].AggregateID, qt.Equals, "keynote")
		c.Assert(outbox.created[0].Status, qt.Equals, entity.EventPending)
	})

	t.Run("upload failure leaves database untouched", func(t *testing.T) {
		objects := &fakeObjects{err: errors.New("bucket down")}
		records := &fakeRecords{}
		outbox := &fakeOutbox{}
		tx := &fakeTransactor{}

		uc := New(objects, records, outbox, tx, logger.New("error"))

		rec := *record
		err := uc.PublishRenditions(context.Background(), &rec, renditions)
		c.Assert(err, qt.IsNotNil)
		c.Assert(tx.calls, qt.Equals, 0)
		c.Assert(records.upserted, qt.IsNil)
		c.Assert(outbox.created, qt.HasLen, 0)
	})
}

func TestFinalizeRecord(t *testing.T) {
	c := qt.New(t)

	synthesis := dto.Synthesis{
		Description: "a keynote stage",
		QA:          []entity.QAPair{{Question: "q", Answer: "a"}},
	}

	t.Run("merge and finalized event in one transaction", func(t *testing.T) {
		records := &fakeRecords{
			record: &entity.GalleryRecord{Name: "keynote", Status: entity.Finalized},
		}
		outbox := &fakeOutbox{}
		tx := &fakeTransactor{}

		uc := New(&fakeObjects{}, records, outbox, tx, logger.New("error"))

		err := uc.FinalizeRecord(context.Background(), "keynote", synthesis)
		c.Assert(err, qt.IsNil)

		c.Assert(records.merged, qt.Equals, "keynote")
		c.Assert(tx.calls, qt.Equals, 1)
		c.Assert(outbox.created, qt.HasLen, 1)
		c.Assert(outbox.created[0].Kind, qt.Equals, entity.EventGalleryFinalized)
	})

	t.Run("merge failure creates no event", func(t *testing.T) {
		records := &fakeRecords{mergeErr: errors.New("record not found")}
		outbox := &fakeOutbox{}

		uc := New(&fakeObjects{}, records, outbox, &fakeTransactor{}, logger.New("error"))

		err := uc.FinalizeRecord(context.Background(), "keynote", synthesis)
		c.Assert(err, qt.IsNotNil)
		c.Assert(outbox.created, qt.HasLen, 0)
	})
}
