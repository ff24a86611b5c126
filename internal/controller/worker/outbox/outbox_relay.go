package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
)

// OutboxRelay drains the gallery outbox into the updates topic. Three ticker
// workers: batch publishing, failing out exhausted events, cleanup.
type OutboxRelay struct {
	gallery usecase.GalleryUseCase
	es      infrastructure.EventsSender
	logger  logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	gallery usecase.GalleryUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *OutboxRelay {
	return &OutboxRelay{
		gallery:             gallery,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. publishing worker
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processEventsBatch(batchCtx)
		batchCancel()
	})

	// 2. mark-failed worker
	r.worker(r.markFailedInterval, func() {
		err := r.gallery.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.gallery.MarkMaxRetriesAsFailed")
		}
	})

	// 3. cleanup worker
	r.worker(r.cleanupInterval, func() {
		err := r.gallery.CleanupOutbox(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.gallery.CleanupOutbox")
		}
	})

	return nil
}

func (r *OutboxRelay) processEventsBatch(ctx context.Context) {
	// 1. pending events with retry count below the cap
	events, err := r.gallery.GetPendingEvents(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.gallery.GetPendingEvents")

		return
	}
	if len(events) == 0 {
		return
	}

	// 2. claim them
	err = r.gallery.MarkAsProcessingBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.gallery.MarkAsProcessingBatch")

		return
	}

	// 3. try to publish
	err = r.es.SendEvents(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.es.SendEvents")
		// 3.1 on failure: bump retry count, status back to pending
		incErr := r.gallery.IncrementRetryCountBatch(ctx, events)
		if incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - processEventsBatch - r.gallery.IncrementRetryCountBatch")
		}
		return
	}

	// 4. published, mark processed
	err = r.gallery.MarkAsProcessedBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.gallery.MarkAsProcessedBatch")

		return
	}
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		r.es.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
