package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kafkapc "github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure/kafka"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaController consumes bucket notification events and feeds them to a
// pool of pipeline workers. An event is committed only after every upload
// record in it was processed, so failures are redelivered at-least-once.
type KafkaController struct {
	optimizer usecase.OptimizerUseCase
	ec        *kafkapc.EventConsumer
	logger    logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	optimizer usecase.OptimizerUseCase,
	ec *kafkapc.EventConsumer,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	return &KafkaController{
		optimizer:      optimizer,
		ec:             ec,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. fetch from kafka
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.ec.ReadEvent")
					}
					continue
				}

				// 2. hand off to the worker pool
				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) processNotification(ctx context.Context, event kafka.Message) error {
	uploads, err := parseUploadEvents(event.Value)
	if err != nil {
		return fmt.Errorf("KafkaController - processNotification - parseUploadEvents: %w", err)
	}

	for _, upload := range uploads {
		err = c.optimizer.ProcessUpload(ctx, upload)
		if err != nil {
			return fmt.Errorf("KafkaController - processNotification - c.optimizer.ProcessUpload: %w", err)
		}
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			err := c.processNotification(processCtx, event)
			processCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.processNotification")

				return
			}

			// commit only after successful processing
			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.ec.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.ec.CommitEvent")
			}
		}()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.ec.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
