package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/config"
	kafkactrl "github.com/gdg-cloud-hanoi/gallery-optimizer/internal/controller/kafka"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/controller/restapi"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/controller/worker/outbox"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure/gemini"
	infrakafka "github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure/kafka"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure/processor"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure/secrets"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/repo/persistent"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase/gallery"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase/optimizer"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/usecase/synthesizer"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/httpserver"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/kafka/consumer"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/kafka/producer"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/postgres"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// secrets manager
	secretsManager, err := secrets.New(ctx,
		cfg.Secrets.Region, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.Secrets.Endpoint, cfg.Secrets.SecretID)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - secrets.New: %w", err))
	}

	sourceObjects := persistent.NewObjectRepo(s3c, cfg.S3.SourceBucket)
	destObjects := persistent.NewObjectRepo(s3c, cfg.S3.DestBucket)

	// Use-Case

	// gallery use-case
	galleryUseCase := gallery.New(
		destObjects,
		persistent.NewGalleryRecordRepo(pg),
		persistent.NewOutboxRepo(pg),
		pg,
		l,
	)

	// synthesizer use-case
	synthesizerUseCase := synthesizer.New(l, cfg.Synthesizer.AnswerWorkers)

	// optimizer use-case, one generative client per event with a fresh key
	newGenerative := func(ctx context.Context, apiKey string) (infrastructure.Generative, error) {
		return gemini.New(ctx, apiKey)
	}

	optimizerUseCase := optimizer.New(
		sourceObjects,
		destObjects,
		galleryUseCase,
		synthesizerUseCase,
		processor.New(),
		secretsManager,
		newGenerative,
		cfg.Watermark.Key,
		l,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		galleryUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.UpdatesTopic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.UploadsTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		optimizerUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		runtime.NumCPU(),
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, galleryUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(err, "app - Run - httpServer.Notify")
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(err, "app - Run - httpServer.Shutdown")
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(err, "app - Run - outboxRelayWorker.Shutdown")
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(err, "app - Run - kafkaController.Shutdown")
	}
}
