package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		Secrets         Secrets
		Watermark       Watermark
		Kafka           Kafka
		KafkaController KafkaController
		OutboxRelay     OutboxRelay
		Synthesizer     Synthesizer
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		SourceBucket   string        `env:"S3_SOURCE_BUCKET,required"`
		DestBucket     string        `env:"S3_DEST_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Secrets struct {
		Endpoint string `env:"SECRETS_ENDPOINT"`
		Region   string `env:"SECRETS_REGION" envDefault:"us-east-1"`
		SecretID string `env:"SECRETS_GEMINI_API_KEY_ID,required"`
	}

	Watermark struct {
		Key string `env:"WATERMARK_KEY" envDefault:"watermark/watermark.png"`
	}

	Kafka struct {
		Brokers      []string `env:"KAFKA_BROKERS,required"`
		GroupID      string   `env:"KAFKA_GROUP_ID,required"`
		UploadsTopic string   `env:"KAFKA_UPLOADS_TOPIC,required"`
		UpdatesTopic string   `env:"KAFKA_UPDATES_TOPIC,required"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"120s"` // full pipeline: storage round-trips, transform, generative calls
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	Synthesizer struct {
		AnswerWorkers int `env:"SYNTHESIZER_ANSWER_WORKERS" envDefault:"4"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
