package infrastructure

import (
	"context"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
)

type (
	// ImageProcessor derives the optimized and preview renditions from one
	// source image and a watermark asset.
	ImageProcessor interface {
		Renditions(ctx context.Context, ext string, source, watermark []byte) (*dto.Renditions, error)
	}

	// Generative is the opaque text/JSON producing AI capability.
	Generative interface {
		Describe(ctx context.Context, image []byte, mimeType string) (string, error)
		ListQuestions(ctx context.Context, image []byte, mimeType string) ([]string, error)
		Answer(ctx context.Context, question string, image []byte, mimeType string) (string, error)
	}

	// GenerativeFactory builds a Generative client from a freshly fetched
	// API key. One client per pipeline invocation.
	GenerativeFactory func(ctx context.Context, apiKey string) (Generative, error)

	// SecretProvider fetches the generative API credential.
	SecretProvider interface {
		APIKey(ctx context.Context) (string, error)
	}

	// EventsSender publishes outbox events to the gallery updates topic.
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}
)
