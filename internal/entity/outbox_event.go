package entity

import (
	"time"

	"github.com/google/uuid"
)

// Outbox event kinds published to the gallery updates topic.
const (
	EventGalleryTransformed = "gallery.transformed"
	EventGalleryFinalized   = "gallery.finalized"
)

type OutboxEvent struct {
	ID          uuid.UUID   `json:"id"`
	AggregateID string      `json:"aggregate_id"` // gallery record name
	Kind        string      `json:"kind"`
	Payload     []byte      `json:"payload"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
	RetryCount  int         `json:"retry_count"`
}
