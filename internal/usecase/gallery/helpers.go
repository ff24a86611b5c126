package gallery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/google/uuid"
)

func createOutboxEvent(record *entity.GalleryRecord, kind string) (*entity.OutboxEvent, error) {
	payload := map[string]interface{}{
		"kind":           kind,
		"name":           record.Name,
		"optimized_name": record.OptimizedName,
		"preview_name":   record.PreviewName,
		"status":         record.Status,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gallery - createOutboxEvent - json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: record.Name,
		Kind:        kind,
		Payload:     b,
		Status:      entity.EventPending,
		CreatedAt:   time.Now(),
		RetryCount:  0,
	}, nil
}
