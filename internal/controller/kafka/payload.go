package kafka

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
)

// notificationPayload is the S3-compatible bucket notification format MinIO
// publishes to Kafka. One message may carry several records.
type notificationPayload struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key          string            `json:"key"`
				Size         int64             `json:"size"`
				ContentType  string            `json:"contentType"`
				UserMetadata map[string]string `json:"userMetadata"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

func parseUploadEvents(value []byte) ([]dto.UploadEvent, error) {
	var payload notificationPayload
	if err := json.Unmarshal(value, &payload); err != nil {
		return nil, fmt.Errorf("kafka - parseUploadEvents - json.Unmarshal: %w", err)
	}

	events := make([]dto.UploadEvent, 0, len(payload.Records))

	for _, record := range payload.Records {
		// object keys arrive URL-encoded
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("kafka - parseUploadEvents - url.QueryUnescape: %w", err)
		}

		events = append(events, dto.UploadEvent{
			Bucket:      record.S3.Bucket.Name,
			Key:         key,
			Size:        record.S3.Object.Size,
			ContentType: record.S3.Object.ContentType,
			Metadata:    normalizeMetadata(record.S3.Object.UserMetadata),
		})
	}

	return events, nil
}

// normalizeMetadata strips the X-Amz-Meta- prefix and lowercases keys, so
// user metadata reads the same whether it came through the S3 API or a
// notification record.
func normalizeMetadata(raw map[string]string) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	metadata := make(map[string]string, len(raw))

	for k, v := range raw {
		k = strings.ToLower(k)
		k = strings.TrimPrefix(k, "x-amz-meta-")
		metadata[k] = v
	}

	return metadata
}
