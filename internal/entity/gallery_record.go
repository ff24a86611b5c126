package entity

import "time"

// QAPair is one generated question with its answer. Order of pairs follows
// generation order and is preserved for display.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GalleryRecord is the durable per-image entity, one per processed source
// image, keyed by the source filename stripped of its extension.
type GalleryRecord struct {
	Name string `json:"name"`

	OriginalName  string `json:"original_name"`
	OptimizedName string `json:"optimized_name"`
	PreviewName   string `json:"preview_name"`

	SourceBucket    string `json:"source_bucket"`
	OptimizedBucket string `json:"optimized_bucket"`

	OriginalSize int64  `json:"original_size"`
	ContentType  string `json:"content_type"`
	Status       Status `json:"status"` // pending, transformed, finalized

	Description string   `json:"ai_description"`
	QA          []QAPair `json:"qa"`

	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}
