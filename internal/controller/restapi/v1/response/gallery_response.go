package response

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GalleryRecord struct {
	Name          string   `json:"name"`
	OriginalName  string   `json:"original_name"`
	OptimizedName string   `json:"optimized_name"`
	PreviewName   string   `json:"preview_name"`
	Bucket        string   `json:"bucket"`
	OriginalSize  int64    `json:"original_size"`
	ContentType   string   `json:"content_type"`
	Status        string   `json:"status"`
	Description   string   `json:"description"`
	QA            []QAPair `json:"qa"`
	CreatedAt     string   `json:"created_at"`
	FinalizedAt   string   `json:"finalized_at,omitempty"`
}

type GalleryList struct {
	Records []GalleryRecord `json:"records"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}
