package dto

// UploadEvent is the normalized object-created notification consumed from the
// bucket events topic. Metadata holds user metadata with bare lowercase keys
// (the X-Amz-Meta- prefix already stripped).
type UploadEvent struct {
	Bucket      string
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Optimized reports whether the object already carries the optimization
// marker written by the asset publisher.
func (e UploadEvent) Optimized() bool {
	return e.Metadata["optimized"] == "true"
}
