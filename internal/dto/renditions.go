package dto

// Renditions holds the two derived image buffers produced by the transform
// stage, along with the dimensions and encoding actually used.
type Renditions struct {
	Optimized []byte
	Preview   []byte

	Width  int
	Height int

	PreviewWidth  int
	PreviewHeight int

	// Ext and ContentType describe the encoded output. They follow the
	// source extension except for webp, which is re-encoded as jpeg.
	Ext         string
	ContentType string
}
