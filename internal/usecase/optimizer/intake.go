package optimizer

import (
	"path/filepath"
	"strings"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
)

// derivedMarker appears in every rendition name. Skipping on it prevents an
// infinite reprocessing loop when the destination bucket also emits events.
const derivedMarker = "_optimized"

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// shouldSkip is the intake filter: it reports whether the event needs no
// processing and why. Rejection has no side effects beyond a log entry.
func shouldSkip(event dto.UploadEvent) (bool, string) {
	if event.Optimized() {
		return true, "object is already optimized"
	}

	if strings.Contains(event.Key, derivedMarker) {
		return true, "object is a derived rendition"
	}

	if !supportedExtensions[strings.ToLower(filepath.Ext(event.Key))] {
		return true, "object is not a supported image"
	}

	return false, ""
}
