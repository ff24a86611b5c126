package optimizer

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
)

func TestShouldSkip(t *testing.T) {
	c := qt.New(t)

	testCases := []struct {
		name  string
		event dto.UploadEvent
		skip  bool
	}{
		{
			name:  "plain jpeg upload",
			event: dto.UploadEvent{Key: "photos/opening-keynote.jpg"},
			skip:  false,
		},
		{
			name:  "uppercase extension",
			event: dto.UploadEvent{Key: "photos/IMG_0042.JPG"},
			skip:  false,
		},
		{
			name:  "webp upload",
			event: dto.UploadEvent{Key: "booth.webp"},
			skip:  false,
		},
		{
			name: "already optimized metadata",
			event: dto.UploadEvent{
				Key:      "photos/opening-keynote.jpg",
				Metadata: map[string]string{"optimized": "true"},
			},
			skip: true,
		},
		{
			name:  "derived optimized rendition",
			event: dto.UploadEvent{Key: "opening-keynote_optimized.jpg"},
			skip:  true,
		},
		{
			name:  "derived preview rendition",
			event: dto.UploadEvent{Key: "opening-keynote_preview_optimized.jpg"},
			skip:  true,
		},
		{
			name:  "non-image upload",
			event: dto.UploadEvent{Key: "schedule.pdf"},
			skip:  true,
		},
		{
			name:  "no extension",
			event: dto.UploadEvent{Key: "README"},
			skip:  true,
		},
		{
			name: "metadata optimized false still processed",
			event: dto.UploadEvent{
				Key:      "photos/closing.png",
				Metadata: map[string]string{"optimized": "false"},
			},
			skip: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			skip, reason := shouldSkip(tc.event)
			c.Assert(skip, qt.Equals, tc.skip)
			if skip {
				c.Assert(reason, qt.Not(qt.Equals), "")
			}
		})
	}
}
