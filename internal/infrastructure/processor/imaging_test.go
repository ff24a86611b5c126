package processor

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	qt "github.com/frankban/quicktest"
)

func encodePNG(c *qt.C, width, height int, fill color.Color) []byte {
	img := imaging.New(width, height, fill)

	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG)
	c.Assert(err, qt.IsNil)

	return buf.Bytes()
}

func decodeSize(c *qt.C, data []byte) (int, int) {
	img, err := imaging.Decode(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)

	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenditionsLandscape(t *testing.T) {
	c := qt.New(t)

	source := encodePNG(c, 3000, 2000, color.White)
	watermark := encodePNG(c, 100, 50, color.Black)

	renditions, err := New().Renditions(context.Background(), ".png", source, watermark)
	c.Assert(err, qt.IsNil)

	c.Assert(renditions.Width, qt.Equals, 2000)
	c.Assert(renditions.Height, qt.Equals, 1333)
	c.Assert(renditions.PreviewWidth, qt.Equals, 640)
	c.Assert(renditions.PreviewHeight, qt.Equals, 427)
	c.Assert(renditions.Ext, qt.Equals, ".png")
	c.Assert(renditions.ContentType, qt.Equals, "image/png")

	w, h := decodeSize(c, renditions.Optimized)
	c.Assert(w, qt.Equals, 2000)
	c.Assert(h, qt.Equals, 1333)

	pw, ph := decodeSize(c, renditions.Preview)
	c.Assert(pw, qt.Equals, 640)
	c.Assert(ph, qt.Equals, 427)
}

func TestRenditionsPortrait(t *testing.T) {
	c := qt.New(t)

	source := encodePNG(c, 2000, 3000, color.White)
	watermark := encodePNG(c, 100, 50, color.Black)

	renditions, err := New().Renditions(context.Background(), ".png", source, watermark)
	c.Assert(err, qt.IsNil)

	// portrait caps width at 1200, preview caps the long edge
	c.Assert(renditions.Width, qt.Equals, 1200)
	c.Assert(renditions.Height, qt.Equals, 1800)
	c.Assert(renditions.PreviewWidth, qt.Equals, 427)
	c.Assert(renditions.PreviewHeight, qt.Equals, 640)
}

func TestRenditionsNoUpscale(t *testing.T) {
	c := qt.New(t)

	source := encodePNG(c, 800, 600, color.White)
	watermark := encodePNG(c, 100, 50, color.Black)

	renditions, err := New().Renditions(context.Background(), ".png", source, watermark)
	c.Assert(err, qt.IsNil)

	c.Assert(renditions.Width, qt.Equals, 800)
	c.Assert(renditions.Height, qt.Equals, 600)
	c.Assert(renditions.PreviewWidth, qt.Equals, 640)
	c.Assert(renditions.PreviewHeight, qt.Equals, 480)
}

func TestRenditionsWatermarkApplied(t *testing.T) {
	c := qt.New(t)

	source := encodePNG(c, 1000, 800, color.White)
	watermark := encodePNG(c, 200, 100, color.Black)

	renditions, err := New().Renditions(context.Background(), ".png", source, watermark)
	c.Assert(err, qt.IsNil)

	optimized, err := imaging.Decode(bytes.NewReader(renditions.Optimized))
	c.Assert(err, qt.IsNil)

	preview, err := imaging.Decode(bytes.NewReader(renditions.Preview))
	c.Assert(err, qt.IsNil)

	// the optimized rendition carries a dark stamp near the bottom-right
	// corner, the preview stays clean
	wmWidth := watermarkWidth(renditions.Width, false, 200)
	left, top := watermarkOffset(renditions.Width, renditions.Height, wmWidth, wmWidth/2)
	probe := optimized.At(left+wmWidth/2, top+wmWidth/4)
	r, g, b, _ := probe.RGBA()
	c.Assert(r+g+b < 3*0x3000, qt.IsTrue)

	pr, pg, pb, _ := preview.At(preview.Bounds().Dx()-5, preview.Bounds().Dy()-5).RGBA()
	c.Assert(pr+pg+pb > 3*0xc000, qt.IsTrue)
}

func TestRenditionsTinySource(t *testing.T) {
	c := qt.New(t)

	// watermark is wider than the optimized frame, scaling and clamping must
	// keep the composite inside the image
	source := encodePNG(c, 50, 40, color.White)
	watermark := encodePNG(c, 200, 100, color.Black)

	renditions, err := New().Renditions(context.Background(), ".png", source, watermark)
	c.Assert(err, qt.IsNil)

	c.Assert(renditions.Width, qt.Equals, 50)
	c.Assert(renditions.Height, qt.Equals, 40)

	w, h := decodeSize(c, renditions.Optimized)
	c.Assert(w, qt.Equals, 50)
	c.Assert(h, qt.Equals, 40)
}

func TestRenditionsBadInput(t *testing.T) {
	c := qt.New(t)

	watermark := encodePNG(c, 10, 10, color.Black)

	_, err := New().Renditions(context.Background(), ".png", []byte("not an image"), watermark)
	c.Assert(err, qt.IsNotNil)

	source := encodePNG(c, 10, 10, color.White)

	_, err = New().Renditions(context.Background(), ".png", source, []byte("not an image"))
	c.Assert(err, qt.IsNotNil)
}

func TestOptimizedSize(t *testing.T) {
	c := qt.New(t)

	testCases := []struct {
		name                string
		width, height       int
		expWidth, expHeight int
	}{
		{"landscape above cap", 3000, 2000, 2000, 1333},
		{"landscape below cap", 1600, 900, 1600, 900},
		{"portrait above cap", 2000, 3000, 1200, 1800},
		{"portrait below cap", 900, 1600, 900, 1600},
		{"square uses landscape cap", 2400, 2400, 2000, 2000},
		{"rounding", 1999, 1333, 1999, 1333},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := optimizedSize(tc.width, tc.height)
			c.Assert(w, qt.Equals, tc.expWidth)
			c.Assert(h, qt.Equals, tc.expHeight)
		})
	}
}

func TestPreviewSize(t *testing.T) {
	c := qt.New(t)

	testCases := []struct {
		name                string
		width, height       int
		expWidth, expHeight int
	}{
		{"landscape", 3000, 2000, 640, 427},
		{"portrait", 2000, 3000, 427, 640},
		{"small stays", 320, 200, 320, 200},
		{"square", 1280, 1280, 640, 640},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := previewSize(tc.width, tc.height)
			c.Assert(w, qt.Equals, tc.expWidth)
			c.Assert(h, qt.Equals, tc.expHeight)
		})
	}
}

func TestWatermarkWidth(t *testing.T) {
	c := qt.New(t)

	// 10% of the landscape width, 15% of the portrait width
	c.Assert(watermarkWidth(2000, false, 10000), qt.Equals, 200)
	c.Assert(watermarkWidth(1200, true, 10000), qt.Equals, 180)

	// never enlarged past the native watermark width
	c.Assert(watermarkWidth(2000, false, 120), qt.Equals, 120)
}

func TestWatermarkOffset(t *testing.T) {
	c := qt.New(t)

	t.Run("bottom right with padding", func(t *testing.T) {
		left, top := watermarkOffset(2000, 1000, 200, 100)
		c.Assert(left, qt.Equals, 1760)
		c.Assert(top, qt.Equals, 880)
	})

	t.Run("clamped into frame", func(t *testing.T) {
		left, top := watermarkOffset(100, 50, 200, 100)
		c.Assert(left, qt.Equals, 0)
		c.Assert(top, qt.Equals, 0)
	})

	t.Run("never negative", func(t *testing.T) {
		left, top := watermarkOffset(10, 10, 9, 9)
		c.Assert(left >= 0, qt.IsTrue)
		c.Assert(top >= 0, qt.IsTrue)
		c.Assert(left+9 <= 10, qt.IsTrue)
		c.Assert(top+9 <= 10, qt.IsTrue)
	})
}

func TestEncoding(t *testing.T) {
	c := qt.New(t)

	testCases := []struct {
		ext       string
		expExt    string
		expFormat imaging.Format
		expMIME   string
	}{
		{".jpg", ".jpg", imaging.JPEG, "image/jpeg"},
		{".jpeg", ".jpeg", imaging.JPEG, "image/jpeg"},
		{".png", ".png", imaging.PNG, "image/png"},
		{".gif", ".gif", imaging.GIF, "image/gif"},
		{".webp", ".jpg", imaging.JPEG, "image/jpeg"},
		{".JPG", ".jpg", imaging.JPEG, "image/jpeg"},
	}

	for _, tc := range testCases {
		t.Run(tc.ext, func(t *testing.T) {
			ext, format, mime := encoding(tc.ext)
			c.Assert(ext, qt.Equals, tc.expExt)
			c.Assert(format, qt.Equals, tc.expFormat)
			c.Assert(mime, qt.Equals, tc.expMIME)
		})
	}
}
