package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"

	// webp sources are decode-only; renditions re-encode as jpeg.
	_ "golang.org/x/image/webp"
)

const (
	_landscapeMaxWidth = 2000
	_portraitMaxWidth  = 1200
	_previewMaxSize    = 640

	_watermarkScalePortrait  = 0.15
	_watermarkScaleLandscape = 0.10
	_watermarkPadding        = 0.02
)

type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

// Renditions decodes the source once (EXIF orientation corrected), then
// derives the watermarked optimized rendition and the plain preview rendition
// independently from it. Any decode, resize or composite failure aborts the
// whole event.
func (p *ImageProcessor) Renditions(ctx context.Context, ext string, source, watermark []byte) (*dto.Renditions, error) {
	img, err := decodeImage(source)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Renditions - decodeImage(source): %w", err)
	}

	wm, err := decodeImage(watermark)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Renditions - decodeImage(watermark): %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	portrait := height > width

	// 1. optimized rendition
	optimizedWidth, optimizedHeight := optimizedSize(width, height)
	optimized := imaging.Resize(img, optimizedWidth, optimizedHeight, imaging.Lanczos)

	// 2. watermark, scaled to the optimized width but never enlarged
	scaledWM := wm
	wmWidth := watermarkWidth(optimizedWidth, portrait, wm.Bounds().Dx())
	if wmWidth < wm.Bounds().Dx() {
		scaledWM = imaging.Resize(wm, wmWidth, 0, imaging.Lanczos)
	}

	left, top := watermarkOffset(
		optimizedWidth, optimizedHeight,
		scaledWM.Bounds().Dx(), scaledWM.Bounds().Dy(),
	)
	composited := imaging.Overlay(optimized, scaledWM, image.Pt(left, top), 1.0)

	// 3. preview rendition, from the source, no watermark
	previewWidth, previewHeight := previewSize(width, height)
	preview := imaging.Resize(img, previewWidth, previewHeight, imaging.Lanczos)

	outExt, format, contentType := encoding(ext)

	optimizedBytes, err := encodeImage(composited, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Renditions - encodeImage(optimized): %w", err)
	}

	previewBytes, err := encodeImage(preview, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Renditions - encodeImage(preview): %w", err)
	}

	return &dto.Renditions{
		Optimized:     optimizedBytes,
		Preview:       previewBytes,
		Width:         optimizedWidth,
		Height:        optimizedHeight,
		PreviewWidth:  previewWidth,
		PreviewHeight: previewHeight,
		Ext:           outExt,
		ContentType:   contentType,
	}, nil
}

// optimizedSize caps width at 1200 (portrait) or 2000 (landscape), never
// upscaling, and keeps the aspect ratio.
func optimizedSize(width, height int) (int, int) {
	maxWidth := _landscapeMaxWidth
	if height > width {
		maxWidth = _portraitMaxWidth
	}

	targetWidth := min(width, maxWidth)

	return targetWidth, scaleRound(height, targetWidth, width)
}

// previewSize caps the long edge at 640, never upscaling.
func previewSize(width, height int) (int, int) {
	if height > width {
		targetHeight := min(height, _previewMaxSize)

		return scaleRound(width, targetHeight, height), targetHeight
	}

	targetWidth := min(width, _previewMaxSize)

	return targetWidth, scaleRound(height, targetWidth, width)
}

func watermarkWidth(optimizedWidth int, portrait bool, nativeWidth int) int {
	scale := _watermarkScaleLandscape
	if portrait {
		scale = _watermarkScalePortrait
	}

	return min(int(math.Round(float64(optimizedWidth)*scale)), nativeWidth)
}

// watermarkOffset places the watermark bottom-right with 2% padding, clamped
// into the frame so it never overflows even on very small or very wide
// sources.
func watermarkOffset(optimizedWidth, optimizedHeight, wmWidth, wmHeight int) (int, int) {
	left := int(math.Round(float64(optimizedWidth)*(1-_watermarkPadding))) - wmWidth
	top := int(math.Round(float64(optimizedHeight)*(1-_watermarkPadding))) - wmHeight

	return clamp(left, 0, optimizedWidth-wmWidth), clamp(top, 0, optimizedHeight-wmHeight)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

func scaleRound(value, num, den int) int {
	return int(math.Round(float64(value) * float64(num) / float64(den)))
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imaging.Decode: %w", err)
	}

	return img, nil
}

// encoding maps a source extension to the rendition extension, encode format
// and content type. webp has no encoder in the imaging stack, so webp sources
// produce jpeg renditions.
func encoding(ext string) (string, imaging.Format, string) {
	switch strings.ToLower(ext) {
	case ".jpg":
		return ".jpg", imaging.JPEG, "image/jpeg"
	case ".jpeg":
		return ".jpeg", imaging.JPEG, "image/jpeg"
	case ".png":
		return ".png", imaging.PNG, "image/png"
	case ".gif":
		return ".gif", imaging.GIF, "image/gif"
	case ".webp":
		return ".jpg", imaging.JPEG, "image/jpeg"
	default:
		return ".jpg", imaging.JPEG, "image/jpeg"
	}
}

func encodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, format)
	if err != nil {
		return nil, fmt.Errorf("imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
