// Package thumbnail derives small preview images from archived originals.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"golang.org/x/image/draw"
)

const jpegQuality = 85

// FromJPEG decodes a JPEG image, scales it so its longer edge is at most
// maxEdge pixels, and re-encodes it as JPEG. Images already within the
// bound are re-encoded at original size.
func FromJPEG(r io.Reader, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		return nil, fmt.Errorf("thumbnail: max edge must be positive, got %d", maxEdge)
	}

	src, err := jpeg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := scaledSize(w, h, maxEdge)

	var out image.Image = src
	if tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// scaledSize shrinks (w, h) proportionally so the longer edge fits maxEdge.
// Dimensions already within the bound are returned unchanged, and the
// result never collapses below one pixel.
func scaledSize(w, h, maxEdge int) (int, int) {
	if w <= maxEdge && h <= maxEdge {
		return w, h
	}

	if w >= h {
		scaled := h * maxEdge / w
		if scaled < 1 {
			scaled = 1
		}
		return maxEdge, scaled
	}

	scaled := w * maxEdge / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxEdge
}
