// Package imgproc normalizes uploaded images into JPEG payloads the
// extraction model accepts.
package imgproc

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

const (
	// maxDimension caps the longest image side; the extraction API rejects
	// oversized payloads.
	maxDimension = 4096
	jpegQuality  = 90
)

// jpegMagic is the SOI marker every JPEG stream starts with.
var jpegMagic = []byte{0xff, 0xd8}

// IsJPEG reports whether the payload already is a JPEG stream.
func IsJPEG(data []byte) bool {
	return len(data) >= 2 && bytes.Equal(data[:2], jpegMagic)
}

// NormalizeToJPEG decodes the image, flattens transparency, caps the longest
// side at 4096 px and re-encodes as JPEG. Payloads that already are JPEG
// pass through untouched.
func NormalizeToJPEG(data []byte) ([]byte, error) {
	if IsJPEG(data) {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
