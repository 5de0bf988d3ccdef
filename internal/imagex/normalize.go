// Package imagex prepares attachment content for storage.
//
// Images are rotated upright according to their EXIF orientation, scaled
// down to fit a maximum side and re-encoded as JPEG. Anything that is not a
// decodable image is stored as is.
package imagex

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used for re-encoded images.
const DefaultQuality = 90

const jpegMimeType = "image/jpeg"

// Normalizer turns raw attachment content into stored bytes.
type Normalizer struct {
	// MaxSide bounds the width and height of stored images. Zero keeps
	// the original size.
	MaxSide int
	Quality int
}

// NewNormalizer returns a Normalizer with the default JPEG quality.
func NewNormalizer(maxSide int) *Normalizer {
	return &Normalizer{MaxSide: maxSide, Quality: DefaultQuality}
}

// Normalize reads r to the end and returns the bytes to store with their
// MIME type.
func (n *Normalizer) Normalize(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read content: %w", err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return data, mt.String(), nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		// Formats without a decoder (svg, heic) are kept verbatim.
		return data, mt.String(), nil
	}

	if n.MaxSide > 0 {
		b := img.Bounds()
		if b.Dx() > n.MaxSide || b.Dy() > n.MaxSide {
			img = imaging.Fit(img, n.MaxSide, n.MaxSide, imaging.Lanczos)
		}
	}

	quality := n.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), jpegMimeType, nil
}
