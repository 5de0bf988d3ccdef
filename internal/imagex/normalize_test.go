package imagex

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "image/jpeg"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ReencodesPNGAsJPEG(t *testing.T) {
	n := NewNormalizer(0)

	data, mimeType, err := n.Normalize(bytes.NewReader(pngImage(t, 64, 32)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestNormalize_DownscalesToMaxSide(t *testing.T) {
	n := NewNormalizer(16)

	data, _, err := n.Normalize(bytes.NewReader(pngImage(t, 64, 32)))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestNormalize_SmallImageNotUpscaled(t *testing.T) {
	n := NewNormalizer(2048)

	data, _, err := n.Normalize(bytes.NewReader(pngImage(t, 10, 20)))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestNormalize_PassesThroughNonImages(t *testing.T) {
	n := NewNormalizer(16)
	in := []byte("just some diary notes")

	data, mimeType, err := n.Normalize(bytes.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, in, data)
	assert.True(t, strings.HasPrefix(mimeType, "text/plain"), mimeType)
}

func TestNormalize_UndecodableImageKept(t *testing.T) {
	n := NewNormalizer(16)
	in := append([]byte("\x89PNG\r\n\x1a\n"), []byte("definitely not a png body")...)

	data, mimeType, err := n.Normalize(bytes.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, in, data)
	assert.Equal(t, "image/png", mimeType)
}

func TestNormalize_EmptyInput(t *testing.T) {
	data, mimeType, err := NewNormalizer(0).Normalize(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NotEmpty(t, mimeType)
}
