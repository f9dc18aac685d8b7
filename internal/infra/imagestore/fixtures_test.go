package imagestore

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// 1x1 lossless WebP.
const webpFixture = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 90, A: 255})
		}
	}
	return img
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sampleImage(), nil))
	return buf.Bytes()
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	return buf.Bytes()
}

func gifFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, sampleImage(), nil))
	return buf.Bytes()
}

func tiffFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, sampleImage(), nil))
	return buf.Bytes()
}

func webpBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(webpFixture)
	require.NoError(t, err)
	return data
}

func box(boxType string, body []byte) []byte {
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out, uint32(8+len(body)))
	copy(out[4:], boxType)
	return append(out, body...)
}

// heicFixture is a structurally valid HEIC container: ftyp + meta + mdat.
func heicFixture() []byte {
	ftyp := box("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))
	meta := box("meta", []byte{0, 0, 0, 0})
	mdat := box("mdat", []byte{1, 2, 3, 4, 5, 6, 7, 8})
	out := append([]byte{}, ftyp...)
	out = append(out, meta...)
	return append(out, mdat...)
}
