package imagestore

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"vineyard-api/internal/apperr"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 5 * 1024 * 1024

// maxPixels bounds the decoded canvas; anything bigger is rejected before
// the full decode allocates it.
const maxPixels = 100_000_000

// Allowed maps every accepted MIME type to the extension files are stored with.
var Allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/heif": ".heif",
	"image/webp": ".webp",
	"image/tiff": ".tiff",
}

var aliases = map[string]string{
	"image/jpg":    "image/jpeg",
	"image/pjpeg":  "image/jpeg",
	"image/x-png":  "image/png",
	"image/tif":    "image/tiff",
	"image/x-tiff": "image/tiff",
}

// NormalizeMIME lower-cases t, drops parameters and resolves known aliases.
func NormalizeMIME(t string) string {
	t, _, _ = strings.Cut(t, ";")
	t = strings.ToLower(strings.TrimSpace(t))
	if canonical, ok := aliases[t]; ok {
		return canonical
	}
	return t
}

// Validate checks that data is a real image of an allowed type and returns
// the detected MIME type and storage extension. The declared type is only
// consulted when the content itself is unrecognisable.
func Validate(data []byte, declared string, maxBytes int) (string, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return "", "", apperr.Validation(apperr.CodeEmptyPayload, "empty file content")
	}
	if len(data) > maxBytes {
		return "", "", apperr.Validation(apperr.CodeTooLarge,
			"file size exceeds the maximum allowed size of %dMB", maxBytes/(1024*1024))
	}

	detected := NormalizeMIME(mimetype.Detect(data).String())
	if detected == "application/octet-stream" && declared != "" {
		detected = NormalizeMIME(declared)
	}
	ext, ok := Allowed[detected]
	if !ok {
		return "", "", apperr.Validation(apperr.CodeUnsupportedType, "unsupported file type: %s", detected)
	}

	if err := verify(data, detected); err != nil {
		return "", "", err
	}
	return detected, ext, nil
}

type decoder struct {
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}

var decoders = map[string]decoder{
	"image/jpeg": {jpeg.DecodeConfig, jpeg.Decode},
	"image/png":  {png.DecodeConfig, png.Decode},
	"image/gif":  {gif.DecodeConfig, gif.Decode},
	"image/webp": {webp.DecodeConfig, webp.Decode},
	"image/tiff": {tiff.DecodeConfig, tiff.Decode},
}

// verify fully decodes the payload. HEIC/HEIF have no decoder in the stack
// and get a structural check instead.
func verify(data []byte, mime string) error {
	if mime == "image/heic" || mime == "image/heif" {
		return checkHEIF(data)
	}
	d, ok := decoders[mime]
	if !ok {
		return apperr.Validation(apperr.CodeUnsupportedType, "unsupported file type: %s", mime)
	}

	cfg, err := d.config(bytes.NewReader(data))
	if err != nil {
		return apperr.Validation(apperr.CodeCorruptImage, "invalid image: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return apperr.Validation(apperr.CodeCorruptImage, "invalid image: empty canvas")
	}
	if cfg.Width*cfg.Height > maxPixels {
		return apperr.Validation(apperr.CodeTooLarge, "image dimensions %dx%d are too large", cfg.Width, cfg.Height)
	}
	if _, err := d.decode(bytes.NewReader(data)); err != nil {
		return apperr.Validation(apperr.CodeCorruptImage, "invalid image: %v", err)
	}
	return nil
}
