package imagestore

import (
	"encoding/base64"
	"strings"

	"vineyard-api/internal/apperr"
)

// DecodeBase64 decodes an inline photo payload. A leading
// "data:<mime>;base64," prefix is stripped and its MIME type returned as the
// declared type; missing '=' padding is repaired.
func DecodeBase64(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", apperr.Validation(apperr.CodeEmptyPayload, "empty base64 string")
	}

	var declared string
	if strings.HasPrefix(payload, "data:") {
		header, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", apperr.Validation(apperr.CodeBadEncoding, "invalid base64 encoded image: malformed data URL")
		}
		mediaType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
		declared = NormalizeMIME(mediaType)
		payload = rest
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	if rem := len(payload) % 4; rem > 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", apperr.Validation(apperr.CodeBadEncoding, "invalid base64 encoded image: %v", err)
	}
	if len(data) == 0 {
		return nil, "", apperr.Validation(apperr.CodeEmptyPayload, "empty file content")
	}
	return data, declared, nil
}
