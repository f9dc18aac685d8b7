package imagestore

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
)

func TestDecodeBase64StripsDataURL(t *testing.T) {
	raw := []byte("abcdefgh")
	data, declared, err := DecodeBase64("data:image/jpg;base64," + base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "image/jpeg", declared)
}

func TestDecodeBase64RepairsPadding(t *testing.T) {
	raw := []byte("vine")
	unpadded := base64.RawStdEncoding.EncodeToString(raw)
	require.NotContains(t, unpadded, "=")

	data, declared, err := DecodeBase64("  " + unpadded + "\n")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Empty(t, declared)
}

func TestDecodeBase64Errors(t *testing.T) {
	_, _, err := DecodeBase64("   ")
	assert.Equal(t, apperr.CodeEmptyPayload, apperr.CodeOf(err))

	_, _, err = DecodeBase64("@@@@")
	assert.Equal(t, apperr.CodeBadEncoding, apperr.CodeOf(err))

	_, _, err = DecodeBase64("data:image/png;base64")
	assert.Equal(t, apperr.CodeBadEncoding, apperr.CodeOf(err))
}
