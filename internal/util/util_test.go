package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

func TestSniffMimeForOCR(t *testing.T) {
	assert.Equal(t, "JPEG", SniffMimeForOCR([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "PNG", SniffMimeForOCR(pngHeader))
	assert.Equal(t, "PDF", SniffMimeForOCR([]byte("%PDF-1.7")))
	assert.Equal(t, "", SniffMimeForOCR([]byte("plain text")))
	assert.Equal(t, "", SniffMimeForOCR(nil))
}

func TestSniffMimeHTTP(t *testing.T) {
	assert.Equal(t, "image/jpeg", SniffMimeHTTP([]byte{0xFF, 0xD8, 0x00}))
	assert.Equal(t, "image/png", SniffMimeHTTP(pngHeader))
	assert.Equal(t, "application/octet-stream", SniffMimeHTTP([]byte("junk")))
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	payload := []byte("hello world")
	b64 := base64.StdEncoding.EncodeToString(payload)

	got, mime, err := DecodeBase64MaybeDataURL(b64)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "", mime)

	got, mime, err = DecodeBase64MaybeDataURL("data:image/png;base64," + b64)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "image/png", mime)

	// URL-safe alphabet from clients that never learned better.
	urlSafe := base64.URLEncoding.EncodeToString([]byte{0xFB, 0xFF, 0x01})
	got, _, err = DecodeBase64MaybeDataURL(urlSafe)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFB, 0xFF, 0x01}, got)

	_, _, err = DecodeBase64MaybeDataURL("!!! not base64 !!!")
	assert.Error(t, err)
}

func TestMakeDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,QUJD", MakeDataURL("image/jpeg", "QUJD"))
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "image/webp", PickMIME("image/webp", "image/png", pngHeader))
	assert.Equal(t, "image/png", PickMIME("", "image/png", nil))
	assert.Equal(t, "image/jpeg", PickMIME("", "", nil))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
	assert.Equal(t, "", StripCodeFences("  \n"))
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		SHA256Hex([]byte("hello world")))
	assert.Len(t, SHA256Hex(nil), 64)
}
