package media

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDataURIRoundTrip(t *testing.T) {
	payloads := [][]byte{
		pngHeader,
		{0x01},
		{0x01, 0x02},
		{0x01, 0x02, 0x03},
		bytes.Repeat([]byte{0xff, 0x00, 0x7f}, 100),
	}

	for _, data := range payloads {
		img, err := DecodeDataURI(EncodeDataURI("image/png", data))
		require.NoError(t, err)
		assert.Equal(t, data, img.Data)
		assert.Equal(t, "image/png", img.ContentType)
	}
}

func TestDecodeDataURI_AcceptsUnpaddedPayload(t *testing.T) {
	data := []byte("ab") // encodes to "YWI=" padded
	unpadded := strings.TrimRight(base64.StdEncoding.EncodeToString(data), "=")

	img, err := DecodeDataURI("data:image/jpeg;base64," + unpadded)
	require.NoError(t, err)
	assert.Equal(t, data, img.Data)
	assert.Equal(t, "jpg", img.Extension())
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain string", input: "hello"},
		{name: "no separator", input: "data:image/png;base64"},
		{name: "not base64", input: "data:image/png,rawdata"},
		{name: "non image type", input: "data:text/plain;base64,aGVsbG8="},
		{name: "malformed payload", input: "data:image/png;base64,@@@@"},
		{name: "truncated payload", input: "data:image/png;base64,A"},
		{name: "empty payload", input: "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeDataURI(tt.input)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, apperr.ErrInvalidImageEncoding)
		})
	}
}

func TestFromUpload(t *testing.T) {
	img, err := FromUpload(pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Extension())

	img, err = FromUpload([]byte{1, 2, 3}, "image/gif; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", img.ContentType)

	_, err = FromUpload(nil, "image/png")
	assert.ErrorIs(t, err, apperr.ErrInvalidImageEncoding)

	_, err = FromUpload([]byte("plain text body"), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidImageEncoding)
}

func TestObjectName(t *testing.T) {
	img := &Image{ContentType: "image/png"}
	name := img.ObjectName("recipes/images")
	assert.True(t, strings.HasPrefix(name, "recipes/images/"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotEqual(t, name, img.ObjectName("recipes/images"))
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{base: "http://localhost:8000", ref: "/media/a.png", want: "http://localhost:8000/media/a.png"},
		{base: "http://localhost:8000/", ref: "media/a.png", want: "http://localhost:8000/media/a.png"},
		{base: "", ref: "/media/a.png", want: ""},
		{base: "http://localhost:8000", ref: "", want: ""},
		{base: "", ref: "https://cdn.example/a.png", want: "https://cdn.example/a.png"},
		{base: "http://localhost", ref: "https://cdn.example/a.png", want: "https://cdn.example/a.png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AbsoluteURL(tt.base, tt.ref), "%q + %q", tt.base, tt.ref)
	}
}
