// Package media decodes image fields submitted by clients and turns stored references
// back into absolute URLs.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/maxim190404/foodgram-st/internal/apperr"
)

const dataURIPrefix = "data:"

type Image struct {
	Data        []byte
	ContentType string
}

// DecodeDataURI parses "data:<mime>;base64,<payload>". Unpadded payloads are accepted.
func DecodeDataURI(s string) (*Image, error) {
	if !strings.HasPrefix(s, dataURIPrefix) {
		return nil, fmt.Errorf("%w: not a data URI", apperr.ErrInvalidImageEncoding)
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURIPrefix), ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload separator", apperr.ErrInvalidImageEncoding)
	}

	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("%w: payload is not base64", apperr.ErrInvalidImageEncoding)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", apperr.ErrInvalidImageEncoding, contentType)
	}

	payload = strings.TrimSpace(payload)
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidImageEncoding, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", apperr.ErrInvalidImageEncoding)
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

// FromUpload wraps a binary upload. The content type is sniffed when the client did not
// send one.
func FromUpload(data []byte, contentType string) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", apperr.ErrInvalidImageEncoding)
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	} else {
		contentType = ""
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", apperr.ErrInvalidImageEncoding, contentType)
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

func EncodeDataURI(contentType string, data []byte) string {
	return dataURIPrefix + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Extension returns the file extension for the image type, without the dot.
func (img *Image) Extension() string {
	subtype := strings.TrimPrefix(img.ContentType, "image/")
	switch subtype {
	case "jpeg", "pjpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	case "":
		return "bin"
	}
	return subtype
}

// ObjectName builds a unique storage name such as "recipes/images/<uuid>.png".
func (img *Image) ObjectName(prefix string) string {
	return path.Join(prefix, uuid.NewString()+"."+img.Extension())
}

// AbsoluteURL resolves a stored reference against baseURL. Without a base URL or a
// reference it returns ""; references that already carry a scheme are returned as is.
func AbsoluteURL(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}
