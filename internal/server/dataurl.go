package server

import (
	"encoding/base64"
	"mime"
	"strings"
)

const defaultDataURLMIME = "application/octet-stream"

// knownExtensions wins over mime.ExtensionsByType, whose first pick for some
// types depends on the host's mime tables (".jfif" for image/jpeg).
var knownExtensions = map[string]string{
	"application/octet-stream": ".bin",

	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/avif":    ".avif",
	"image/heic":    ".heic",
	"image/tiff":    ".tiff",
	"image/x-icon":  ".ico",
}

// parseDataURL decodes "data:<mime>;base64,<payload>". The payload must be
// strict, padded standard base64. An empty mime becomes application/octet-stream.
func parseDataURL(s string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, false
	}

	header, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, false
	}

	data, err := base64.StdEncoding.Strict().DecodeString(payload)
	if err != nil {
		return "", nil, false
	}

	mimeType := header
	if mimeType == "" {
		mimeType = defaultDataURLMIME
	}

	return mimeType, data, true
}

// extensionForMIME maps a mime type (parameters allowed) to a file extension
// including the dot, falling back to ".bin".
func extensionForMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType, _, _ = strings.Cut(mimeType, ";")
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	if ext, ok := knownExtensions[mediaType]; ok {
		return ext
	}

	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
