// Package media validates uploaded slide images by sniffing their content.
//
// Type detection deliberately ignores the client-supplied Content-Type header
// and filename extension; only the leading bytes of the payload decide whether
// a file is accepted.
package media

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// Supported image MIME types for slide uploads.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
)

// Sniff reports the detected MIME type of the payload and whether it is a
// supported slide image. Detection only needs the first 512 bytes.
func Sniff(data []byte) (string, bool) {
	detected := http.DetectContentType(data)
	switch detected {
	case TypeJPEG, TypePNG:
		return detected, true
	default:
		return detected, false
	}
}

// Extension returns the canonical file extension for a supported MIME type.
func Extension(mimeType string) string {
	switch mimeType {
	case TypeJPEG:
		return ".jpg"
	case TypePNG:
		return ".png"
	default:
		return ""
	}
}

// SafeFileName sanitizes a client-supplied filename for storage on disk. Path
// separators and traversal sequences are stripped, the extension is replaced
// with the canonical one for the detected type, and an index prefix keeps
// slide ordering stable regardless of the original names.
func SafeFileName(original string, index int, mimeType string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := make([]rune, 0, len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			cleaned = append(cleaned, r)
		case r == '-' || r == '_' || r == '.':
			cleaned = append(cleaned, r)
		default:
			cleaned = append(cleaned, '_')
		}
	}
	name := strings.Trim(string(cleaned), "._")
	if name == "" {
		name = "slide"
	}
	if index < 0 {
		index = 0
	}
	return fmt.Sprintf("%03d_%s%s", index, name, Extension(mimeType))
}
