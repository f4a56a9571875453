package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// JPEGFixture is a minimal byte sequence that content sniffing classifies as
// image/jpeg. It is not a decodable image.
var JPEGFixture = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

// PNGFixture is a minimal byte sequence that content sniffing classifies as
// image/png. It is not a decodable image.
var PNGFixture = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}

// GIFFixture is a byte sequence for an unsupported image type.
var GIFFixture = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")

// WriteFile fills the target path with the provided contents, creating parent
// directories as needed.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
