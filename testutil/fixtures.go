package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Minimal magic-number headers so fixtures look like the real thing to a server
var fileHeaders = map[string][]byte{
	".pdf":  []byte("%PDF-1.4\n"),
	".png":  {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	".jpg":  {0xff, 0xd8, 0xff, 0xe0},
	".gif":  []byte("GIF89a"),
	".zip":  {'P', 'K', 0x03, 0x04},
	".docx": {'P', 'K', 0x03, 0x04},
}

// CreateUploadFixture writes a file of exactly size bytes for upload tests,
// starting with the usual header for its extension.
func CreateUploadFixture(t *testing.T, dir, name string, size int) string {
	t.Helper()
	header := fileHeaders[filepath.Ext(name)]
	data := make([]byte, 0, size)
	data = append(data, header...)
	if len(data) > size {
		data = data[:size]
	}
	data = append(data, bytes.Repeat([]byte{'x'}, size-len(data))...)

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write upload fixture %s: %v", name, err)
	}
	return path
}

// CreateConfigFixture writes a config.yaml pointing at baseURL and returns its path
func CreateConfigFixture(t *testing.T, dir, baseURL string, extra string) string {
	t.Helper()
	content := "base_url: " + baseURL + "\ncache_dir: " + filepath.Join(dir, "cache") + "\n" + extra
	return WriteFile(t, dir, "config.yaml", content)
}
