package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iksnae/fileconv/internal"
)

// Exporter defines the interface for all transcript formats
type Exporter interface {
	Export(transcript *internal.ChatTranscript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// ForPath picks the exporter matching path's extension, defaulting to Markdown.
func ForPath(path string) (Exporter, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return &MarkdownExporter{}, nil
	}
	return NewExporter(ext)
}
