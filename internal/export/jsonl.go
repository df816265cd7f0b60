package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/fileconv/internal"
)

// JSONLExporter writes one message per line, each tagged with the session id
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(transcript *internal.ChatTranscript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"session": transcript.ID,
			"index":   i,
			"role":    msg.Role,
			"content": msg.Content,
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
