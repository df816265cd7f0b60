package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/fileconv/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.ChatTranscript
		wantLines  int
		want       []string
	}{
		{
			name:       "empty transcript",
			transcript: sampleTranscript("s1", []internal.ChatMessage{}...),
			wantLines:  0,
		},
		{
			name:       "transcript with messages",
			transcript: sampleTranscript("s2"),
			wantLines:  3,
			want:       []string{`"role":"user"`, `"role":"assistant"`, `"session":"s2"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONLExporter{}).Export(tt.transcript, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}
			output := buf.String()
			if tt.wantLines == 0 {
				if output != "" {
					t.Errorf("empty transcript should produce empty output, got %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != tt.wantLines {
				t.Fatalf("got %d lines, want %d", len(lines), tt.wantLines)
			}
			for i, line := range lines {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Fatalf("line %d is not valid JSON: %v", i, err)
				}
				if msg["index"] != float64(i) {
					t.Errorf("line %d index = %v", i, msg["index"])
				}
			}
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q", want)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	if got := (&JSONLExporter{}).Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
