package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/fileconv/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sampleTranscript("abc"), &buf); err != nil {
		t.Fatalf("MarkdownExporter.Export() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Chat abc",
		"**Language:** English",
		"**Model:** llama3-8b-8192",
		"**Started:** 2024-05-01T12:00:00Z",
		"**Messages:** 3",
		"**user:**",
		"How do I convert a PDF to DOCX?",
		"pick \\*\\*DOCX\\*\\*.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q\n%s", want, output)
		}
	}
	if strings.Count(output, "---") != 3 {
		t.Errorf("expected a rule after the header and between messages, got %d", strings.Count(output, "---"))
	}
}

func TestMarkdownExporter_OmitsEmptyModel(t *testing.T) {
	transcript := sampleTranscript("abc", internal.ChatMessage{Role: internal.RoleUser, Content: "hi"})
	transcript.Model = ""

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(transcript, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "**Model:**") {
		t.Error("empty model should be omitted")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello world", "Hello world"},
		{"bold", "**bold**", "\\*\\*bold\\*\\*"},
		{"underline", "__u__", "\\_\\_u\\_\\_"},
		{"code block untouched", "```\n**x**\n```", "```\n**x**\n```"},
		{"after code block", "```\na\n```\n**b**", "```\na\n```\n\\*\\*b\\*\\*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.input); got != tt.want {
				t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	if got := (&MarkdownExporter{}).Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}
