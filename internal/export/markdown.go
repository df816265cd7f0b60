package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/fileconv/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.ChatTranscript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Chat %s\n\n", transcript.ID)
	_, _ = fmt.Fprintf(w, "**Language:** %s  \n", internal.LanguageName(transcript.Language))
	if transcript.Model != "" {
		_, _ = fmt.Fprintf(w, "**Model:** %s  \n", transcript.Model)
	}
	if !transcript.StartedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", transcript.StartedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range transcript.Messages {
		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", msg.Role, escapeMarkdown(msg.Content))
		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes bold/underline markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
