package export

import (
	"time"

	"github.com/iksnae/fileconv/internal"
)

func sampleTranscript(id string, messages ...internal.ChatMessage) *internal.ChatTranscript {
	if messages == nil {
		messages = []internal.ChatMessage{
			{Role: internal.RoleAssistant, Content: internal.WelcomeMessage("en")},
			{Role: internal.RoleUser, Content: "How do I convert a PDF to DOCX?"},
			{Role: internal.RoleAssistant, Content: "Upload the PDF and pick **DOCX**."},
		}
	}
	return &internal.ChatTranscript{
		ID:        id,
		Language:  "en",
		Model:     "llama3-8b-8192",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		SavedAt:   time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC),
		Messages:  messages,
	}
}
