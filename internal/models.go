package internal

import (
	"path"
	"strings"
)

// ConversionType scopes which input/output formats are valid
type ConversionType string

const (
	ConversionText       ConversionType = "text"
	ConversionDocument   ConversionType = "document"
	ConversionImage      ConversionType = "image"
	ConversionAudio      ConversionType = "audio"
	ConversionVideo      ConversionType = "video"
	ConversionCompressed ConversionType = "compressed"
)

// ConversionTypes lists every supported conversion type in display order
var ConversionTypes = []ConversionType{
	ConversionText,
	ConversionDocument,
	ConversionImage,
	ConversionAudio,
	ConversionVideo,
	ConversionCompressed,
}

// Valid reports whether t is one of the six known conversion types.
func (t ConversionType) Valid() bool {
	for _, known := range ConversionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseConversionType accepts exactly the known identifiers (case-insensitive).
func ParseConversionType(s string) (ConversionType, error) {
	t := ConversionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{
			Field:   "conversion_type",
			Message: "Unknown conversion type " + strings.TrimSpace(s) + " (supported: text, document, image, audio, video, compressed)",
		}
	}
	return t, nil
}

// FormatEntry is the input/output format table for one conversion type
type FormatEntry struct {
	InputFormats  []string `json:"input_formats" yaml:"input_formats"`
	OutputFormats []string `json:"output_formats" yaml:"output_formats"`
}

// AcceptsInput reports whether ext is a listed input format.
func (e FormatEntry) AcceptsInput(ext string) bool {
	return containsFormat(e.InputFormats, ext)
}

// AcceptsOutput reports whether ext is a listed output format.
func (e FormatEntry) AcceptsOutput(ext string) bool {
	return containsFormat(e.OutputFormats, ext)
}

func containsFormat(formats []string, ext string) bool {
	for _, f := range formats {
		if f == ext {
			return true
		}
	}
	return false
}

// Catalog maps conversion type to its format table. Treat as read-only once fetched.
type Catalog map[ConversionType]FormatEntry

// Entry returns the format table for t, or CatalogUnavailableError when absent.
func (c Catalog) Entry(t ConversionType) (FormatEntry, error) {
	entry, ok := c[t]
	if !ok {
		return FormatEntry{}, &CatalogUnavailableError{ConversionType: t}
	}
	return entry, nil
}

// normalizeCatalog lower-cases and trims every listed format.
func normalizeCatalog(raw map[string]FormatEntry) Catalog {
	out := make(Catalog, len(raw))
	for key, entry := range raw {
		out[ConversionType(strings.ToLower(key))] = FormatEntry{
			InputFormats:  normalizeFormats(entry.InputFormats),
			OutputFormats: normalizeFormats(entry.OutputFormats),
		}
	}
	return out
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ConversionRequest is constructed only when both file and target format are present
type ConversionRequest struct {
	File           *SelectedFile
	ConversionType ConversionType
	TargetFormat   string
}

// ConversionResult is the backend's answer to a conversion
type ConversionResult struct {
	Success     bool   `json:"success" yaml:"success"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
	FilePath    string `json:"file_path" yaml:"file_path"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
	FileSize    int64  `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FileName is the last path segment of the converted file.
func (r *ConversionResult) FileName() string {
	if r == nil {
		return ""
	}
	p := r.FilePath
	if p == "" {
		p = r.DownloadURL
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// Extension is the upper-cased extension of FileName.
func (r *ConversionResult) Extension() string {
	return strings.ToUpper(FileExtension(r.FileName()))
}

// ShareRequest asks the backend to email a converted file
type ShareRequest struct {
	Filename       string `json:"filename" validate:"required"`
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	Message        string `json:"message,omitempty"`
}

// ShareResult is the backend's answer to a share request
type ShareResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Role of a chat participant
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of the chat history
type ChatMessage struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ChatRequest is the body of POST /api/chat/completions
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Model       string        `json:"model,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the decoded completion response; Action is validated separately
type ChatResponse struct {
	Response string     `json:"response"`
	ID       string     `json:"id,omitempty"`
	Model    string     `json:"model,omitempty"`
	Action   ChatAction `json:"-"`
}

// ChatConversionIntent is the structured request to convert a file, from the chat service
type ChatConversionIntent struct {
	ConversionType ConversionType `json:"conversion_type" yaml:"conversion_type"`
	TargetFormat   string         `json:"target_format" yaml:"target_format"`
}

// ChatConversionRequest is the body of POST /api/chat/convert
type ChatConversionRequest struct {
	File           *SelectedFile
	ConversionType ConversionType
	TargetFormat   string
	UserMessage    string
}
