package internal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Identity is the signed-in user, supplied explicitly instead of read from globals
type Identity struct {
	Email string `yaml:"email,omitempty" validate:"omitempty,email"`
	Name  string `yaml:"name,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// SignedIn reports whether a user is present
func (i Identity) SignedIn() bool {
	return strings.TrimSpace(i.Email) != "" || strings.TrimSpace(i.Token) != ""
}

// DisplayName prefers Name, then Email
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		return i.Email
	}
	return "guest"
}

// Theme is the palette used by the presenter and the chat UI
type Theme struct {
	Name    string
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
}

var themes = map[string]Theme{
	"dark": {
		Name:    "dark",
		Accent:  lipgloss.Color("#B39DDB"),
		Success: lipgloss.Color("42"),
		Error:   lipgloss.Color("196"),
		Warning: lipgloss.Color("214"),
		Muted:   lipgloss.Color("243"),
		Text:    lipgloss.Color("252"),
	},
	"light": {
		Name:    "light",
		Accent:  lipgloss.Color("#5E35B1"),
		Success: lipgloss.Color("28"),
		Error:   lipgloss.Color("160"),
		Warning: lipgloss.Color("130"),
		Muted:   lipgloss.Color("245"),
		Text:    lipgloss.Color("235"),
	},
}

// typeAccents colors each conversion type consistently across commands.
var typeAccents = map[ConversionType]lipgloss.Color{
	ConversionText:       lipgloss.Color("#3a86ff"),
	ConversionDocument:   lipgloss.Color("#ff006e"),
	ConversionImage:      lipgloss.Color("#8338ec"),
	ConversionAudio:      lipgloss.Color("#fb5607"),
	ConversionVideo:      lipgloss.Color("#ffbe0b"),
	ConversionCompressed: lipgloss.Color("#06d6a0"),
}

// ThemeByName returns the named theme, falling back to dark.
func ThemeByName(name string) Theme {
	if t, ok := themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return themes["dark"]
}

// ForType returns a copy of the theme accented with the conversion type's color.
func (t Theme) ForType(ct ConversionType) Theme {
	if c, ok := typeAccents[ct]; ok {
		t.Accent = c
	}
	return t
}

// ConversionTypeDescription is the one-line summary shown in listings.
func ConversionTypeDescription(t ConversionType) string {
	switch t {
	case ConversionText:
		return "Convert between various text formats like TXT, MD, HTML, XML, JSON, CSV, and more."
	case ConversionDocument:
		return "Convert between document formats like PDF, DOCX, TXT, HTML, MD, and more."
	case ConversionImage:
		return "Convert between image formats like JPG, PNG, GIF, BMP, TIFF, WEBP, SVG, and more."
	case ConversionAudio:
		return "Convert between audio formats like MP3, WAV, OGG, FLAC, AAC, and more."
	case ConversionVideo:
		return "Convert between video formats like MP4, AVI, MKV, MOV, WEBM, GIF, and more."
	case ConversionCompressed:
		return "Convert between compressed file formats like ZIP, TAR, GZ, 7Z, and more."
	}
	return ""
}
