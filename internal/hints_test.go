package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyHint(t *testing.T) {
	tests := []struct {
		message string
		want    HintCategory
	}{
		{"", HintGeneric},
		{"Conversion failed: Unsupported input format .xyz", HintUnsupportedFormat},
		{"Target format webp not supported", HintUnsupportedFormat},
		{"File too large: limit is 100MB", HintFileTooLarge},
		{"Request entity exceeds size limit (413)", HintFileTooLarge},
		{"PDF is corrupted or damaged", HintCorruptedFile},
		{"could not read image data in format png", HintCorruptedFile},
		{"Service unavailable", HintServerUnavailable},
		{"The conversion request timed out.", HintServerUnavailable},
		{"Service unavailable: format worker queue full", HintServerUnavailable},
		{"Unsupported format, server busy", HintUnsupportedFormat},
		{"bad format header", HintUnsupportedFormat},
		{"something odd happened", HintGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := ClassifyHint(tt.message); got != tt.want {
				t.Errorf("ClassifyHint(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestFriendlyConversionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint HintCategory
		contains string
	}{
		{"timeout", &NetworkError{Op: "x", Err: ErrRequestTimedOut}, HintServerUnavailable, ChatConversionTimeoutMessage},
		{"503", &ServerError{Status: 503, Message: "down"}, HintServerUnavailable, "busy or unavailable"},
		{"network", &NetworkError{Op: "x", Err: errors.New("refused")}, HintServerUnavailable, NoResponseMessage},
		{"format", &ServerError{Status: 500, Message: "Unsupported format"}, HintUnsupportedFormat, "Unsupported format"},
		{"generic", &ServerError{Status: 500, Message: "weird"}, HintGeneric, "weird"},
		{"empty", &ServerError{Status: 500}, HintGeneric, ConversionFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint, msg := FriendlyConversionError(tt.err)
			if hint != tt.wantHint {
				t.Errorf("hint = %v, want %v", hint, tt.wantHint)
			}
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("message %q should contain %q", msg, tt.contains)
			}
		})
	}

	if hint, msg := FriendlyConversionError(nil); hint != HintGeneric || msg != "" {
		t.Error("nil error should produce no message")
	}
}

func TestHintMessagesDistinct(t *testing.T) {
	seen := map[string]HintCategory{}
	for _, h := range []HintCategory{HintGeneric, HintUnsupportedFormat, HintFileTooLarge, HintCorruptedFile, HintServerUnavailable} {
		msg := HintMessage(h)
		if prev, ok := seen[msg]; ok {
			t.Errorf("%v and %v share a message", prev, h)
		}
		seen[msg] = h
	}
}
