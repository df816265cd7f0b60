package internal

import (
	"testing"
)

func TestParseConversionType(t *testing.T) {
	tests := []struct {
		input   string
		want    ConversionType
		wantErr bool
	}{
		{"document", ConversionDocument, false},
		{" Image ", ConversionImage, false},
		{"COMPRESSED", ConversionCompressed, false},
		{"spreadsheet", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConversionType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConversionType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseConversionType(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tt.wantErr && ErrorKindOf(err) != KindValidation {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestConversionTypesOrder(t *testing.T) {
	want := []ConversionType{"text", "document", "image", "audio", "video", "compressed"}
	if len(ConversionTypes) != len(want) {
		t.Fatalf("ConversionTypes has %d entries, want %d", len(ConversionTypes), len(want))
	}
	for i, ct := range want {
		if ConversionTypes[i] != ct {
			t.Errorf("ConversionTypes[%d] = %q, want %q", i, ConversionTypes[i], ct)
		}
	}
}

func TestCatalogEntry(t *testing.T) {
	catalog := normalizeCatalog(map[string]FormatEntry{
		"Image": {InputFormats: []string{" PNG", ".jpg", ""}, OutputFormats: []string{"WebP"}},
	})

	entry, err := catalog.Entry(ConversionImage)
	if err != nil {
		t.Fatalf("Entry(image) error = %v", err)
	}
	if len(entry.InputFormats) != 2 || entry.InputFormats[0] != "png" || entry.InputFormats[1] != "jpg" {
		t.Errorf("InputFormats = %v, want [png jpg]", entry.InputFormats)
	}
	if !entry.AcceptsOutput("webp") || entry.AcceptsOutput("WEBP") {
		t.Error("AcceptsOutput should match the normalized, lower-case format only")
	}

	_, err = catalog.Entry(ConversionAudio)
	if ErrorKindOf(err) != KindCatalogUnavailable {
		t.Errorf("Entry(audio) error kind = %v, want CatalogUnavailable", ErrorKindOf(err))
	}
}

func TestConversionResultFileName(t *testing.T) {
	tests := []struct {
		name   string
		result *ConversionResult
		want   string
		ext    string
	}{
		{"file path", &ConversionResult{FilePath: "outputs/report_0001.pdf"}, "report_0001.pdf", "PDF"},
		{"windows path", &ConversionResult{FilePath: `outputs\photo.webp`}, "photo.webp", "WEBP"},
		{"download url fallback", &ConversionResult{DownloadURL: "/outputs/a/b/song.mp3"}, "song.mp3", "MP3"},
		{"empty", &ConversionResult{}, "", ""},
		{"nil", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.FileName(); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
			if got := tt.result.Extension(); got != tt.ext {
				t.Errorf("Extension() = %q, want %q", got, tt.ext)
			}
		})
	}
}
