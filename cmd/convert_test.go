package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iksnae/fileconv/testutil"
)

func TestConvertCommand_Success(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "report.docx", 2048)

	out, err := executeCommand(t, "--config", configFile, "convert", "document", input, "--to", "pdf")
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	calls := api.CallsTo(testutil.PathConvertFile)
	if len(calls) != 1 {
		t.Fatalf("Expected exactly one conversion call, got %d", len(calls))
	}
	call := calls[0]
	if call.FileName != "report.docx" {
		t.Errorf("FileName = %q, want report.docx", call.FileName)
	}
	if len(call.FileContent) != 2048 {
		t.Errorf("Uploaded %d bytes, want 2048", len(call.FileContent))
	}
	if call.Fields["target_format"] != "pdf" || call.Fields["conversion_type"] != "document" {
		t.Errorf("Unexpected form fields: %v", call.Fields)
	}

	wantLink := api.URL + "/outputs/report_0001.pdf"
	if !strings.Contains(out, wantLink) {
		t.Errorf("Output missing download link %q:\n%s", wantLink, out)
	}
	if !strings.Contains(out, "report_0001.pdf") || !strings.Contains(out, "(PDF)") {
		t.Errorf("Output missing file name or extension:\n%s", out)
	}
}

func TestConvertCommand_UnsupportedInputNeverUploads(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "song.mp3", 64)

	_, err := executeCommand(t, "--config", configFile, "convert", "image", input, "--to", "png")
	if err == nil {
		t.Fatal("Expected an error for an mp3 in image conversion")
	}
	if !strings.Contains(err.Error(), "File type .mp3 is not supported for image conversion") {
		t.Errorf("Unexpected error: %v", err)
	}
	if n := len(api.CallsTo(testutil.PathConvertFile)); n != 0 {
		t.Errorf("Expected no upload, got %d", n)
	}
}

func TestConvertCommand_InvalidTypeMakesNoRequest(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "notes.txt", 16)

	_, err := executeCommand(t, "--config", configFile, "convert", "spreadsheet", input, "--to", "pdf")
	if err == nil {
		t.Fatal("Expected an error for an unknown conversion type")
	}
	if n := len(api.Calls()); n != 0 {
		t.Errorf("Expected no requests, got %d", n)
	}
}

func TestConvertCommand_MissingTarget(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "photo.png", 32)

	_, err := executeCommand(t, "--config", configFile, "convert", "image", input)
	if err == nil {
		t.Fatal("Expected an error without --to")
	}
	if !strings.Contains(err.Error(), "--to") {
		t.Errorf("Error should mention --to, got %v", err)
	}
	if n := len(api.CallsTo(testutil.PathConvertFile)); n != 0 {
		t.Errorf("Expected no upload, got %d", n)
	}
}

func TestConvertCommand_UnsupportedTarget(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "photo.png", 32)

	_, err := executeCommand(t, "--config", configFile, "convert", "image", input, "--to", "mp3")
	if err == nil {
		t.Fatal("Expected an error for an unsupported target format")
	}
	if n := len(api.CallsTo(testutil.PathConvertFile)); n != 0 {
		t.Errorf("Expected no upload, got %d", n)
	}
}

func TestConvertCommand_ServerFailure(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	api.Respond(testutil.PathConvertFile, http.StatusUnprocessableEntity, gin.H{"detail": "Corrupted input file"})
	input := testutil.CreateUploadFixture(t, dir, "photo.png", 32)

	out, err := executeCommand(t, "--config", configFile, "convert", "image", input, "--to", "webp")
	if err == nil {
		t.Fatal("Expected the command to fail")
	}
	if !strings.Contains(out, "Corrupted input file") {
		t.Errorf("Output should carry the server message:\n%s", out)
	}
	if !strings.Contains(out, "Run the command again to retry.") {
		t.Errorf("Output should offer a retry:\n%s", out)
	}
}

func TestConvertCommand_SuccessFalseIsFailure(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	api.Respond(testutil.PathConvertFile, http.StatusOK, gin.H{"success": false, "message": "Unsupported codec"})
	input := testutil.CreateUploadFixture(t, dir, "clip.mp4", 32)

	out, err := executeCommand(t, "--config", configFile, "convert", "video", input, "--to", "webm")
	if err == nil {
		t.Fatal("Expected success=false to fail the command")
	}
	if !strings.Contains(out, "Unsupported codec") {
		t.Errorf("Output should carry the server message:\n%s", out)
	}
}

func TestConvertCommand_DownloadAndShare(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "photo.png", 32)
	outDir := filepath.Join(dir, "downloads")

	out, err := executeCommand(t, "--config", configFile, "convert", "image", input, "--to", "webp",
		"--download", outDir, "--share", "bob@example.com", "--message", "Here you go")
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "photo_0001.webp"))
	if err != nil {
		t.Fatalf("Downloaded file missing: %v", err)
	}
	if string(data) != "converted:photo_0001.webp" {
		t.Errorf("Downloaded content = %q", data)
	}

	shares := api.CallsTo(testutil.PathShareFile)
	if len(shares) != 1 {
		t.Fatalf("Expected one share call, got %d", len(shares))
	}
	if shares[0].JSON["filename"] != "photo_0001.webp" {
		t.Errorf("filename = %v, want photo_0001.webp", shares[0].JSON["filename"])
	}
	if shares[0].JSON["recipient_email"] != "bob@example.com" || shares[0].JSON["message"] != "Here you go" {
		t.Errorf("Unexpected share body: %v", shares[0].JSON)
	}
	if !strings.Contains(out, "File shared successfully (bob@example.com)") {
		t.Errorf("Output missing share notification:\n%s", out)
	}
}

func TestConvertCommand_BadShareAddressStillConverts(t *testing.T) {
	api, dir, configFile := newTestEnv(t, "")
	input := testutil.CreateUploadFixture(t, dir, "notes.txt", 16)

	out, err := executeCommand(t, "--config", configFile, "convert", "text", input, "--to", "md", "--share", "not-an-email")
	if err != nil {
		t.Fatalf("A share failure should not fail the conversion: %v", err)
	}
	if n := len(api.CallsTo(testutil.PathShareFile)); n != 0 {
		t.Errorf("Expected no share call for an invalid address, got %d", n)
	}
	if !strings.Contains(out, "notes_0001.md") {
		t.Errorf("Output missing the converted file:\n%s", out)
	}
}
