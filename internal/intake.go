package internal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SelectedFile is the one file a session works on. Replaced wholesale, never mutated.
type SelectedFile struct {
	Name      string
	Size      int64
	Path      string // empty for in-memory files
	Extension string

	open func() (io.ReadCloser, error)
}

// FileExtension returns the lower-cased substring after the last '.'.
// A name without '.' yields the whole name.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return strings.ToLower(name)
	}
	return strings.ToLower(name[idx+1:])
}

// NewSelectedFile stats path and returns a handle that opens it lazily.
func NewSelectedFile(path string) (*SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory", path)}
	}
	name := filepath.Base(path)
	return &SelectedFile{
		Name:      name,
		Size:      info.Size(),
		Path:      path,
		Extension: FileExtension(name),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewSelectedFileFromBytes wraps in-memory content.
func NewSelectedFileFromBytes(name string, data []byte) *SelectedFile {
	return &SelectedFile{
		Name:      name,
		Size:      int64(len(data)),
		Extension: FileExtension(name),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file content.
func (f *SelectedFile) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	return f.open()
}

// IsValidFile is true when file is absent, or its extension is a listed
// input format for t. A catalog without t never validates a present file.
func IsValidFile(file *SelectedFile, catalog Catalog, t ConversionType) bool {
	if file == nil {
		return true
	}
	entry, ok := catalog[t]
	if !ok {
		return false
	}
	return entry.AcceptsInput(FileExtension(file.Name))
}

// UploadIntake holds at most one selected file for a conversion type
type UploadIntake struct {
	mu             sync.Mutex
	file           *SelectedFile
	conversionType ConversionType
}

// NewUploadIntake creates an empty intake for t
func NewUploadIntake(t ConversionType) *UploadIntake {
	return &UploadIntake{conversionType: t}
}

// Select replaces the current file unconditionally. Validity is queried, not enforced.
func (u *UploadIntake) Select(file *SelectedFile) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.file = file
}

// File returns the current selection, or nil.
func (u *UploadIntake) File() *SelectedFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.file
}

// Clear drops the current selection.
func (u *UploadIntake) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.file = nil
}

// ConversionType returns the type the intake validates against.
func (u *UploadIntake) ConversionType() ConversionType {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conversionType
}

// SetConversionType re-scopes the intake (used when a chat intent arms it).
func (u *UploadIntake) SetConversionType(t ConversionType) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.conversionType = t
}

// IsValid evaluates the current selection against catalog.
func (u *UploadIntake) IsValid(catalog Catalog) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return IsValidFile(u.file, catalog, u.conversionType)
}

// Warning returns the inline warning for an invalid selection, or "".
func (u *UploadIntake) Warning(catalog Catalog) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if IsValidFile(u.file, catalog, u.conversionType) {
		return ""
	}
	return unsupportedInputMessage(u.file, catalog, u.conversionType)
}

func unsupportedInputMessage(file *SelectedFile, catalog Catalog, t ConversionType) string {
	msg := fmt.Sprintf("File type .%s is not supported for %s conversion.", FileExtension(file.Name), t)
	if entry, ok := catalog[t]; ok && len(entry.InputFormats) > 0 {
		msg += " Supported formats: " + strings.Join(entry.InputFormats, ", ")
	}
	return msg
}
