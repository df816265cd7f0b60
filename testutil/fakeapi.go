package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// API paths served by FakeAPI
const (
	PathSupportedFormats = "/api/convert/supported-formats"
	PathConvertFile      = "/api/convert/file"
	PathShareFile        = "/api/files/share"
	PathChatCompletions  = "/api/chat/completions"
	PathChatModels       = "/api/chat/models"
	PathChatConvert      = "/api/chat/convert"
)

// RecordedCall captures one request received by FakeAPI
type RecordedCall struct {
	Method      string
	Path        string
	Header      http.Header
	Fields      map[string]string
	FileName    string
	FileContent []byte
	JSON        map[string]interface{}
}

// FakeAPI is an in-process stand-in for the conversion backend
type FakeAPI struct {
	Server *httptest.Server
	URL    string

	mu       sync.Mutex
	calls    []RecordedCall
	handlers map[string]gin.HandlerFunc
}

// DefaultCatalog is the supported-formats payload served unless overridden
func DefaultCatalog() map[string]interface{} {
	return map[string]interface{}{
		"text":       gin.H{"input_formats": []string{"txt", "md", "html", "json", "csv"}, "output_formats": []string{"txt", "md", "html", "json", "csv"}},
		"document":   gin.H{"input_formats": []string{"doc", "docx", "pdf"}, "output_formats": []string{"pdf", "docx", "txt", "html"}},
		"image":      gin.H{"input_formats": []string{"jpg", "jpeg", "png", "gif", "bmp"}, "output_formats": []string{"png", "jpg", "webp", "gif"}},
		"audio":      gin.H{"input_formats": []string{"mp3", "wav", "ogg"}, "output_formats": []string{"mp3", "wav", "flac"}},
		"video":      gin.H{"input_formats": []string{"mp4", "avi", "mov"}, "output_formats": []string{"mp4", "webm", "gif"}},
		"compressed": gin.H{"input_formats": []string{"zip", "tar", "gz"}, "output_formats": []string{"zip", "tar", "7z"}},
	}
}

// NewFakeAPI starts a fake backend that is closed when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{handlers: map[string]gin.HandlerFunc{}}
	router := gin.New()
	router.Use(f.record)

	router.GET(PathSupportedFormats, f.dispatch(PathSupportedFormats, func(c *gin.Context) {
		c.JSON(http.StatusOK, DefaultCatalog())
	}))
	router.POST(PathConvertFile, f.dispatch(PathConvertFile, convertSuccess))
	router.POST(PathChatConvert, f.dispatch(PathChatConvert, convertSuccess))
	router.POST(PathShareFile, f.dispatch(PathShareFile, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "File shared successfully"})
	}))
	router.POST(PathChatCompletions, f.dispatch(PathChatCompletions, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"response": "Happy to help with your conversion."})
	}))
	router.GET(PathChatModels, f.dispatch(PathChatModels, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"models": []string{"llama3-8b-8192", "mixtral-8x7b-32768"}})
	}))
	router.GET("/outputs/*name", f.dispatch("/outputs", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", []byte("converted:"+strings.TrimPrefix(c.Param("name"), "/")))
	}))

	f.Server = httptest.NewServer(router)
	f.URL = f.Server.URL
	t.Cleanup(f.Server.Close)
	return f
}

// Handle overrides the handler for path
func (f *FakeAPI) Handle(path string, h gin.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

// Respond makes path answer with a fixed status and JSON body
func (f *FakeAPI) Respond(path string, status int, body interface{}) {
	f.Handle(path, func(c *gin.Context) {
		c.JSON(status, body)
	})
}

// RespondRaw makes path answer with a fixed status and raw body
func (f *FakeAPI) RespondRaw(path string, status int, body string) {
	f.Handle(path, func(c *gin.Context) {
		c.Data(status, "application/json", []byte(body))
	})
}

// Calls returns every recorded request
func (f *FakeAPI) Calls() []RecordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded requests for path
func (f *FakeAPI) CallsTo(path string) []RecordedCall {
	var out []RecordedCall
	for _, call := range f.Calls() {
		if call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

func (f *FakeAPI) dispatch(path string, fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		h, ok := f.handlers[path]
		f.mu.Unlock()
		if ok {
			h(c)
			return
		}
		fallback(c)
	}
}

// record captures multipart fields, uploaded file, or JSON body before the handler runs.
func (f *FakeAPI) record(c *gin.Context) {
	call := RecordedCall{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Header: c.Request.Header.Clone(),
		Fields: map[string]string{},
	}

	contentType := c.GetHeader("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					call.Fields[key] = values[0]
				}
			}
			if files := form.File["file"]; len(files) > 0 {
				call.FileName = files[0].Filename
				if src, err := files[0].Open(); err == nil {
					call.FileContent, _ = io.ReadAll(src)
					_ = src.Close()
				}
			}
		}
	case strings.HasPrefix(contentType, "application/json"):
		if data, err := c.GetRawData(); err == nil {
			_ = json.Unmarshal(data, &call.JSON)
			c.Request.Body = io.NopCloser(strings.NewReader(string(data)))
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	c.Next()
}

func convertSuccess(c *gin.Context) {
	target := c.PostForm("target_format")
	base := "converted"
	if fh, err := c.FormFile("file"); err == nil {
		name := path.Base(fh.Filename)
		base = strings.TrimSuffix(name, path.Ext(name))
	}
	output := base + "_0001." + target
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "File converted successfully",
		"file_path":    "outputs/" + output,
		"download_url": "/outputs/" + output,
	})
}
