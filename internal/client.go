package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxResponseBytes = 4 << 20 // 4 MiB for JSON bodies
	defaultUserAgent = "fileconv"

	pathSupportedFormats = "/api/convert/supported-formats"
	pathConvertFile      = "/api/convert/file"
	pathShareFile        = "/api/files/share"
	pathChatCompletions  = "/api/chat/completions"
	pathChatModels       = "/api/chat/models"
	pathChatConvert      = "/api/chat/convert"
)

// Client is a thin typed wrapper over the conversion service REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	userAgent  string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ValidationError{Field: "base_url", Message: fmt.Sprintf("invalid API base URL %q", baseURL)}
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SupportedFormats fetches the format catalog.
func (c *Client) SupportedFormats(ctx context.Context) (Catalog, error) {
	body, status, err := c.send(ctx, http.MethodGet, pathSupportedFormats, nil, "")
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var raw map[string]FormatEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid supported-formats response: %w", err)
	}
	return normalizeCatalog(raw), nil
}

// ConvertFile uploads req.File and asks for req.TargetFormat.
func (c *Client) ConvertFile(ctx context.Context, req ConversionRequest) (*ConversionResult, error) {
	if req.File == nil {
		return nil, &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	body, status, err := c.sendMultipart(ctx, pathConvertFile, req.File, []formField{
		{"target_format", req.TargetFormat},
		{"conversion_type", string(req.ConversionType)},
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var result ConversionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid conversion response: %w", err)
	}
	return &result, nil
}

// ShareFile asks the backend to email a converted file.
func (c *Client) ShareFile(ctx context.Context, req ShareRequest) (*ShareResult, error) {
	req.RecipientEmail = strings.TrimSpace(req.RecipientEmail)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	body, status, err := c.sendJSON(ctx, http.MethodPost, pathShareFile, req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var result ShareResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid share response: %w", err)
	}
	return &result, nil
}

type chatResponseBody struct {
	Response string          `json:"response"`
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Error    string          `json:"error"`
	Action   json.RawMessage `json:"action"`
}

// ChatCompletion sends the full history and returns the reply with its validated action.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, status, err := c.sendJSON(ctx, http.MethodPost, pathChatCompletions, req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var decoded chatResponseBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("invalid chat response: %w", err)
	}
	if decoded.Error != "" {
		return nil, &ServerError{Status: status, Message: decoded.Error}
	}
	return &ChatResponse{
		Response: decoded.Response,
		ID:       decoded.ID,
		Model:    decoded.Model,
		Action:   ParseChatAction(decoded.Action),
	}, nil
}

// ChatModels lists the chat models the backend accepts. Missing list means none.
func (c *Client) ChatModels(ctx context.Context) ([]string, error) {
	body, status, err := c.send(ctx, http.MethodGet, pathChatModels, nil, "")
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var decoded struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("invalid chat models response: %w", err)
	}
	if decoded.Models == nil {
		return []string{}, nil
	}
	return decoded.Models, nil
}

// ChatConvert converts through the chat endpoint. A 200 carrying "error" or
// success=false is still a failure.
func (c *Client) ChatConvert(ctx context.Context, req ChatConversionRequest) (*ConversionResult, error) {
	if req.File == nil {
		return nil, &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	body, status, err := c.sendMultipart(ctx, pathChatConvert, req.File, []formField{
		{"conversion_type", string(req.ConversionType)},
		{"target_format", req.TargetFormat},
		{"user_message", req.UserMessage},
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, serverErrorFrom(status, body)
	}
	var result ConversionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid chat conversion response: %w", err)
	}
	if result.Error != "" {
		return nil, &ServerError{Status: status, Message: result.Error}
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "Conversion failed"
		}
		return nil, &ServerError{Status: status, Message: msg}
	}
	return &result, nil
}

// Download streams the converted file at downloadURL (relative or absolute) into w.
func (c *Client) Download(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	target := downloadURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = c.baseURL + target
	}
	op := "GET " + downloadURL
	req, requestID, err := c.newRequest(ctx, http.MethodGet, target, nil, "")
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, transportError(op, err)
	}
	defer resp.Body.Close()
	c.logRequest(req, resp.StatusCode, requestID, start)

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return 0, serverErrorFrom(resp.StatusCode, body)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, transportError(op, err)
	}
	return n, nil
}

type formField struct {
	name  string
	value string
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.send(ctx, method, path, bytes.NewReader(data), "application/json")
}

// sendMultipart streams the file part through a pipe so large uploads are never buffered.
func (c *Client) sendMultipart(ctx context.Context, path string, file *SelectedFile, fields []formField) ([]byte, int, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(writeMultipart(mw, file, fields))
	}()

	data, status, err := c.send(ctx, http.MethodPost, path, pr, mw.FormDataContentType())
	// Unblocks the writer when the request was never built or the server
	// answered before reading the whole body.
	pr.Close()
	<-written
	return data, status, err
}

func writeMultipart(mw *multipart.Writer, file *SelectedFile, fields []formField) error {
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	_ = src.Close()
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	return mw.Close()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Request, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, requestID, nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	op := method + " " + path
	req, requestID, err := c.newRequest(ctx, method, c.baseURL+path, body, contentType)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, transportError(op, err)
	}
	defer resp.Body.Close()
	c.logRequest(req, resp.StatusCode, requestID, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, transportError(op, err)
	}
	return data, resp.StatusCode, nil
}

func (c *Client) logRequest(req *http.Request, status int, requestID string, start time.Time) {
	LogFields(logrus.Fields{
		"method":      req.Method,
		"path":        req.URL.Path,
		"status":      status,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("api request")
}

func transportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Op: op, Err: fmt.Errorf("%w: %w", ErrRequestTimedOut, err)}
	}
	return &NetworkError{Op: op, Err: err}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// serverErrorFrom extracts the message from detail, then error, then message.
// FastAPI validation errors carry detail as a list of {msg}.
func serverErrorFrom(status int, body []byte) *ServerError {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &ServerError{Status: status}
	}
	if msg := detailMessage(payload.Detail); msg != "" {
		return &ServerError{Status: status, Message: msg}
	}
	if payload.Error != "" {
		return &ServerError{Status: status, Message: payload.Error}
	}
	return &ServerError{Status: status, Message: payload.Message}
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
