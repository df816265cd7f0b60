package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultChatTimeout        = 30 * time.Second
	DefaultChatConvertTimeout = 5 * time.Minute
	DefaultChatTemperature    = 0.7
	DefaultChatMaxTokens      = 1024
)

// ChatCompleter is the completion half of the chat API
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatConverter is the conversion half of the chat API
type ChatConverter interface {
	ChatConvert(ctx context.Context, req ChatConversionRequest) (*ConversionResult, error)
}

// ChatService is everything the bridge needs from the backend
type ChatService interface {
	ChatCompleter
	ChatConverter
}

// ChatSettings configures a ChatBridge. Zero values take the defaults; a nil
// Temperature means DefaultChatTemperature, so an explicit 0 is kept.
type ChatSettings struct {
	Language       string
	Model          string
	Temperature    *float64
	MaxTokens      int
	Timeout        time.Duration
	ConvertTimeout time.Duration
	Identity       Identity
}

func (s ChatSettings) withDefaults() ChatSettings {
	if _, ok := LookupLanguage(s.Language); !ok {
		s.Language = DefaultLanguage
	}
	s.Language = strings.ToLower(s.Language)
	if s.Temperature == nil {
		temp := DefaultChatTemperature
		s.Temperature = &temp
	} else {
		temp := *s.Temperature
		s.Temperature = &temp
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultChatMaxTokens
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultChatTimeout
	}
	if s.ConvertTimeout <= 0 {
		s.ConvertTimeout = DefaultChatConvertTimeout
	}
	return s
}

// ChatState is the status of the most recent chat round trip
type ChatState int

const (
	ChatIdle ChatState = iota
	ChatPending
	ChatFailed
)

func (s ChatState) String() string {
	switch s {
	case ChatIdle:
		return "idle"
	case ChatPending:
		return "pending"
	case ChatFailed:
		return "failed"
	default:
		return fmt.Sprintf("ChatState(%d)", int(s))
	}
}

// ChatReply is what one SendMessage produced
type ChatReply struct {
	Message ChatMessage
	Intent  *ChatConversionIntent
	Kind    ErrorKind
}

// ChatTranscript is a saved copy of a chat session
type ChatTranscript struct {
	ID        string        `json:"id" yaml:"id"`
	Language  string        `json:"language" yaml:"language"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	SavedAt   time.Time     `json:"saved_at" yaml:"saved_at"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
}

// ChatBridge owns a chat session: history, the in-flight request and any
// conversion intent the assistant has armed.
type ChatBridge struct {
	mu         sync.Mutex
	id         string
	startedAt  time.Time
	service    ChatService
	settings   ChatSettings
	history    []ChatMessage
	state      ChatState
	lastKind   ErrorKind
	generation uint64
	intent     *ChatConversionIntent
	trigger    string
	intake     *UploadIntake
	session    *SessionController
}

// NewChatBridge starts a session seeded with the welcome message.
func NewChatBridge(service ChatService, settings ChatSettings) *ChatBridge {
	settings = settings.withDefaults()
	return &ChatBridge{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		service:   service,
		settings:  settings,
		history:   []ChatMessage{{Role: RoleAssistant, Content: WelcomeMessage(settings.Language)}},
		intake:    NewUploadIntake(""),
	}
}

// Language returns the active language code.
func (b *ChatBridge) Language() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Language
}

// Model returns the configured model, empty for the backend default.
func (b *ChatBridge) Model() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Model
}

// SetModel selects the chat model for subsequent requests.
func (b *ChatBridge) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.Model = strings.TrimSpace(model)
}

// SetTemperature sets the sampling temperature, which must be within [0, 2].
func (b *ChatBridge) SetTemperature(temp float64) error {
	if temp < 0 || temp > 2 {
		return &ValidationError{Field: "temperature", Message: "temperature must be between 0 and 2"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.Temperature = &temp
	return nil
}

// SetLanguage switches language and resets history to the new welcome
// message. A reply still in flight is discarded when it lands.
func (b *ChatBridge) SetLanguage(code string) error {
	lang, ok := LookupLanguage(code)
	if !ok {
		return &ValidationError{Field: "language", Message: fmt.Sprintf("unsupported language %q", code)}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.Language = lang.Code
	b.history = []ChatMessage{{Role: RoleAssistant, Content: WelcomeMessage(lang.Code)}}
	b.generation++
	b.state = ChatIdle
	b.lastKind = KindNone
	LogDebug("Chat language set to %s", lang.Name)
	return nil
}

// History returns a copy of the visible conversation.
func (b *ChatBridge) History() []ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ChatMessage, len(b.history))
	copy(out, b.history)
	return out
}

// Transcript snapshots the session for export.
func (b *ChatBridge) Transcript() *ChatTranscript {
	b.mu.Lock()
	defer b.mu.Unlock()
	messages := make([]ChatMessage, len(b.history))
	copy(messages, b.history)
	return &ChatTranscript{
		ID:        b.id,
		Language:  b.settings.Language,
		Model:     b.settings.Model,
		StartedAt: b.startedAt,
		SavedAt:   time.Now(),
		Messages:  messages,
	}
}

// State returns the status of the latest round trip and, when failed, its kind.
func (b *ChatBridge) State() (ChatState, ErrorKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.lastKind
}

// ArmedIntent returns the pending conversion intent, or nil.
func (b *ChatBridge) ArmedIntent() *ChatConversionIntent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.intent == nil {
		return nil
	}
	intent := *b.intent
	return &intent
}

// Intake exposes the chat upload slot.
func (b *ChatBridge) Intake() *UploadIntake {
	return b.intake
}

// Session returns the controller of the latest chat-triggered conversion, or nil.
func (b *ChatBridge) Session() *SessionController {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// SendMessage appends text as a user message and asks the assistant. The
// call races a fixed timer; whichever finishes first decides the outcome and
// the other is ignored. Failures are appended to the history as a localized
// assistant message and also returned.
func (b *ChatBridge) SendMessage(ctx context.Context, text string) (ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatReply{}, &ValidationError{Field: "message", Message: "Please enter a message"}
	}

	b.mu.Lock()
	if b.state == ChatPending {
		b.mu.Unlock()
		return ChatReply{}, ErrAlreadyInProgress
	}
	b.history = append(b.history, ChatMessage{Role: RoleUser, Content: text})
	req := b.requestLocked()
	b.state = ChatPending
	b.generation++
	gen := b.generation
	timeout := b.settings.Timeout
	b.mu.Unlock()

	resp, err := b.complete(ctx, req, timeout)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generation != gen {
		LogDebug("Discarding chat reply for a superseded request")
		return ChatReply{}, ErrStaleResponse
	}

	if err != nil {
		kind := ErrorKindOf(err)
		msg := ChatMessage{Role: RoleAssistant, Content: LocalizedChatError(b.settings.Language, kind)}
		b.history = append(b.history, msg)
		b.state = ChatFailed
		b.lastKind = kind
		LogFields(logrus.Fields{"kind": kind.String(), "model": req.Model}).Warnf("Chat request failed: %v", err)
		return ChatReply{Message: msg, Kind: kind}, err
	}

	msg := ChatMessage{Role: RoleAssistant, Content: resp.Response}
	b.history = append(b.history, msg)
	b.state = ChatIdle
	b.lastKind = KindNone
	reply := ChatReply{Message: msg}

	if resp.Action.Kind == ActionConversionIntent && resp.Action.Intent != nil {
		intent := *resp.Action.Intent
		b.intent = &intent
		b.trigger = text
		b.intake.Clear()
		b.intake.SetConversionType(intent.ConversionType)
		reply.Intent = &intent
		LogInfo("Armed %s conversion to %s", intent.ConversionType, intent.TargetFormat)
	}
	return reply, nil
}

// complete runs the completion call against the timer. The call's own
// context is cancelled once either side wins.
func (b *ChatBridge) complete(ctx context.Context, req ChatRequest, timeout time.Duration) (*ChatResponse, error) {
	type outcome struct {
		resp *ChatResponse
		err  error
	}
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		resp, err := b.service.ChatCompletion(callCtx, req)
		done <- outcome{resp, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err == nil && out.resp == nil {
			return nil, &ServerError{Status: 200, Message: "Empty response from server"}
		}
		return out.resp, out.err
	case <-timer.C:
		return nil, ErrRequestTimedOut
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *ChatBridge) requestLocked() ChatRequest {
	messages := make([]ChatMessage, 0, len(b.history)+1)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: SystemPrompt(b.settings.Language)})
	messages = append(messages, b.history...)
	temp := *b.settings.Temperature
	return ChatRequest{
		Messages:    messages,
		Temperature: &temp,
		Model:       b.settings.Model,
		MaxTokens:   b.settings.MaxTokens,
	}
}

// AttachFile puts file into the armed upload slot.
func (b *ChatBridge) AttachFile(file *SelectedFile) error {
	if file == nil {
		return &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.intent == nil {
		return ErrNoIntent
	}
	b.intake.Select(file)
	return nil
}

// CancelUpload drops the armed intent and any attached file. Nothing is sent.
func (b *ChatBridge) CancelUpload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.intent != nil {
		LogDebug("Cancelled %s upload", b.intent.TargetFormat)
	}
	b.intent = nil
	b.trigger = ""
	b.intake.Clear()
}

// ConvertWithIntent sends the attached file through the chat conversion
// endpoint using the armed intent and the message that triggered it. The
// intent is consumed whatever the outcome, and a summary is appended to the
// history.
func (b *ChatBridge) ConvertWithIntent(ctx context.Context) (*ConversionResult, error) {
	b.mu.Lock()
	if b.intent == nil {
		b.mu.Unlock()
		return nil, ErrNoIntent
	}
	file := b.intake.File()
	if file == nil {
		b.mu.Unlock()
		return nil, &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	intent := *b.intent
	trigger := b.trigger
	b.intent = nil
	b.trigger = ""
	b.intake.Clear()

	converter := ConverterFunc(func(ctx context.Context, req ConversionRequest) (*ConversionResult, error) {
		return b.service.ChatConvert(ctx, ChatConversionRequest{
			File:           req.File,
			ConversionType: req.ConversionType,
			TargetFormat:   req.TargetFormat,
			UserMessage:    trigger,
		})
	})
	session := NewSessionController(converter, nil, b.settings.Identity)
	b.session = session
	timeout := b.settings.ConvertTimeout
	b.mu.Unlock()

	convCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := session.Submit(convCtx, file, intent.TargetFormat, intent.ConversionType)

	var summary string
	if err != nil {
		_, summary = FriendlyConversionError(err)
	} else {
		summary = fmt.Sprintf("Your file has been converted to %s: %s", result.Extension(), result.DownloadURL)
	}
	b.mu.Lock()
	b.history = append(b.history, ChatMessage{Role: RoleAssistant, Content: summary})
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return result, nil
}
