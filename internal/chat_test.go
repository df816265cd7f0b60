package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iksnae/fileconv/testutil"
)

// blockingChat answers only after release is closed, ignoring its context.
type blockingChat struct {
	mu       sync.Mutex
	started  chan struct{}
	release  chan struct{}
	response *ChatResponse
	requests []ChatRequest
}

func newBlockingChat() *blockingChat {
	return &blockingChat{
		started:  make(chan struct{}, 4),
		release:  make(chan struct{}),
		response: &ChatResponse{Response: "late answer"},
	}
}

func (s *blockingChat) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	s.started <- struct{}{}
	<-s.release
	return s.response, nil
}

func (s *blockingChat) ChatConvert(ctx context.Context, req ChatConversionRequest) (*ConversionResult, error) {
	return nil, errors.New("not used")
}

func intentResponse(conversionType, target string) gin.H {
	return gin.H{
		"response": "Sure, upload your file and I'll convert it.",
		"action": gin.H{
			"type": "conversion_intent",
			"data": gin.H{"conversion_type": conversionType, "target_format": target},
		},
	}
}

func TestChatBridge_IntentDrivesChatConvert(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(testutil.PathChatCompletions, http.StatusOK, intentResponse("image", "png"))
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{})

	reply, err := bridge.SendMessage(context.Background(), "convert my photo to png")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if reply.Intent == nil || reply.Intent.ConversionType != ConversionImage || reply.Intent.TargetFormat != "png" {
		t.Fatalf("reply.Intent = %+v", reply.Intent)
	}
	if bridge.Intake().ConversionType() != ConversionImage {
		t.Errorf("intake should be armed for image, got %q", bridge.Intake().ConversionType())
	}

	if err := bridge.AttachFile(NewSelectedFileFromBytes("scan.tiff", []byte("raw"))); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}
	result, err := bridge.ConvertWithIntent(context.Background())
	if err != nil {
		t.Fatalf("ConvertWithIntent() error = %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v", result)
	}

	calls := api.CallsTo(testutil.PathChatConvert)
	if len(calls) != 1 {
		t.Fatalf("expected one chat conversion call, got %d", len(calls))
	}
	call := calls[0]
	if call.Fields["conversion_type"] != "image" || call.Fields["target_format"] != "png" {
		t.Errorf("fields = %v", call.Fields)
	}
	if call.Fields["user_message"] != "convert my photo to png" {
		t.Errorf("user_message = %q", call.Fields["user_message"])
	}
	if call.FileName != "scan.tiff" || string(call.FileContent) != "raw" {
		t.Errorf("file = %q %q", call.FileName, call.FileContent)
	}
	if len(api.CallsTo(testutil.PathConvertFile)) != 0 {
		t.Error("chat conversions must not use the direct conversion endpoint")
	}

	if bridge.ArmedIntent() != nil || bridge.Intake().File() != nil {
		t.Error("intent and file should be consumed")
	}
	history := bridge.History()
	if last := history[len(history)-1]; last.Role != RoleAssistant || !strings.Contains(last.Content, "PNG") {
		t.Errorf("last message = %+v", last)
	}
	if bridge.Session() == nil || bridge.Session().State() != StateSucceeded {
		t.Error("conversion session should have succeeded")
	}
}

func TestChatBridge_ZeroTemperatureKept(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	zero := 0.0
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{Temperature: &zero})

	if _, err := bridge.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	calls := api.CallsTo(testutil.PathChatCompletions)
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	temp, ok := calls[0].JSON["temperature"]
	if !ok || temp != float64(0) {
		t.Errorf("temperature = %v (present %v), want 0", temp, ok)
	}
}

func TestChatBridge_RequestShape(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{Language: "de", Model: "mixtral-8x7b-32768"})

	if _, err := bridge.SendMessage(context.Background(), "  Hallo  "); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	calls := api.CallsTo(testutil.PathChatCompletions)
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	body := calls[0].JSON
	if body["model"] != "mixtral-8x7b-32768" || body["max_tokens"] != float64(DefaultChatMaxTokens) || body["temperature"] != DefaultChatTemperature {
		t.Errorf("body = %v", body)
	}
	messages, _ := body["messages"].([]interface{})
	if len(messages) != 3 {
		t.Fatalf("messages = %v", messages)
	}
	system := messages[0].(map[string]interface{})
	if system["role"] != "system" || !strings.Contains(system["content"].(string), "respond in German") {
		t.Errorf("system message = %v", system)
	}
	if welcome := messages[1].(map[string]interface{}); welcome["content"] != WelcomeMessage("de") {
		t.Errorf("welcome = %v", welcome)
	}
	if user := messages[2].(map[string]interface{}); user["role"] != "user" || user["content"] != "Hallo" {
		t.Errorf("user message = %v", user)
	}

	history := bridge.History()
	if len(history) != 3 || history[2].Content != "Happy to help with your conversion." {
		t.Errorf("history = %+v", history)
	}
}

func TestChatBridge_TimeoutIgnoresLateReply(t *testing.T) {
	svc := newBlockingChat()
	bridge := NewChatBridge(svc, ChatSettings{Language: "es", Timeout: 20 * time.Millisecond})

	reply, err := bridge.SendMessage(context.Background(), "hola")
	if !errors.Is(err, ErrRequestTimedOut) {
		t.Fatalf("err = %v, want ErrRequestTimedOut", err)
	}
	if reply.Kind != KindRequestTimedOut {
		t.Errorf("kind = %v", reply.Kind)
	}
	if state, kind := bridge.State(); state != ChatFailed || kind != KindRequestTimedOut {
		t.Errorf("state = %v/%v", state, kind)
	}
	want := LocalizedChatError("es", KindRequestTimedOut)
	history := bridge.History()
	if history[len(history)-1].Content != want {
		t.Errorf("last message = %q, want %q", history[len(history)-1].Content, want)
	}

	close(svc.release)
	time.Sleep(20 * time.Millisecond)
	if got := bridge.History(); len(got) != len(history) {
		t.Errorf("late reply leaked into history: %+v", got)
	}
}

func TestChatBridge_ErrorKindsAreLocalized(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"unavailable", http.StatusServiceUnavailable, `{"detail":"Groq API unavailable"}`, KindServiceUnavailable},
		{"server", http.StatusInternalServerError, `{"detail":"boom"}`, KindServer},
		{"error field on 200", http.StatusOK, `{"error":"model overloaded"}`, KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := testutil.NewFakeAPI(t)
			api.RespondRaw(testutil.PathChatCompletions, tt.status, tt.body)
			bridge := NewChatBridge(newTestClient(t, api), ChatSettings{Language: "fr"})

			reply, err := bridge.SendMessage(context.Background(), "bonjour")
			if err == nil {
				t.Fatal("expected failure")
			}
			if reply.Kind != tt.want {
				t.Errorf("kind = %v, want %v", reply.Kind, tt.want)
			}
			if reply.Message.Content != LocalizedChatError("fr", tt.want) {
				t.Errorf("message = %q", reply.Message.Content)
			}
		})
	}

	api := testutil.NewFakeAPI(t)
	client := newTestClient(t, api)
	api.Server.Close()
	reply, err := NewChatBridge(client, ChatSettings{}).SendMessage(context.Background(), "hi")
	if ErrorKindOf(err) != KindNetwork || reply.Message.Content != LocalizedChatError("en", KindNetwork) {
		t.Errorf("network failure: kind %v message %q", ErrorKindOf(err), reply.Message.Content)
	}
}

func TestChatBridge_RejectsConcurrentSend(t *testing.T) {
	svc := newBlockingChat()
	bridge := NewChatBridge(svc, ChatSettings{})

	done := make(chan error, 1)
	go func() {
		_, err := bridge.SendMessage(context.Background(), "first")
		done <- err
	}()
	<-svc.started

	if _, err := bridge.SendMessage(context.Background(), "second"); !errors.Is(err, ErrAlreadyInProgress) {
		t.Errorf("second send error = %v, want ErrAlreadyInProgress", err)
	}
	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("first send error = %v", err)
	}

	history := bridge.History()
	if len(history) != 3 || history[1].Content != "first" || history[2].Content != "late answer" {
		t.Errorf("history = %+v", history)
	}
}

func TestChatBridge_LanguageSwitchDiscardsInFlightReply(t *testing.T) {
	svc := newBlockingChat()
	bridge := NewChatBridge(svc, ChatSettings{})

	done := make(chan error, 1)
	go func() {
		_, err := bridge.SendMessage(context.Background(), "hello")
		done <- err
	}()
	<-svc.started

	if err := bridge.SetLanguage("fr"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	close(svc.release)
	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Errorf("err = %v, want ErrStaleResponse", err)
	}

	history := bridge.History()
	if len(history) != 1 || history[0].Content != WelcomeMessage("fr") {
		t.Errorf("history = %+v", history)
	}
	if err := bridge.SetLanguage("xx"); ErrorKindOf(err) != KindValidation {
		t.Errorf("unknown language error = %v", err)
	}
}

func TestChatBridge_CancelUploadSendsNothing(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(testutil.PathChatCompletions, http.StatusOK, intentResponse("document", "pdf"))
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{})

	if _, err := bridge.SendMessage(context.Background(), "make this a pdf"); err != nil {
		t.Fatal(err)
	}
	if err := bridge.AttachFile(NewSelectedFileFromBytes("notes.docx", nil)); err != nil {
		t.Fatal(err)
	}
	bridge.CancelUpload()

	if bridge.ArmedIntent() != nil || bridge.Intake().File() != nil {
		t.Error("cancel should clear intent and file")
	}
	if _, err := bridge.ConvertWithIntent(context.Background()); !errors.Is(err, ErrNoIntent) {
		t.Errorf("ConvertWithIntent() after cancel = %v, want ErrNoIntent", err)
	}
	if err := bridge.AttachFile(NewSelectedFileFromBytes("x.docx", nil)); !errors.Is(err, ErrNoIntent) {
		t.Errorf("AttachFile() without intent = %v", err)
	}
	if n := len(api.CallsTo(testutil.PathChatConvert)); n != 0 {
		t.Errorf("chat conversion called %d times", n)
	}
}

func TestChatBridge_MalformedActionArmsNothing(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(testutil.PathChatCompletions, http.StatusOK, gin.H{
		"response": "ok",
		"action":   gin.H{"type": "conversion_intent", "data": "png please"},
	})
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{})

	reply, err := bridge.SendMessage(context.Background(), "png")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Intent != nil || bridge.ArmedIntent() != nil {
		t.Error("malformed action must not arm an intent")
	}
}

func TestChatBridge_ConversionFailureIsFriendly(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Respond(testutil.PathChatCompletions, http.StatusOK, intentResponse("video", "webm"))
	api.Respond(testutil.PathChatConvert, http.StatusOK, gin.H{"success": false, "error": "File too large for conversion"})
	bridge := NewChatBridge(newTestClient(t, api), ChatSettings{})

	if _, err := bridge.SendMessage(context.Background(), "webm please"); err != nil {
		t.Fatal(err)
	}
	if err := bridge.AttachFile(NewSelectedFileFromBytes("clip.mp4", []byte("v"))); err != nil {
		t.Fatal(err)
	}
	if _, err := bridge.ConvertWithIntent(context.Background()); ErrorKindOf(err) != KindServer {
		t.Fatalf("err = %v, want server error", err)
	}

	history := bridge.History()
	last := history[len(history)-1].Content
	if !strings.Contains(last, HintMessage(HintFileTooLarge)) || !strings.Contains(last, "File too large for conversion") {
		t.Errorf("last message = %q", last)
	}
	if bridge.ArmedIntent() != nil {
		t.Error("intent should be consumed after a failed conversion")
	}
	if bridge.Session().State() != StateFailed {
		t.Errorf("session state = %v", bridge.Session().State())
	}
}

func TestChatBridge_Settings(t *testing.T) {
	bridge := NewChatBridge(newBlockingChat(), ChatSettings{Language: "ZZ"})
	if bridge.Language() != "en" {
		t.Errorf("unknown language should default to en, got %q", bridge.Language())
	}
	if err := bridge.SetTemperature(3); ErrorKindOf(err) != KindValidation {
		t.Errorf("SetTemperature(3) = %v", err)
	}
	bridge.SetModel(" llama3-8b-8192 ")
	if bridge.Model() != "llama3-8b-8192" {
		t.Errorf("Model() = %q", bridge.Model())
	}
	if _, err := bridge.SendMessage(context.Background(), "   "); ErrorKindOf(err) != KindValidation {
		t.Errorf("empty message error = %v", err)
	}
}
