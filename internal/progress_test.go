package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := ShowProgress(ctx, "Testing", func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	// Should handle context cancellation gracefully
	_ = err
}

func TestShowProgressWithSteps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   []ProgressStep
		wantErr bool
	}{
		{
			name: "successful steps",
			steps: []ProgressStep{
				{Message: "Step 1", Fn: func() error { return nil }},
				{Message: "Step 2", Fn: func() error { return nil }},
			},
			wantErr: false,
		},
		{
			name: "step with error",
			steps: []ProgressStep{
				{Message: "Step 1", Fn: func() error { return nil }},
				{Message: "Step 2", Fn: func() error { return errors.New("step error") }},
			},
			wantErr: true,
		},
		{
			name:    "empty steps",
			steps:   []ProgressStep{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgressWithSteps(ctx, tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgressWithSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProgressStep(t *testing.T) {
	step := ProgressStep{
		Message: "Test step",
		Fn: func() error {
			return nil
		},
	}

	if step.Message != "Test step" {
		t.Errorf("ProgressStep.Message = %q, want 'Test step'", step.Message)
	}

	if step.Fn == nil {
		t.Error("ProgressStep.Fn should not be nil")
	}

	err := step.Fn()
	if err != nil {
		t.Errorf("ProgressStep.Fn() error = %v, want nil", err)
	}
}

func TestSpin_RendersOutcome(t *testing.T) {
	var buf bytes.Buffer
	s := spinner.Spinner{Frames: []string{"-", "+"}, FPS: time.Millisecond}

	err := spin(context.Background(), &buf, s, "Converting report.docx", func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("spin() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Converting report.docx") || !strings.HasSuffix(out, "\n") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	if err := spin(context.Background(), &buf, s, "Fails", func() error { return errors.New("boom") }); err == nil {
		t.Error("spin() should return fn's error")
	}
	if !strings.Contains(buf.String(), "✗") {
		t.Errorf("failure marker missing: %q", buf.String())
	}
}

func TestSpin_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := spin(ctx, &buf, spinner.Dot, "Waiting", func() error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("spin() error = %v, want context.Canceled", err)
	}
	if !strings.Contains(buf.String(), "⚠") {
		t.Errorf("cancel marker missing: %q", buf.String())
	}
}

func TestSpin_WaitsForStepAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The step writes after ctx is done; spin must not return before it finishes.
	var result string
	err := spin(ctx, io.Discard, spinner.Dot, "Converting", func() error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		result = "report_0001.pdf"
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("spin() error = %v, want context.Canceled", err)
	}
	if result != "report_0001.pdf" {
		t.Errorf("result = %q; spin returned before the step finished", result)
	}
}

func TestShowProgress_LogsMessageVerbatim(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetLogLevel(LogLevelInfo)
	defer SetLogOutput(os.Stderr)

	// Test output is not a terminal, so the message goes to the log.
	err := ShowProgress(context.Background(), "Converting 100%sure.docx to pdf", func() error { return nil })
	if err != nil {
		t.Fatalf("ShowProgress() error = %v", err)
	}
	if !strings.Contains(buf.String(), "100%sure.docx") {
		t.Errorf("log output = %q, want the file name untouched", buf.String())
	}
	if strings.Contains(buf.String(), "MISSING") {
		t.Errorf("message was treated as a format string: %q", buf.String())
	}
}
