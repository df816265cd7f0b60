package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionState is the conversion session state machine
type SessionState int

const (
	StateIdle SessionState = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// ConversionFailedMessage is the fallback when nothing better is known.
const ConversionFailedMessage = "File conversion failed"

// Converter performs one conversion call against the backend
type Converter interface {
	ConvertFile(ctx context.Context, req ConversionRequest) (*ConversionResult, error)
}

// ConverterFunc adapts a function to Converter
type ConverterFunc func(ctx context.Context, req ConversionRequest) (*ConversionResult, error)

// ConvertFile calls f
func (f ConverterFunc) ConvertFile(ctx context.Context, req ConversionRequest) (*ConversionResult, error) {
	return f(ctx, req)
}

// SessionSnapshot is an immutable view of controller state for presenters
type SessionSnapshot struct {
	State           SessionState
	Request         *ConversionRequest
	Result          *ConversionResult
	Err             error
	ErrorMessage    string
	ValidationError string
}

// SessionController drives one file through Idle -> Submitting -> Succeeded|Failed
type SessionController struct {
	mu         sync.Mutex
	converter  Converter
	catalog    Catalog
	identity   Identity
	state      SessionState
	request    *ConversionRequest
	result     *ConversionResult
	err        error
	validation string
	generation uint64
	observers  []func(SessionSnapshot)
}

// NewSessionController creates an idle controller. A nil catalog skips
// extension checks (chat-triggered uploads accept any file).
func NewSessionController(converter Converter, catalog Catalog, identity Identity) *SessionController {
	return &SessionController{
		converter: converter,
		catalog:   catalog,
		identity:  identity,
	}
}

// OnChange registers fn to receive a snapshot after every transition.
func (c *SessionController) OnChange(fn func(SessionSnapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Snapshot returns the current state.
func (c *SessionController) Snapshot() SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state.
func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset returns to Idle, discarding the result and any in-flight outcome.
func (c *SessionController) Reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.request = nil
	c.result = nil
	c.err = nil
	c.validation = ""
	c.generation++
	snap, observers := c.snapshotLocked(), c.observers
	c.mu.Unlock()
	notify(observers, snap)
}

// Submit validates locally, then performs exactly one conversion call.
// Validation failures keep the session Idle and never reach the network.
func (c *SessionController) Submit(ctx context.Context, file *SelectedFile, targetFormat string, t ConversionType) (*ConversionResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return nil, ErrAlreadyInProgress
	case StateSucceeded, StateFailed:
		c.mu.Unlock()
		return nil, ErrNotIdle
	}

	if err := c.validateLocked(file, targetFormat, t); err != nil {
		c.validation = UserMessage(err, err.Error())
		snap, observers := c.snapshotLocked(), c.observers
		c.mu.Unlock()
		notify(observers, snap)
		return nil, err
	}

	req := &ConversionRequest{File: file, ConversionType: t, TargetFormat: targetFormat}
	c.state = StateSubmitting
	c.request = req
	c.validation = ""
	c.generation++
	gen := c.generation
	snap, observers := c.snapshotLocked(), c.observers
	c.mu.Unlock()
	notify(observers, snap)

	entry := LogFields(logrus.Fields{
		"file":            file.Name,
		"size":            file.Size,
		"conversion_type": t,
		"target_format":   targetFormat,
	})
	if c.identity.SignedIn() {
		entry = entry.WithField("user", c.identity.Email)
	}
	entry.Info("Submitting conversion")

	result, err := c.converter.ConvertFile(ctx, *req)
	if err == nil && (result == nil || !result.Success) {
		err = failedResultError(result)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		LogDebug("Discarding conversion outcome for a reset session")
		return result, ErrStaleResponse
	}
	if err != nil {
		c.state = StateFailed
		c.err = err
		c.result = nil
	} else {
		c.state = StateSucceeded
		c.result = result
		c.err = nil
	}
	snap, observers = c.snapshotLocked(), c.observers
	c.mu.Unlock()
	notify(observers, snap)

	if err != nil {
		LogWarn("Conversion failed: %v", err)
		return nil, err
	}
	LogInfo("Conversion succeeded: %s", result.DownloadURL)
	return result, nil
}

func (c *SessionController) validateLocked(file *SelectedFile, targetFormat string, t ConversionType) error {
	if file == nil {
		return &ValidationError{Field: "file", Message: "Please select a file to convert"}
	}
	if targetFormat == "" {
		return &ValidationError{Field: "target_format", Message: "Please select a target format"}
	}
	if c.catalog == nil {
		return nil
	}
	entry, err := c.catalog.Entry(t)
	if err != nil {
		return err
	}
	if !entry.AcceptsInput(FileExtension(file.Name)) {
		return &ValidationError{Field: "file", Message: unsupportedInputMessage(file, c.catalog, t)}
	}
	if !entry.AcceptsOutput(targetFormat) {
		return &ValidationError{
			Field:   "target_format",
			Message: fmt.Sprintf("Target format %s is not supported for %s conversion. Supported formats: %s", targetFormat, t, joinOrDash(entry.OutputFormats)),
		}
	}
	return nil
}

func (c *SessionController) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		State:           c.state,
		Request:         c.request,
		Result:          c.result,
		Err:             c.err,
		ValidationError: c.validation,
	}
	if c.err != nil {
		snap.ErrorMessage = UserMessage(c.err, ConversionFailedMessage)
	}
	return snap
}

func failedResultError(result *ConversionResult) error {
	if result == nil {
		return &ServerError{Status: 200, Message: "Empty response from server"}
	}
	msg := result.Error
	if msg == "" {
		msg = result.Message
	}
	return &ServerError{Status: 200, Message: msg}
}

func notify(observers []func(SessionSnapshot), snap SessionSnapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
