package internal

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRequestTimedOut is returned when a call outlives its client-side deadline.
	ErrRequestTimedOut = errors.New("request timed out")
	// ErrServiceUnavailable marks a 503 from the backend.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrAlreadyInProgress rejects a second submission while one is outstanding.
	ErrAlreadyInProgress = errors.New("a request is already in progress")
	// ErrNotIdle rejects a submission from a terminal state; reset first.
	ErrNotIdle = errors.New("session is not idle; start a new conversion first")
	// ErrNoIntent is returned when a chat upload is attempted without an armed intent.
	ErrNoIntent = errors.New("no conversion intent is armed")
	// ErrStaleResponse marks a response that settled after its session was reset.
	ErrStaleResponse = errors.New("response arrived after the session was reset")
)

// ValidationError is a locally detected problem that never reaches the network
type ValidationError struct {
	Field   string // "file", "target_format", "conversion_type", "recipient_email"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// CatalogUnavailableError represents a failed or incomplete format catalog fetch
type CatalogUnavailableError struct {
	ConversionType ConversionType
	Err            error
}

func (e *CatalogUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog unavailable [%s]: no formats listed", e.ConversionType)
	}
	return fmt.Sprintf("catalog unavailable [%s]: %v", e.ConversionType, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error {
	return e.Err
}

// NetworkError represents a request that never completed
type NetworkError struct {
	Op  string // "GET /api/chat/models"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError represents a non-2xx response, or a 2xx carrying an error body
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Server error (%d)", e.Status)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrServiceUnavailable) match 503 responses.
func (e *ServerError) Is(target error) bool {
	return target == ErrServiceUnavailable && e.Status == 503
}

// ErrorKind is the client-observable error taxonomy
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindCatalogUnavailable
	KindRequestTimedOut
	KindNetwork
	KindServer
	KindServiceUnavailable
	KindAlreadyInProgress
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindCatalogUnavailable:
		return "catalog_unavailable"
	case KindRequestTimedOut:
		return "request_timed_out"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindAlreadyInProgress:
		return "already_in_progress"
	default:
		return "unknown"
	}
}

// ErrorKindOf classifies err into the taxonomy. Order matters: a timeout
// wrapped in a NetworkError is still a timeout.
func ErrorKindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var validationErr *ValidationError
	var catalogErr *CatalogUnavailableError
	var serverErr *ServerError
	var networkErr *NetworkError
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &catalogErr):
		return KindCatalogUnavailable
	case errors.Is(err, ErrAlreadyInProgress):
		return KindAlreadyInProgress
	case errors.Is(err, ErrRequestTimedOut), errors.Is(err, context.DeadlineExceeded):
		return KindRequestTimedOut
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.As(err, &serverErr):
		return KindServer
	case errors.As(err, &networkErr):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// NoResponseMessage is shown when a request never received a response.
const NoResponseMessage = "No response from server. Please check your connection."

// ServiceUnavailableMessage is shown for a 503 that carried no message of its own.
const ServiceUnavailableMessage = "The conversion service is temporarily unavailable. Please try again later."

// UserMessage derives the human-readable text for err. Priority: validation
// text, server-provided message, synthesized no-response text, then fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	switch ErrorKindOf(err) {
	case KindRequestTimedOut:
		return "The request timed out. Please try again."
	case KindNetwork:
		return NoResponseMessage
	case KindServiceUnavailable:
		return ServiceUnavailableMessage
	case KindAlreadyInProgress:
		return "A conversion is already in progress. Please wait for it to finish."
	case KindCatalogUnavailable:
		return "Could not retrieve supported formats for this conversion type."
	}
	return fallback
}
