// Package errors provides the standardized error taxonomy shared by the
// receiver and the submitter, and its mapping to user-facing messages.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport: connect/read/write failures.
	ErrCodeTransport         ErrorCode = "TRANSPORT_ERROR"
	ErrCodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	ErrCodeNoResponse        ErrorCode = "NO_RESPONSE"

	// Protocol: malformed or undecodable message bodies.
	ErrCodeProtocol      ErrorCode = "PROTOCOL_ERROR"
	ErrCodeFrameTooLarge ErrorCode = "FRAME_TOO_LARGE"

	// Persistence: storage insert failures.
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"

	// Post-commit publishing. Never reaches a client.
	ErrCodePublishFailed ErrorCode = "PUBLISH_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTransportError wraps a connect/read/write failure.
func NewTransportError(err error) *StandardError {
	return newError(ErrCodeTransport, "Network transport failure", err)
}

// NewConnectionRefusedError marks a dial rejected by the peer.
func NewConnectionRefusedError(err error) *StandardError {
	return newError(ErrCodeConnectionRefused, "Connection refused", err)
}

// NewNoResponseError is returned when the peer closes without replying.
func NewNoResponseError() *StandardError {
	return newError(ErrCodeNoResponse, "Peer closed the connection without a reply", nil)
}

// NewProtocolError wraps a decode or schema failure.
func NewProtocolError(err error) *StandardError {
	return newError(ErrCodeProtocol, "Malformed message body", err)
}

// NewFrameTooLargeError wraps a frame whose declared size exceeds the cap.
func NewFrameTooLargeError(err error) *StandardError {
	return newError(ErrCodeFrameTooLarge, "Message exceeds size limit", err)
}

// NewPersistenceError wraps a storage failure for operation op.
func NewPersistenceError(op string, err error) *StandardError {
	e := newError(ErrCodePersistence, "Persistence operation failed", err)
	e.Metadata = map[string]interface{}{"operation": op}
	return e
}

// NewPublishFailedError wraps a post-commit publisher failure.
func NewPublishFailedError(publisher string, err error) *StandardError {
	e := newError(ErrCodePublishFailed, "Post-commit publish failed", err)
	e.Metadata = map[string]interface{}{"publisher": publisher}
	return e
}

// NewInternalError wraps anything outside the taxonomy, including recovered panics.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// ==========================
// 3. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeTransport || code == ErrCodeConnectionRefused || code == ErrCodeNoResponse:
		return "TRANSPORT"
	case code == ErrCodeProtocol || strings.Contains(codeStr, "FRAME"):
		return "PROTOCOL"
	case code == ErrCodePersistence:
		return "PERSISTENCE"
	case strings.Contains(codeStr, "PUBLISH"):
		return "PUBLISH"
	default:
		return "OTHER"
	}
}
