// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"fmt"
)

// User-facing failure messages. These travel on the wire verbatim.
const (
	MsgInvalidDataFormat = "Invalid data format."
	MsgInternalServer    = "Internal server error."
	MsgConnectionRefused = "Connection refused. Is the server running?"
	MsgNoResponse        = "No response received."
	MsgNetworkErrorFmt   = "A network error occurred: %s"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns any error raised while serving or submitting an
// application into the message shown to the end user, logging it once.
type ErrorHandler struct {
	logger   Logger
	expected map[ErrorCode]bool
}

type HandlerOption func(*ErrorHandler)

// WithExpected logs the given codes at debug level. The caller reports them
// to the user some other way.
func WithExpected(codes ...ErrorCode) HandlerOption {
	return func(h *ErrorHandler) {
		for _, c := range codes {
			h.expected[c] = true
		}
	}
}

func NewErrorHandler(logger Logger, opts ...HandlerOption) *ErrorHandler {
	h := &ErrorHandler{logger: logger, expected: map[ErrorCode]bool{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle logs err with fields and returns the user-facing failure message.
func (h *ErrorHandler) Handle(err error, fields map[string]interface{}) string {
	stdErr := Normalize(err)

	logFields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	}
	for k, v := range stdErr.Metadata {
		logFields[k] = v
	}
	for k, v := range fields {
		logFields[k] = v
	}
	if h.expected[stdErr.Code] {
		h.logger.Debug("exchange failed", logFields)
	} else {
		h.logger.Error("exchange failed", logFields)
	}

	return UserMessage(stdErr)
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// UserMessage maps err to the failure text a client renders.
func UserMessage(err error) string {
	stdErr := Normalize(err)
	switch stdErr.Code {
	case ErrCodeConnectionRefused:
		return MsgConnectionRefused
	case ErrCodeNoResponse:
		return MsgNoResponse
	case ErrCodeTransport:
		return networkMessage(stdErr.Details)
	case ErrCodeProtocol, ErrCodeFrameTooLarge:
		return MsgInvalidDataFormat
	default:
		return MsgInternalServer
	}
}

func networkMessage(detail string) string {
	return fmt.Sprintf(MsgNetworkErrorFmt, detail)
}
