package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	msgs   []string
	levels []string
	fields []map[string]interface{}
}

func (r *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	r.msgs = append(r.msgs, msg)
	r.levels = append(r.levels, "debug")
	r.fields = append(r.fields, fields)
}

func (r *recordingLogger) Error(msg string, fields map[string]interface{}) {
	r.msgs = append(r.msgs, msg)
	r.levels = append(r.levels, "error")
	r.fields = append(r.fields, fields)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"connection refused", NewConnectionRefusedError(stderrors.New("dial tcp: refused")), "Connection refused. Is the server running?"},
		{"no response", NewNoResponseError(), "No response received."},
		{"transport", NewTransportError(stderrors.New("i/o timeout")), "A network error occurred: i/o timeout"},
		{"protocol", NewProtocolError(stderrors.New("bad json")), "Invalid data format."},
		{"frame too large", NewFrameTooLargeError(stderrors.New("frame of 9999 bytes")), "Invalid data format."},
		{"persistence", NewPersistenceError("insert", stderrors.New("disk full")), "Internal server error."},
		{"unknown error", stderrors.New("boom"), "Internal server error."},
		{"wrapped standard error", fmt.Errorf("context: %w", NewProtocolError(io.ErrUnexpectedEOF)), "Invalid data format."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	err := NewTransportError(io.ErrUnexpectedEOF)
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "TRANSPORT_ERROR")
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
	assert.False(t, err.Timestamp.IsZero())
}

func TestNormalize_WrapsForeignErrors(t *testing.T) {
	stdErr := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeConnectionRefused))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeNoResponse))
	assert.Equal(t, "PROTOCOL", GetErrorCategory(ErrCodeFrameTooLarge))
	assert.Equal(t, "PERSISTENCE", GetErrorCategory(ErrCodePersistence))
	assert.Equal(t, "PUBLISH", GetErrorCategory(ErrCodePublishFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	msg := h.Handle(NewPersistenceError("insert", stderrors.New("disk full")), map[string]interface{}{
		"connId": "abc",
	})

	assert.Equal(t, MsgInternalServer, msg)
	if assert.Len(t, log.fields, 1) {
		fields := log.fields[0]
		assert.Equal(t, "PERSISTENCE_ERROR", fields["errorCode"])
		assert.Equal(t, "PERSISTENCE", fields["errorCategory"])
		assert.Equal(t, "insert", fields["operation"])
		assert.Equal(t, "abc", fields["connId"])
		assert.Equal(t, "disk full", fields["details"])
	}
}

func TestErrorHandler_ExpectedCodesLogAtDebug(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log, WithExpected(ErrCodeConnectionRefused, ErrCodeNoResponse))

	assert.Equal(t, MsgConnectionRefused, h.Handle(NewConnectionRefusedError(stderrors.New("refused")), nil))
	assert.Equal(t, MsgNoResponse, h.Handle(NewNoResponseError(), nil))
	assert.Equal(t, MsgInternalServer, h.Handle(NewInternalError(stderrors.New("boom")), nil))

	assert.Equal(t, []string{"debug", "debug", "error"}, log.levels)
	assert.Equal(t, "CONNECTION_REFUSED", log.fields[0]["errorCode"])
}
