package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admission-intake/internal/models"
)

func testRecord() models.ApplicationRecord {
	return models.ApplicationRecord{
		Name:           "Ada Lovelace",
		Address:        "12 St James's Square, London",
		Qualifications: "BSc Mathematics",
		Course:         models.CourseDataAnalytics,
		StartPeriod:    "2026 Sep",
	}
}

func TestLengthPrefixedFrame_Pipe(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	want, err := EncodeRequest(testRecord())
	require.NoError(t, err)

	go func() {
		if err := WriteFrame(c1, want); err != nil {
			t.Errorf("send: %v", err)
		}
	}()

	c2.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := ReadFrame(c2, 4096)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestReadFrame_EmptyStreamIsEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), 4096)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrame_Truncated(t *testing.T) {
	t.Run("partial header", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewReader([]byte{0, 0}), 4096)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("partial body", func(t *testing.T) {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, uint32(10))
		buf.WriteString("abc")
		_, err := ReadFrame(&buf, 4096)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestReadFrame_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, bytes.Repeat([]byte("x"), 100)))

	_, err := ReadFrame(&buf, 99)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))
	assert.Contains(t, err.Error(), "100 bytes declared")

	var sizeErr *FrameSizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, uint32(100), sizeErr.Declared)
	assert.Equal(t, 99, sizeErr.Limit)
	assert.Equal(t, 100, buf.Len(), "body stays unread")
}

func TestReadFrame_NoLimit(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("y"), 10000)
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Len(t, got, 10000)
}

func TestWriteFrame_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))

	raw := buf.Bytes()
	assert.Equal(t, uint32(5), binary.BigEndian.Uint32(raw[:HeaderSize]))
	assert.Equal(t, "hello", string(raw[HeaderSize:]))
}

func TestDecodeRequest(t *testing.T) {
	payload, err := EncodeRequest(testRecord())
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"start_year_month":"2026 Sep"`)

	rec, err := DecodeRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, testRecord(), rec)
}

func TestDecodeRequest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty body", ""},
		{"not json", "this is not json"},
		{"truncated json", `{"name": "Ada"`},
		{"array", `["name"]`},
		{"missing field", `{"name":"a","address":"b","qualifications":"c","course":"d"}`},
		{"wrong type", `{"name":1,"address":"b","qualifications":"c","course":"d","start_year_month":"e"}`},
		{"null", `null`},
		{"invalid utf8", "{\"name\":\"\xff\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestDecodeRequest_ExtraFieldsAllowed(t *testing.T) {
	payload := `{"name":"a","address":"b","qualifications":"c","course":"d","start_year_month":"e","email":"x@y"}`
	rec, err := DecodeRequest([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "e", rec.StartPeriod)
}

func TestResponseRoundTrip(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		b, err := EncodeResponse(Success(MsgReceived, "APP-00042"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","message":"Application received successfully.","application_id":"APP-00042"}`, string(b))

		resp, err := DecodeResponse(b)
		require.NoError(t, err)
		assert.True(t, resp.IsSuccess())
		assert.Equal(t, "APP-00042", resp.ApplicationID)
	})

	t.Run("failure omits application id", func(t *testing.T) {
		b, err := EncodeResponse(Failure("Invalid data format."))
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"error","message":"Invalid data format."}`, string(b))
	})
}

func TestDecodeResponse_Invalid(t *testing.T) {
	for _, payload := range []string{
		`garbage`,
		`{"status":"maybe","message":"?"}`,
		`{"status":"success","message":"ok"}`,
	} {
		_, err := DecodeResponse([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidDocument, payload)
	}
}
