package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the length of the big-endian frame length prefix.
const HeaderSize = 4

// ErrFrameTooLarge is returned when a frame declares more bytes than the
// reader accepts.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// FrameSizeError reports an oversized frame. The body is left unread on the
// stream; Declared tells the caller how much to discard.
type FrameSizeError struct {
	Declared uint32
	Limit    int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("%v: %d bytes declared, limit %d", ErrFrameTooLarge, e.Declared, e.Limit)
}

func (e *FrameSizeError) Is(target error) bool { return target == ErrFrameTooLarge }

// WriteFrame sends data with a 4-byte big-endian length prefix. Header and
// body go out in a single Write so a peer never sees a header without body
// unless the connection fails.
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, HeaderSize+len(data))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(data)))
	copy(buf[HeaderSize:], data)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed frame. It returns io.EOF untouched
// when the peer closed before sending any byte, io.ErrUnexpectedEOF for a
// truncated frame and ErrFrameTooLarge when the declared length exceeds
// maxSize (maxSize <= 0 disables the check).
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var lengthBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if maxSize > 0 && uint64(length) > uint64(maxSize) {
		return nil, &FrameSizeError{Declared: length, Limit: maxSize}
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}
