package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"syscall"
)

const (
	headerSize = 4

	// DefaultMaxFrame bounds a single payload unless overridden.
	DefaultMaxFrame = 256 << 20

	// readChunk caps how far the payload buffer grows ahead of the bytes
	// that actually arrived.
	readChunk = 64 << 10
)

var (
	// ErrConnectionClosed means the peer went away, possibly mid-frame.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrTimeout means no complete frame arrived before the deadline. The
	// stream is still aligned on a frame boundary.
	ErrTimeout = errors.New("timed out")
	// ErrDesynchronized means a deadline expired part way through a frame.
	// The stream can no longer be used.
	ErrDesynchronized = errors.New("stream desynchronized")
	// ErrFrameTooLarge means a length prefix exceeded the configured bound.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMalformed means a frame did not contain a decodable message.
	ErrMalformed = errors.New("malformed message")
)

// WriteFrame writes payload to w with a length prefix. Wire format:
// [4B payload length big-endian uint32]
// [N bytes payload]
func WriteFrame(w io.Writer, payload []byte, maxFrame int) error {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	if len(payload) > maxFrame || uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("write %d bytes: %w", len(payload), ErrFrameTooLarge)
	}

	buf := make([]byte, headerSize+len(payload))
	// #nosec G115 -- bounds are validated just above.
	binary.BigEndian.PutUint32(buf[:headerSize], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	n, err := w.Write(buf)
	if err != nil {
		return classify("write frame", err, n > 0)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload from r. The buffer grows with
// the bytes received, not with the size the header claims.
func ReadFrame(r io.Reader, maxFrame int) ([]byte, error) {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}

	var hdr [headerSize]byte
	if n, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, classify("read header", err, n > 0)
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if uint64(size) > uint64(maxFrame) {
		return nil, fmt.Errorf("frame of %d bytes: %w", size, ErrFrameTooLarge)
	}

	want := int(size)
	payload := make([]byte, 0, min(want, readChunk))
	for len(payload) < want {
		n := min(want-len(payload), readChunk)
		payload = slices.Grow(payload, n)
		got, err := io.ReadFull(r, payload[len(payload):len(payload)+n])
		payload = payload[:len(payload)+got]
		if err != nil {
			// The header is already consumed, so any failure here is mid-frame.
			return nil, classify("read payload", err, true)
		}
	}
	return payload, nil
}

// classify maps transport errors onto the package sentinels. partial reports
// whether some bytes of the frame had already moved.
func classify(op string, err error, partial bool) error {
	switch {
	case isTimeout(err) && partial:
		return fmt.Errorf("%s: %w: %v", op, ErrDesynchronized, err)
	case isTimeout(err):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	case isClosed(err):
		return fmt.Errorf("%s: %w", op, ErrConnectionClosed)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
