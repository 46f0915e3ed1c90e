package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFrame_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOf(rapid.Byte()).Draw(rt, "payload")
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload, 0); err != nil {
			rt.Fatalf("write: %v", err)
		}
		if buf.Len() != headerSize+len(payload) {
			rt.Fatalf("encoded %d bytes, want %d", buf.Len(), headerSize+len(payload))
		}
		got, err := ReadFrame(&buf, 0)
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		if !bytes.Equal(got, payload) {
			rt.Fatalf("payload mismatch")
		}
	})
}

func TestFrame_BigEndianPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("Hello!"), 0))
	assert.Equal(t, []byte{0, 0, 0, 6, 'H', 'e', 'l', 'l', 'o', '!'}, buf.Bytes())
}

func TestReadFrame_ClosedBeforeHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadFrame_ClosedMidPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("0123456789"), 0))
	truncated := buf.Bytes()[:headerSize+4]

	_, err := ReadFrame(bytes.NewReader(truncated), 0)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadFrame_ClosedMidHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0}), 0)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestFrame_TooLarge(t *testing.T) {
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:], 1025)
	_, err := ReadFrame(bytes.NewReader(hdr[:]), 1024)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	err = WriteFrame(io.Discard, make([]byte, 1025), 1024)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrame_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil, 0))
	got, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFrame_AllocatesOnlyWhatArrives(t *testing.T) {
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:], 250<<20)
	r := io.MultiReader(bytes.NewReader(hdr[:]), bytes.NewReader([]byte("0123456789")))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := ReadFrame(r, 0)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(4<<20))
}

func TestReadFrame_LargePayloadAcrossChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefg"), 3*readChunk/7+5)
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload, 0))

	got, err := ReadFrame(trickleReader{&buf}, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// trickleReader returns at most 1000 bytes per Read.
type trickleReader struct{ r io.Reader }

func (s trickleReader) Read(p []byte) (int, error) {
	if len(p) > 1000 {
		p = p[:1000]
	}
	return s.r.Read(p)
}
