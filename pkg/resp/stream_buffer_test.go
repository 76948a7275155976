package resp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBuffer_FillAndTake(t *testing.T) {
	buf := NewStreamBuffer(64)
	n, err := buf.Fill(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, buf.Len())
	assert.True(t, buf.HasRemaining())
	assert.True(t, buf.RemainingAtLeast(5))
	assert.False(t, buf.RemainingAtLeast(6))

	assert.Equal(t, byte('h'), buf.TakeByte())
	assert.Equal(t, []byte("ell"), buf.TakeSlice(3))
	assert.Equal(t, byte('o'), buf.TakeByte())
	assert.False(t, buf.HasRemaining())
}

func TestStreamBuffer_FillGracefulClose(t *testing.T) {
	buf := NewStreamBuffer(16)
	n, err := buf.Fill(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStreamBuffer_TakeUntil(t *testing.T) {
	buf := NewStreamBuffer(64)
	buf.PutSlice([]byte("OK\r\nrest"))

	line, ok := buf.TakeUntil([]byte(CRLF))
	require.True(t, ok)
	assert.Equal(t, []byte("OK"), line)
	// delimiter consumed, remainder intact
	assert.Equal(t, []byte("rest"), buf.TakeSlice(buf.Len()))
}

func TestStreamBuffer_TakeUntilIncompleteRestores(t *testing.T) {
	buf := NewStreamBuffer(64)
	buf.PutSlice([]byte("partial line\r"))

	before := buf.Len()
	_, ok := buf.TakeUntil([]byte(CRLF))
	assert.False(t, ok)
	assert.Equal(t, before, buf.Len())

	// the missing byte arrives; the same scan now succeeds
	buf.PutByte('\n')
	line, ok := buf.TakeUntil([]byte(CRLF))
	require.True(t, ok)
	assert.Equal(t, []byte("partial line"), line)
}

func TestStreamBuffer_MarkReset(t *testing.T) {
	buf := NewStreamBuffer(64)
	buf.PutSlice([]byte("abcdef"))

	buf.TakeByte()
	buf.Mark()
	buf.TakeByte()
	buf.TakeByte()
	buf.Reset()
	assert.Equal(t, byte('b'), buf.TakeByte())

	// reset without a mark is a no-op
	buf.Reset()
	assert.Equal(t, byte('c'), buf.TakeByte())
}

func TestStreamBuffer_CompactPreservesUnread(t *testing.T) {
	buf := NewStreamBuffer(64)
	buf.PutSlice([]byte("consumed|keep these bytes"))
	buf.TakeSlice(len("consumed|"))

	buf.Compact()
	assert.Equal(t, len("keep these bytes"), buf.Len())
	assert.Equal(t, []byte("keep these bytes"), buf.TakeSlice(buf.Len()))
}

func TestStreamBuffer_CompactEmptyFastPath(t *testing.T) {
	buf := NewStreamBuffer(16)
	buf.PutSlice([]byte("abc"))
	buf.TakeSlice(3)
	buf.Compact()
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 16, buf.Free())
}

func TestStreamBuffer_Drain(t *testing.T) {
	buf := NewStreamBuffer(64)
	buf.PutSlice([]byte("payload"))

	var sink bytes.Buffer
	require.NoError(t, buf.Drain(&sink))
	assert.Equal(t, "payload", sink.String())
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 64, buf.Free())
}

func TestStreamBuffer_FillCompactsWhenWriteEdgeHit(t *testing.T) {
	buf := NewStreamBuffer(8)
	buf.PutSlice([]byte("12345678"))
	buf.TakeSlice(6)

	// write cursor is at capacity but six bytes are reclaimable
	n, err := buf.Fill(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("78abc"), buf.TakeSlice(buf.Len()))
}

func TestStreamBuffer_FillFailsWhenValueExceedsCapacity(t *testing.T) {
	buf := NewStreamBuffer(4)
	buf.PutSlice([]byte("1234"))

	_, err := buf.Fill(strings.NewReader("x"))
	assert.Error(t, err)
}

func TestStreamBuffer_TakePreconditionsPanic(t *testing.T) {
	buf := NewStreamBuffer(4)
	assert.Panics(t, func() { buf.TakeByte() })
	buf.PutSlice([]byte("ab"))
	assert.Panics(t, func() { buf.TakeSlice(3) })
}
