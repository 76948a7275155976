package resp

import (
	"fmt"
	"io"
)

const noMark = -1

// StreamBuffer is a fixed-capacity byte buffer with independent read and
// write cursors. It carries no protocol knowledge: the decoder drives the
// read cursor, socket reads drive the write cursor, and Compact reclaims
// the space behind the read cursor. Invariant: 0 <= rpos <= wpos <= cap.
type StreamBuffer struct {
	buf  []byte
	rpos int
	wpos int
	mark int
}

// NewStreamBuffer allocates a buffer of the given capacity. The capacity is
// a hard ceiling on a single protocol value's encoded size; the buffer is
// never resized.
func NewStreamBuffer(capacity int) *StreamBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("resp: non-positive buffer capacity %d", capacity))
	}
	return &StreamBuffer{
		buf:  make([]byte, capacity),
		mark: noMark,
	}
}

// Fill performs one read from src into the free region and advances the
// write cursor by the bytes actually read. A zero count with a nil error
// means the source reported graceful close.
func (b *StreamBuffer) Fill(src io.Reader) (int, error) {
	if b.wpos == len(b.buf) {
		if b.rpos == 0 {
			return 0, fmt.Errorf("resp: buffer capacity %d exhausted by a single value", len(b.buf))
		}
		b.Compact()
	}
	n, err := src.Read(b.buf[b.wpos:])
	b.wpos += n
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// Drain writes the unread region to dst, consumes it, and compacts.
func (b *StreamBuffer) Drain(dst io.Writer) error {
	pending := b.buf[b.rpos:b.wpos]
	for len(pending) > 0 {
		n, err := dst.Write(pending)
		if err != nil {
			return err
		}
		pending = pending[n:]
	}
	b.rpos = b.wpos
	b.Compact()
	return nil
}

// Mark records the read cursor as a rollback point, replacing any prior mark.
func (b *StreamBuffer) Mark() {
	b.mark = b.rpos
}

// Reset restores the read cursor to the mark and clears it. No-op without
// a mark.
func (b *StreamBuffer) Reset() {
	if b.mark != noMark {
		b.rpos = b.mark
		b.mark = noMark
	}
}

// TakeByte returns the byte at the read cursor and advances it. The caller
// must have verified HasRemaining; an out-of-range read is a codec bug and
// panics.
func (b *StreamBuffer) TakeByte() byte {
	if b.rpos >= b.wpos {
		panic("resp: TakeByte past write cursor")
	}
	c := b.buf[b.rpos]
	b.rpos++
	return c
}

// TakeSlice returns a view of n bytes at the read cursor and advances it.
// The view aliases the buffer and is only valid until the next Compact;
// callers that retain the bytes must copy them. Same precondition as
// TakeByte.
func (b *StreamBuffer) TakeSlice(n int) []byte {
	if b.rpos+n > b.wpos {
		panic(fmt.Sprintf("resp: TakeSlice(%d) past write cursor", n))
	}
	old := b.rpos
	b.rpos += n
	return b.buf[old:b.rpos]
}

// TakeUntil scans forward for the multi-byte delimiter. On a full match it
// returns the bytes strictly before the delimiter (delimiter consumed but
// excluded) and clears any mark. If the unread data runs out before the
// delimiter completes, the read cursor is restored to the mark taken at the
// start of the scan and ok is false: the caller should read more bytes and
// retry.
func (b *StreamBuffer) TakeUntil(delim []byte) (line []byte, ok bool) {
	b.Mark()

	old := b.rpos
	count := 0
	state := 0
	for b.HasRemaining() {
		c := b.TakeByte()
		if delim[state] == c {
			state++
		} else {
			state = 0
			count++
		}
		if state == len(delim) {
			break
		}
	}

	if state != len(delim) {
		b.Reset()
		return nil, false
	}
	b.mark = noMark
	return b.buf[old : old+count], true
}

// HasRemaining reports whether unread bytes are available.
func (b *StreamBuffer) HasRemaining() bool {
	return b.rpos < b.wpos
}

// RemainingAtLeast reports whether at least n unread bytes are available.
func (b *StreamBuffer) RemainingAtLeast(n int) bool {
	return b.wpos-b.rpos >= n
}

// PutByte appends one byte at the write cursor. Overflowing the fixed
// capacity is a programming error.
func (b *StreamBuffer) PutByte(c byte) {
	if b.wpos >= len(b.buf) {
		panic("resp: PutByte past buffer capacity")
	}
	b.buf[b.wpos] = c
	b.wpos++
}

// PutSlice appends p at the write cursor.
func (b *StreamBuffer) PutSlice(p []byte) {
	if b.wpos+len(p) > len(b.buf) {
		panic(fmt.Sprintf("resp: PutSlice(%d) past buffer capacity", len(p)))
	}
	copy(b.buf[b.wpos:], p)
	b.wpos += len(p)
}

// Compact shifts the unread region to offset zero so the space behind the
// read cursor can be refilled. Any outstanding mark is discarded.
func (b *StreamBuffer) Compact() {
	if b.rpos == b.wpos {
		b.rpos = 0
		b.wpos = 0
	} else {
		n := copy(b.buf, b.buf[b.rpos:b.wpos])
		b.rpos = 0
		b.wpos = n
	}
	b.mark = noMark
}

// Len returns the number of unread bytes.
func (b *StreamBuffer) Len() int {
	return b.wpos - b.rpos
}

// Free returns the writable space left before the capacity ceiling.
func (b *StreamBuffer) Free() int {
	return len(b.buf) - b.wpos
}

// Cap returns the fixed capacity.
func (b *StreamBuffer) Cap() int {
	return len(b.buf)
}

// readPos exposes the read cursor to the decoder for aggregate rollback:
// a nested decode cannot rely on the single mark cell because inner scans
// overwrite it.
func (b *StreamBuffer) readPos() int {
	return b.rpos
}

// seekRead rewinds the read cursor to a position previously obtained from
// readPos.
func (b *StreamBuffer) seekRead(pos int) {
	if pos < 0 || pos > b.wpos {
		panic(fmt.Sprintf("resp: seekRead(%d) outside valid region", pos))
	}
	b.rpos = pos
}
