package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete is a control signal, not a failure: the buffer does not
	// yet hold a complete frame. Read more bytes and decode again. The read
	// cursor is always restored before it is returned.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrMalformed means the bytes present violate the RESP grammar. The
	// connection that produced them must be considered unusable.
	ErrMalformed = errors.New("resp: malformed frame")
)

// maxDecodeDepth bounds aggregate nesting so a hostile server cannot blow
// the goroutine stack with a run of aggregate headers.
const maxDecodeDepth = 512

// elemsPrealloc caps the element slice preallocation so a huge declared
// count cannot force a giant allocation before any element bytes arrive.
const elemsPrealloc = 1024

// Decode attempts to read one complete value from the buffer.
//
// It returns ErrIncomplete when the buffer holds only a prefix of a frame;
// the read cursor is then exactly where it was before the call, so the
// caller can fill the buffer and retry. Errors wrapping ErrMalformed mean
// the stream violates the grammar and are fatal to the producing
// connection. Returned values own their payload bytes: compacting or
// refilling the buffer never mutates them.
func Decode(b *StreamBuffer) (*Value, error) {
	return decodeValue(b, 0)
}

func decodeValue(b *StreamBuffer, depth int) (*Value, error) {
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("%w: aggregate nesting deeper than %d", ErrMalformed, maxDecodeDepth)
	}
	if !b.HasRemaining() {
		return nil, ErrIncomplete
	}

	start := b.readPos()
	tag := b.TakeByte()
	switch tag {
	case RespStatus, RespError:
		line, ok := b.TakeUntil(terminator)
		if !ok {
			b.seekRead(start)
			return nil, ErrIncomplete
		}
		return &Value{Type: tag, Data: copyBytes(line)}, nil

	case RespString, RespBlobError:
		return decodeBulk(b, tag, start)

	case RespInt:
		line, ok := b.TakeUntil(terminator)
		if !ok {
			b.seekRead(start)
			return nil, ErrIncomplete
		}
		n, err := parseInt(line)
		if err != nil {
			return nil, err
		}
		return &Value{Type: RespInt, Int: n}, nil

	case RespBool:
		// flag byte plus the two-byte terminator
		if !b.RemainingAtLeast(3) {
			b.seekRead(start)
			return nil, ErrIncomplete
		}
		flag := b.TakeByte()
		if err := takeTerminator(b); err != nil {
			return nil, err
		}
		switch flag {
		case 't':
			return &Value{Type: RespBool, Bool: true}, nil
		case 'f':
			return &Value{Type: RespBool, Bool: false}, nil
		default:
			return nil, fmt.Errorf("%w: boolean flag %q", ErrMalformed, flag)
		}

	case RespNil:
		if !b.RemainingAtLeast(2) {
			b.seekRead(start)
			return nil, ErrIncomplete
		}
		if err := takeTerminator(b); err != nil {
			return nil, err
		}
		return &Value{Type: RespNil}, nil

	case RespArray, RespSet:
		return decodeAggregate(b, tag, start, 1, depth)

	case RespMap:
		return decodeAggregate(b, tag, start, 2, depth)

	default:
		return nil, fmt.Errorf("%w: unknown type tag %q", ErrMalformed, tag)
	}
}

// decodeBulk handles the two length-prefixed payload shapes ($ and !). The
// tag byte is already consumed; start points just before it so an
// incomplete payload rolls the whole frame back.
func decodeBulk(b *StreamBuffer, tag byte, start int) (*Value, error) {
	line, ok := b.TakeUntil(terminator)
	if !ok {
		b.seekRead(start)
		return nil, ErrIncomplete
	}
	length, err := parseLength(line)
	if err != nil {
		return nil, err
	}
	if !b.RemainingAtLeast(length + len(terminator)) {
		b.seekRead(start)
		return nil, ErrIncomplete
	}
	payload := copyBytes(b.TakeSlice(length))
	if err := takeTerminator(b); err != nil {
		return nil, err
	}
	return &Value{Type: tag, Data: payload}, nil
}

// decodeAggregate reads a count line and then count*multiplier child
// values. Partial aggregates are never returned: if any child is
// incomplete, the cursor is restored to before the aggregate's tag byte and
// a later attempt re-parses every element from scratch.
func decodeAggregate(b *StreamBuffer, tag byte, start, multiplier, depth int) (*Value, error) {
	line, ok := b.TakeUntil(terminator)
	if !ok {
		b.seekRead(start)
		return nil, ErrIncomplete
	}
	count, err := parseLength(line)
	if err != nil {
		return nil, err
	}
	if count > maxInt/multiplier {
		return nil, fmt.Errorf("%w: aggregate count %d overflows", ErrMalformed, count)
	}
	total := count * multiplier
	// every element needs at least 3 encoded bytes (`_\r\n`); a count the
	// fixed buffer can never hold cannot belong to a well-formed frame
	if total > b.Cap()/3 {
		return nil, fmt.Errorf("%w: aggregate count %d exceeds buffer capacity %d", ErrMalformed, count, b.Cap())
	}
	elems := make([]*Value, 0, min(total, elemsPrealloc))
	for i := 0; i < total; i++ {
		child, err := decodeValue(b, depth+1)
		if err != nil {
			if errors.Is(err, ErrIncomplete) {
				b.seekRead(start)
			}
			return nil, err
		}
		elems = append(elems, child)
	}
	return &Value{Type: tag, Elems: elems}, nil
}

// takeTerminator consumes and validates CRLF. Availability is the caller's
// responsibility.
func takeTerminator(b *StreamBuffer) error {
	if cr := b.TakeByte(); cr != '\r' {
		return fmt.Errorf("%w: expected CR, got %q", ErrMalformed, cr)
	}
	if lf := b.TakeByte(); lf != '\n' {
		return fmt.Errorf("%w: expected LF, got %q", ErrMalformed, lf)
	}
	return nil
}

// parseLength parses the decimal element-count / payload-length line.
// Bulk lengths and aggregate counts are unsigned by the grammar this client
// speaks (HELLO 3 negotiates RESP3, where null is `_` rather than `$-1`).
func parseLength(line []byte) (int, error) {
	if len(line) == 0 {
		return 0, fmt.Errorf("%w: empty length line", ErrMalformed)
	}
	n := 0
	for _, c := range line {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-numeric length %q", ErrMalformed, line)
		}
		d := int(c - '0')
		if n > (maxInt-d)/10 {
			return 0, fmt.Errorf("%w: length %q overflows", ErrMalformed, line)
		}
		n = n*10 + d
	}
	return n, nil
}

// parseInt parses a signed decimal integer line.
func parseInt(line []byte) (int64, error) {
	if len(line) == 0 {
		return 0, fmt.Errorf("%w: empty integer line", ErrMalformed)
	}
	neg := false
	i := 0
	switch line[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(line) {
		return 0, fmt.Errorf("%w: bare sign integer %q", ErrMalformed, line)
	}
	var n int64
	for ; i < len(line); i++ {
		c := line[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-numeric integer %q", ErrMalformed, line)
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

const maxInt = int(^uint(0) >> 1)

func copyBytes(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
