package resp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTooLarge means a value's encoded form does not fit the buffer's free
// space. Nothing is written; the buffer and any connection draining it stay
// usable.
var ErrTooLarge = errors.New("resp: encoded value exceeds buffer capacity")

// Encode writes v into the buffer in wire form. Only the two shapes this
// client ever sends are supported: a bulk string and an array of bulk
// strings. Handing any other variant to Encode is a programming error on
// the caller's side. The encoded size is checked up front so an oversized
// command is an error, never a buffer overflow.
func Encode(v *Value, b *StreamBuffer) error {
	switch v.Type {
	case RespString:
		if bulkStringSize(v.Data) > b.Free() {
			return fmt.Errorf("%w: %d bytes free", ErrTooLarge, b.Free())
		}
		encodeBulkString(v.Data, b)
		return nil
	case RespArray:
		need := 1 + len(strconv.Itoa(len(v.Elems))) + len(terminator)
		for _, elem := range v.Elems {
			need += bulkStringSize(elem.Data)
		}
		if need > b.Free() {
			return fmt.Errorf("%w: need %d, %d bytes free", ErrTooLarge, need, b.Free())
		}
		b.PutByte(RespArray)
		b.PutSlice([]byte(strconv.Itoa(len(v.Elems))))
		b.PutSlice(terminator)
		for _, elem := range v.Elems {
			// outbound command elements are always bulk strings
			encodeBulkString(elem.Data, b)
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot encode type %q as a command", ErrMalformed, v.Type)
	}
}

func bulkStringSize(data []byte) int {
	return 1 + len(strconv.Itoa(len(data))) + len(terminator) + len(data) + len(terminator)
}

func encodeBulkString(data []byte, b *StreamBuffer) {
	b.PutByte(RespString)
	b.PutSlice([]byte(strconv.Itoa(len(data))))
	b.PutSlice(terminator)
	b.PutSlice(data)
	b.PutSlice(terminator)
}

// FromCommandLine turns one line of text into a command array of bulk
// strings, one token per whitespace-separated word. There is no quoting or
// escaping: a value containing whitespace cannot be sent as a single token.
// Known limitation, kept as-is.
func FromCommandLine(line string) *Value {
	tokens := strings.Fields(line)
	elems := make([]*Value, 0, len(tokens))
	for _, tok := range tokens {
		elems = append(elems, NewBulkString(tok))
	}
	return &Value{Type: RespArray, Elems: elems}
}
