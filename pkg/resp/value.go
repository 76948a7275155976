package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the decoded form of one RESP frame. Type selects which payload
// fields are meaningful: Data for strings and errors, Int for integers,
// Bool for booleans, Elems for aggregates. Map values keep their key/value
// pairs interleaved in Elems (key at 2i, value at 2i+1) so server ordering
// survives without requiring hashable keys.
type Value struct {
	Type  byte
	Data  []byte
	Int   int64
	Bool  bool
	Elems []*Value
}

func NewSimpleString(s string) *Value {
	return &Value{Type: RespStatus, Data: []byte(s)}
}

func NewBulkString(s string) *Value {
	return &Value{Type: RespString, Data: []byte(s)}
}

func NewInteger(n int64) *Value {
	return &Value{Type: RespInt, Int: n}
}

func NewBoolean(v bool) *Value {
	return &Value{Type: RespBool, Bool: v}
}

func NewNull() *Value {
	return &Value{Type: RespNil}
}

func NewSimpleError(msg string) *Value {
	return &Value{Type: RespError, Data: []byte(msg)}
}

func NewArray(elems ...*Value) *Value {
	return &Value{Type: RespArray, Elems: elems}
}

// IsError reports whether the value is a simple or blob error reply.
func (v *Value) IsError() bool {
	return v.Type == RespError || v.Type == RespBlobError
}

// IsAggregate reports whether the value carries child elements.
func (v *Value) IsAggregate() bool {
	return v.Type == RespArray || v.Type == RespMap || v.Type == RespSet
}

// Command returns the first bulk string of a command array, or the raw
// payload for flat values.
func (v *Value) Command() []byte {
	if v.Type == RespArray && len(v.Elems) > 0 {
		return v.Elems[0].Data
	}
	return v.Data
}

// Text returns the payload of string-like values and "" otherwise.
func (v *Value) Text() string {
	switch v.Type {
	case RespStatus, RespString, RespError, RespBlobError:
		return string(v.Data)
	default:
		return ""
	}
}

// String renders the value for a human: literal payloads for scalars,
// "nil" for Null, one key/value pair per line for maps, one element per
// line for arrays and sets. Pure presentation, no protocol logic.
func (v *Value) String() string {
	switch v.Type {
	case RespStatus, RespString:
		return string(v.Data)

	case RespError, RespBlobError:
		return string(v.Data)

	case RespInt:
		return strconv.FormatInt(v.Int, 10)

	case RespBool:
		return strconv.FormatBool(v.Bool)

	case RespNil:
		return "nil"

	case RespMap:
		if len(v.Elems) == 0 {
			return "{}"
		}
		var b strings.Builder
		for i := 0; i+1 < len(v.Elems); i += 2 {
			b.WriteString(v.Elems[i].String())
			b.WriteString(": ")
			b.WriteString(v.Elems[i+1].String())
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")

	case RespSet, RespArray:
		if len(v.Elems) == 0 {
			if v.Type == RespSet {
				return "#{}"
			}
			return "[]"
		}
		var b strings.Builder
		for i, elem := range v.Elems {
			b.WriteString(fmt.Sprintf("%d) %s\n", i+1, elem.String()))
		}
		return strings.TrimRight(b.String(), "\n")

	default:
		return fmt.Sprintf("(unknown type: %c)", v.Type)
	}
}
