package resp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeToString(t *testing.T, v *Value) string {
	t.Helper()
	buf := NewStreamBuffer(4 * 1024)
	require.NoError(t, Encode(v, buf))
	return string(buf.TakeSlice(buf.Len()))
}

func TestEncode_CommandLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{
			name:     "set command",
			line:     "set hello world",
			expected: "*3\r\n$3\r\nset\r\n$5\r\nhello\r\n$5\r\nworld\r\n",
		},
		{
			name:     "single token",
			line:     "ping",
			expected: "*1\r\n$4\r\nping\r\n",
		},
		{
			name:     "runs of whitespace collapse",
			line:     "  get \t key1  ",
			expected: "*2\r\n$3\r\nget\r\n$4\r\nkey1\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := FromCommandLine(tt.line)
			assert.Equal(t, tt.expected, encodeToString(t, cmd))
		})
	}
}

func TestEncode_BulkString(t *testing.T) {
	assert.Equal(t, "$5\r\nhello\r\n", encodeToString(t, NewBulkString("hello")))
	assert.Equal(t, "$0\r\n\r\n", encodeToString(t, NewBulkString("")))
}

func TestEncode_UnsupportedVariant(t *testing.T) {
	buf := NewStreamBuffer(64)
	assert.ErrorIs(t, Encode(NewInteger(1), buf), ErrMalformed)
	assert.ErrorIs(t, Encode(NewNull(), buf), ErrMalformed)
}

// A value too large for the buffer's free space is an error, and nothing is
// written: partial frames must never reach the wire.
func TestEncode_ValueLargerThanFreeSpace(t *testing.T) {
	buf := NewStreamBuffer(32)
	require.NotPanics(t, func() {
		assert.ErrorIs(t, Encode(NewBulkString(strings.Repeat("x", 64)), buf), ErrTooLarge)
	})
	assert.Equal(t, 0, buf.Len())

	cmd := FromCommandLine("set key " + strings.Repeat("v", 64))
	require.NotPanics(t, func() {
		assert.ErrorIs(t, Encode(cmd, buf), ErrTooLarge)
	})
	assert.Equal(t, 0, buf.Len())

	// a command that exactly fills the buffer still encodes
	exact := NewStreamBuffer(len("*1\r\n$4\r\nping\r\n"))
	require.NoError(t, Encode(FromCommandLine("ping"), exact))
	assert.Equal(t, 0, exact.Free())
}

// decode(encode(v)) must reproduce v for every shape the client can send.
func TestEncode_RoundTrip(t *testing.T) {
	values := []*Value{
		NewBulkString("hello"),
		NewBulkString(""),
		FromCommandLine("set hello world"),
		FromCommandLine("ping"),
	}
	for _, want := range values {
		buf := NewStreamBuffer(4 * 1024)
		require.NoError(t, Encode(want, buf))
		got, err := Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestValue_Render(t *testing.T) {
	tests := []struct {
		name     string
		value    *Value
		expected string
	}{
		{name: "simple string", value: NewSimpleString("OK"), expected: "OK"},
		{name: "integer", value: NewInteger(-7), expected: "-7"},
		{name: "boolean", value: NewBoolean(true), expected: "true"},
		{name: "null sentinel", value: NewNull(), expected: "nil"},
		{name: "error text", value: NewSimpleError("ERR nope"), expected: "ERR nope"},
		{
			name:     "array one element per line",
			value:    NewArray(NewBulkString("a"), NewBulkString("b")),
			expected: "1) a\n2) b",
		},
		{
			name: "map one pair per line",
			value: &Value{Type: RespMap, Elems: []*Value{
				NewSimpleString("role"), NewBulkString("master"),
				NewSimpleString("port"), NewInteger(6379),
			}},
			expected: "role: master\nport: 6379",
		},
		{name: "empty map", value: &Value{Type: RespMap}, expected: "{}"},
		{name: "empty array", value: &Value{Type: RespArray}, expected: "[]"},
		{name: "empty set", value: &Value{Type: RespSet}, expected: "#{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}
