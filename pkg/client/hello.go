package client

import "bytes"

// ProtoVer is the RESP protocol version requested during the handshake.
type ProtoVer string

const (
	ProtoResp2 ProtoVer = "2"
	ProtoResp3 ProtoVer = "3"
)

const defaultClientName = "rredis_cli"

// Hello describes the greeting handshake. Immutable after construction;
// consumed once to build the HELLO command.
type Hello struct {
	username   string
	password   string
	clientName string
	proto      ProtoVer
}

// NoAuth builds a handshake descriptor without credentials.
func NoAuth() Hello {
	return Hello{clientName: defaultClientName, proto: ProtoResp3}
}

// WithPassword builds a handshake descriptor carrying an AUTH clause.
// An empty username falls back to the server's "default" user.
func WithPassword(username, password string) Hello {
	if username == "" {
		username = "default"
	}
	return Hello{
		username:   username,
		password:   password,
		clientName: defaultClientName,
		proto:      ProtoResp3,
	}
}

// WithClientName returns a copy announcing a different SETNAME.
func (h Hello) WithClientName(name string) Hello {
	if name != "" {
		h.clientName = name
	}
	return h
}

// Encode renders the greeting as a raw inline command line:
//
//	HELLO <ver> [AUTH <user> <password>] SETNAME <name>\r\n
//
// The handshake is a fixed literal and bypasses the array encoder.
func (h Hello) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString("HELLO ")
	buf.WriteString(string(h.proto))
	if h.password != "" {
		buf.WriteString(" AUTH ")
		buf.WriteString(h.username)
		buf.WriteByte(' ')
		buf.WriteString(h.password)
	}
	buf.WriteString(" SETNAME ")
	buf.WriteString(h.clientName)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
