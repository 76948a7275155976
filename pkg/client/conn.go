package client

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/Aiclear/ait-rredis-cli/pkg/common"
	"github.com/Aiclear/ait-rredis-cli/pkg/resp"
	"github.com/Aiclear/ait-rredis-cli/pkg/stats"
)

var (
	logger = common.InitLogger().WithName("client")

	// ErrConnClosed means the peer closed the connection while a reply was
	// still expected. Distinct from transport failures so callers can decide
	// between silent reconnect and alerting.
	ErrConnClosed = errors.New("rredis: server closed the connection")

	// ErrHandshakeRejected means the server answered the HELLO greeting with
	// an error (bad auth, unsupported protocol). The connection is unusable.
	ErrHandshakeRejected = errors.New("rredis: handshake rejected")

	// ErrNotConnected is returned by Send on a connection that never
	// connected or has already failed.
	ErrNotConnected = errors.New("rredis: connection is not usable")

	// ErrEmptyCommand is returned when the command line holds no tokens.
	ErrEmptyCommand = errors.New("rredis: empty command")
)

type connState int32

const (
	stateUnconnected connState = iota
	stateConnected
	stateClosed
)

// Conn is one synchronous RESP connection: one socket, one StreamBuffer,
// one caller. Send never overlaps; RESP has no request ids to demultiplex
// out-of-order replies, so any concurrent use must be serialized outside.
type Conn struct {
	Id       string
	conn     net.Conn
	buf      *resp.StreamBuffer
	socket   common.SocketConfig
	greeting *resp.Value
	state    atomic.Int32
	created  time.Time
	stats    stats.Collector
}

// Dial opens a TCP connection, applies the socket tuning knobs, performs
// the HELLO handshake, and returns a Connected Conn. On a rejected
// handshake the connection is closed and never returned.
func Dial(cfg *common.ClientConfig, hello Hello) (*Conn, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.Socket.DialTimeout,
		KeepAlive: cfg.Socket.KeepAlive,
	}
	sock, err := dialer.Dial("tcp", cfg.Addr())
	if err != nil {
		logger.Error(err, "Failed to dial server", "Addr", cfg.Addr())
		return nil, err
	}
	if tcp, ok := sock.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(cfg.Socket.NoDelay)
	}

	c := &Conn{
		Id:      shortuuid.New(),
		conn:    sock,
		buf:     resp.NewStreamBuffer(cfg.BufferSize),
		socket:  cfg.Socket,
		created: time.Now(),
	}
	if err := c.handshake(hello); err != nil {
		_ = sock.Close()
		return nil, err
	}
	c.state.Store(int32(stateConnected))
	logger.V(1).Info("Connected", "Id", c.Id, "Addr", cfg.Addr(), "Greeting", c.greeting.Type)
	return c, nil
}

// SetCollector attaches a command metrics collector. A nil collector
// disables recording.
func (c *Conn) SetCollector(col stats.Collector) {
	c.stats = col
}

// Greeting returns the server's HELLO reply (a map of server properties
// under RESP3).
func (c *Conn) Greeting() *resp.Value {
	return c.greeting
}

func (c *Conn) handshake(hello Hello) error {
	// The greeting is a fixed literal inline command, not an array frame.
	if err := c.writeRaw(hello.Encode()); err != nil {
		return err
	}
	reply, err := c.readReply()
	if err != nil {
		return err
	}
	if reply.IsError() {
		return fmt.Errorf("%w: %s", ErrHandshakeRejected, reply.Text())
	}
	c.greeting = reply
	return nil
}

// Send encodes one command line as an array of bulk strings, writes it, and
// blocks until exactly one reply value is assembled. Fully synchronous: no
// request is issued while a previous reply is outstanding.
func (c *Conn) Send(line string) (*resp.Value, error) {
	if connState(c.state.Load()) != stateConnected {
		return nil, ErrNotConnected
	}
	cmd := resp.FromCommandLine(line)
	if len(cmd.Elems) == 0 {
		return nil, ErrEmptyCommand
	}

	began := time.Now()
	if err := resp.Encode(cmd, c.buf); err != nil {
		return nil, err
	}
	if err := c.drainBuffer(); err != nil {
		c.fail()
		return nil, err
	}
	reply, err := c.readReply()
	if err != nil {
		c.fail()
		return nil, err
	}
	if c.stats != nil {
		name := strings.ToUpper(string(cmd.Command()))
		c.stats.IncrCommand(name)
		c.stats.RecordLatency(name, time.Since(began))
	}
	return reply, nil
}

// readReply runs the decode-retry loop: attempt a decode, and when the
// frame is incomplete perform one blocking read and try again. Malformed
// bytes and transport failures are fatal to the connection.
func (c *Conn) readReply() (*resp.Value, error) {
	for {
		value, err := resp.Decode(c.buf)
		if err == nil {
			c.buf.Compact()
			return value, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			logger.Error(err, "Protocol error, connection unusable", "Id", c.Id)
			if c.stats != nil {
				c.stats.IncrError("protocol")
			}
			return nil, err
		}
		if err := c.fillOnce(); err != nil {
			return nil, err
		}
	}
}

func (c *Conn) fillOnce() error {
	if c.socket.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.socket.ReadTimeout))
	}
	n, err := c.buf.Fill(c.conn)
	if err != nil {
		if common.IsConnUnavailable(err) {
			if c.stats != nil {
				c.stats.IncrError("closed")
			}
			return fmt.Errorf("%w: %v", ErrConnClosed, err)
		}
		kind := "io"
		if common.IsTimeout(err) {
			kind = "timeout"
		}
		if c.stats != nil {
			c.stats.IncrError(kind)
		}
		return fmt.Errorf("rredis: read failed: %w", err)
	}
	if n == 0 {
		// graceful close mid-frame
		if c.stats != nil {
			c.stats.IncrError("closed")
		}
		return ErrConnClosed
	}
	return nil
}

func (c *Conn) drainBuffer() error {
	if c.socket.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.socket.WriteTimeout))
	}
	if err := c.buf.Drain(c.conn); err != nil {
		if c.stats != nil {
			c.stats.IncrError("io")
		}
		return fmt.Errorf("rredis: write failed: %w", err)
	}
	return nil
}

func (c *Conn) writeRaw(p []byte) error {
	if c.socket.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.socket.WriteTimeout))
	}
	for len(p) > 0 {
		n, err := c.conn.Write(p)
		if err != nil {
			return fmt.Errorf("rredis: write failed: %w", err)
		}
		p = p[n:]
	}
	return nil
}

// fail transitions to Closed after a fatal error. The buffer state is not
// recoverable; callers reconnect with a fresh Conn.
func (c *Conn) fail() {
	if c.state.Swap(int32(stateClosed)) != int32(stateClosed) {
		_ = c.conn.Close()
	}
}

// Close shuts the connection down. Idempotent.
func (c *Conn) Close() error {
	if c.state.Swap(int32(stateClosed)) == int32(stateClosed) {
		return nil
	}
	err := c.conn.Close()
	logger.V(1).Info("Connection closed", "Id", c.Id, "error", err)
	return err
}

// Connected reports whether Send may be called.
func (c *Conn) Connected() bool {
	return connState(c.state.Load()) == stateConnected
}

// RemoteAddr returns the peer address, or nil before connecting.
func (c *Conn) RemoteAddr() net.Addr {
	if c.conn != nil {
		return c.conn.RemoteAddr()
	}
	return nil
}
