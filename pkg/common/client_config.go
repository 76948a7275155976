package common

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

type AuthConfig struct {
	Username string `help:"Username for the HELLO AUTH clause. Defaults to 'default' when only a password is given." name:"user"`
	Password string `help:"Password for the HELLO AUTH clause" name:"pass"`
}

type SocketConfig struct {
	DialTimeout  time.Duration `help:"TCP dial timeout" name:"dial-timeout" default:"3s"`
	ReadTimeout  time.Duration `help:"Per-read socket deadline" name:"read-timeout" default:"30s"`
	WriteTimeout time.Duration `help:"Per-write socket deadline" name:"write-timeout" default:"10s"`
	KeepAlive    time.Duration `help:"TCP keep-alive interval" name:"keep-alive" default:"30s"`
	NoDelay      bool          `help:"Set TCP_NODELAY on the connection" name:"no-delay" default:"true"`
}

type StatsConfig struct {
	EnableStats bool `help:"Collect per-command latency stats (shown via _stats)" name:"enable" default:"true"`
}

type IntrospectConfig struct {
	EnableDocs      bool          `help:"Fetch command metadata for hints on a side connection" name:"docs" default:"true"`
	KeysRefreshTime time.Duration `help:"Minimum interval between key-space refreshes" name:"keys-refresh" default:"30s"`
}

type ClientConfig struct {
	Host       string           `help:"Redis server host" arg:"" default:"127.0.0.1"`
	Port       int              `help:"Redis server port" arg:"" optional:"" default:"6379"`
	ClientName string           `help:"Connection name sent via HELLO SETNAME" name:"client-name" default:"rredis_cli"`
	BufferSize int              `help:"Protocol buffer capacity in bytes. Hard ceiling on a single reply's encoded size." name:"buffer-size" default:"4194304"`
	Auth       AuthConfig       `embed:"" prefix:"auth."`
	Socket     SocketConfig     `embed:"" prefix:"socket."`
	Stats      StatsConfig      `embed:"" prefix:"stats."`
	Introspect IntrospectConfig `embed:"" prefix:"introspect."`
}

func (c *ClientConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ClientConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}
	if c.BufferSize < 1*KB {
		return fmt.Errorf("buffer size too small: %d (minimum %d)", c.BufferSize, 1*KB)
	}
	if c.Auth.Username != "" && c.Auth.Password == "" {
		return fmt.Errorf("auth username given without a password")
	}
	return nil
}
