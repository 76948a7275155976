package introspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aiclear/ait-rredis-cli/pkg/resp"
)

// InfoSnapshot is the parsed subset of an INFO reply this client cares
// about. Pure data; fetching it is the caller's business and must happen on
// an independent connection, never the interactive one.
type InfoSnapshot struct {
	UsedMemory       uint64
	TotalMemory      uint64
	ConnectedClients uint64
	TotalConnections uint64
	OpsPerSec        uint64
	UsedCPUSys       float64
	UsedCPUUser      float64
}

// ParseInfo reads the INFO bulk-string payload. Section headers and blank
// lines are skipped; unknown fields are ignored.
func ParseInfo(reply *resp.Value) *InfoSnapshot {
	var text string
	switch reply.Type {
	case resp.RespString, resp.RespStatus:
		text = string(reply.Data)
	default:
		return &InfoSnapshot{TotalMemory: 1}
	}

	snap := &InfoSnapshot{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "used_memory":
			snap.UsedMemory = parseUint(value)
		case "used_memory_peak":
			snap.TotalMemory = max(snap.TotalMemory, parseUint(value))
		case "maxmemory":
			if m := parseUint(value); m > 0 {
				snap.TotalMemory = m
			}
		case "connected_clients":
			snap.ConnectedClients = parseUint(value)
		case "total_connections_received":
			snap.TotalConnections = parseUint(value)
		case "instantaneous_ops_per_sec":
			snap.OpsPerSec = parseUint(value)
		case "used_cpu_sys":
			snap.UsedCPUSys = parseFloat(value)
		case "used_cpu_user":
			snap.UsedCPUUser = parseFloat(value)
		}
	}
	if snap.TotalMemory == 0 {
		snap.TotalMemory = max(snap.UsedMemory, 1<<30)
	}
	return snap
}

// MemoryUsagePercent returns used/total as a percentage.
func (s *InfoSnapshot) MemoryUsagePercent() float64 {
	if s.TotalMemory == 0 {
		return 0
	}
	return float64(s.UsedMemory) / float64(s.TotalMemory) * 100
}

// String renders the snapshot as one status line.
func (s *InfoSnapshot) String() string {
	return fmt.Sprintf("mem=%s/%s (%.1f%%) clients=%d conns=%d ops/s=%d cpu(sys/user)=%.2f/%.2f",
		FormatBytes(s.UsedMemory), FormatBytes(s.TotalMemory), s.MemoryUsagePercent(),
		s.ConnectedClients, s.TotalConnections, s.OpsPerSec, s.UsedCPUSys, s.UsedCPUUser)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n uint64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.2fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.2fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.2fKB", float64(n)/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func parseUint(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
