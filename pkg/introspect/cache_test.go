package introspect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aiclear/ait-rredis-cli/pkg/resp"
)

// fakeSender replays canned replies keyed by command line.
type fakeSender struct {
	replies map[string]*resp.Value
	calls   []string
}

func (f *fakeSender) Send(line string) (*resp.Value, error) {
	f.calls = append(f.calls, line)
	if reply, ok := f.replies[line]; ok {
		return reply, nil
	}
	return resp.NewSimpleError("ERR unknown command"), nil
}

func commandEntry(name string, arity int64, flags ...string) *resp.Value {
	flagElems := make([]*resp.Value, 0, len(flags))
	for _, f := range flags {
		flagElems = append(flagElems, resp.NewSimpleString(f))
	}
	return resp.NewArray(
		resp.NewBulkString(name),
		resp.NewInteger(arity),
		&resp.Value{Type: resp.RespArray, Elems: flagElems},
		resp.NewInteger(1),
		resp.NewInteger(1),
		resp.NewInteger(1),
	)
}

func TestParseCommandReply(t *testing.T) {
	reply := resp.NewArray(
		commandEntry("get", 2, "readonly", "fast"),
		commandEntry("set", -3, "write"),
		resp.NewBulkString("not an entry"),                   // wrong shape, skipped
		resp.NewArray(resp.NewBulkString("too"), resp.NewInteger(1)), // too short, skipped
	)

	docs := ParseCommandReply(reply)
	require.Len(t, docs, 2)
	assert.Equal(t, "GET", docs[0].Name)
	assert.Equal(t, int64(2), docs[0].Arity)
	assert.Equal(t, []string{"readonly", "fast"}, docs[0].Flags)
	assert.Equal(t, int64(1), docs[0].FirstKey)
	assert.Equal(t, "SET", docs[1].Name)
	assert.Equal(t, int64(-3), docs[1].Arity)
}

func TestDocCache_LookupAndMatch(t *testing.T) {
	sender := &fakeSender{replies: map[string]*resp.Value{
		"COMMAND": resp.NewArray(
			commandEntry("get", 2, "readonly"),
			commandEntry("getrange", 4, "readonly"),
			commandEntry("set", -3, "write"),
		),
	}}

	cache := NewDocCache(time.Minute)
	require.NoError(t, cache.RefreshCommands(sender))

	doc, ok := cache.Lookup("get")
	require.True(t, ok)
	assert.Equal(t, "GET", doc.Name)

	_, ok = cache.Lookup("nope")
	assert.False(t, ok)

	matches := cache.MatchingCommands("ge")
	assert.ElementsMatch(t, []string{"GET", "GETRANGE"}, matches)
}

func TestDocCache_RefreshKeysRateLimited(t *testing.T) {
	sender := &fakeSender{replies: map[string]*resp.Value{
		"KEYS *": resp.NewArray(
			resp.NewBulkString("user:1"),
			resp.NewBulkString("user:2"),
			resp.NewBulkString("session:9"),
		),
	}}

	cache := NewDocCache(time.Hour)
	require.NoError(t, cache.RefreshKeys(sender))
	assert.ElementsMatch(t, []string{"user:1", "user:2", "session:9"}, cache.Keys())
	assert.Equal(t, []string{"user:1", "user:2"}, cache.MatchingKeys("user:"))

	// within the refresh interval the snapshot is reused, no round trip
	require.NoError(t, cache.RefreshKeys(sender))
	assert.Len(t, sender.calls, 1)
}

func TestCommandDoc_Hint(t *testing.T) {
	fixed := &CommandDoc{Name: "GET", Arity: 2, Flags: []string{"readonly"}}
	assert.Equal(t, "GET (1 args) [readonly]", fixed.Hint())

	variadic := &CommandDoc{Name: "SET", Arity: -3}
	assert.Equal(t, "SET (>=2 args)", variadic.Hint())
}

func TestParseInfo(t *testing.T) {
	payload := "# Server\r\nredis_version:7.2.0\r\n\r\n# Memory\r\nused_memory:1048576\r\n" +
		"maxmemory:4194304\r\n# Clients\r\nconnected_clients:12\r\n" +
		"total_connections_received:340\r\ninstantaneous_ops_per_sec:55\r\n" +
		"used_cpu_sys:1.25\r\nused_cpu_user:0.50\r\n"

	snap := ParseInfo(resp.NewBulkString(payload))
	assert.Equal(t, uint64(1048576), snap.UsedMemory)
	assert.Equal(t, uint64(4194304), snap.TotalMemory)
	assert.Equal(t, uint64(12), snap.ConnectedClients)
	assert.Equal(t, uint64(340), snap.TotalConnections)
	assert.Equal(t, uint64(55), snap.OpsPerSec)
	assert.InDelta(t, 1.25, snap.UsedCPUSys, 1e-9)
	assert.InDelta(t, 0.50, snap.UsedCPUUser, 1e-9)
	assert.InDelta(t, 25.0, snap.MemoryUsagePercent(), 1e-9)
}

func TestParseInfo_MissingMaxMemoryFallsBack(t *testing.T) {
	snap := ParseInfo(resp.NewBulkString("used_memory:2048\r\n"))
	assert.Equal(t, uint64(2048), snap.UsedMemory)
	assert.Equal(t, uint64(1<<30), snap.TotalMemory)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512B", FormatBytes(512))
	assert.Equal(t, "1.00KB", FormatBytes(1024))
	assert.Equal(t, "4.00MB", FormatBytes(4<<20))
	assert.Equal(t, "2.00GB", FormatBytes(2<<30))
}
