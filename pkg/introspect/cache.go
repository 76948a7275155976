package introspect

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"

	"github.com/Aiclear/ait-rredis-cli/pkg/common"
	"github.com/Aiclear/ait-rredis-cli/pkg/resp"
)

var logger = common.InitLogger().WithName("introspect")

// Sender is the narrow surface the cache needs from a connection: send a
// command, get a value. It keeps this package away from buffer and socket
// internals.
type Sender interface {
	Send(line string) (*resp.Value, error)
}

// CommandDoc is the cached metadata for one server command, parsed from
// the COMMAND reply.
type CommandDoc struct {
	Name     string
	Arity    int64
	Flags    []string
	FirstKey int64
	LastKey  int64
	Step     int64
}

// Hint renders a one-line usage hint for the REPL.
func (d *CommandDoc) Hint() string {
	arity := "variadic"
	if d.Arity > 0 {
		arity = fmt.Sprintf("%d args", d.Arity-1)
	} else if d.Arity < 0 {
		arity = fmt.Sprintf(">=%d args", -d.Arity-1)
	}
	if len(d.Flags) == 0 {
		return fmt.Sprintf("%s (%s)", d.Name, arity)
	}
	return fmt.Sprintf("%s (%s) [%s]", d.Name, arity, strings.Join(d.Flags, " "))
}

// DocCache caches command metadata and a key-space snapshot. Lookups run on
// the interactive path while refreshes run on a separate goroutine with its
// own connection, hence the concurrent map.
type DocCache struct {
	docs            *xsync.MapOf[string, *CommandDoc]
	keys            atomic.Pointer[[]string]
	lastKeysRefresh atomic.Int64
	refreshEvery    time.Duration
}

func NewDocCache(refreshEvery time.Duration) *DocCache {
	if refreshEvery <= 0 {
		refreshEvery = 30 * time.Second
	}
	return &DocCache{
		docs:         xsync.NewMapOf[string, *CommandDoc](),
		refreshEvery: refreshEvery,
	}
}

// Lookup returns the cached doc for a command name, case-insensitively.
func (c *DocCache) Lookup(name string) (*CommandDoc, bool) {
	return c.docs.Load(strings.ToUpper(name))
}

// CommandNames returns all cached command names.
func (c *DocCache) CommandNames() []string {
	names := make([]string, 0, c.docs.Size())
	c.docs.Range(func(name string, _ *CommandDoc) bool {
		names = append(names, name)
		return true
	})
	return names
}

// MatchingCommands returns cached command names starting with prefix.
func (c *DocCache) MatchingCommands(prefix string) []string {
	upper := strings.ToUpper(prefix)
	return lo.Filter(c.CommandNames(), func(name string, _ int) bool {
		return strings.HasPrefix(name, upper)
	})
}

// Keys returns the last key-space snapshot.
func (c *DocCache) Keys() []string {
	if p := c.keys.Load(); p != nil {
		return *p
	}
	return nil
}

// MatchingKeys returns cached keys starting with prefix.
func (c *DocCache) MatchingKeys(prefix string) []string {
	return lo.Filter(c.Keys(), func(key string, _ int) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// RefreshCommands repopulates the doc cache from one COMMAND round trip.
func (c *DocCache) RefreshCommands(conn Sender) error {
	reply, err := conn.Send("COMMAND")
	if err != nil {
		return err
	}
	docs := ParseCommandReply(reply)
	for _, doc := range docs {
		c.docs.Store(doc.Name, doc)
	}
	logger.V(1).Info("Command docs refreshed", "commands", len(docs))
	return nil
}

// RefreshKeys replaces the key-space snapshot, at most once per
// refreshEvery. Failures keep the previous snapshot.
func (c *DocCache) RefreshKeys(conn Sender) error {
	now := time.Now().UnixNano()
	last := c.lastKeysRefresh.Load()
	if last != 0 && time.Duration(now-last) < c.refreshEvery {
		return nil
	}
	if !c.lastKeysRefresh.CompareAndSwap(last, now) {
		// another refresher won the interval
		return nil
	}
	reply, err := conn.Send("KEYS *")
	if err != nil {
		return err
	}
	if reply.Type != resp.RespArray {
		return fmt.Errorf("introspect: unexpected KEYS reply type %q", reply.Type)
	}
	keys := lo.FilterMap(reply.Elems, func(elem *resp.Value, _ int) (string, bool) {
		if elem.Type == resp.RespString {
			return string(elem.Data), true
		}
		return "", false
	})
	c.keys.Store(&keys)
	return nil
}

// ParseCommandReply extracts command docs from a COMMAND reply: an array
// of per-command arrays laid out as [name, arity, flags, firstKey, lastKey,
// step, ...]. Entries that do not match the shape are skipped.
func ParseCommandReply(reply *resp.Value) []*CommandDoc {
	if reply == nil || reply.Type != resp.RespArray {
		return nil
	}
	docs := make([]*CommandDoc, 0, len(reply.Elems))
	for _, entry := range reply.Elems {
		if entry.Type != resp.RespArray || len(entry.Elems) < 6 {
			continue
		}
		name := entry.Elems[0]
		if name.Type != resp.RespString || len(name.Data) == 0 {
			continue
		}
		docs = append(docs, &CommandDoc{
			Name:     strings.ToUpper(string(name.Data)),
			Arity:    intAt(entry.Elems, 1),
			Flags:    stringArray(entry.Elems[2]),
			FirstKey: intAt(entry.Elems, 3),
			LastKey:  intAt(entry.Elems, 4),
			Step:     intAt(entry.Elems, 5),
		})
	}
	return docs
}

func intAt(elems []*resp.Value, i int) int64 {
	if i < len(elems) && elems[i].Type == resp.RespInt {
		return elems[i].Int
	}
	return 0
}

func stringArray(v *resp.Value) []string {
	if !v.IsAggregate() {
		return nil
	}
	return lo.FilterMap(v.Elems, func(elem *resp.Value, _ int) (string, bool) {
		switch elem.Type {
		case resp.RespString, resp.RespStatus:
			return string(elem.Data), true
		default:
			return "", false
		}
	})
}
