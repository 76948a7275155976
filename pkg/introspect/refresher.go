package introspect

import (
	"context"
	"sync"
	"time"

	"github.com/Aiclear/ait-rredis-cli/pkg/client"
	"github.com/Aiclear/ait-rredis-cli/pkg/common"
)

// Refresher keeps a DocCache warm in the background. It owns its own
// connection: RESP has no multiplexing, so sharing the interactive
// connection would interleave replies.
type Refresher struct {
	cache *DocCache
	conn  *client.Conn
	quit  chan struct{}
	wg    sync.WaitGroup
}

// StartRefresher dials an independent connection, performs an initial doc
// fetch, and starts the periodic key-space refresh loop.
func StartRefresher(ctx context.Context, cfg *common.ClientConfig, hello client.Hello, cache *DocCache) (*Refresher, error) {
	conn, err := client.DialWithRetry(ctx, cfg, hello)
	if err != nil {
		return nil, err
	}
	r := &Refresher{
		cache: cache,
		conn:  conn,
		quit:  make(chan struct{}),
	}
	if err := cache.RefreshCommands(conn); err != nil {
		logger.Error(err, "Initial command doc fetch failed")
	}
	r.wg.Add(1)
	go r.loop(cfg.Introspect.KeysRefreshTime)
	return r, nil
}

func (r *Refresher) loop(interval time.Duration) {
	defer r.wg.Done()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			if !r.conn.Connected() {
				logger.V(1).Info("Refresher connection lost, stopping")
				return
			}
			if err := r.cache.RefreshKeys(r.conn); err != nil {
				logger.V(1).Info("Key-space refresh failed", "error", err)
			}
		}
	}
}

// Stop halts the loop and closes the refresher's connection.
func (r *Refresher) Stop() {
	close(r.quit)
	r.wg.Wait()
	_ = r.conn.Close()
}
