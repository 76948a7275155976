package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Aiclear/ait-rredis-cli/pkg/common"
)

var defaultDialBackoff = backoff.WithMaxElapsedTime(30 * time.Second)

// DialWithRetry dials with exponential backoff until the connection comes
// up or the elapsed budget runs out. A rejected handshake is permanent:
// retrying bad credentials cannot succeed.
func DialWithRetry(ctx context.Context, cfg *common.ClientConfig, hello Hello) (*Conn, error) {
	return backoff.Retry[*Conn](ctx, func() (*Conn, error) {
		conn, err := Dial(cfg, hello)
		if err != nil {
			if errors.Is(err, ErrHandshakeRejected) {
				return nil, backoff.Permanent(err)
			}
			logger.V(1).Info("Dial failed, backing off", "Addr", cfg.Addr(), "error", err)
			return nil, err
		}
		return conn, nil
	}, defaultDialBackoff)
}
