package terminal

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sahiltable85/RarePay/session"
)

// RetryBootstrap calls m.Bootstrap until it succeeds, b gives up or ctx is
// done. Only failures caused by an unreachable sessions endpoint are
// retried; link failures and rejected exchanges are returned at once.
//
// Charges are never retried; repeating a card-present transaction after an
// ambiguous failure can charge the card twice.
func RetryBootstrap(ctx context.Context, m *Manager, b backoff.BackOff) error {
	attempt := 0
	op := func() error {
		attempt++
		err := m.Bootstrap(ctx)
		if err == nil {
			return nil
		}
		var transportErr *session.TransportError
		if errors.As(err, &transportErr) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		m.logger.Warn("bootstrap failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}
