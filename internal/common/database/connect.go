// internal/common/database/connect.go
package database

import (
	"context"
	"fmt"
	"time"

	"restaurant-agent/internal/common/logger"
)

// Conn is a backing store the server dials at startup.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 10, InitialDelay: 2 * time.Second}

// Connect dials and pings until the store answers, doubling the delay between
// attempts. Connections that fail their ping are closed before the next try.
func Connect[T Conn](ctx context.Context, name string, policy RetryPolicy, log logger.Logger, dial func() (T, error)) (T, error) {
	var zero T
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	delay := policy.InitialDelay

	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		var conn T
		conn, err = dial()
		if err == nil {
			if err = conn.Ping(ctx); err == nil {
				log.Info(name+" connected", map[string]interface{}{"attempt": attempt})
				return conn, nil
			}
			_ = conn.Close()
		}

		if attempt == policy.Attempts {
			break
		}
		log.Warn(name+" connection failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxAttempts": policy.Attempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, policy.Attempts, err)
}
