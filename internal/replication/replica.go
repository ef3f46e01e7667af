package replication

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnProvider hands out replica connections. Acquire returns
// (nil, nil) when no replica database is configured; callers treat that
// as a valid disabled state, not an error. Each returned connection is
// dedicated to one replication attempt and must be closed by the
// caller.
type ConnProvider interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

type poolConnProvider struct {
	db         *sql.DB
	maxRetries uint64
	interval   time.Duration
}

// NewPoolConnProvider wraps a managed *sql.DB pool, checking out one
// dedicated connection per replication attempt. A nil db means no
// replica is configured. Acquisition is retried with bounded
// exponential backoff; statement execution is never retried.
func NewPoolConnProvider(db *sql.DB, maxRetries uint64, interval time.Duration) ConnProvider {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &poolConnProvider{db: db, maxRetries: maxRetries, interval: interval}
}

func (p *poolConnProvider) Acquire(ctx context.Context) (*sql.Conn, error) {
	if p.db == nil {
		return nil, nil
	}

	var conn *sql.Conn
	operation := func() error {
		c, err := p.db.Conn(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.interval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return conn, nil
}
