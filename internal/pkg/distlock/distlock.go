// Package distlock provides the distributed lock guarding concurrent
// campaign sends across processes.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for a single-use distributed lock.
// A lock instance belongs to one goroutine; concurrent senders use
// separate instances for the same key.
type DistLock interface {
	// Acquire tries to take the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Factory hands out locks keyed by name, using the best available
// backend: Redis when configured (preferred for cross-host locking),
// otherwise PostgreSQL advisory locks on the campaign store itself.
type Factory struct {
	redis *redis.Client
	db    *sql.DB
}

// NewFactory creates a lock factory. Either client may be nil; at
// least one must be set.
func NewFactory(redisClient *redis.Client, db *sql.DB) *Factory {
	return &Factory{redis: redisClient, db: db}
}

// ForKey returns a fresh lock for the given key.
func (f *Factory) ForKey(key string, ttl time.Duration) DistLock {
	if f.redis != nil {
		return NewRedisLock(f.redis, key, ttl)
	}
	return NewPGAdvisoryLock(f.db, key)
}

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
// pg_try_advisory_lock is session-scoped, so the lock pins one
// connection out of the pool for its whole lifetime: Acquire and
// Release must run on the same session, and the lock releases
// automatically if that connection drops, giving crash-safety similar
// to a Redis TTL.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates an advisory lock with a deterministic lock
// id derived from the key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

// Acquire tries to take the advisory lock without blocking. On success
// the underlying connection stays checked out until Release.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release releases the advisory lock on its session and returns the
// connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	l.conn.Close()
	l.conn = nil
	return err
}
