// Package lock implements the distributed-append coordinator (C2): named
// leases on an external Redis-compatible store, acquired with bounded
// retry and released idempotently.
//
// The Redis client is github.com/go-redis/redis/v8, the version pinned
// by the pack's own kvtools/redis module and corroborated by
// storj-storj's OpenClient(ctx, addr, password, db) signature for its
// (test-only, in this pack) Redis-backed kvstore client.
package lock

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
)

const (
	// DefaultTTL is the lease time-to-live, per spec.md §3.
	DefaultTTL = 30 * time.Second
	// MaxAttempts is the fixed acquisition retry budget, per spec.md §4.2.
	MaxAttempts = 3
	// RetryBase is the linear-backoff unit, per spec.md §4.2:
	// attempt sleeps for attempt × RetryBase.
	RetryBase = 1 * time.Second
)

// casDeleteScript atomically deletes KEYS[1] only if its current value
// equals ARGV[1] (the caller's own token). This is the "recommended but
// not required" hardening from spec.md §9, exposed via Lease.ReleaseCAS.
// It is sent with plain EVAL rather than EVALSHA + script caching: a
// release happens at most once per append, so there is no hot path to
// optimize with SCRIPT LOAD.
const casDeleteScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Client is the subset of *redis.Client the Coordinator depends on,
// small enough to fake in tests without a real server.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Coordinator grants and revokes Leases against a Redis-compatible store.
type Coordinator struct {
	client      Client
	ttl         time.Duration
	maxAttempts int
	retryBase   time.Duration
	hostID      string
	counter     uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTL overrides the default lease TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.ttl = ttl }
}

// WithMaxAttempts overrides the default retry budget.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) { c.maxAttempts = n }
}

// WithRetryBase overrides the default linear-backoff unit.
func WithRetryBase(d time.Duration) Option {
	return func(c *Coordinator) { c.retryBase = d }
}

// NewCoordinator builds a Coordinator over client with spec.md §4.2's
// defaults, applying any Options on top.
func NewCoordinator(client Client, opts ...Option) *Coordinator {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	c := &Coordinator{
		client:      client,
		ttl:         DefaultTTL,
		maxAttempts: MaxAttempts,
		retryBase:   RetryBase,
		hostID:      host,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lease is a named lock owned by the request that acquired it.
type Lease struct {
	coordinator *Coordinator
	key         string
	token       string
	released    int32
}

// Key returns the lease's coordinator key.
func (l *Lease) Key() string { return l.key }

// Token returns the lease's opaque acquisition token.
func (l *Lease) Token() string { return l.token }

// Acquire attempts to grant a lease on key, retrying up to maxAttempts
// times with linear backoff (attempt × retryBase) per spec.md §4.2. A
// coordinator I/O error counts as one failed attempt, same as the key
// simply already being held. callerID is folded into the lease token
// for diagnostic purposes only; it does not affect ownership semantics.
func (c *Coordinator) Acquire(ctx context.Context, key string, callerID string) (*Lease, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		token := c.newToken(callerID)
		ok, err := c.client.SetNX(ctx, key, token, c.ttl).Result()
		if err == nil && ok {
			return &Lease{coordinator: c, key: key, token: token}, nil
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}

		backoff := time.Duration(attempt) * c.retryBase
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fserrors.Wrap(ctx.Err(), fserrors.LockUnavailable,
				fmt.Sprintf("lease acquisition for %q cancelled during retry backoff", key))
		}
	}
	msg := fmt.Sprintf("could not acquire lease for %q after %d attempts", key, c.maxAttempts)
	if lastErr != nil {
		return nil, fserrors.Wrap(lastErr, fserrors.LockUnavailable, msg)
	}
	return nil, fserrors.New(fserrors.LockUnavailable, msg)
}

// Release deletes the lease's key unconditionally, per spec.md §4.2's
// accepted hardening tradeoff (keys are short-lived and self-expiring).
// It is idempotent: a second call on the same Lease is a no-op that
// never returns an error, so it is always safe to call from a deferred
// cleanup on every exit path, including after a panic recovery.
func (l *Lease) Release(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		return nil
	}
	if err := l.coordinator.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("release lease %q: %w", l.key, err)
	}
	return nil
}

// ReleaseCAS is the hardened release path from spec.md §9: it deletes
// the key only if its stored value still equals this lease's own token,
// so a lease that expired and was re-acquired by someone else is never
// torn down by a late release call. Not used by the default append
// path; available for callers that want the stronger guarantee.
func (l *Lease) ReleaseCAS(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		return nil
	}
	if err := l.coordinator.client.Eval(ctx, casDeleteScript, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("CAS release lease %q: %w", l.key, err)
	}
	return nil
}

func (c *Coordinator) newToken(callerID string) string {
	n := atomic.AddUint64(&c.counter, 1)
	if callerID == "" {
		callerID = "anonymous"
	}
	return fmt.Sprintf("%s/%d/%s/%d-%s", c.hostID, os.Getpid(), callerID, n, uuid.NewString())
}
