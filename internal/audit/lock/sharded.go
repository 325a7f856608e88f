// Package lock serializes commands that read, mutate and save the same
// quality audit. Sharded covers a single process; Redis and Postgres cover a
// fleet.
package lock

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "qualityaudit/pkg/domain-errors"
)

// numShards spreads keys across independent mutexes. Two keys may share a
// shard; that only costs throughput, never correctness.
const numShards = 128

const defaultTimeout = 5 * time.Second

// Sharded provides in-process mutual exclusion per key using sharded mutexes.
type Sharded struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewSharded creates a locker whose critical sections run under timeout
// unless the caller's context already carries a deadline.
func NewSharded(timeout time.Duration) *Sharded {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Sharded{timeout: timeout}
}

func (l *Sharded) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := &l.shards[hashKey(key)%numShards]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}

	return fn(ctx)
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
