// Package lockmap serializes balance-affecting operations per user. Every
// wallet mutation path must hold the user's lock across its
// read-compute-write section; operations on different users run in parallel.
package lockmap

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Registry hands out one lock per user id. Entries are created lazily and
// never evicted; growth is bounded by the number of distinct active users
// since process start.
type Registry struct {
	locks sync.Map // userID -> *semaphore.Weighted
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Guard represents a held lock. Release is idempotent so it can be deferred
// as a safety net and also called explicitly before post-commit work.
type Guard struct {
	sem  *semaphore.Weighted
	once sync.Once
}

func (g *Guard) Release() {
	g.once.Do(func() {
		g.sem.Release(1)
	})
}

// Acquire blocks until the user's lock is available or ctx is done. The
// LoadOrStore guarantees a single effective lock instance per key even when
// two callers race on an absent entry.
func (r *Registry) Acquire(ctx context.Context, userID string) (*Guard, error) {
	v, _ := r.locks.LoadOrStore(userID, semaphore.NewWeighted(1))
	sem := v.(*semaphore.Weighted)

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Guard{sem: sem}, nil
}
