package run

import (
	"context"
	"sync"
	"time"

	"backend-campusrun/internal/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const queryKey = "data"

// Query caches one remote collection for a staleness window. Concurrent
// misses share a single fetch. A fetch that started before an Invalidate is
// returned to its callers but never cached.
type Query[T any] struct {
	name  string
	fetch func(context.Context) ([]T, error)
	stale time.Duration
	cache *cache.Cache
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func NewQuery[T any](name string, stale time.Duration, fetch func(context.Context) ([]T, error)) *Query[T] {
	return &Query[T]{
		name:  name,
		fetch: fetch,
		stale: stale,
		cache: cache.New(stale, 0),
	}
}

func (q *Query[T]) Get(ctx context.Context) ([]T, error) {
	if v, ok := q.cache.Get(queryKey); ok {
		metrics.CacheLookups.WithLabelValues(q.name, "hit").Inc()
		return v.([]T), nil
	}
	metrics.CacheLookups.WithLabelValues(q.name, "miss").Inc()

	q.mu.Lock()
	gen := q.gen
	q.mu.Unlock()

	v, err, _ := q.group.Do(q.name, func() (any, error) {
		items, err := q.fetch(ctx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if gen == q.gen && q.stale > 0 {
			q.cache.SetDefault(queryKey, items)
		}
		q.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// Invalidate marks the cached collection stale so the next Get re-fetches.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	q.gen++
	q.cache.Delete(queryKey)
	q.mu.Unlock()
	q.group.Forget(q.name)
}

func (q *Query[T]) Refresh(ctx context.Context) ([]T, error) {
	q.Invalidate()
	return q.Get(ctx)
}
