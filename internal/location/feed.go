package location

import (
	"context"
	"sync"
	"time"

	"backend-campusrun/internal/shared/geo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Feed is a Provider fed by Push, typically from a device bridge posting
// samples over HTTP.
type Feed struct {
	mu         sync.Mutex
	permission Permission
	watchers   map[string]*watcher
	waiters    []chan Coordinate
	last       *Coordinate
	lastAt     time.Time
	now        func() time.Time
	log        *zap.Logger
}

type watcher struct {
	handler Handler
	opts    WatchOptions
	last    *Coordinate
	lastAt  time.Time
}

func NewFeed(permission Permission, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		permission: permission,
		watchers:   map[string]*watcher{},
		now:        time.Now,
		log:        logger,
	}
}

func (f *Feed) SetPermission(p Permission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permission = p
}

func (f *Feed) RequestPermission(_ context.Context) (Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission, nil
}

func (f *Feed) CurrentPosition(ctx context.Context, opts PositionOptions) (Coordinate, error) {
	f.mu.Lock()
	if f.permission != Granted {
		f.mu.Unlock()
		return Coordinate{}, ErrUnavailable
	}
	if f.last != nil && (opts.MaximumAge <= 0 || f.now().Sub(f.lastAt) <= opts.MaximumAge) {
		c := *f.last
		f.mu.Unlock()
		return c, nil
	}
	wait := make(chan Coordinate, 1)
	f.waiters = append(f.waiters, wait)
	f.mu.Unlock()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	select {
	case c := <-wait:
		return c, nil
	case <-ctx.Done():
		f.dropWaiter(wait)
		return Coordinate{}, ErrTimeout
	}
}

func (f *Feed) dropWaiter(wait chan Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiters {
		if w == wait {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

func (f *Feed) Subscribe(_ context.Context, handler Handler, opts WatchOptions) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permission != Granted {
		return Subscription{}, ErrUnavailable
	}
	sub := Subscription{ID: uuid.NewString()}
	f.watchers[sub.ID] = &watcher{handler: handler, opts: opts}
	f.log.Debug("location watch added", zap.String("subscription", sub.ID))
	return sub, nil
}

func (f *Feed) Unsubscribe(sub Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watchers, sub.ID)
	return nil
}

// Watchers returns the number of live subscriptions.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Push records c as the latest fix and delivers it to every watcher whose
// throttle allows it. It returns the number of handlers invoked.
func (f *Feed) Push(c Coordinate) int {
	f.mu.Lock()
	now := f.now()
	f.last = &c
	f.lastAt = now
	for _, w := range f.waiters {
		w <- c
	}
	f.waiters = nil

	var due []Handler
	for _, w := range f.watchers {
		if !w.accepts(c, now) {
			continue
		}
		w.last = &c
		w.lastAt = now
		due = append(due, w.handler)
	}
	f.mu.Unlock()

	for _, h := range due {
		h(c)
	}
	return len(due)
}

func (w *watcher) accepts(c Coordinate, now time.Time) bool {
	if w.last == nil {
		return true
	}
	if w.opts.MinInterval > 0 && now.Sub(w.lastAt) < w.opts.MinInterval {
		return false
	}
	if w.opts.MinDistanceM > 0 && geo.DistanceKm(w.last.Point(), c.Point())*1000 < w.opts.MinDistanceM {
		return false
	}
	return true
}
