package location

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Replay plays a recorded route back as live samples, one per interval,
// restamped with the wall clock. It backs the simulated-data mode.
type Replay struct {
	route    []Coordinate
	interval time.Duration
	loop     bool
	log      *zap.Logger

	mu      sync.Mutex
	cursor  int
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewReplay(route []Coordinate, interval time.Duration, loop bool, logger *zap.Logger) *Replay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Replay{
		route:    route,
		interval: interval,
		loop:     loop,
		log:      logger,
		cancels:  map[string]context.CancelFunc{},
	}
}

func (r *Replay) RequestPermission(_ context.Context) (Permission, error) {
	if len(r.route) == 0 {
		return Denied, ErrUnavailable
	}
	return Granted, nil
}

func (r *Replay) CurrentPosition(_ context.Context, _ PositionOptions) (Coordinate, error) {
	if len(r.route) == 0 {
		return Coordinate{}, ErrUnavailable
	}
	r.mu.Lock()
	c := r.route[r.cursor%len(r.route)]
	r.mu.Unlock()
	c.Timestamp = time.Now().UnixMilli()
	return c, nil
}

func (r *Replay) Subscribe(_ context.Context, handler Handler, _ WatchOptions) (Subscription, error) {
	if len(r.route) == 0 {
		return Subscription{}, ErrUnavailable
	}
	sub := Subscription{ID: uuid.NewString()}
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.cancels[sub.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.play(ctx, sub, handler)
	return sub, nil
}

func (r *Replay) Unsubscribe(sub Subscription) error {
	r.mu.Lock()
	cancel, ok := r.cancels[sub.ID]
	delete(r.cancels, sub.ID)
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// Wait blocks until every playback goroutine has exited.
func (r *Replay) Wait() {
	r.wg.Wait()
}

func (r *Replay) play(ctx context.Context, sub Subscription, handler Handler) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	sent := 0
	for {
		for i, c := range r.route {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			r.mu.Lock()
			r.cursor = i
			r.mu.Unlock()

			c.Timestamp = time.Now().UnixMilli()
			handler(c)
			sent++
		}
		if !r.loop {
			r.log.Info("replay finished", zap.String("subscription", sub.ID), zap.Int("sent", sent))
			return
		}
	}
}
