package tracking

import (
	"context"
	"sync"
	"time"

	"backend-campusrun/internal/location"
	"backend-campusrun/internal/metrics"
	"backend-campusrun/internal/shared/geo"

	"go.uber.org/zap"
)

// Session owns the location subscription for one workout and accumulates
// samples, distance, steps and altitude readings while it is active.
type Session struct {
	provider location.Provider
	policy   Policy
	watch    location.WatchOptions
	position location.PositionOptions
	now      func() time.Time
	log      *zap.Logger

	mu         sync.Mutex
	gen        uint64
	sub        *location.Subscription
	active     bool
	paused     bool
	resumed    bool
	startedAt  time.Time
	coords     []location.Coordinate
	distanceKm float64
	steps      int
	lastStepAt time.Time
	altitudes  []float64
	onUpdate   location.Handler
}

type Option func(*Session)

func WithPolicy(p Policy) Option {
	return func(s *Session) { s.policy = p }
}

func WithWatchOptions(opts location.WatchOptions) Option {
	return func(s *Session) { s.watch = opts }
}

func WithPositionOptions(opts location.PositionOptions) Option {
	return func(s *Session) { s.position = opts }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

func NewSession(provider location.Provider, opts ...Option) *Session {
	s := &Session{
		provider: provider,
		policy:   DefaultPolicy(),
		watch: location.WatchOptions{
			Accuracy:     location.AccuracyHigh,
			MinInterval:  time.Second,
			MinDistanceM: 1,
		},
		position: location.PositionOptions{
			Accuracy:   location.AccuracyHigh,
			Timeout:    10 * time.Second,
			MaximumAge: time.Minute,
		},
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Policy() Policy {
	return s.policy
}

// Start requests permission and subscribes to location updates. It returns
// true when tracking is active afterwards. A second Start while active is a
// no-op. onUpdate receives every sample, including those that arrive while
// paused.
func (s *Session) Start(ctx context.Context, onUpdate location.Handler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return true
	}

	perm, err := s.provider.RequestPermission(ctx)
	if err != nil || perm != location.Granted {
		s.log.Warn("location permission not granted", zap.String("permission", string(perm)), zap.Error(err))
		return false
	}

	s.gen++
	gen := s.gen
	sub, err := s.provider.Subscribe(ctx, func(c location.Coordinate) { s.handleSample(gen, c) }, s.watch)
	if err != nil {
		s.log.Warn("location subscribe failed", zap.Error(err))
		return false
	}

	s.sub = &sub
	s.active = true
	s.paused = false
	s.resumed = false
	s.startedAt = s.now()
	s.coords = nil
	s.distanceKm = 0
	s.steps = 0
	s.lastStepAt = time.Time{}
	s.altitudes = nil
	s.onUpdate = onUpdate
	metrics.TrackingActive.Set(1)
	s.log.Info("tracking started", zap.String("subscription", sub.ID))
	return true
}

func (s *Session) handleSample(gen uint64, c location.Coordinate) {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	cb := s.onUpdate
	if s.paused {
		s.mu.Unlock()
		if cb != nil {
			cb(c)
		}
		return
	}

	n := len(s.coords)
	c.Resumed = s.resumed && n > 0
	s.resumed = false
	if n > 0 && !c.Resumed {
		s.distanceKm += geo.DistanceKm(s.coords[n-1].Point(), c.Point())
	}
	s.coords = append(s.coords, c)
	if c.Altitude != nil {
		s.altitudes = append(s.altitudes, *c.Altitude)
	}
	if c.Speed != nil && *c.Speed > s.policy.StepSpeedThreshold {
		now := s.now()
		if s.lastStepAt.IsZero() || now.Sub(s.lastStepAt) >= s.policy.StepDebounce {
			s.steps++
			s.lastStepAt = now
		}
	}
	s.mu.Unlock()

	metrics.SamplesIngested.Inc()
	if cb != nil {
		cb(c)
	}
}

// Stop releases the subscription and returns a copy of the samples gathered.
// The buffer itself is kept until the next Start or Reset.
func (s *Session) Stop() []location.Coordinate {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.active = false
	s.paused = false
	s.resumed = false
	s.onUpdate = nil
	out := append([]location.Coordinate{}, s.coords...)
	s.mu.Unlock()

	if sub != nil {
		if err := s.provider.Unsubscribe(*sub); err != nil {
			s.log.Warn("location unsubscribe failed", zap.Error(err))
		}
		metrics.TrackingActive.Set(0)
		s.log.Info("tracking stopped", zap.Int("samples", len(out)))
	}
	return out
}

// Pause freezes accumulation while keeping the subscription. Returns false
// when no session is active.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.paused = true
	return true
}

// Resume continues accumulation. The first sample after it starts a new leg.
func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	if s.paused {
		s.resumed = true
	}
	s.paused = false
	return true
}

// Reset stops tracking and clears everything accumulated.
func (s *Session) Reset() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = time.Time{}
	s.coords = nil
	s.distanceKm = 0
	s.steps = 0
	s.lastStepAt = time.Time{}
	s.altitudes = nil
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Session) Coordinates() []location.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]location.Coordinate{}, s.coords...)
}

func (s *Session) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// CurrentMetrics derives live figures from the accumulators. Elapsed time is
// measured from Start and includes paused intervals.
func (s *Session) CurrentMetrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsedMin := 0.0
	if !s.startedAt.IsZero() {
		elapsedMin = s.now().Sub(s.startedAt).Minutes()
	}

	m := Metrics{
		DistanceKm:     s.distanceKm,
		ElevationGainM: elevationGain(s.altitudes),
	}
	if s.distanceKm > 0 {
		m.PaceMinPerKm = elapsedMin / s.distanceKm
	}
	if elapsedMin > 0 {
		m.Cadence = float64(s.steps) / elapsedMin
	}
	m.Calories = s.policy.Calories(m.DistanceKm, m.ElevationGainM)
	return m
}

// CurrentPosition performs a one-shot fix. ok is false when permission is
// missing or the provider fails.
func (s *Session) CurrentPosition(ctx context.Context) (location.Coordinate, bool) {
	perm, err := s.provider.RequestPermission(ctx)
	if err != nil || perm != location.Granted {
		return location.Coordinate{}, false
	}
	c, err := s.provider.CurrentPosition(ctx, s.position)
	if err != nil {
		s.log.Debug("current position failed", zap.Error(err))
		return location.Coordinate{}, false
	}
	return c, true
}

// Region returns a display region enclosing the buffered samples.
func (s *Session) Region(padding float64) (geo.Region, bool) {
	return geo.RegionFor(location.Points(s.Coordinates()), padding)
}
