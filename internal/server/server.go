package server

import (
	"context"
	"encoding/json"
	"time"

	"backend-campusrun/internal/config"
	"backend-campusrun/internal/db"
	"backend-campusrun/internal/game"
	"backend-campusrun/internal/grouprun"
	"backend-campusrun/internal/location"
	"backend-campusrun/internal/remote"
	"backend-campusrun/internal/route"
	"backend-campusrun/internal/run"
	"backend-campusrun/internal/storage"
	"backend-campusrun/internal/stream"
	"backend-campusrun/internal/task"
	"backend-campusrun/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const setupTimeout = 5 * time.Second

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Log     *zap.Logger
	Stream  *stream.Hub
	Feed    *location.Feed
	Session *tracking.Session
	Store   *run.Store
}

// NewServer assembles the application. Missing infrastructure degrades to
// in-process fallbacks: no database means an in-memory collaborator, and a
// location source that cannot be set up means tracking is unavailable.
func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pg,
		Redis:  redisClient,
		Log:    log,
		Stream: stream.NewHub(redisClient, log.Named("stream")),
	}

	provider := s.locationProvider()
	s.Session = tracking.NewSession(provider,
		tracking.WithPolicy(policyFrom(cfg)),
		tracking.WithWatchOptions(location.WatchOptions{
			Accuracy:     location.AccuracyHigh,
			MinInterval:  cfg.WatchInterval,
			MinDistanceM: cfg.WatchMinDistanceM,
		}),
		tracking.WithPositionOptions(location.PositionOptions{
			Accuracy:   location.AccuracyHigh,
			Timeout:    cfg.LocationTimeout,
			MaximumAge: cfg.LocationMaxAge,
		}),
		tracking.WithLogger(log.Named("tracking")),
	)

	s.Store = run.NewStore(s.Session, s.collaborator(), s.keyValue(), s.Stream, run.Options{
		LiveTick:          cfg.LiveTick,
		GroupRunsStale:    cfg.GroupRunsStale,
		GroupRunsRefresh:  cfg.GroupRunsRefresh,
		TasksStale:        cfg.TasksStale,
		TasksRefresh:      cfg.TasksRefresh,
		GamesStale:        cfg.GamesStale,
		GamesRefresh:      cfg.GamesRefresh,
		CheckpointRadiusM: cfg.CheckpointRadiusM,
	}, log.Named("run"))

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := s.Store.Load(ctx); err != nil {
		log.Warn("history not restored", zap.Error(err))
	}

	registerRoutes(s)
	return s
}

func policyFrom(cfg config.Config) tracking.Policy {
	p := tracking.DefaultPolicy()
	if cfg.CaloriesPerKm > 0 {
		p.CaloriesPerKm = cfg.CaloriesPerKm
	}
	if cfg.CaloriesPerElevationM > 0 {
		p.CaloriesPerElevationM = cfg.CaloriesPerElevationM
	}
	if cfg.CadenceSpeedFactor > 0 {
		p.CadenceSpeedFactor = cfg.CadenceSpeedFactor
	}
	if cfg.CadenceBase > 0 {
		p.CadenceBase = cfg.CadenceBase
	}
	return p
}

func (s *Server) locationProvider() location.Provider {
	switch s.Cfg.LocationSource {
	case "replay":
		coords, err := location.LoadGPX(s.Cfg.ReplayGPX)
		if err != nil {
			s.Log.Warn("replay route unavailable, tracking disabled", zap.Error(err))
			return location.Disabled{}
		}
		return location.NewReplay(coords, s.Cfg.ReplayInterval, true, s.Log.Named("replay"))
	case "disabled":
		return location.Disabled{}
	default:
		perm := location.Granted
		if s.Cfg.LocationPermission == string(location.Denied) {
			perm = location.Denied
		}
		s.Feed = location.NewFeed(perm, s.Log.Named("feed"))
		return s.Feed
	}
}

func (s *Server) keyValue() storage.KV {
	switch s.Cfg.StorageBackend {
	case "redis":
		if s.Redis != nil {
			return storage.NewRedis(s.Redis)
		}
	case "postgres":
		if s.DB != nil {
			return storage.NewPostgres(s.DB)
		}
	default:
		return storage.NewMemory()
	}
	s.Log.Warn("storage backend unavailable, using memory", zap.String("backend", s.Cfg.StorageBackend))
	return storage.NewMemory()
}

func (s *Server) collaborator() remote.Collaborator {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	seed, seeded := s.loadSeed()

	if s.DB != nil {
		err := db.EnsureSchema(ctx, s.DB)
		if err == nil {
			backend := remote.NewBackend(s.DB, s.Cfg.CheckpointRadiusM)
			if seeded {
				added, err := backend.SeedTasks(ctx, seed.Tasks)
				if err != nil {
					s.Log.Warn("task seeding incomplete", zap.Error(err))
				}
				s.Log.Info("tasks seeded", zap.Int("added", added))
			}
			return backend
		}
		s.Log.Warn("schema setup failed, using in-memory collections", zap.Error(err))
	}

	mem := remote.NewMemory(s.Cfg.CheckpointRadiusM, s.Log.Named("remote"))
	if seeded {
		mem.Seed(seed.GroupRuns, seed.Tasks, seed.Games)
	}
	return mem
}

func (s *Server) loadSeed() (remote.Seed, bool) {
	if s.Cfg.SeedFile == "" {
		return remote.Seed{}, false
	}
	seed, err := remote.LoadSeed(s.Cfg.SeedFile)
	if err != nil {
		s.Log.Warn("seed file ignored", zap.Error(err))
		return remote.Seed{}, false
	}
	return seed, true
}

func (s *Server) liveSnapshot(topic string) ([]byte, bool) {
	if topic != run.LiveTopic || !s.Store.IsRunning() {
		return nil, false
	}
	payload, err := json.Marshal(s.Store.LiveStats())
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Close stops a run in progress and the stream mirror.
func (s *Server) Close(ctx context.Context) error {
	err := s.Store.Close(ctx)
	s.Stream.Close()
	return err
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "running": s.Store.IsRunning()})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	var feed tracking.Pusher
	if s.Feed != nil {
		feed = s.Feed
	}
	tracking.RegisterRoutes(s.App.Group("/location"), s.Session, feed)
	run.RegisterRoutes(s.App.Group("/runs"), s.Store)
	route.RegisterRoutes(s.App.Group("/routes"))
	grouprun.RegisterRoutes(s.App.Group("/group-runs"), s.Store)
	task.RegisterRoutes(s.App.Group("/tasks"), s.Store)
	game.RegisterRoutes(s.App.Group("/games"), s.Store, s.Store)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.liveSnapshot)
}
