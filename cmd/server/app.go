package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/platform/config"
	"overlay-studio/internal/platform/httpx"
	"overlay-studio/internal/platform/logger"
	"overlay-studio/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// Store backends selectable with STORE_BACKEND.
const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

type settings struct {
	Port         string
	LogLevel     string
	LogFormat    string
	RTSPURL      string
	StoreBackend string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	RedisPrefix  string
	CORSOrigins  string
}

func loadSettings() settings {
	return settings{
		Port:         config.GetEnv("PORT", "5000"),
		LogLevel:     config.GetEnv("LOG_LEVEL", "info"),
		LogFormat:    config.GetEnv("LOG_FORMAT", "json"),
		RTSPURL:      config.GetEnv("RTSP_URL", overlay.DefaultRTSPURL),
		StoreBackend: strings.ToLower(config.GetEnv("STORE_BACKEND", backendMemory)),
		RedisAddr:    config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      config.GetEnvInt("REDIS_DB", 0),
		RedisPass:    config.GetEnv("REDIS_PASSWORD", ""),
		RedisPrefix:  config.GetEnv("REDIS_PREFIX", overlay.DefaultRedisPrefix),
		CORSOrigins:  config.GetEnv("CORS_ORIGINS", httpx.DefaultOrigins),
	}
}

// app is the wired overlay API.
type app struct {
	svc     *overlay.Service
	metrics *metrics.Metrics
	handler *overlay.Handler
	log     *slog.Logger
	cfg     settings
	redis   *redis.Client
}

func newApp(ctx context.Context, cfg settings, log *slog.Logger) (*app, error) {
	log = logger.OrDiscard(log)

	var (
		store overlay.Store
		rdb   *redis.Client
	)
	switch cfg.StoreBackend {
	case backendMemory, "":
		store = overlay.NewInMemoryStore()
	case backendRedis:
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store = overlay.NewRedisStore(rdb, cfg.RedisPrefix)
		log.Info("using redis overlay store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	svc := overlay.NewService(overlay.NewRepository(store))
	met := metrics.New()
	return &app{
		svc:     svc,
		metrics: met,
		handler: overlay.NewHandler(svc, log, met, cfg.RTSPURL),
		log:     log,
		cfg:     cfg,
		redis:   rdb,
	}, nil
}

// Router builds the HTTP routes.
func (a *app) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(a.log))
	r.Use(metrics.RequestMiddleware(a.metrics))
	r.Use(httpx.CORS(a.cfg.CORSOrigins))

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		a.metrics.Handler(func() {
			if n, err := a.svc.Count(r.Context()); err == nil {
				a.metrics.SetActiveOverlays(n)
			}
		}).ServeHTTP(w, r)
	})
	a.handler.Routes(r)
	return r
}

// Close releases the store connection, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
