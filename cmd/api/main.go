// Package main is the entrypoint for the visitlog API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/visitlog/visitlog/internal/auth"
	"github.com/visitlog/visitlog/internal/config"
	"github.com/visitlog/visitlog/internal/directory"
	"github.com/visitlog/visitlog/internal/geo"
	"github.com/visitlog/visitlog/internal/handler"
	"github.com/visitlog/visitlog/internal/identity"
	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/metrics"
	"github.com/visitlog/visitlog/internal/middleware"
	"github.com/visitlog/visitlog/internal/query"
	"github.com/visitlog/visitlog/internal/server"
	"github.com/visitlog/visitlog/internal/store"
	"github.com/visitlog/visitlog/internal/track"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	st, err := store.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Metrics
	var recorder metrics.Recorder = metrics.NewNoop()
	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom := metrics.NewPrometheus()
		if err := prom.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		recorder = prom
	}

	// Geolocation fallback chain: local database first when configured,
	// then the HTTP providers.
	var providers []geo.Resolver
	if cfg.GeoIPDBPath != "" {
		mmdb, err := geo.OpenMMDB(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn("failed to open GeoIP database, continuing without it",
				slog.String("path", cfg.GeoIPDBPath),
				slog.String("error", err.Error()),
			)
		} else {
			providers = append(providers, mmdb)
		}
	}
	providers = append(providers, geo.NewIPAPI(cfg.GeoHTTPTimeout), geo.NewIPWhois(cfg.GeoHTTPTimeout))
	geoChain := geo.NewChain(logger, recorder, providers...)

	// Services
	client := st.Client()
	schema := keys.NewSchema(cfg.KeyPrefix)
	dir := directory.New(client, schema)
	identities := identity.NewService(client, schema, recorder)
	tracker := track.NewTracker(client, schema, dir, identities, geoChain, logger, recorder)
	engine := query.NewEngine(client, schema, dir, logger, recorder)
	sessions := auth.NewSessions(client, schema, cfg.SessionTTL)

	// Handlers
	h := handler.New(cfg, tracker, identities, engine, sessions, logger)
	healthHandler := handler.NewHealthHandler(st)

	r := setupRouter(h, healthHandler, sessions, registry, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return st.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"key_prefix", cfg.KeyPrefix,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	sessions *auth.Sessions,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	if registry != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Root info endpoint
	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		// Ingest endpoints, open to the site
		r.Post("/track", h.Track)
		r.Post("/identify", h.Identify)

		// Admin session
		r.Post("/session", h.Login)
		r.Delete("/session", h.Logout)

		// Dashboard query, session-gated
		r.With(middleware.RequireSession(sessions, logger)).Get("/analytics", h.Analytics)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
