// Package main provides the entry point for the catalog backend server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sipico/catalog-backend/internal/admin"
	"github.com/sipico/catalog-backend/internal/auth"
	"github.com/sipico/catalog-backend/internal/backup"
	"github.com/sipico/catalog-backend/internal/config"
	"github.com/sipico/catalog-backend/internal/feed"
	"github.com/sipico/catalog-backend/internal/logging"
	"github.com/sipico/catalog-backend/internal/metrics"
	"github.com/sipico/catalog-backend/internal/middleware"
	"github.com/sipico/catalog-backend/internal/storage"
	"github.com/sipico/catalog-backend/internal/token"
)

const version = "2026.10.1"

const serverShutdownTimeout = 30 * time.Second

// limiterCleanupInterval is how often idle login limiters are dropped.
const limiterCleanupInterval = time.Minute

// components holds everything run() wires together.
type components struct {
	logger        *slog.Logger
	logLevel      *slog.LevelVar
	store         *storage.SQLiteStorage
	codec         *token.Codec
	authenticator *auth.Authenticator
	loginLimiter  *middleware.RateLimiter
	adminHandler  *admin.Handler
	feedHandler   *feed.Handler
	registry      *prometheus.Registry
	mainRouter    http.Handler
}

// parseLogLevel maps a LOG_LEVEL value to a slog level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

// initializeComponents builds the logger, storage, services and routers from cfg.
func initializeComponents(cfg *config.Config) (*components, error) {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	for _, w := range cfg.Warnings() {
		logger.Warn("configuration warning", "warning", w)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Init(registry); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.SetVersion(version)

	codec := token.NewCodec(cfg.TokenSecret, cfg.TokenTTL)
	authenticator := auth.NewAuthenticator(cfg.AdminPassword, cfg.AdminPasswordBcrypt, codec)

	builder := backup.NewBuilder(store, store, store, cfg.DisplayLocation)
	restorer := backup.NewRestorer(builder, store, store, store, store, logger)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)
	adminHandler := admin.NewHandler(store, authenticator, logLevel, logger)
	adminHandler.SetBackupServices(builder, restorer)
	adminHandler.SetLoginLimiter(loginLimiter)

	feedHandler := feed.NewHandler(store, logger)
	feedHandler.SetSiteName(cfg.SiteName)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	r.Use(middleware.HTTPLogging(logger, logging.SecretFields))

	adminHandler.RegisterRoutes(r)
	feedHandler.RegisterRoutes(r)

	return &components{
		logger:        logger,
		logLevel:      logLevel,
		store:         store,
		codec:         codec,
		authenticator: authenticator,
		loginLimiter:  loginLimiter,
		adminHandler:  adminHandler,
		feedHandler:   feedHandler,
		registry:      registry,
		mainRouter:    r,
	}, nil
}

// createServer creates the main HTTP server. The write timeout leaves room
// for a full restore inside one request.
func createServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// createMetricsServer creates the Prometheus listener.
func createMetricsServer(cfg *config.Config, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HandlerFor(reg))
	return &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// startServerAndWaitForShutdown serves until SIGINT/SIGTERM, then shuts the
// servers down within serverShutdownTimeout.
func startServerAndWaitForShutdown(logger *slog.Logger, server *http.Server, others ...*http.Server) error {
	serverErr := make(chan error, 1+len(others))
	for _, srv := range append([]*http.Server{server}, others...) {
		go func(srv *http.Server) {
			logger.Info("Server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("server error on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serverErr:
		return err
	case sig := <-stop:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range append([]*http.Server{server}, others...) {
		if err := srv.Shutdown(ctx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
		}
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	logger.Info("Server shut down gracefully")
	return nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := initializeComponents(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.store.Close(); err != nil {
			c.logger.Error("failed to close storage", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.loginLimiter.Run(ctx, limiterCleanupInterval)

	c.logger.Info("Catalog backend starting",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsListenAddr,
		"database", cfg.DatabasePath,
		"display_timezone", cfg.DisplayTimezone,
	)

	return startServerAndWaitForShutdown(c.logger,
		createServer(cfg, c.mainRouter),
		createMetricsServer(cfg, c.registry),
	)
}

// runHealthCheck performs an HTTP health check against the local server.
// Returns 0 on success, 1 on failure. Used by container HEALTHCHECK.
func runHealthCheck() int {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return doHealthCheck("http://" + addr + "/health")
}

// doHealthCheck performs the actual health check HTTP request.
// Extracted for testability.
func doHealthCheck(url string) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return 1
	}
	//nolint:errcheck // Response body close errors are unrecoverable in health check
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func main() {
	// Handle health check subcommand for distroless container health checks
	if len(os.Args) > 1 && os.Args[1] == "health" {
		os.Exit(runHealthCheck())
	}

	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
