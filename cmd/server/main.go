package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dennisdiepolder/teamops/internal/api"
	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/dennisdiepolder/teamops/internal/config"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/ticker"
	"github.com/dennisdiepolder/teamops/internal/tracker"
	"github.com/dennisdiepolder/teamops/internal/websocket"
	"github.com/dennisdiepolder/teamops/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone).
		Str("store_mode", string(cfg.Storage.Mode)).
		Strs("agents", cfg.Agents).
		Msg("starting teamops server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.Get()

	// Restore persisted state
	tr, err := tracker.FromConfig(ctx, cfg, m, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracker")
	}

	gate, err := auth.NewGate(cfg.AdminAgent, cfg.AdminPIN, cfg.AdminSessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize admin gate")
	}
	if !gate.Enabled() {
		log.Warn().Msg("ADMIN_PIN is not set, admin controls are locked")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger, m)
	go hub.Run()

	// Push dashboard snapshots on every tick
	tickerService := ticker.NewTicker(tr, hub, cfg.TickInterval, m, log.Logger)
	go tickerService.Start(ctx)

	r := newRouter(cfg, tr, gate, hub, tickerService, m, log.Logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the ticker
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newRouter wires middleware, health, metrics, the dashboard socket and the
// /api routes. notifier is told about every mutation.
func newRouter(cfg *config.Config, tr *tracker.Tracker, gate *auth.Gate, hub *websocket.Hub, notifier api.Notifier, m *metrics.Metrics, logger zerolog.Logger) http.Handler {
	wsHandler := websocket.NewHandler(hub, cfg, logger)
	apiHandler := api.NewHandler(tr, gate, notifier, m, logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", m.Handler())
	r.Get("/ws", wsHandler.ServeHTTP)
	apiHandler.Routes(r)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"teamops"}`)
}
