package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/solenne-dev/nightjar/internal/config"
	"github.com/solenne-dev/nightjar/internal/handlers"
	"github.com/solenne-dev/nightjar/internal/moderation"
	"github.com/solenne-dev/nightjar/internal/services"
	"github.com/solenne-dev/nightjar/internal/websocket"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)

	// Moderation gateway: word-list classifier behind the Gateway contract
	gateway, err := moderation.NewWordListGateway(cfg.BlockedWords, cfg.BorderlineWords, log)
	if err != nil {
		log.Error("failed to build moderation gateway", "err", err)
		os.Exit(1)
	}

	// Hub first: the coordinator fans state changes out through it
	hub := websocket.NewHub(log)
	coordinator := services.NewCoordinator(cfg, log, gateway, hub)
	hub.OnDisconnect = coordinator.Disconnect

	router := websocket.NewRouter(coordinator, log)
	wsHandler := websocket.NewHandler(hub, router, coordinator, log)

	// Background worker: the 1-second tick driver
	ticker := services.NewTicker(coordinator, cfg.TickInterval, log)
	go ticker.Start()

	// Set up router with middleware
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	log.Info("CORS allowed origins", "origins", cfg.CORSOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", handlers.HealthCheck)

	// Realtime duplex channel
	r.Get("/ws", wsHandler.ServeWS)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("nightjar coordinator starting", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("http server stopped", "err", err)
		os.Exit(1)
	}
}

// setupLogger picks the slog handler for the environment: readable text in
// local development, JSON elsewhere.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envLocal:
		fallthrough
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
