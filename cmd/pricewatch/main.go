// pricewatch - price-monitoring chat bot
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/pricewatch/internal/api"
	"github.com/ashureev/pricewatch/internal/bot"
	"github.com/ashureev/pricewatch/internal/config"
	"github.com/ashureev/pricewatch/internal/extract"
	"github.com/ashureev/pricewatch/internal/fetch"
	"github.com/ashureev/pricewatch/internal/poll"
	"github.com/ashureev/pricewatch/internal/session"
	"github.com/ashureev/pricewatch/internal/store"
	"github.com/ashureev/pricewatch/internal/transport"
	"github.com/ashureev/pricewatch/internal/transport/telegram"
	"github.com/ashureev/pricewatch/internal/transport/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting pricewatch", "port", cfg.Port, "schedule", cfg.PollSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	watchlist, err := openWatchlist(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := watchlist.Close(); closeErr != nil {
			slog.Error("Failed to close watchlist store", "error", closeErr)
		}
	}()

	if err := watchlist.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "backend", storeBackend(cfg))

	sessions, err := openSessions(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	registry := extract.NewRegistry()
	if cfg.SitesFile != "" {
		if err := registry.LoadSitesFile(cfg.SitesFile); err != nil {
			slog.Error("Failed to load sites file", "path", cfg.SitesFile, "error", err)
			os.Exit(1)
		}
	}
	if len(registry.Sites()) == 0 {
		slog.Warn("No sites registered; every add will be rejected until SITES_FILE is provided")
	} else {
		slog.Info("Selector registry loaded", "sites", registry.Sites())
	}

	pipeline := extract.NewPipeline(registry, cfg.CurrencyFallback)
	fetcher := fetch.New(cfg.FetchTimeout)

	// Initialize the chat surface.
	mux := transport.NewMux()
	router := bot.New(watchlist, sessions, registry, fetcher, pipeline, mux)

	if cfg.TelegramToken != "" {
		tg, err := telegram.New(cfg.TelegramToken)
		if err != nil {
			slog.Error("Failed to initialize telegram transport", "error", err)
			os.Exit(1)
		}
		mux.RegisterSender(telegram.Scheme, tg)
		go tg.Run(ctx, router)
	} else {
		slog.Info("Telegram transport disabled (TELEGRAM_TOKEN not set)")
	}

	console := ws.NewConsole(router)
	mux.RegisterSender(ws.Scheme, console)

	// Start the polling scheduler.
	scheduler := poll.New(watchlist, fetcher, pipeline, router, cfg.FetchTimeout+10*time.Second)
	if err := scheduler.Start(ctx, cfg.PollSchedule); err != nil {
		slog.Error("Failed to start polling scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	// Setup ops router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	api.NewHealthHandler(watchlist).RegisterRoutes(r)
	r.Get("/ws/console", console.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket console connections are long-lived
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func openWatchlist(ctx context.Context, cfg *config.Config) (store.Watchlist, error) {
	if cfg.UsesPostgres() {
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	}
	return store.NewSQLite(cfg.DBPath)
}

func storeBackend(cfg *config.Config) string {
	if cfg.UsesPostgres() {
		return "postgres"
	}
	return "sqlite"
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.RedisAddr != "" {
		return session.NewRedisStore(ctx, cfg.RedisAddr, cfg.SessionTTL)
	}
	return session.NewMemoryStore(cfg.SessionTTL), nil
}
