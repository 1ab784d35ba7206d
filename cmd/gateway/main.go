package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maumercado/anticaptcha-go/internal/api"
	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/events"
	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/solver"
)

func main() {
	fs := config.Flags("gateway")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")

	log := logger.Get()
	log.Info().Msg("Starting anticaptcha gateway...")

	client, err := solver.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create anticaptcha client")
	}

	publisher := newPublisher(&cfg.Redis)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}()

	server := api.NewServer(cfg, solver.New(client, publisher), publisher)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start WebSocket hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server.Start(ctx)

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Solves in flight may wait up to the task timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Client.TaskTimeout+10*time.Second)
	defer shutdownCancel()

	server.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Server stopped")
}

// newPublisher uses Redis when an address is configured and reachable, and
// an in-process bus otherwise.
func newPublisher(cfg *config.RedisConfig) events.Publisher {
	if cfg.Addr == "" {
		return events.NewLocalBus()
	}
	pubsub, err := events.DialRedisPubSub(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, using in-process event bus")
		return events.NewLocalBus()
	}
	return pubsub
}
