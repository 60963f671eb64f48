package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/uestliguci/LifestyleCalculator/internal/amqp"
	"github.com/uestliguci/LifestyleCalculator/internal/auth"
	"github.com/uestliguci/LifestyleCalculator/internal/backend"
	"github.com/uestliguci/LifestyleCalculator/internal/config"
	"github.com/uestliguci/LifestyleCalculator/internal/httpapi"
	"github.com/uestliguci/LifestyleCalculator/internal/logging"
	"github.com/uestliguci/LifestyleCalculator/internal/services"
)

func main() {
	// Load .env for local development; production supplies real env.
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	stores, err := backend.Open(cfg)
	if err != nil {
		slog.Error("Failed to open storage backend", "error", err)
		os.Exit(1)
	}
	defer stores.Transactions.Close()

	// Backup events only make sense when there is a durable queue for
	// the worker to drain.
	var publisher services.BackupPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" && stores.BackupQueue != nil {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		slog.Info("Backup publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		slog.Info("Backup publishing disabled")
	}

	svc := services.NewTransactionService(stores.Transactions, publisher)
	authn := auth.NewAuthenticator(stores.Users)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	ready := func(ctx context.Context) error {
		_, err := svc.List(ctx, "")
		return err
	}

	srv := httpapi.NewServer(":"+cfg.Port, svc, authn, tokens, ready)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("Starting lifestyled", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}
