package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dareg/internal/config"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	chiTransport "github.com/kailas-cloud/dareg/internal/transport/chi"
	"github.com/kailas-cloud/dareg/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, env, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(env, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return serve(cfg, env, logger)
	},
}

func serve(cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting dareg API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("auth", cfg.Auth.Enabled()),
	)

	b, svc, err := openServices(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	logger.Info("Connected to database")

	server := chiTransport.NewServer(svc.Search, svc.Schemas, svc.Health, logger,
		chiTransport.WithPageLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit))
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		Credentials: chiTransport.NewCredentials(apiKeys(cfg.Auth.APIKeys), cfg.Auth.JWTSecret),
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	if !cfg.Auth.Enabled() {
		logger.Warn("Authentication disabled, requests run as the anonymous actor")
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func apiKeys(keys []config.APIKey) map[string]actor.Actor {
	out := make(map[string]actor.Actor, len(keys))
	for _, k := range keys {
		out[k.Key] = actor.New(k.Actor, k.Superuser)
	}
	return out
}
