package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dareg/internal/backend"
	"github.com/kailas-cloud/dareg/internal/config"
	logpkg "github.com/kailas-cloud/dareg/internal/logger"
	"github.com/kailas-cloud/dareg/internal/metrics"
)

// configPath overrides the ENV-based config lookup when set.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "dareg",
		Short: "Research data registry search service",
		Long: `dareg serves cross-entity search over facilities, instruments, projects,
datasets, experiments, schemas and templates with per-record permissions.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (default: config/$ENV.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config if given, else the file for the current ENV.
func loadConfig() (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

// newLogger builds the process logger from config.
func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

func backendConfig(cfg config.Config) backend.Config {
	return backend.Config{
		Driver:           cfg.Database.Driver,
		Addrs:            cfg.Database.Addrs,
		Password:         cfg.Database.Password,
		DSN:              cfg.Database.DSN,
		KeyPrefix:        cfg.Database.KeyPrefix,
		ReadinessTimeout: time.Duration(cfg.Database.ReadinessTimeout) * time.Second,
		AutoMigrate:      cfg.Database.AutoMigrate,
	}
}

// openServices connects to the configured store and assembles the use cases.
func openServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend.Backend, *backend.Services, error) {
	b, err := backend.Open(ctx, backendConfig(cfg), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}
	svc := b.NewServices(backend.ServiceConfig{
		MaxParallel:      cfg.Search.MaxParallel,
		SchemaCacheSize:  cfg.Search.SchemaCacheSize,
		SchemaCacheTTL:   time.Duration(cfg.Search.SchemaCacheTTLSec) * time.Second,
		SchemaCacheTotal: metrics.SchemaCacheTotal,
		Recorder:         metrics.Search{},
		Logger:           logger,
	})
	return b, svc, nil
}

// withServices runs fn against freshly opened services and closes the store after.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *backend.Services) error) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
	b, svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, svc)
}
