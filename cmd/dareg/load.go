package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dareg/internal/backend"
)

var loadCmd = &cobra.Command{
	Use:   "load <fixtures.yaml>",
	Short: "Seed the store with records and grants from a YAML fixture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return fmt.Errorf("open fixtures: %w", err)
		}
		defer func() { _ = f.Close() }()

		fixtures, err := backend.ParseFixtures(f)
		if err != nil {
			return err //nolint:wrapcheck // already prefixed
		}

		cfg, env, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(env, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		b, err := backend.Open(cmd.Context(), backendConfig(cfg), nil)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		defer b.Close()

		sum, err := b.Load(cmd.Context(), fixtures, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		logger.Info("Fixtures loaded",
			zap.String("file", args[0]),
			zap.Int("records", sum.Records),
			zap.Int("actors", sum.Actors),
			zap.Int("grants", sum.Grants),
		)
		return nil
	},
}
