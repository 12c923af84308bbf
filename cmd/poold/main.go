package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vlossom/internal/config"
	"vlossom/internal/storage"
	"vlossom/internal/storage/memory"
	"vlossom/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Pool share accounting and tier eligibility engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled tier refresh",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().String("tier-cron", "@hourly", "cron spec for the tier batch update")
	serveCmd.Flags().Int("batch-workers", 8, "tier batch updater concurrency")
	serveCmd.Flags().Bool("memory-backed", false, "use the in-memory store (development only)")
	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  runMigrate,
	}
	root.AddCommand(migrateCmd)

	seedCmd := &cobra.Command{
		Use:   "seed-genesis",
		Short: "Create the protocol-assigned genesis pool",
		RunE:  runSeedGenesis,
	}
	seedCmd.Flags().String("genesis-name", "Genesis Pool", "genesis pool name")
	root.AddCommand(seedCmd)

	batchCmd := &cobra.Command{
		Use:   "batch-tiers",
		Short: "Recompute tier status for every referrer once",
		RunE:  runBatchTiers,
	}
	batchCmd.Flags().Int("batch-workers", 8, "tier batch updater concurrency")
	root.AddCommand(batchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore returns the configured store and a close func.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.MemoryBacked {
		logger.Warn("using in-memory store, data will not survive restart")
		return memory.NewStore(), func() {}, nil
	}
	if cfg.PGDSN == "" {
		return nil, nil, fmt.Errorf("pg-dsn is required")
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return store, store.Close, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg-dsn is required")
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("schema applied")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
