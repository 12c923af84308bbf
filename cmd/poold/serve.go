package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vlossom/internal/api"
	"vlossom/internal/pool"
	"vlossom/internal/referral"
	"vlossom/internal/settlement"
	"vlossom/internal/tier"
)

func runServe(cmd *cobra.Command, _ []string) error {
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

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	calc := referral.NewCalculator(store, logger)
	resolver := tier.NewResolver(store, calc, logger, tier.WithBatchWorkers(cfg.BatchWorkers))
	registry := pool.NewRegistry(store, resolver, logger)
	settler := settlement.WithRetries(settlement.NewStub(logger), 3, 200*time.Millisecond)
	ledger := pool.NewLedger(store, settler, logger)
	controller := api.NewController(registry, ledger, resolver, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.TierCron, func() {
		processed, err := resolver.BatchUpdateTierStatus(context.Background())
		if err != nil {
			logger.Warn("scheduled tier batch update failed", zap.Error(err))
			return
		}
		logger.Info("scheduled tier batch update done", zap.Int("processed", processed))
	}); err != nil {
		return fmt.Errorf("invalid tier-cron %q: %w", cfg.TierCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: controller.NewRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("poold serve",
			zap.String("listen", cfg.Listen),
			zap.String("tier_cron", cfg.TierCron),
			zap.Bool("memory_backed", cfg.MemoryBacked),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("poold stopped")
	return nil
}
