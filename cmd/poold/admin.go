package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vlossom/internal/pool"
	"vlossom/internal/referral"
	"vlossom/internal/tier"
)

func runSeedGenesis(cmd *cobra.Command, _ []string) error {
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
	resolver := tier.NewResolver(store, calc, logger)
	registry := pool.NewRegistry(store, resolver, logger)

	p, err := registry.SeedGenesisPool(ctx, cfg.GenesisName)
	if err != nil {
		return err
	}
	logger.Info("genesis pool seeded",
		zap.String("pool_id", p.ID),
		zap.String("name", p.Name),
		zap.String("settlement_address", p.SettlementAddress),
	)
	return nil
}

func runBatchTiers(cmd *cobra.Command, _ []string) error {
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

	processed, err := resolver.BatchUpdateTierStatus(ctx)
	if err != nil {
		return err
	}
	logger.Info("tier batch update finished", zap.Int("processed", processed))
	return nil
}
