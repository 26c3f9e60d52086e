// Command fetch runs exactly one fetch cycle and exits non-zero if it fails.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pricewatch/internal/app/di"
	"pricewatch/internal/config"
	"pricewatch/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := di.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	rdb := di.NewRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	market := di.NewMarket(cfg, log)
	prices := di.NewPriceRepository(db, rdb, nil, cfg, log)
	uc, err := di.NewIngestUsecase(cfg, market, prices, nil, log)
	if err != nil {
		return err
	}

	obs, err := uc.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	log.Info("fetch ok", zap.Uint("observation_id", obs.ID), zap.String("price", obs.Price.String()))
	return nil
}
