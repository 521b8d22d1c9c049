// cmd/gradebatch/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/membership"
	"storefront/internal/observability"
)

// gradebatch closes the spending quarter: every active membership gets the
// grade its spending earned and its spending reset to zero.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	strategy := flag.String("strategy", string(membership.StrategyBulk), "dirty or bulk")
	flag.Parse()

	if err := run(*configPath, *strategy); err != nil {
		fmt.Fprintf(os.Stderr, "gradebatch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, rawStrategy string) error {
	strategy, err := membership.ToStrategy(rawStrategy)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("logger.New: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.Env, cfg.Otel)
	shutdownMetrics := observability.InitMetrics(ctx, log, cfg.Env, cfg.Otel)
	defer func() {
		if err := errors.Join(shutdownTracing(context.Background()), shutdownMetrics(context.Background())); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	svc, err := membership.NewService(storage.UnitOfWork, log.With("component", "gradebatch"))
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := svc.UpdateMemberships(ctx, strategy)
	if err != nil {
		return fmt.Errorf("svc.UpdateMemberships: %w", err)
	}

	log.Info("quarter closed",
		"run_id", result.RunID,
		"strategy", result.Strategy,
		"processed", result.Processed,
		"grades", result.Grades,
		"elapsed", time.Since(start),
	)
	return nil
}
