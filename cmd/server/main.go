// Package main wires the ledger and settlement core: database, cache,
// services and the retry drain worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ledgerd/internal/config"
	"ledgerd/internal/repositories"
	"ledgerd/internal/repositories/cache"
	"ledgerd/internal/services/commission"
	"ledgerd/internal/services/ledger"
	"ledgerd/internal/services/payment"
	"ledgerd/internal/services/settlement"
	"ledgerd/internal/services/settlement/retry"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if config.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		logrus.SetLevel(lvl)
	}

	db, err := repositories.InitDB()
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	ledgerCfg := config.LoadLedger()
	redisClient := cache.NewRedisClient(cache.LoadRedisConfig())
	walletCache := cache.NewWalletCache(redisClient, ledgerCfg.CacheTTL)
	defer walletCache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := walletCache.HealthCheck(ctx); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	walletRepo := repositories.NewWalletRepository(db)
	commissionRepo := repositories.NewCommissionRepository(db)
	retryRepo := repositories.NewRetryRepository(db)

	ledgerSvc := ledger.NewService(walletRepo, walletCache, ledgerCfg)

	commissionSvc, err := commission.NewService(ctx, commissionRepo, config.LoadCommission())
	if err != nil {
		logrus.Fatalf("failed to initialize commission engine: %v", err)
	}

	retryQueue := retry.NewQueue(retryRepo, config.LoadRetry())
	notifier := settlement.NewNotifier(config.LoadSettlement(), retryQueue)
	processor := payment.NewProcessor(repositories.NewUnitOfWork(db), ledgerSvc, commissionSvc, notifier)

	worker := retry.NewWorker(retryQueue, notifier)
	worker.Start(ctx)

	consumer := payment.NewConsumer(redisClient, processor, config.GetEnv("PAYMENT_EVENT_STREAM", payment.DefaultStream))
	consumer.Start(ctx)

	logrus.Info("ledger core started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	cancel()
	consumer.Stop()
	worker.Stop()

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Warnf("failed to close database connection: %v", err)
		}
	}
}
