package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/internal/cron"
	"github.com/Samyy-Momin/onefooddialer/internal/invoices"
	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/db"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/metrics"
	"github.com/Samyy-Momin/onefooddialer/pkg/migrate"
	"github.com/Samyy-Momin/onefooddialer/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "billing-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "billing-worker"

	logg = logger.New(logger.Options{
		ServiceName: "billing-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	walletService, err := wallet.NewService(wallet.NewRepository(gormDB), dbClient, cfg.Billing)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	invoiceRepo := invoices.NewRepository(gormDB)
	invoiceService, err := invoices.NewService(
		invoiceRepo,
		dbClient,
		walletService,
		decimal.NewFromFloat(cfg.Billing.DefaultTaxRate),
		cfg.Billing.InvoiceDueDays,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(
		subscriptions.NewRepository(gormDB),
		dbClient,
		walletService,
		invoiceService,
		decimal.NewFromFloat(cfg.Billing.DefaultTaxRate),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	runner, err := cron.NewService(cfg.Cron, redisClient, jobMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create job runner", err)
		os.Exit(1)
	}

	billingJob, err := cron.NewBillingCycleJob(subscriptionService, cfg.Cron.RenewalBatch, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing cycle job", err)
		os.Exit(1)
	}
	runner.Register(billingJob)

	overdueJob, err := cron.NewInvoiceOverdueJob(invoiceRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice overdue job", err)
		os.Exit(1)
	}
	runner.Register(overdueJob)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.Billing.ShutdownTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(timeoutCtx)
	}()

	logg.Info(ctx, "starting billing worker")

	if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "billing worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "billing worker shutting down gracefully")
}
