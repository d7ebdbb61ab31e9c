package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline-co/storefront-backend/api/routes"
	"github.com/threadline-co/storefront-backend/internal/checkout"
	"github.com/threadline-co/storefront-backend/internal/inventory"
	"github.com/threadline-co/storefront-backend/internal/orders"
	"github.com/threadline-co/storefront-backend/internal/payments"
	"github.com/threadline-co/storefront-backend/internal/reconcile"
	"github.com/threadline-co/storefront-backend/pkg/config"
	"github.com/threadline-co/storefront-backend/pkg/db"
	"github.com/threadline-co/storefront-backend/pkg/env"
	"github.com/threadline-co/storefront-backend/pkg/logger"
	"github.com/threadline-co/storefront-backend/pkg/metrics"
	"github.com/threadline-co/storefront-backend/pkg/migrate"
	"github.com/threadline-co/storefront-backend/pkg/outbox"
	"github.com/threadline-co/storefront-backend/pkg/redis"
	"github.com/threadline-co/storefront-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	verifier := payments.NewVerifier(cfg.Webhook.SigningSecret, cfg.Webhook.Tolerance)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	reconciler, err := reconcile.NewService(dbClient, verifier, outboxService, webhookMetrics, cfg.Webhook.Timeout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.NewStripeClient(stripeClient), cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService := orders.NewService(orders.NewRepository(dbClient.DB()), logg)

	inventoryService, err := inventory.NewAdminService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reconciler,
			checkoutService,
			orderService,
			inventoryService,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
