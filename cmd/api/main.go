package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/fulfillment-engine/api/routes"
	"github.com/angelmondragon/fulfillment-engine/internal/address"
	"github.com/angelmondragon/fulfillment-engine/internal/allocation"
	"github.com/angelmondragon/fulfillment-engine/internal/cart"
	"github.com/angelmondragon/fulfillment-engine/internal/inventory"
	"github.com/angelmondragon/fulfillment-engine/internal/lifecycle"
	"github.com/angelmondragon/fulfillment-engine/internal/orders"
	"github.com/angelmondragon/fulfillment-engine/internal/pricerules"
	"github.com/angelmondragon/fulfillment-engine/internal/stores"
	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	"github.com/angelmondragon/fulfillment-engine/pkg/db"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/metrics"
	"github.com/angelmondragon/fulfillment-engine/pkg/migrate"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox"
	"github.com/angelmondragon/fulfillment-engine/pkg/redis"
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
		Format:      cfg.App.LogFormat,
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

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(promRegistry)

	ledger, err := inventory.NewLedger(inventory.NewRepository(dbClient.DB()), logg, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory ledger", err)
		os.Exit(1)
	}
	addressService, err := address.NewService(address.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}
	priceRuleService, err := pricerules.NewService(pricerules.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create price rule service", err)
		os.Exit(1)
	}
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Ledger:     ledger,
		Resolver:   allocation.NewResolver(),
		Sources:    allocation.NewSource,
		Addresses:  addressService,
		PriceRules: priceRuleService,
		Cart:       cart.NewRepository(dbClient.DB()),
		Stores:     stores.NewRepository(dbClient.DB()),
		Outbox:     outboxService,
		Metrics:    fulfillmentMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	engine, err := lifecycle.NewEngine(lifecycle.EngineParams{
		Repository:      lifecycle.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Ledger:          ledger,
		Outbox:          outboxService,
		Metrics:         fulfillmentMetrics,
		Logger:          logg,
		RestockOnReject: cfg.Fulfillment.RestockOnReject,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, promRegistry, dbClient, redisClient, ordersService, engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
