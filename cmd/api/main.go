package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/siamtube/pricing-backend/api/controllers"
	"github.com/siamtube/pricing-backend/api/middleware"
	"github.com/siamtube/pricing-backend/api/routes"
	"github.com/siamtube/pricing-backend/internal/currency"
	"github.com/siamtube/pricing-backend/internal/customers"
	"github.com/siamtube/pricing-backend/internal/materials"
	pricingsvc "github.com/siamtube/pricing-backend/internal/pricing"
	"github.com/siamtube/pricing-backend/internal/versioning"
	"github.com/siamtube/pricing-backend/pkg/config"
	"github.com/siamtube/pricing-backend/pkg/db"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/metrics"
	"github.com/siamtube/pricing-backend/pkg/migrate"
	"github.com/siamtube/pricing-backend/pkg/redis"
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

	// Redis only caches exchange rates, so the API can run without it.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, exchange rate caching disabled")
	}

	baseCurrency, err := enums.ParseCurrency(cfg.Pricing.BaseCurrency)
	if err != nil {
		logg.Error(context.Background(), "invalid base currency", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	calcMetrics := metrics.NewCalculationMetrics(registry)

	customersSvc, err := customers.NewService(customers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	var currencySvc currency.Service
	if redisClient != nil {
		currencySvc, err = currency.NewService(currency.NewRepository(dbClient.DB()), redisClient, cfg.Pricing.RateCacheTTL, logg)
	} else {
		currencySvc, err = currency.NewService(currency.NewRepository(dbClient.DB()), nil, cfg.Pricing.RateCacheTTL, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create currency service", err)
		os.Exit(1)
	}

	lineResolver, err := materials.NewResolver(materials.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create material resolver", err)
		os.Exit(1)
	}

	pricingService, err := pricingsvc.NewService(pricingsvc.Options{
		Repository:    pricingsvc.NewRepository(dbClient.DB()),
		Resolver:      lineResolver,
		Groups:        customersSvc,
		Rates:         currencySvc,
		Logger:        logg,
		Metrics:       calcMetrics,
		BaseCurrency:  baseCurrency,
		AuditDisabled: cfg.Pricing.AuditDisabled,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	managers, err := buildManagers(dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle managers", err)
		os.Exit(1)
	}

	var redisPinger controllers.Pinger
	var limiter middleware.RateLimiter
	if redisClient != nil {
		redisPinger = redisClient
		limiter = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DBPinger:  dbClient,
			RedisPing: redisPinger,
			Registry:  registry,
			Pricing:   pricingService,
			Customers: customersSvc,
			Managers:  managers,
			Limiter:   limiter,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildManagers(dbClient *db.Client, logg *logger.Logger) (routes.Managers, error) {
	commodity, err := versioning.NewManager[models.CommodityPrice](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	fabrication, err := versioning.NewManager[models.FabricationAdjustment](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	markup, err := versioning.NewManager[models.MarkupFactor](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	rates, err := versioning.NewManager[models.ExchangeRate](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	formulas, err := versioning.NewManager[models.BaseFormula](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	rules, err := versioning.NewManager[models.OverrideRule](dbClient, logg)
	if err != nil {
		return routes.Managers{}, err
	}
	return routes.Managers{
		CommodityPrices:        commodity,
		FabricationAdjustments: fabrication,
		MarkupFactors:          markup,
		ExchangeRates:          rates,
		BaseFormulas:           formulas,
		OverrideRules:          rules,
	}, nil
}
