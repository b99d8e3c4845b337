package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siamtube/pricing-backend/api/controllers"
	"github.com/siamtube/pricing-backend/api/middleware"
	"github.com/siamtube/pricing-backend/internal/customers"
	pricingsvc "github.com/siamtube/pricing-backend/internal/pricing"
	"github.com/siamtube/pricing-backend/internal/versioning"
	"github.com/siamtube/pricing-backend/pkg/config"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

// Managers bundles one lifecycle manager per versioned record kind.
type Managers struct {
	CommodityPrices        *versioning.Manager[models.CommodityPrice, *models.CommodityPrice]
	FabricationAdjustments *versioning.Manager[models.FabricationAdjustment, *models.FabricationAdjustment]
	MarkupFactors          *versioning.Manager[models.MarkupFactor, *models.MarkupFactor]
	ExchangeRates          *versioning.Manager[models.ExchangeRate, *models.ExchangeRate]
	BaseFormulas           *versioning.Manager[models.BaseFormula, *models.BaseFormula]
	OverrideRules          *versioning.Manager[models.OverrideRule, *models.OverrideRule]
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DBPinger  controllers.Pinger
	RedisPing controllers.Pinger
	Registry  *prometheus.Registry

	Pricing   pricingsvc.Service
	Customers customers.Service
	Managers  Managers

	// Limiter throttles the calculate endpoint; nil disables throttling.
	Limiter middleware.RateLimiter
}

// NewRouter assembles the HTTP surface: health probes, Prometheus metrics,
// the calculation endpoints, and the record lifecycle endpoints.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPing))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pricing", func(r chi.Router) {
			calcLimit := middleware.RateLimit("calculate", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, deps.Limiter, logg)
			r.With(calcLimit).Post("/calculate", controllers.CalculatePrice(deps.Pricing, logg))
			r.Get("/history", controllers.PriceHistory(deps.Pricing, logg))
			r.Get("/history/{calculationID}", controllers.CalculationByID(deps.Pricing, logg))
		})

		r.Route("/formulas", func(r chi.Router) {
			r.Post("/validate", controllers.ValidateFormula(logg))
			r.Post("/evaluate", controllers.EvaluateFormula(logg))
		})

		r.Get("/customer-groups", controllers.ListCustomerGroups(deps.Customers, logg))

		r.Route("/records", func(r chi.Router) {
			r.Route("/commodity-prices", controllers.RecordRoutes[models.CommodityPrice, *models.CommodityPrice, controllers.CommodityPriceRequest]{
				Manager: deps.Managers.CommodityPrices,
				Apply:   controllers.ApplyCommodityPrice,
				Logg:    logg,
			}.Mount)
			r.Route("/fabrication-adjustments", controllers.RecordRoutes[models.FabricationAdjustment, *models.FabricationAdjustment, controllers.FabricationAdjustmentRequest]{
				Manager: deps.Managers.FabricationAdjustments,
				Apply:   controllers.ApplyFabricationAdjustment,
				Logg:    logg,
			}.Mount)
			r.Route("/markup-factors", controllers.RecordRoutes[models.MarkupFactor, *models.MarkupFactor, controllers.MarkupFactorRequest]{
				Manager: deps.Managers.MarkupFactors,
				Apply:   controllers.ApplyMarkupFactor,
				Logg:    logg,
			}.Mount)
			r.Route("/exchange-rates", controllers.RecordRoutes[models.ExchangeRate, *models.ExchangeRate, controllers.ExchangeRateRequest]{
				Manager: deps.Managers.ExchangeRates,
				Apply:   controllers.ApplyExchangeRate,
				Logg:    logg,
			}.Mount)
			r.Route("/base-formulas", controllers.RecordRoutes[models.BaseFormula, *models.BaseFormula, controllers.BaseFormulaRequest]{
				Manager: deps.Managers.BaseFormulas,
				Apply:   controllers.ApplyBaseFormula,
				Logg:    logg,
			}.Mount)
			r.Route("/override-rules", controllers.RecordRoutes[models.OverrideRule, *models.OverrideRule, controllers.OverrideRuleRequest]{
				Manager: deps.Managers.OverrideRules,
				Apply:   controllers.ApplyOverrideRule,
				Logg:    logg,
			}.Mount)
		})
	})

	return r
}
