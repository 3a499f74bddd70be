package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pricing-engine/internal/config"
	"github.com/noah-isme/pricing-engine/internal/discount"
	"github.com/noah-isme/pricing-engine/internal/health"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/obs"
	"github.com/noah-isme/pricing-engine/internal/pricing"
	"github.com/noah-isme/pricing-engine/internal/promo"
	"github.com/noah-isme/pricing-engine/internal/quote"
	"github.com/noah-isme/pricing-engine/internal/ratelimit"
	"github.com/noah-isme/pricing-engine/internal/tax"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	}

	catalog, err := promo.LoadCatalog(cfg.PromotionsFile, cfg.CurrencyCode)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PromotionsFile).Msg("load promotion catalog")
	}
	logger.Info().Int("rules", len(catalog.Rules())).Msg("promotion catalog loaded")

	discountCfg := discount.DefaultConfig()
	discountCfg.StackingCap = cfg.StackingCap()
	taxCfg := tax.DefaultConfig()
	taxCfg.VATRate = cfg.VATRate()

	formatter := money.IDRFormatter{}
	orchestrator, err := pricing.NewOrchestrator(pricing.OrchestratorConfig{
		Discounts:     &discount.Engine{Cfg: discountCfg, Now: time.Now, Logger: logger},
		Taxes:         &tax.Engine{Cfg: taxCfg, Formatter: formatter, Logger: logger},
		MinMarginRate: cfg.MinMarginRate,
		Formatter:     formatter,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise pricing orchestrator")
	}

	quoteHandler := quote.NewHandler(orchestrator, catalog, logger)

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.MetricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.New(version, map[string]health.Check{
		"promotions": func() error {
			if catalog == nil {
				return errors.New("promotion catalog not loaded")
			}
			return nil
		},
		"orchestrator": func() error {
			if orchestrator == nil {
				return errors.New("orchestrator not initialised")
			}
			return nil
		},
	})
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	limiter := ratelimit.PerMinute(cfg.QuoteRatePerMinute)
	limiter.OnError = func(err error) {
		logger.Error().Err(err).Msg("rate limiter")
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.With(limiter.Middleware).Post("/pricing/quote", quoteHandler.Calculate)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
