package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/api"
	"github.com/andresuchdata/setledger-ai/internal/cache"
	"github.com/andresuchdata/setledger-ai/internal/competitor"
	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/forecast"
	"github.com/andresuchdata/setledger-ai/internal/pricing"
	"github.com/andresuchdata/setledger-ai/internal/repository"
	"github.com/andresuchdata/setledger-ai/internal/repository/backendapi"
	"github.com/andresuchdata/setledger-ai/internal/repository/postgres"
	"github.com/andresuchdata/setledger-ai/internal/service"
	"github.com/andresuchdata/setledger-ai/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dataSource, closeData := buildDataSource(cfg)
	defer closeData()

	quoteCache, err := cache.NewQuoteCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Quote cache unavailable, continuing without it")
		quoteCache = cache.NewNoopQuoteCache()
	}
	trendsCache, err := cache.NewTrendsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Trends cache unavailable, continuing without it")
		trendsCache = cache.NewNoopTrendsCache()
	}

	liveQuotes, err := competitor.NewSource(cfg.Competitor)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid competitor source configuration")
	}

	limits := service.LimitsFromConfig(cfg.Forecast)
	predictionService := service.NewPredictionService(dataSource, forecast.NewForecaster(), trendsCache, limits)
	pricingService := service.NewPricingService(dataSource, pricing.NewOptimizer(), competitor.NewCachedSource(liveQuotes, quoteCache), limits)

	router := api.NewRouter(&api.Services{
		PredictionService: predictionService,
		PricingService:    pricingService,
	}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// buildDataSource prefers Postgres and falls back to the backend REST API per call. When
// Postgres cannot be reached at startup every read goes to the REST API.
func buildDataSource(cfg *config.Config) (repository.DataSource, func()) {
	backend := backendapi.New(cfg.Backend.URL, cfg.Backend.Timeout)

	if !cfg.Database.Enabled {
		logger.Log.Info().Str("backend", cfg.Backend.URL).Msg("Database disabled, reading from backend API")
		return repository.NewFallbackDataSource(nil, backend), func() {}
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Str("backend", cfg.Backend.URL).Msg("Database unavailable, reading from backend API")
		return repository.NewFallbackDataSource(nil, backend), func() {}
	}

	return repository.NewFallbackDataSource(postgres.NewDataSource(db), backend), func() { db.Close() }
}
