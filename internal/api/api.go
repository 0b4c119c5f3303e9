package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/api/handlers"
	"github.com/andresuchdata/setledger-ai/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "Stock & Pricing Forecasting Service"
	serviceVersion = "1.0.0"
)

type Services struct {
	PredictionService handlers.PredictionService
	PricingService    handlers.PricingService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})
	router.GET("/health", health)

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", health)

	forecastHandler := handlers.NewForecastHandler()
	forecastGroup := apiGroup.Group("/forecast")
	{
		forecastGroup.POST("/financial", forecastHandler.FinancialForecast)
		forecastGroup.POST("/revenue", forecastHandler.RevenueForecast)
	}

	if services != nil {
		if services.PredictionService != nil {
			predictionHandler := handlers.NewPredictionHandler(services.PredictionService)
			apiGroup.POST("/predict/stock-depletion", predictionHandler.PredictStockDepletion)
			apiGroup.POST("/predict/bulk-depletion", predictionHandler.PredictBulkDepletion)
			apiGroup.POST("/insights/stock-trends", predictionHandler.GetStockTrends)
		}

		if services.PricingService != nil {
			pricingHandler := handlers.NewPricingHandler(services.PricingService)
			pricingGroup := apiGroup.Group("/pricing")
			{
				pricingGroup.POST("/optimize", pricingHandler.OptimizePricing)
				pricingGroup.POST("/bulk-optimize", pricingHandler.BulkOptimizePricing)
				pricingGroup.POST("/competitor-prices", pricingHandler.GetCompetitorPrices)
				pricingGroup.POST("/elasticity", pricingHandler.CalculateElasticity)
			}
		}
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"service": serviceName,
		"status":  "healthy",
		"version": serviceVersion,
	})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
