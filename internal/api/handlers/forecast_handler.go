package handlers

import (
	"net/http"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/forecast"
	"github.com/gin-gonic/gin"
)

// ForecastHandler serves revenue and expense projections. It needs no data source: the
// history arrives in the request body.
type ForecastHandler struct {
	now func() time.Time
}

func NewForecastHandler() *ForecastHandler {
	return &ForecastHandler{now: time.Now}
}

type financialRequest struct {
	HistoricalData struct {
		Revenue  []forecast.FinancialPoint `json:"revenue"`
		Expenses []forecast.FinancialPoint `json:"expenses"`
	} `json:"historical_data"`
	ForecastDays int `json:"forecast_days"`
}

type revenueRequest struct {
	HistoricalData []forecast.FinancialPoint `json:"historical_data"`
	ForecastDays   int                       `json:"forecast_days"`
}

func forecastDays(requested int) int {
	if requested <= 0 {
		return forecast.DefaultFinancialDays
	}
	return min(requested, forecast.MaxFinancialDays)
}

func (h *ForecastHandler) FinancialForecast(c *gin.Context) {
	var req financialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	revenue, expenses := req.HistoricalData.Revenue, req.HistoricalData.Expenses
	if len(revenue) == 0 && len(expenses) == 0 {
		respondBadRequest(c, "No historical data provided")
		return
	}

	days := forecastDays(req.ForecastDays)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"forecast": forecast.FinancialForecast(revenue, expenses, days, h.now()),
		"metadata": gin.H{
			"forecast_days": days,
			"model_type":    "linear_regression",
			"data_points":   len(revenue) + len(expenses),
		},
	})
}

func (h *ForecastHandler) RevenueForecast(c *gin.Context) {
	var req revenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	days := forecastDays(req.ForecastDays)
	confidence := make([]float64, days)
	for i := range confidence {
		confidence[i] = forecast.FinancialConfidence(i)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"forecast":          forecast.ProjectSeries(req.HistoricalData, days, forecast.SeriesRevenue),
		"confidence_scores": confidence,
	})
}
