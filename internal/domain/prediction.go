package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ForecastMethod tags which tier produced a depletion result
type ForecastMethod string

const (
	MethodLinear        ForecastMethod = "linear"
	MethodARIMA         ForecastMethod = "arima"
	MethodDecomposition ForecastMethod = "decomposition"
)

// DaysRemaining is a whole number of days or +Inf when stock is not depleting.
type DaysRemaining struct {
	Days     int
	Infinite bool
}

// FiniteDays builds a finite DaysRemaining
func FiniteDays(days int) *DaysRemaining {
	return &DaysRemaining{Days: days}
}

// InfiniteDays builds a DaysRemaining that never runs out
func InfiniteDays() *DaysRemaining {
	return &DaysRemaining{Infinite: true}
}

// Float returns the value as float64, +Inf for infinite
func (d DaysRemaining) Float() float64 {
	if d.Infinite {
		return math.Inf(1)
	}
	return float64(d.Days)
}

func (d DaysRemaining) String() string {
	if d.Infinite {
		return "Infinity"
	}
	return fmt.Sprintf("%d", d.Days)
}

func (d DaysRemaining) MarshalJSON() ([]byte, error) {
	if d.Infinite {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(d.Days)
}

func (d *DaysRemaining) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "Infinity" {
			*d = DaysRemaining{Infinite: true}
			return nil
		}
		return fmt.Errorf("invalid days remaining %q", s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = DaysRemaining{Days: n}
	return nil
}

// ProjectedPoint is one day of projected stock
type ProjectedPoint struct {
	Date           time.Time `json:"ds"`
	ProjectedStock float64   `json:"projected_stock"`
}

// DepletionResult is the outcome of a depletion prediction.
// DepletionDate and DaysRemaining are nil whenever Success is false.
type DepletionResult struct {
	Success             bool             `json:"success"`
	DepletionDate       *time.Time       `json:"depletion_date"`
	DaysRemaining       *DaysRemaining   `json:"days_remaining"`
	Confidence          float64          `json:"confidence"`
	Method              ForecastMethod   `json:"method,omitempty"`
	Message             string           `json:"message,omitempty"`
	Error               string           `json:"error,omitempty"`
	AvgDailyConsumption *float64         `json:"avg_daily_consumption,omitempty"`
	ForecastData        []ProjectedPoint `json:"forecast_data,omitempty"`
}

// FailedDepletion builds the failure shape of a DepletionResult
func FailedDepletion(err error) DepletionResult {
	return DepletionResult{
		Success:    false,
		Confidence: 0,
		Error:      err.Error(),
	}
}

// ProductPrediction is a depletion result annotated with product attributes
type ProductPrediction struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CurrentStock float64         `json:"current_stock"`
	MinStock     float64         `json:"min_stock"`
	Prediction   DepletionResult `json:"prediction"`
	Insights     []Insight       `json:"insights"`
}

// BulkPrediction is one row of a bulk depletion run
type BulkPrediction struct {
	ProductID     string         `json:"product_id"`
	ProductName   string         `json:"product_name"`
	CurrentStock  float64        `json:"current_stock"`
	MinStock      float64        `json:"min_stock"`
	DepletionDate *time.Time     `json:"depletion_date"`
	DaysRemaining *DaysRemaining `json:"days_remaining"`
	Confidence    float64        `json:"confidence"`
	Method        ForecastMethod `json:"method"`
}

// TrendEntry is one product in a stock trends bucket
type TrendEntry struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	DaysRemaining *int    `json:"days_remaining,omitempty"`
	CurrentStock  float64 `json:"current_stock"`
}

// StockTrends groups products by how soon they run out
type StockTrends struct {
	CriticalStock []TrendEntry `json:"critical_stock"`
	LowStock      []TrendEntry `json:"low_stock"`
	HealthyStock  []TrendEntry `json:"healthy_stock"`
	NoData        []TrendEntry `json:"no_data"`
}

// StockTrendsSummary counts products per bucket
type StockTrendsSummary struct {
	CriticalCount int `json:"critical_count"`
	LowCount      int `json:"low_count"`
	HealthyCount  int `json:"healthy_count"`
	NoDataCount   int `json:"no_data_count"`
}

// StockTrendsReport is the org-wide stock trends response
type StockTrendsReport struct {
	OrgID   string             `json:"org_id"`
	Summary StockTrendsSummary `json:"summary"`
	Trends  StockTrends        `json:"trends"`
}
