// internal/domain/models.go
package domain

import "time"

// Product is the persisted product record as returned by the data source
type Product struct {
	OrgID        string  `json:"org_id" db:"org_id"`
	ProductID    string  `json:"product_id" db:"product_id"`
	Name         string  `json:"name" db:"name"`
	SKU          string  `json:"sku" db:"sku"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
	MinStock     float64 `json:"min_stock" db:"min_stock"`
	CostPrice    float64 `json:"cost_price" db:"cost_price"`
	CurrentPrice float64 `json:"current_price" db:"current_price"`
	Status       string  `json:"status" db:"status"`
}

// Context converts the persisted record into the request-scoped view used by predictions
func (p Product) Context() ProductContext {
	return ProductContext{
		ProductID:    p.ProductID,
		Name:         p.Name,
		SKU:          p.SKU,
		CurrentStock: p.CurrentStock,
		MinStock:     p.MinStock,
		CostPrice:    p.CostPrice,
		CurrentPrice: p.CurrentPrice,
	}
}

// ProductContext carries the per-request product attributes the predictors read
type ProductContext struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	CurrentStock float64 `json:"current_stock"`
	MinStock     float64 `json:"min_stock"`
	CostPrice    float64 `json:"cost_price"`
	CurrentPrice float64 `json:"current_price"`
}

// StockObservation is one ledger balance sample
type StockObservation struct {
	Date     time.Time `json:"date" db:"entry_date"`
	Balance  float64   `json:"balance" db:"balance"`
	Quantity float64   `json:"quantity" db:"quantity"`
}

// SalesObservation is one invoice line for a product
type SalesObservation struct {
	Date        time.Time `json:"date" db:"created_at"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
	Discount    float64   `json:"discount" db:"discount"`
}

// CompetitorQuote is a price observed at another seller
type CompetitorQuote struct {
	Source string  `json:"source"`
	Price  float64 `json:"price"`
	URL    string  `json:"url"`
}

// InsightType classifies an Insight
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightMetric  InsightType = "metric"
)

// Insight is a qualitative observation about a stock series
type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}
