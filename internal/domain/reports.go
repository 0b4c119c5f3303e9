package domain

import "time"

// BulkDepletionReport lists depletion predictions for several products, soonest first
type BulkDepletionReport struct {
	OrgID         string           `json:"org_id"`
	TotalProducts int              `json:"total_products"`
	Predictions   []BulkPrediction `json:"predictions"`
}

// BulkPricingReport lists successful price recommendations, largest change first
type BulkPricingReport struct {
	OrgID          string        `json:"org_id"`
	TotalProducts  int           `json:"total_products"`
	PricingResults []BulkPricing `json:"pricing_results"`
}

// CompetitorPricesReport is a point-in-time snapshot of competitor quotes
type CompetitorPricesReport struct {
	ProductName      string            `json:"product_name"`
	CompetitorPrices []CompetitorQuote `json:"competitor_prices"`
	ScrapedAt        time.Time         `json:"scraped_at"`
}
