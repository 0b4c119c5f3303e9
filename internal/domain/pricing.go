package domain

// PricingMethod tags which tier produced a pricing result
type PricingMethod string

const (
	PricingSimple       PricingMethod = "simple"
	PricingMLRegression PricingMethod = "ml_regression"
)

// PricingFactors explains the inputs behind a recommendation
type PricingFactors struct {
	CostPrice          float64  `json:"cost_price"`
	MarginPercent      float64  `json:"margin_percent"`
	CompetitorCount    int      `json:"competitor_count"`
	AvgCompetitorPrice *float64 `json:"avg_competitor_price"`
	ModelUnitRevenue   *float64 `json:"model_unit_revenue,omitempty"`
}

// PricingStrategy is a named alternative price point
type PricingStrategy struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// PriceBounds limits the recommended price
type PriceBounds struct {
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
}

// PricingResult is the outcome of a price optimization.
// When Success is true, PriceBounds.MinPrice <= RecommendedPrice <= PriceBounds.MaxPrice.
type PricingResult struct {
	Success          bool              `json:"success"`
	CurrentPrice     float64           `json:"current_price"`
	RecommendedPrice float64           `json:"recommended_price"`
	Confidence       float64           `json:"confidence"`
	Method           PricingMethod     `json:"method,omitempty"`
	Elasticity       float64           `json:"elasticity"`
	Factors          PricingFactors    `json:"factors"`
	Strategies       []PricingStrategy `json:"strategies"`
	PriceBounds      PriceBounds       `json:"price_bounds"`
	Error            string            `json:"error,omitempty"`
}

// FailedPricing builds the failure shape of a PricingResult
func FailedPricing(currentPrice float64, err error) PricingResult {
	return PricingResult{
		Success:          false,
		CurrentPrice:     currentPrice,
		RecommendedPrice: currentPrice,
		Strategies:       []PricingStrategy{},
		Error:            err.Error(),
	}
}

// ProductPricing is a pricing result annotated with request context
type ProductPricing struct {
	ProductID        string            `json:"product_id"`
	ProductName      string            `json:"product_name"`
	Pricing          PricingResult     `json:"pricing"`
	CompetitorPrices []CompetitorQuote `json:"competitor_prices"`
	SalesDataPoints  int               `json:"sales_data_points"`
}

// BulkPricing is one row of a bulk pricing run
type BulkPricing struct {
	ProductID          string        `json:"product_id"`
	ProductName        string        `json:"product_name"`
	CurrentPrice       float64       `json:"current_price"`
	RecommendedPrice   float64       `json:"recommended_price"`
	PriceChange        float64       `json:"price_change"`
	PriceChangePercent float64       `json:"price_change_percent"`
	Confidence         float64       `json:"confidence"`
	Method             PricingMethod `json:"method"`
	MarginPercent      float64       `json:"margin_percent"`
}

// ElasticityReport describes demand elasticity for a product
type ElasticityReport struct {
	ProductID      string  `json:"product_id"`
	Elasticity     float64 `json:"elasticity"`
	Interpretation string  `json:"interpretation"`
	DataPoints     int     `json:"data_points"`
}
