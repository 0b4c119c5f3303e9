package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/rs/zerolog/log"
)

// FallbackDataSource reads from primary and retries against secondary when primary fails.
// A not-found answer from primary is final.
type FallbackDataSource struct {
	primary   DataSource
	secondary DataSource
}

// NewFallbackDataSource chains two data sources. A nil primary sends every read to secondary.
func NewFallbackDataSource(primary, secondary DataSource) *FallbackDataSource {
	return &FallbackDataSource{primary: primary, secondary: secondary}
}

func (f *FallbackDataSource) GetStockMovements(ctx context.Context, orgID, productID string, days int) ([]domain.StockObservation, error) {
	if f.primary != nil {
		obs, err := f.primary.GetStockMovements(ctx, orgID, productID, days)
		if err == nil {
			return obs, nil
		}
		f.logFallback(err, "stock movements", orgID, productID)
	}
	return f.secondary.GetStockMovements(ctx, orgID, productID, days)
}

func (f *FallbackDataSource) GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error) {
	if f.primary != nil {
		product, err := f.primary.GetProduct(ctx, orgID, productID)
		if err == nil || errors.Is(err, domain.ErrProductNotFound) {
			return product, err
		}
		f.logFallback(err, "product", orgID, productID)
	}
	return f.secondary.GetProduct(ctx, orgID, productID)
}

func (f *FallbackDataSource) ListActiveProducts(ctx context.Context, orgID string) ([]domain.Product, error) {
	if f.primary != nil {
		products, err := f.primary.ListActiveProducts(ctx, orgID)
		if err == nil {
			return products, nil
		}
		f.logFallback(err, "active products", orgID, "")
	}
	return f.secondary.ListActiveProducts(ctx, orgID)
}

func (f *FallbackDataSource) GetSalesHistory(ctx context.Context, orgID, productID string, days int) ([]domain.SalesObservation, error) {
	if f.primary != nil {
		sales, err := f.primary.GetSalesHistory(ctx, orgID, productID, days)
		if err == nil {
			return sales, nil
		}
		f.logFallback(err, "sales history", orgID, productID)
	}
	return f.secondary.GetSalesHistory(ctx, orgID, productID, days)
}

func (f *FallbackDataSource) logFallback(err error, what, orgID, productID string) {
	log.Warn().
		Err(err).
		Str("org_id", orgID).
		Str("product_id", productID).
		Msgf("primary data source failed for %s, using fallback", what)
}

var _ DataSource = (*FallbackDataSource)(nil)
