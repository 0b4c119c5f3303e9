// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

// StockRepository reads the stock ledger
type StockRepository interface {
	// GetStockMovements returns ledger balances for the last days days, oldest first.
	GetStockMovements(ctx context.Context, orgID, productID string, days int) ([]domain.StockObservation, error)
}

// ProductRepository reads product master data
type ProductRepository interface {
	// GetProduct returns domain.ErrProductNotFound when the product does not exist.
	GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error)
	ListActiveProducts(ctx context.Context, orgID string) ([]domain.Product, error)
}

// SalesRepository reads invoice lines
type SalesRepository interface {
	// GetSalesHistory returns invoice lines for the last days days, oldest first.
	GetSalesHistory(ctx context.Context, orgID, productID string, days int) ([]domain.SalesObservation, error)
}

// DataSource bundles every read the prediction services need
type DataSource interface {
	StockRepository
	ProductRepository
	SalesRepository
}

// RunRecorder persists the outcome of a bulk depletion run
type RunRecorder interface {
	RecordDepletionRun(ctx context.Context, orgID string, rows []domain.BulkPrediction) (int64, error)
}
