package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

type ledgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetStockMovements(ctx context.Context, orgID, productID string, days int) ([]domain.StockObservation, error) {
	query := `
		SELECT
			entry_date,
			balance,
			COALESCE(debit, 0) - COALESCE(credit, 0) AS quantity
		FROM stock_ledger
		WHERE org_id = $1
		  AND product_id = $2
		  AND entry_date >= NOW() - make_interval(days => $3)
		ORDER BY entry_date ASC
	`

	var observations []domain.StockObservation
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &observations, query, orgID, productID, days)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting stock movements: %w", err)
	}

	return observations, nil
}
