package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSalesHistory(ctx context.Context, orgID, productID string, days int) ([]domain.SalesObservation, error) {
	query := `
		SELECT
			created_at,
			quantity,
			unit_price,
			COALESCE(total_amount, quantity * unit_price) AS total_amount,
			COALESCE(discount, 0) AS discount
		FROM invoice_items
		WHERE org_id = $1
		  AND product_id = $2
		  AND created_at >= NOW() - make_interval(days => $3)
		ORDER BY created_at ASC
	`

	var sales []domain.SalesObservation
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &sales, query, orgID, productID, days)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting sales history: %w", err)
	}

	return sales, nil
}
