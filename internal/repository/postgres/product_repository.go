package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/lib/pq"
)

// activeStatuses are the product statuses included in org-wide runs
var activeStatuses = []string{"active"}

const productColumns = `
	org_id,
	product_id,
	name,
	COALESCE(sku, '') AS sku,
	COALESCE(current_stock, 0) AS current_stock,
	COALESCE(min_stock, 0) AS min_stock,
	COALESCE(cost_price, 0) AS cost_price,
	COALESCE(current_price, 0) AS current_price,
	status
`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE org_id = $1 AND product_id = $2
	`

	var product domain.Product
	err := r.db.withSlot(ctx, func() error {
		return r.db.GetContext(ctx, &product, query, orgID, productID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) ListActiveProducts(ctx context.Context, orgID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE org_id = $1 AND status = ANY($2)
		ORDER BY name ASC
	`

	var products []domain.Product
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &products, query, orgID, pq.Array(activeStatuses))
	})
	if err != nil {
		return nil, fmt.Errorf("error listing active products: %w", err)
	}

	return products, nil
}
