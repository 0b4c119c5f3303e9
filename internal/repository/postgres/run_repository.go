package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *runRepository {
	return &runRepository{db: db}
}

// RecordDepletionRun stores a bulk depletion run and its rows, returning the run id.
// Infinite days remaining are stored as NULL.
func (r *runRepository) RecordDepletionRun(ctx context.Context, orgID string, rows []domain.BulkPrediction) (int64, error) {
	var runID int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO depletion_runs (org_id, product_count, created_at) VALUES ($1, $2, NOW()) RETURNING id`,
			orgID, len(rows),
		).Scan(&runID); err != nil {
			return fmt.Errorf("failed to insert depletion run: %w", err)
		}

		query := `
			INSERT INTO depletion_run_items (
				run_id, product_id, product_name, current_stock, min_stock,
				depletion_date, days_remaining, confidence, method
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			var days sql.NullInt64
			if row.DaysRemaining != nil && !row.DaysRemaining.Infinite {
				days = sql.NullInt64{Int64: int64(row.DaysRemaining.Days), Valid: true}
			}
			var depletion sql.NullTime
			if row.DepletionDate != nil {
				depletion = sql.NullTime{Time: *row.DepletionDate, Valid: true}
			}

			if _, err := stmt.ExecContext(
				ctx,
				runID,
				row.ProductID,
				row.ProductName,
				row.CurrentStock,
				row.MinStock,
				depletion,
				days,
				row.Confidence,
				string(row.Method),
			); err != nil {
				return fmt.Errorf("failed to insert run item for product %s: %w", row.ProductID, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return runID, nil
}
