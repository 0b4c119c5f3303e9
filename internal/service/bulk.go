package service

import (
	"context"
	"errors"

	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers          = 4
	defaultHistoryDays      = 90
	defaultSalesHistoryDays = 90
	defaultBulkLimit        = 20
	defaultTrendsLimit      = 50
)

// Limits bounds the work a single request may fan out to
type Limits struct {
	Workers          int
	HistoryDays      int
	SalesHistoryDays int
	BulkLimit        int
	TrendsLimit      int
}

// LimitsFromConfig copies the forecast section of the configuration, filling in defaults
func LimitsFromConfig(cfg config.ForecastConfig) Limits {
	return Limits{
		Workers:          cfg.BulkWorkers,
		HistoryDays:      cfg.HistoryDays,
		SalesHistoryDays: cfg.SalesHistoryDays,
		BulkLimit:        cfg.BulkLimit,
		TrendsLimit:      cfg.TrendsLimit,
	}.withDefaults()
}

func (l Limits) withDefaults() Limits {
	if l.Workers <= 0 {
		l.Workers = defaultWorkers
	}
	if l.HistoryDays <= 0 {
		l.HistoryDays = defaultHistoryDays
	}
	if l.SalesHistoryDays <= 0 {
		l.SalesHistoryDays = defaultSalesHistoryDays
	}
	if l.BulkLimit <= 0 {
		l.BulkLimit = defaultBulkLimit
	}
	if l.TrendsLimit <= 0 {
		l.TrendsLimit = defaultTrendsLimit
	}
	return l
}

// target is a product a bulk request will process. product is nil until looked up.
type target struct {
	productID string
	product   *domain.Product
}

// resolveTargets caps the requested ids at limit. With no ids every active product of the
// org is used and the listed records are reused instead of being fetched again.
func resolveTargets(ctx context.Context, products repository.ProductRepository, orgID string, productIDs []string, limit int) ([]target, error) {
	if len(productIDs) > 0 {
		if len(productIDs) > limit {
			productIDs = productIDs[:limit]
		}
		targets := make([]target, len(productIDs))
		for i, id := range productIDs {
			targets[i] = target{productID: id}
		}
		return targets, nil
	}

	listed, err := products.ListActiveProducts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(listed) > limit {
		listed = listed[:limit]
	}

	targets := make([]target, len(listed))
	for i := range listed {
		targets[i] = target{productID: listed[i].ProductID, product: &listed[i]}
	}
	return targets, nil
}

// loadProduct returns the target's product, fetching it when it was not listed. ok is false
// when the product should be skipped; the reason has already been logged.
func loadProduct(ctx context.Context, products repository.ProductRepository, orgID string, t target) (*domain.Product, bool) {
	if t.product != nil {
		return t.product, true
	}

	product, err := products.GetProduct(ctx, orgID, t.productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		log.Debug().Str("org_id", orgID).Str("product_id", t.productID).Msg("bulk: product not found, skipping")
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Str("product_id", t.productID).Msg("bulk: failed to load product, skipping")
		return nil, false
	}
	return product, true
}

// fanOut runs fn for every index with at most workers in flight. fn reports per-item failures
// through its own result slot; only cancellation of ctx fails the batch.
func fanOut(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
