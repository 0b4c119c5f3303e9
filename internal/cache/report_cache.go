package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/redis/go-redis/v9"
)

const trendsKeyPrefix = "stock_trends"

// TrendsCache memoises org-wide stock trend reports, which fan out to many forecasts
type TrendsCache interface {
	GetTrends(ctx context.Context, orgID string, limit int) (*domain.StockTrendsReport, bool, error)
	SetTrends(ctx context.Context, orgID string, limit int, report *domain.StockTrendsReport) error
	InvalidateOrg(ctx context.Context, orgID string) error
}

type redisTrendsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopTrendsCache struct{}

func NewTrendsCache(cfg config.CacheConfig) (TrendsCache, error) {
	if !cfg.Enabled {
		return &noopTrendsCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisTrendsCache(client, defaultReportTTL), nil
}

func NewRedisTrendsCache(client *redis.Client, ttl time.Duration) TrendsCache {
	return &redisTrendsCache{client: client, ttl: ttl}
}

func NewNoopTrendsCache() TrendsCache {
	return &noopTrendsCache{}
}

func (c *redisTrendsCache) GetTrends(ctx context.Context, orgID string, limit int) (*domain.StockTrendsReport, bool, error) {
	var report domain.StockTrendsReport
	found, err := getJSON(ctx, c.client, buildTrendsKey(orgID, limit), &report)
	if err != nil || !found {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisTrendsCache) SetTrends(ctx context.Context, orgID string, limit int, report *domain.StockTrendsReport) error {
	return setJSON(ctx, c.client, buildTrendsKey(orgID, limit), report, c.ttl)
}

func (c *redisTrendsCache) InvalidateOrg(ctx context.Context, orgID string) error {
	return deleteKeysWithPrefix(ctx, c.client, trendsOrgPrefix(orgID), scanBatchSize)
}

func (n *noopTrendsCache) GetTrends(ctx context.Context, orgID string, limit int) (*domain.StockTrendsReport, bool, error) {
	return nil, false, nil
}

func (n *noopTrendsCache) SetTrends(ctx context.Context, orgID string, limit int, report *domain.StockTrendsReport) error {
	return nil
}

func (n *noopTrendsCache) InvalidateOrg(ctx context.Context, orgID string) error {
	return nil
}

func trendsOrgPrefix(orgID string) string {
	return fmt.Sprintf("%s:%s:", trendsKeyPrefix, orgID)
}

func buildTrendsKey(orgID string, limit int) string {
	return trendsOrgPrefix(orgID) + hashParts([]string{"limit=" + strconv.Itoa(limit)})
}
