package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/redis/go-redis/v9"
)

const quoteKeyPrefix = "competitor:quotes"

// QuoteCache keeps the last competitor quotes seen for a product
type QuoteCache interface {
	GetQuotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, bool, error)
	SetQuotes(ctx context.Context, name, sku string, quotes []domain.CompetitorQuote) error
	InvalidateAll(ctx context.Context) error
}

type redisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopQuoteCache struct{}

func NewQuoteCache(cfg config.CacheConfig) (QuoteCache, error) {
	if !cfg.Enabled {
		return &noopQuoteCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisQuoteCache(client, ttlOrDefault(cfg.QuoteTTLSeconds, defaultQuoteTTL)), nil
}

// NewRedisQuoteCache wraps an existing client
func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) QuoteCache {
	return &redisQuoteCache{client: client, ttl: ttl}
}

func NewNoopQuoteCache() QuoteCache {
	return &noopQuoteCache{}
}

func (c *redisQuoteCache) GetQuotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, bool, error) {
	var quotes []domain.CompetitorQuote
	found, err := getJSON(ctx, c.client, buildQuoteKey(name, sku), &quotes)
	if err != nil || !found {
		return nil, false, err
	}
	return quotes, true, nil
}

func (c *redisQuoteCache) SetQuotes(ctx context.Context, name, sku string, quotes []domain.CompetitorQuote) error {
	return setJSON(ctx, c.client, buildQuoteKey(name, sku), quotes, c.ttl)
}

func (c *redisQuoteCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, quoteKeyPrefix, scanBatchSize)
}

func (n *noopQuoteCache) GetQuotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, bool, error) {
	return nil, false, nil
}

func (n *noopQuoteCache) SetQuotes(ctx context.Context, name, sku string, quotes []domain.CompetitorQuote) error {
	return nil
}

func (n *noopQuoteCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildQuoteKey(name, sku string) string {
	parts := []string{"name=" + strings.ToLower(strings.TrimSpace(name))}
	if sku = strings.TrimSpace(sku); sku != "" {
		parts = append(parts, "sku="+strings.ToLower(sku))
	}
	return fmt.Sprintf("%s:%s", quoteKeyPrefix, hashParts(parts))
}
