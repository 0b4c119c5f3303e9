package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, srv
}

func TestQuoteCache_RoundTrip(t *testing.T) {
	client, srv := newTestClient(t)
	c := NewRedisQuoteCache(client, time.Minute)
	ctx := context.Background()
	quotes := []domain.CompetitorQuote{{Source: "Amazon", Price: 12.5, URL: "https://amazon.com/search?k=widget"}}

	_, found, err := c.GetQuotes(ctx, "Widget", "W-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetQuotes(ctx, "Widget", "W-1", quotes))

	got, found, err := c.GetQuotes(ctx, "  widget ", "w-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, quotes, got)

	key := buildQuoteKey("Widget", "W-1")
	assert.Equal(t, time.Minute, srv.TTL(key))
}

func TestQuoteCache_InvalidateAll(t *testing.T) {
	client, srv := newTestClient(t)
	c := NewRedisQuoteCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetQuotes(ctx, "A", "", nil))
	require.NoError(t, c.SetQuotes(ctx, "B", "", nil))
	require.NoError(t, srv.Set("unrelated", "1"))

	require.NoError(t, c.InvalidateAll(ctx))

	assert.False(t, srv.Exists(buildQuoteKey("A", "")))
	assert.False(t, srv.Exists(buildQuoteKey("B", "")))
	assert.True(t, srv.Exists("unrelated"))
}

func TestQuoteCache_CorruptEntry(t *testing.T) {
	client, srv := newTestClient(t)
	c := NewRedisQuoteCache(client, time.Minute)
	require.NoError(t, srv.Set(buildQuoteKey("Widget", ""), "not json"))

	_, found, err := c.GetQuotes(context.Background(), "Widget", "")

	assert.Error(t, err)
	assert.False(t, found)
}

func TestTrendsCache_ScopedByOrgAndLimit(t *testing.T) {
	client, srv := newTestClient(t)
	c := NewRedisTrendsCache(client, time.Minute)
	ctx := context.Background()
	report := &domain.StockTrendsReport{
		OrgID:   "org1",
		Summary: domain.StockTrendsSummary{HealthyCount: 1},
	}

	require.NoError(t, c.SetTrends(ctx, "org1", 50, report))
	require.NoError(t, c.SetTrends(ctx, "org2", 50, report))

	_, found, err := c.GetTrends(ctx, "org1", 10)
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := c.GetTrends(ctx, "org1", 50)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, got.Summary.HealthyCount)

	require.NoError(t, c.InvalidateOrg(ctx, "org1"))
	assert.False(t, srv.Exists(buildTrendsKey("org1", 50)))
	assert.True(t, srv.Exists(buildTrendsKey("org2", 50)))
}

func TestNewCaches_DisabledReturnsNoop(t *testing.T) {
	quotes, err := NewQuoteCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &noopQuoteCache{}, quotes)

	trends, err := NewTrendsCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &noopTrendsCache{}, trends)

	_, found, err := quotes.GetQuotes(context.Background(), "x", "")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNewQuoteCache_UsesRedisURL(t *testing.T) {
	srv := miniredis.RunT(t)

	c, err := NewQuoteCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + srv.Addr() + "/0"})

	require.NoError(t, err)
	assert.IsType(t, &redisQuoteCache{}, c)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "secret", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestTTLOrDefault(t *testing.T) {
	assert.Equal(t, defaultQuoteTTL, ttlOrDefault(0, defaultQuoteTTL))
	assert.Equal(t, 30*time.Second, ttlOrDefault(30, defaultQuoteTTL))
}
