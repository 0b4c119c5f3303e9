package competitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/setledger-ai/internal/cache"
	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubSource_DeterministicAndInRange(t *testing.T) {
	ctx := context.Background()

	first, err := StubSource{}.Quotes(ctx, "Blue Widget", "")
	require.NoError(t, err)
	second, err := StubSource{}.Quotes(ctx, "Blue Widget", "BW-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 4)

	ranges := map[string][2]float64{
		"Amazon":       {100, 1099},
		"Competitor A": {50, 549},
		"Competitor B": {80, 879},
		"Competitor C": {60, 659},
	}
	for _, q := range first {
		r, ok := ranges[q.Source]
		require.True(t, ok, q.Source)
		assert.GreaterOrEqual(t, q.Price, r[0])
		assert.LessOrEqual(t, q.Price, r[1])
	}
	assert.Equal(t, "https://amazon.com/search?k=Blue+Widget", first[0].URL)
	assert.Equal(t, "https://competitora.com", first[1].URL)
}

func TestStubSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StubSource{}.Quotes(ctx, "Widget", "")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource_AgainstSimulator(t *testing.T) {
	srv := httptest.NewServer(NewSimulatorRouter(StubSource{}))
	defer srv.Close()

	want, err := StubSource{}.Quotes(context.Background(), "Blue Widget", "")
	require.NoError(t, err)

	got, err := NewHTTPSource(srv.URL, time.Second).Quotes(context.Background(), "Blue Widget", "BW-1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSimulator_RequiresName(t *testing.T) {
	router := NewSimulatorRouter(StubSource{})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPSource_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Quotes(context.Background(), "Widget", "")

	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestHTTPSource_DropsNonPositivePrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quotes":[{"source":"X","price":0,"url":""},{"source":"Y","price":12.5,"url":"https://y.com"}]}`))
	}))
	defer srv.Close()

	quotes, err := NewHTTPSource(srv.URL, time.Second).Quotes(context.Background(), "Widget", "")

	require.NoError(t, err)
	assert.Equal(t, []domain.CompetitorQuote{{Source: "Y", Price: 12.5, URL: "https://y.com"}}, quotes)
}

func TestCachedSource(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	quoteCache := cache.NewRedisQuoteCache(client, time.Minute)
	ctx := context.Background()

	live := []domain.CompetitorQuote{{Source: "Amazon", Price: 20, URL: "https://amazon.com"}}
	failing := false
	source := NewCachedSource(SourceFunc(func(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error) {
		if failing {
			return nil, domain.ErrUpstreamUnavailable
		}
		return live, nil
	}), quoteCache)

	got, err := source.Quotes(ctx, "Widget", "")
	require.NoError(t, err)
	assert.Equal(t, live, got)

	failing = true
	got, err = source.Quotes(ctx, "Widget", "")
	require.NoError(t, err)
	assert.Equal(t, live, got, "falls back to cached quotes")

	got, err = source.Quotes(ctx, "Gadget", "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestNewSource(t *testing.T) {
	s, err := NewSource(config.CompetitorConfig{Mode: "stub"})
	require.NoError(t, err)
	assert.IsType(t, StubSource{}, s)

	s, err = NewSource(config.CompetitorConfig{Mode: "HTTP", Endpoint: "http://quotes.local"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, s)

	_, err = NewSource(config.CompetitorConfig{Mode: "http"})
	assert.Error(t, err)

	_, err = NewSource(config.CompetitorConfig{Mode: "scraper"})
	assert.Error(t, err)
}
