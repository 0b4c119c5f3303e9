// Package competitor supplies competitor price quotes to the pricing service.
// Quotes are best effort: callers treat an error as "no quotes".
package competitor

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/domain"
)

// Source returns the quotes currently visible for a product
type Source interface {
	Quotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error)
}

// SourceFunc adapts a plain function to Source
type SourceFunc func(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error)

func (f SourceFunc) Quotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error) {
	return f(ctx, name, sku)
}

// NewSource builds the live source selected by cfg.Mode
func NewSource(cfg config.CompetitorConfig) (Source, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "stub":
		return StubSource{}, nil
	case "http":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("competitor mode http requires COMPETITOR_ENDPOINT")
		}
		return NewHTTPSource(cfg.Endpoint, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown competitor mode %q", cfg.Mode)
	}
}

type stubSeller struct {
	name   string
	suffix string
	modulo uint32
	base   uint32
	url    string
}

var stubSellers = []stubSeller{
	{name: "Competitor A", suffix: "A", modulo: 500, base: 50, url: "https://competitora.com"},
	{name: "Competitor B", suffix: "B", modulo: 800, base: 80, url: "https://competitorb.com"},
	{name: "Competitor C", suffix: "C", modulo: 600, base: 60, url: "https://competitorc.com"},
}

// StubSource fabricates stable quotes from a hash of the product name. The same name always
// yields the same four quotes.
type StubSource struct{}

func (StubSource) Quotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quotes := make([]domain.CompetitorQuote, 0, len(stubSellers)+1)
	quotes = append(quotes, domain.CompetitorQuote{
		Source: "Amazon",
		Price:  float64(fnvHash(name)%1000 + 100),
		URL:    "https://amazon.com/search?k=" + strings.ReplaceAll(name, " ", "+"),
	})
	for _, s := range stubSellers {
		quotes = append(quotes, domain.CompetitorQuote{
			Source: s.name,
			Price:  float64(fnvHash(name+s.suffix)%s.modulo + s.base),
			URL:    s.url,
		})
	}
	return quotes, nil
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
