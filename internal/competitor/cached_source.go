package competitor

import (
	"context"

	"github.com/andresuchdata/setledger-ai/internal/cache"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/rs/zerolog/log"
)

// CachedSource refreshes the quote cache on every live success and serves the cached copy when
// the live source fails.
type CachedSource struct {
	live  Source
	cache cache.QuoteCache
}

func NewCachedSource(live Source, quoteCache cache.QuoteCache) *CachedSource {
	if quoteCache == nil {
		quoteCache = cache.NewNoopQuoteCache()
	}
	return &CachedSource{live: live, cache: quoteCache}
}

func (s *CachedSource) Quotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error) {
	quotes, err := s.live.Quotes(ctx, name, sku)
	if err == nil {
		if cacheErr := s.cache.SetQuotes(ctx, name, sku, quotes); cacheErr != nil {
			log.Warn().Err(cacheErr).Str("product", name).Msg("failed to cache competitor quotes")
		}
		return quotes, nil
	}

	log.Warn().Err(err).Str("product", name).Msg("live competitor source failed, trying cache")

	cached, found, cacheErr := s.cache.GetQuotes(ctx, name, sku)
	if cacheErr != nil {
		log.Warn().Err(cacheErr).Str("product", name).Msg("failed to read cached competitor quotes")
	}
	if found {
		return cached, nil
	}
	return []domain.CompetitorQuote{}, nil
}
