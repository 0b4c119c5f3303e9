package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

const defaultHTTPTimeout = 5 * time.Second

// HTTPSource reads quotes from a quote service speaking the simulator's protocol
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

type quotesResponse struct {
	Quotes []domain.CompetitorQuote `json:"quotes"`
}

func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSource{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Quotes(ctx context.Context, name, sku string) ([]domain.CompetitorQuote, error) {
	params := url.Values{}
	params.Set("name", name)
	if sku != "" {
		params.Set("sku", sku)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/quotes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: quote service: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: quote service returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload quotesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode quotes: %v", domain.ErrUpstreamUnavailable, err)
	}

	quotes := make([]domain.CompetitorQuote, 0, len(payload.Quotes))
	for _, q := range payload.Quotes {
		if q.Price > 0 {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}
