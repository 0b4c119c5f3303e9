// Package backendapi reads inventory data from the main backend's REST API. It is the
// fallback data source when Postgres is unreachable.
package backendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/repository"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend rooted at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

type movementDTO struct {
	Date         time.Time `json:"date"`
	BalanceAfter float64   `json:"balanceAfter"`
	Quantity     float64   `json:"quantity"`
}

type productDTO struct {
	ProductID string `json:"productID"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Status    string `json:"status"`
	Inventory struct {
		CurrentStock float64 `json:"currentStock"`
		MinStock     float64 `json:"minStock"`
	} `json:"inventory"`
	Pricing struct {
		CostPrice    float64 `json:"costPrice"`
		SellingPrice float64 `json:"sellingPrice"`
	} `json:"pricing"`
}

func (p productDTO) toDomain(orgID, fallbackID string) domain.Product {
	id := p.ProductID
	if id == "" {
		id = fallbackID
	}
	return domain.Product{
		OrgID:        orgID,
		ProductID:    id,
		Name:         p.Name,
		SKU:          p.SKU,
		CurrentStock: p.Inventory.CurrentStock,
		MinStock:     p.Inventory.MinStock,
		CostPrice:    p.Pricing.CostPrice,
		CurrentPrice: p.Pricing.SellingPrice,
		Status:       p.Status,
	}
}

type invoiceDTO struct {
	CreatedAt time.Time `json:"createdAt"`
	Items     []struct {
		ProductID   string  `json:"productID"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unitPrice"`
		TotalAmount float64 `json:"totalAmount"`
		Discount    float64 `json:"discount"`
	} `json:"items"`
}

func (c *Client) GetStockMovements(ctx context.Context, orgID, productID string, days int) ([]domain.StockObservation, error) {
	params := url.Values{}
	params.Set("orgID", orgID)
	params.Set("productID", productID)
	params.Set("limit", strconv.Itoa(days*2))

	var env envelope[[]movementDTO]
	if err := c.get(ctx, "/api/v1/stock/movements", params, &env, nil); err != nil {
		return nil, err
	}

	observations := make([]domain.StockObservation, len(env.Data))
	for i, m := range env.Data {
		observations[i] = domain.StockObservation{Date: m.Date, Balance: m.BalanceAfter, Quantity: m.Quantity}
	}
	sort.SliceStable(observations, func(i, j int) bool { return observations[i].Date.Before(observations[j].Date) })

	return observations, nil
}

func (c *Client) GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error) {
	params := url.Values{}
	params.Set("orgID", orgID)

	var env envelope[*productDTO]
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(productID), params, &env, domain.ErrProductNotFound); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	product := env.Data.toDomain(orgID, productID)
	return &product, nil
}

func (c *Client) ListActiveProducts(ctx context.Context, orgID string) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("orgID", orgID)
	params.Set("status", "active")

	var env envelope[[]productDTO]
	if err := c.get(ctx, "/api/v1/products", params, &env, nil); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(env.Data))
	for _, p := range env.Data {
		if p.ProductID == "" {
			continue
		}
		products = append(products, p.toDomain(orgID, ""))
	}
	return products, nil
}

func (c *Client) GetSalesHistory(ctx context.Context, orgID, productID string, days int) ([]domain.SalesObservation, error) {
	params := url.Values{}
	params.Set("orgID", orgID)
	params.Set("productID", productID)
	params.Set("days", strconv.Itoa(days))

	var env envelope[[]invoiceDTO]
	if err := c.get(ctx, "/api/v1/invoices", params, &env, nil); err != nil {
		return nil, err
	}

	var sales []domain.SalesObservation
	for _, inv := range env.Data {
		for _, item := range inv.Items {
			if item.ProductID != productID {
				continue
			}
			sales = append(sales, domain.SalesObservation{
				Date:        inv.CreatedAt,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalAmount: item.TotalAmount,
				Discount:    item.Discount,
			})
		}
	}
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].Date.Before(sales[j].Date) })

	return sales, nil
}

// get decodes a {success, data} envelope. A 404 wraps notFound when given; every other
// failure wraps ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{ ok() (bool, string) }, notFound error) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return fmt.Errorf("%w: GET %s", notFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: GET %s returned %d: %s", domain.ErrUpstreamUnavailable, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	if ok, msg := out.ok(); !ok {
		return fmt.Errorf("%w: GET %s: %s", domain.ErrUpstreamUnavailable, path, msg)
	}

	return nil
}

func (e *envelope[T]) ok() (bool, string) {
	return e.Success, e.Error
}

var _ repository.DataSource = (*Client)(nil)
