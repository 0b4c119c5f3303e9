package handlers

import (
	"context"
	"strings"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/gin-gonic/gin"
)

// PricingService is the part of service.PricingService the handlers call
type PricingService interface {
	OptimizePrice(ctx context.Context, orgID, productID string, includeCompetitors bool) (*domain.ProductPricing, error)
	BulkPricing(ctx context.Context, orgID string, productIDs []string) (*domain.BulkPricingReport, error)
	Elasticity(ctx context.Context, orgID, productID string) (*domain.ElasticityReport, error)
	CompetitorPrices(ctx context.Context, name, sku string) *domain.CompetitorPricesReport
}

type PricingHandler struct {
	service PricingService
}

func NewPricingHandler(service PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

type optimizeRequest struct {
	OrgID              string `json:"org_id"`
	ProductID          string `json:"product_id"`
	IncludeCompetitors *bool  `json:"include_competitors"`
}

type competitorRequest struct {
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
}

func (h *PricingHandler) OptimizePricing(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" || req.ProductID == "" {
		respondBadRequest(c, "org_id and product_id are required")
		return
	}

	include := true
	if req.IncludeCompetitors != nil {
		include = *req.IncludeCompetitors
	}

	result, err := h.service.OptimizePrice(c.Request.Context(), req.OrgID, req.ProductID, include)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

// BulkOptimizePricing never consults competitors, whatever the request says
func (h *PricingHandler) BulkOptimizePricing(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" {
		respondBadRequest(c, "org_id is required")
		return
	}

	report, err := h.service.BulkPricing(c.Request.Context(), req.OrgID, req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, report)
}

func (h *PricingHandler) GetCompetitorPrices(c *gin.Context) {
	var req competitorRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProductName) == "" {
		respondBadRequest(c, "product_name is required")
		return
	}

	respondOK(c, h.service.CompetitorPrices(c.Request.Context(), req.ProductName, req.ProductSKU))
}

func (h *PricingHandler) CalculateElasticity(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" || req.ProductID == "" {
		respondBadRequest(c, "org_id and product_id are required")
		return
	}

	report, err := h.service.Elasticity(c.Request.Context(), req.OrgID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, report)
}
