package handlers

import (
	"context"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/gin-gonic/gin"
)

// PredictionService is the part of service.PredictionService the handlers call
type PredictionService interface {
	PredictDepletion(ctx context.Context, orgID, productID string) (*domain.ProductPrediction, error)
	BulkDepletion(ctx context.Context, orgID string, productIDs []string) (*domain.BulkDepletionReport, error)
	StockTrends(ctx context.Context, orgID string) (*domain.StockTrendsReport, error)
}

type PredictionHandler struct {
	service PredictionService
}

func NewPredictionHandler(service PredictionService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

type productRequest struct {
	OrgID     string `json:"org_id"`
	ProductID string `json:"product_id"`
}

type bulkRequest struct {
	OrgID      string   `json:"org_id"`
	ProductIDs []string `json:"product_ids"`
}

type orgRequest struct {
	OrgID string `json:"org_id"`
}

func (h *PredictionHandler) PredictStockDepletion(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" || req.ProductID == "" {
		respondBadRequest(c, "org_id and product_id are required")
		return
	}

	result, err := h.service.PredictDepletion(c.Request.Context(), req.OrgID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

func (h *PredictionHandler) PredictBulkDepletion(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" {
		respondBadRequest(c, "org_id is required")
		return
	}

	report, err := h.service.BulkDepletion(c.Request.Context(), req.OrgID, req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, report)
}

func (h *PredictionHandler) GetStockTrends(c *gin.Context) {
	var req orgRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrgID == "" {
		respondBadRequest(c, "org_id is required")
		return
	}

	report, err := h.service.StockTrends(c.Request.Context(), req.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, report)
}
