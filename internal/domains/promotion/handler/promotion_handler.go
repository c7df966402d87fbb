package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/domains/promotion/service"
	"nutrifarm-backend/internal/shared/response"
	"nutrifarm-backend/pkg/logger"
)

type PromotionHandler struct {
	pricing service.PricingService
	ledger  service.LedgerService
}

func NewPromotionHandler(pricing service.PricingService, ledger service.LedgerService) *PromotionHandler {
	return &PromotionHandler{pricing: pricing, ledger: ledger}
}

// GetProductPrice godoc
// @Summary  Quote the final unit price of a product
// @Tags     pricing
// @Param    id        path   string true  "Product ID"
// @Param    quantity  query  int    false "Quantity (default 1)"
// @Router   /v1/products/{id}/price [get]
func (h *PromotionHandler) GetProductPrice(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	req := model.PriceQuoteRequest{Quantity: 1}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "validation failed", err)
		return
	}

	quote, err := h.pricing.GetFinalPrice(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, quote)
}

// ClaimFlashSale godoc
// @Summary  Reserve flash-sale units for checkout
// @Tags     flash-sales
// @Param    id       path  string                      true "Flash sale ID"
// @Param    request  body  model.ClaimFlashSaleRequest true "Claim"
// @Router   /v1/flash-sales/{id}/claims [post]
func (h *PromotionHandler) ClaimFlashSale(c *gin.Context) {
	flashSaleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid flash sale id")
		return
	}

	var req model.ClaimFlashSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.ledger.ClaimFlashSale(c.Request.Context(), flashSaleID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *PromotionHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorResponse(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}

	logger.ErrorWithFields("promotion request failed", err, map[string]interface{}{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	})
	response.InternalServerError(c, "internal server error")
}
