package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/middleware"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.checkoutService.CreateSession(c.Request.Context(), req, middleware.GetUserIDPtr(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, service.ErrProductUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "product no longer available", "errorCode": "PRODUCT_SOLD"})
		case errors.Is(err, service.ErrDuplicateLine):
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate product in checkout"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}
