package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/middleware"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) Add(c *gin.Context) {
	var req dto.AddWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.wishlistService.Add(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, service.ErrProductSold):
			c.JSON(http.StatusConflict, gin.H{"error": "product already sold", "errorCode": "PRODUCT_SOLD"})
		case errors.Is(err, service.ErrWishlistExists):
			c.JSON(http.StatusConflict, gin.H{"error": "product already on wishlist", "errorCode": "WISHLIST_EXISTS"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.WishlistItemResponse{
		ID:                  item.ID,
		ProductID:           item.ProductID,
		NotifyOnSale:        item.NotifyOnSale,
		NotifyOnAvailable:   item.NotifyOnAvailable,
		NotifyOnPriceChange: item.NotifyOnPriceChange,
	})
}

func (h *WishlistHandler) List(c *gin.Context) {
	entries, err := h.wishlistService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.WishlistItemResponse, 0, len(entries))
	for _, entry := range entries {
		resp := dto.WishlistItemResponse{
			ID:                  entry.Item.ID,
			ProductID:           entry.Item.ProductID,
			NotifyOnSale:        entry.Item.NotifyOnSale,
			NotifyOnAvailable:   entry.Item.NotifyOnAvailable,
			NotifyOnPriceChange: entry.Item.NotifyOnPriceChange,
		}
		if entry.Product != nil {
			product := toProductResponse(entry.Product)
			resp.Product = &product
		}
		items = append(items, resp)
	}
	c.JSON(http.StatusOK, items)
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.wishlistService.Remove(c.Request.Context(), middleware.GetUserID(c), productID); err != nil {
		if errors.Is(err, service.ErrWishlistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "wishlist item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
