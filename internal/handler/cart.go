package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

// cartTokenHeader carries the opaque cart identifier the client stores.
const cartTokenHeader = "X-Cart-Token"

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) Get(c *gin.Context) {
	token := c.GetHeader(cartTokenHeader)
	if token == "" {
		c.JSON(http.StatusOK, dto.CartResponse{
			Token: h.cartService.NewToken(),
			Items: []dto.CartItemResponse{},
		})
		return
	}

	items, err := h.cartService.Items(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.CartResponse{Token: token, Count: len(items), Items: make([]dto.CartItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ProductID: item.ProductID,
			Title:     item.Title,
			Slug:      item.Slug,
			Price:     item.Price,
			ImageURL:  item.ImageURL,
			Status:    string(item.Status),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem accepts a missing token and issues one, so the first add also
// bootstraps the cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := c.GetHeader(cartTokenHeader)
	if token == "" {
		token = h.cartService.NewToken()
	}

	if err := h.cartService.Add(c.Request.Context(), token, req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	count, err := h.cartService.Count(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "count": count})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	token := c.GetHeader(cartTokenHeader)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart token is required"})
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), token, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	token := c.GetHeader(cartTokenHeader)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart token is required"})
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
