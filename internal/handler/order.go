package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/middleware"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "errorCode": "INVALID_STATUS"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) ResendNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	if err := h.orderService.ResendNotification(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotShipped):
			c.JSON(http.StatusBadRequest, gin.H{"error": "order has not shipped"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send notification"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "errorCode": "INVALID_STATUS"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders: items,
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	})
}

// ListMine returns the calling user's own orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orderService.ListByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: len(items)})
}

// Get serves admins any order and customers only their own.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var order *model.Order
	if middleware.GetUserRole(c) == model.RoleAdmin {
		order, err = h.orderService.GetByID(c.Request.Context(), id)
	} else {
		order, err = h.orderService.GetForUser(c.Request.Context(), id, middleware.GetUserID(c))
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			Title:        item.Title,
			Slug:         item.Slug,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			ProductImage: item.ProductImage,
		})
	}
	return dto.OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Shipping: dto.OrderAddressResponse{
			Name:    order.ShippingName,
			Email:   order.ShippingEmail,
			Phone:   order.ShippingPhone,
			Street:  order.ShippingStreet,
			City:    order.ShippingCity,
			Postal:  order.ShippingPostal,
			Country: order.ShippingCountry,
		},
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		Total:          order.Total,
		InternalNotes:  order.InternalNotes,
		TrackingNumber: order.TrackingNumber,
		CarrierName:    order.CarrierName,
		TrackingURL:    order.TrackingURL,
		ShippedAt:      order.ShippedAt,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
