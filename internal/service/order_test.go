package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func seedOrder(repo *mockOrderRepo, status model.OrderStatus) *model.Order {
	order := &model.Order{
		ID:            uuid.New(),
		OrderNumber:   "AH-2026-0001",
		Status:        status,
		ShippingEmail: "klant@example.nl",
		Total:         decimal.NewFromInt(850),
	}
	repo.orders[order.ID] = order
	return order
}

func TestOrderService_UpdateOrder_ShippingEdge(t *testing.T) {
	orderRepo := newMockOrderRepo()
	mail := newMockMailer()
	order := seedOrder(orderRepo, model.OrderPaid)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), mail, discardLogger())

	updated, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status:         strPtr("SHIPPED"),
		TrackingNumber: strPtr("1Z999AA10123456784"),
		CarrierName:    strPtr("PostNL"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
	assert.Contains(t, updated.InternalNotes, "Shipped")
	assert.Contains(t, updated.InternalNotes, "1Z999AA10123456784")
	assert.Contains(t, updated.InternalNotes, "PostNL")
	assert.Equal(t, 1, mail.sentTo("shipment", "klant@example.nl"))
}

func TestOrderService_UpdateOrder_ShipOnce(t *testing.T) {
	orderRepo := newMockOrderRepo()
	order := seedOrder(orderRepo, model.OrderPaid)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())

	first, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status:         strPtr("SHIPPED"),
		TrackingNumber: strPtr("1Z999"),
	})
	require.NoError(t, err)
	firstShippedAt := *first.ShippedAt
	firstNotes := first.InternalNotes

	// Re-submitting SHIPPED is not an edge: no new stamp, no new block.
	second, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status: strPtr("SHIPPED"),
	})
	require.NoError(t, err)
	assert.Equal(t, firstShippedAt, *second.ShippedAt)
	assert.Equal(t, firstNotes, second.InternalNotes)
}

func TestOrderService_UpdateOrder_ExplicitShippedAt(t *testing.T) {
	orderRepo := newMockOrderRepo()
	order := seedOrder(orderRepo, model.OrderPaid)
	shippedAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())

	updated, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status:    strPtr("SHIPPED"),
		ShippedAt: &shippedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, shippedAt, *updated.ShippedAt)
	assert.Contains(t, updated.InternalNotes, "2026-08-20 14:30")
}

func TestOrderService_UpdateOrder_CancelRestoresProducts(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	order := seedOrder(orderRepo, model.OrderPaid)

	soldAt := time.Now()
	product := &model.Product{
		ID:     uuid.New(),
		Slug:   "biedermeier-secretaire",
		Status: model.ProductSold,
		SoldAt: &soldAt,
	}
	productRepo.products[product.ID] = product
	productRepo.orderItems[order.ID] = []uuid.UUID{product.ID}

	svc := NewOrderService(orderRepo, productRepo, newMockUserRepo(), newMockMailer(), discardLogger())

	updated, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status: strPtr("CANCELLED"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, updated.Status)
	assert.Equal(t, model.ProductAvailable, productRepo.products[product.ID].Status)
	assert.Nil(t, productRepo.products[product.ID].SoldAt)
}

func TestOrderService_UpdateOrder_CancelTwiceIsNoOp(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	order := seedOrder(orderRepo, model.OrderCancelled)

	product := &model.Product{ID: uuid.New(), Status: model.ProductSold}
	productRepo.products[product.ID] = product
	productRepo.orderItems[order.ID] = []uuid.UUID{product.ID}

	svc := NewOrderService(orderRepo, productRepo, newMockUserRepo(), newMockMailer(), discardLogger())

	_, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status: strPtr("CANCELLED"),
	})
	require.NoError(t, err)
	// Already cancelled: no restore runs.
	assert.Equal(t, model.ProductSold, productRepo.products[product.ID].Status)
}

func TestOrderService_UpdateOrder_InvalidStatus(t *testing.T) {
	orderRepo := newMockOrderRepo()
	order := seedOrder(orderRepo, model.OrderPaid)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())

	_, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status: strPtr("SHIPPING"),
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_UpdateOrder_MailFailureSwallowed(t *testing.T) {
	orderRepo := newMockOrderRepo()
	mail := newMockMailer()
	mail.failFor["klant@example.nl"] = true
	order := seedOrder(orderRepo, model.OrderPaid)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), mail, discardLogger())

	updated, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status: strPtr("SHIPPED"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, updated.Status)
}

func TestOrderService_UpdateOrder_NotificationOptOut(t *testing.T) {
	orderRepo := newMockOrderRepo()
	mail := newMockMailer()
	order := seedOrder(orderRepo, model.OrderPaid)
	optOut := false

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), mail, discardLogger())

	_, err := svc.UpdateOrder(context.Background(), order.ID, dto.UpdateOrderRequest{
		Status:           strPtr("SHIPPED"),
		SendNotification: &optOut,
	})
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestOrderService_UpdateOrder_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())
	_, err := svc.UpdateOrder(context.Background(), uuid.New(), dto.UpdateOrderRequest{})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ResendNotification(t *testing.T) {
	orderRepo := newMockOrderRepo()
	mail := newMockMailer()
	order := seedOrder(orderRepo, model.OrderShipped)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), mail, discardLogger())

	require.NoError(t, svc.ResendNotification(context.Background(), order.ID))
	assert.Equal(t, 1, mail.sentTo("shipment", "klant@example.nl"))
}

func TestOrderService_ResendNotification_NotShipped(t *testing.T) {
	orderRepo := newMockOrderRepo()
	order := seedOrder(orderRepo, model.OrderPaid)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())

	err := svc.ResendNotification(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotShipped)
}

func TestOrderService_ResendNotification_MailFailureSurfaced(t *testing.T) {
	orderRepo := newMockOrderRepo()
	mail := newMockMailer()
	mail.failFor["klant@example.nl"] = true
	order := seedOrder(orderRepo, model.OrderShipped)

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), mail, discardLogger())

	assert.Error(t, svc.ResendNotification(context.Background(), order.ID))
}

func TestOrderService_ResendNotification_AccountEmailFallback(t *testing.T) {
	orderRepo := newMockOrderRepo()
	userRepo := newMockUserRepo()
	mail := newMockMailer()

	user := &model.User{Email: "account@example.nl"}
	require.NoError(t, userRepo.Create(context.Background(), user))

	order := seedOrder(orderRepo, model.OrderShipped)
	order.ShippingEmail = ""
	order.UserID = &user.ID

	svc := NewOrderService(orderRepo, newMockProductRepo(), userRepo, mail, discardLogger())

	require.NoError(t, svc.ResendNotification(context.Background(), order.ID))
	assert.Equal(t, 1, mail.sentTo("shipment", "account@example.nl"))
}

func TestOrderService_GetForUser_AccessDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	owner := uuid.New()
	order := seedOrder(orderRepo, model.OrderPaid)
	order.UserID = &owner

	svc := NewOrderService(orderRepo, newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())

	_, err := svc.GetForUser(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	got, err := svc.GetForUser(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_List_InvalidStatusFilter(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockProductRepo(), newMockUserRepo(), newMockMailer(), discardLogger())
	_, _, err := svc.List(context.Background(), dto.ListOrdersRequest{Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
