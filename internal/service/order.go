package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/mailer"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrOrderNotShipped   = errors.New("order has not shipped")
)

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	mail        mailer.Mailer
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mail:        mail,
		log:         log,
	}
}

// UpdateOrder applies an admin-submitted partial update to one order and
// drives the side effects of the status edges:
//
//   - into SHIPPED from any other status: stamp shipped_at (once) and
//     append a tracking block to the internal notes
//   - into CANCELLED from any other status: revert every SOLD product
//     referenced by the order's items back to AVAILABLE
//
// A shipment email goes out on the shipping edge unless the request opts
// out; a mail failure is logged and never fails the update.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	prevStatus := order.Status

	if req.InternalNotes != nil {
		order.InternalNotes = *req.InternalNotes
	}
	if req.TrackingNumber != nil {
		order.TrackingNumber = *req.TrackingNumber
	}
	if req.CarrierName != nil {
		order.CarrierName = *req.CarrierName
	}
	if req.TrackingURL != nil {
		order.TrackingURL = *req.TrackingURL
	}

	shippingEdge := false
	cancelEdge := false
	if req.Status != nil {
		status, ok := model.ParseOrderStatus(*req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		shippingEdge = status == model.OrderShipped && prevStatus != model.OrderShipped
		cancelEdge = status == model.OrderCancelled && prevStatus != model.OrderCancelled
		order.Status = status
	}

	if shippingEdge {
		shippedAt := time.Now()
		if req.ShippedAt != nil {
			shippedAt = *req.ShippedAt
		}
		order.ShippedAt = &shippedAt
		order.InternalNotes = appendTrackingBlock(order, shippedAt)
	}

	if cancelEdge {
		restored, err := s.productRepo.RestoreSoldForOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("restore inventory: %w", err)
		}
		if restored > 0 {
			s.log.Info("restored sold products after cancellation",
				"order_number", order.OrderNumber, "count", restored)
		}
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	sendNotification := req.SendNotification == nil || *req.SendNotification
	if shippingEdge && sendNotification {
		if err := s.sendShipmentEmail(ctx, order); err != nil {
			s.log.Error("shipment email failed",
				"order_number", order.OrderNumber, "error", err)
		}
	}

	return order, nil
}

// ResendNotification re-sends the shipment email for an order that has
// already shipped. Unlike the transition path, a delivery failure here is
// surfaced: sending the mail is the whole point of the call.
func (s *OrderService) ResendNotification(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != model.OrderShipped && order.Status != model.OrderDelivered {
		return ErrOrderNotShipped
	}
	return s.sendShipmentEmail(ctx, order)
}

func (s *OrderService) sendShipmentEmail(ctx context.Context, order *model.Order) error {
	accountEmail := ""
	if order.UserID != nil {
		user, err := s.userRepo.GetByID(ctx, *order.UserID)
		if err == nil && user != nil {
			accountEmail = user.Email
		}
	}
	to := order.NotificationEmail(accountEmail)
	if to == "" {
		return fmt.Errorf("order %s has no notification email", order.OrderNumber)
	}
	return s.mail.SendShipmentEmail(to, order)
}

func appendTrackingBlock(order *model.Order, shippedAt time.Time) string {
	var b strings.Builder
	if order.InternalNotes != "" {
		b.WriteString(order.InternalNotes)
		b.WriteString("\n\n")
	}
	b.WriteString("--- Shipped ")
	b.WriteString(shippedAt.Format("2006-01-02 15:04"))
	b.WriteString(" ---")
	if order.CarrierName != "" {
		b.WriteString("\nCarrier: " + order.CarrierName)
	}
	if order.TrackingNumber != "" {
		b.WriteString("\nTracking: " + order.TrackingNumber)
	}
	if order.TrackingURL != "" {
		b.WriteString("\nURL: " + order.TrackingURL)
	}
	return b.String()
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForUser returns the order only when it belongs to the given user.
func (s *OrderService) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, req dto.ListOrdersRequest) ([]model.Order, int, error) {
	if req.Status != "" {
		if _, ok := model.ParseOrderStatus(req.Status); !ok {
			return nil, 0, ErrInvalidStatus
		}
	}
	return s.orderRepo.List(ctx, repository.OrderFilter{
		Status: req.Status,
		Search: req.Search,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}
