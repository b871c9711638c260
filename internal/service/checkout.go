package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/payment"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

var (
	ErrProductUnavailable = errors.New("product not available")
	ErrDuplicateLine      = errors.New("duplicate checkout line")
)

type CheckoutService struct {
	productRepo      repository.ProductRepository
	payments         payment.Client
	flatShippingCost decimal.Decimal
	lang             string
}

func NewCheckoutService(
	productRepo repository.ProductRepository,
	payments payment.Client,
	flatShippingCost decimal.Decimal,
) *CheckoutService {
	return &CheckoutService{
		productRepo:      productRepo,
		payments:         payments,
		flatShippingCost: flatShippingCost,
		lang:             "nl",
	}
}

// CreateSession validates the submitted lines against the catalog and
// opens a hosted payment session. Prices come from the catalog, never
// from the client; every line must reference a distinct AVAILABLE
// product. Each piece contributes its own shipping override when set and
// the store flat rate otherwise.
func (s *CheckoutService) CreateSession(ctx context.Context, req dto.CheckoutRequest, userID *uuid.UUID) (*dto.CheckoutResponse, error) {
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	lines := make([]payment.CheckoutLine, 0, len(req.Lines))
	productIDs := make([]uuid.UUID, 0, len(req.Lines))
	shippingCost := decimal.Zero

	for _, line := range req.Lines {
		if seen[line.ProductID] {
			return nil, ErrDuplicateLine
		}
		seen[line.ProductID] = true

		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if product.Status != model.ProductAvailable {
			return nil, ErrProductUnavailable
		}

		lines = append(lines, payment.CheckoutLine{
			Name:       product.Name(s.lang),
			UnitAmount: toMinorUnits(product.Price),
			Quantity:   1,
		})
		productIDs = append(productIDs, product.ID)

		if product.ShippingCost != nil {
			shippingCost = shippingCost.Add(*product.ShippingCost)
		} else {
			shippingCost = shippingCost.Add(s.flatShippingCost)
		}
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payment.CheckoutParams{
		Lines:         lines,
		ShippingCost:  toMinorUnits(shippingCost),
		CustomerEmail: req.Shipping.Email,
		ProductIDs:    productIDs,
		Shipping: model.ShippingAddress{
			Name:    req.Shipping.Name,
			Email:   req.Shipping.Email,
			Phone:   req.Shipping.Phone,
			Street:  req.Shipping.Street,
			City:    req.Shipping.City,
			Postal:  req.Shipping.Postal,
			Country: req.Shipping.Country,
		},
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// toMinorUnits converts a euro amount to cents for the payment API.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
