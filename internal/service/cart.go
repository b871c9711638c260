package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

// CartService keeps the shopper's selection under an opaque token the
// client stores. The cart holds display snapshots only; checkout always
// re-reads the catalog.
type CartService struct {
	store repository.CartStore
}

func NewCartService(store repository.CartStore) *CartService {
	return &CartService{store: store}
}

// NewToken issues a fresh cart token for first-time shoppers.
func (s *CartService) NewToken() string {
	return uuid.NewString()
}

// Add puts a product in the cart. Adding the same product twice is a
// no-op; one-of-a-kind stock means quantity is always one.
func (s *CartService) Add(ctx context.Context, token string, req dto.AddCartItemRequest) error {
	status, ok := model.ParseProductStatus(req.Status)
	if !ok {
		status = model.ProductAvailable
	}
	item := model.CartItem{
		ProductID: req.ProductID,
		Title:     req.Title,
		Slug:      req.Slug,
		Price:     req.Price,
		ImageURL:  req.ImageURL,
		Status:    status,
		AddedAt:   time.Now(),
	}
	if err := s.store.Add(ctx, token, item); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

func (s *CartService) Remove(ctx context.Context, token string, productID uuid.UUID) error {
	return s.store.Remove(ctx, token, productID)
}

func (s *CartService) Items(ctx context.Context, token string) ([]model.CartItem, error) {
	return s.store.Items(ctx, token)
}

func (s *CartService) Count(ctx context.Context, token string) (int, error) {
	return s.store.Count(ctx, token)
}

func (s *CartService) Contains(ctx context.Context, token string, productID uuid.UUID) (bool, error) {
	return s.store.Contains(ctx, token, productID)
}

func (s *CartService) Clear(ctx context.Context, token string) error {
	return s.store.Clear(ctx, token)
}
