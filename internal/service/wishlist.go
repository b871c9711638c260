package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/mailer"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

var (
	ErrProductSold      = errors.New("product already sold")
	ErrWishlistExists   = errors.New("product already on wishlist")
	ErrWishlistNotFound = errors.New("wishlist item not found")
)

type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// NotificationOutcome reports what happened to one subscriber during a
// fan-out. The caller decides whether to log or surface failures.
type NotificationOutcome struct {
	ItemID uuid.UUID
	Email  string
	Status OutcomeStatus
	Err    error
}

type WishlistEntry struct {
	Item    model.WishlistItem
	Product *model.Product
}

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	mail         mailer.Mailer
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
	mail mailer.Mailer,
) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo, mail: mail}
}

// Add subscribes a user to a product. SOLD products are rejected; items
// added while the product is COMING_SOON or RESERVED are pre-armed for
// the back-in-stock notification.
func (s *WishlistService) Add(ctx context.Context, userID uuid.UUID, req dto.AddWishlistRequest) (*model.WishlistItem, error) {
	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Status == model.ProductSold {
		return nil, ErrProductSold
	}

	existing, err := s.wishlistRepo.GetByUserAndProduct(ctx, userID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("check wishlist: %w", err)
	}
	if existing != nil {
		return nil, ErrWishlistExists
	}

	item := &model.WishlistItem{
		UserID:              userID,
		ProductID:           req.ProductID,
		NotifyOnSale:        req.NotifyOnSale,
		NotifyOnAvailable:   req.NotifyOnAvailable,
		NotifyOnPriceChange: req.NotifyOnPriceChange,
	}
	if product.Status == model.ProductComingSoon || product.Status == model.ProductReserved {
		item.NotifyOnAvailable = true
	}

	if err := s.wishlistRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create wishlist item: %w", err)
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.wishlistRepo.Delete(ctx, userID, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrWishlistNotFound
	}
	return err
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, error) {
	items, err := s.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	entries := make([]WishlistEntry, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get wishlist product: %w", err)
		}
		entries = append(entries, WishlistEntry{Item: item, Product: product})
	}
	return entries, nil
}

// NotifyAvailable emails every subscriber who opted into back-in-stock
// notifications and has not been notified for this edge yet. Subscribers
// are processed independently and sequentially; a failed delivery leaves
// that item's flags untouched so a later transition can retry it, while
// successes are flagged immediately so a crash mid fan-out never
// re-notifies them.
func (s *WishlistService) NotifyAvailable(ctx context.Context, product *model.Product) ([]NotificationOutcome, error) {
	subs, err := s.wishlistRepo.SubscribersForAvailable(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return s.fanOut(ctx, subs,
		func(email string) error { return s.mail.SendBackInStock(email, product) },
		s.wishlistRepo.MarkNotifiedAvailable,
	), nil
}

// NotifySold is the mirror image of NotifyAvailable for the transition
// into SOLD.
func (s *WishlistService) NotifySold(ctx context.Context, product *model.Product) ([]NotificationOutcome, error) {
	subs, err := s.wishlistRepo.SubscribersForSold(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return s.fanOut(ctx, subs,
		func(email string) error { return s.mail.SendProductSold(email, product) },
		s.wishlistRepo.MarkNotifiedSold,
	), nil
}

// NotifyPriceDrop has no once-only flag: the schema tracks none for
// price changes, so every drop notifies again.
func (s *WishlistService) NotifyPriceDrop(ctx context.Context, product *model.Product, oldPrice decimal.Decimal) ([]NotificationOutcome, error) {
	subs, err := s.wishlistRepo.SubscribersForPriceChange(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return s.fanOut(ctx, subs,
		func(email string) error { return s.mail.SendPriceDrop(email, product, oldPrice) },
		nil,
	), nil
}

func (s *WishlistService) fanOut(
	ctx context.Context,
	subs []model.WishlistSubscriber,
	send func(email string) error,
	mark func(ctx context.Context, itemID uuid.UUID) error,
) []NotificationOutcome {
	outcomes := make([]NotificationOutcome, 0, len(subs))
	for _, sub := range subs {
		outcome := NotificationOutcome{ItemID: sub.Item.ID, Email: sub.Email}
		if sub.Email == "" {
			outcome.Status = OutcomeSkipped
			outcomes = append(outcomes, outcome)
			continue
		}
		if err := send(sub.Email); err != nil {
			outcome.Status = OutcomeFailed
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Status = OutcomeSent
		if mark != nil {
			if err := mark(ctx, sub.Item.ID); err != nil {
				outcome.Status = OutcomeFailed
				outcome.Err = err
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
