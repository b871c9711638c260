package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

func seedProduct(repo *mockProductRepo, status model.ProductStatus) *model.Product {
	product := &model.Product{
		ID:     uuid.New(),
		Slug:   "empire-kast",
		NameEN: "Empire cabinet",
		NameNL: "Empire kast",
		Price:  decimal.NewFromInt(1250),
		Status: status,
	}
	repo.products[product.ID] = product
	return product
}

func subscribe(repo *mockWishlistRepo, productID uuid.UUID, email string, item model.WishlistItem) *model.WishlistItem {
	item.ID = uuid.New()
	item.UserID = uuid.New()
	item.ProductID = productID
	repo.items[item.ID] = &item
	repo.emails[item.UserID] = email
	return &item
}

func TestWishlistService_Add(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	product := seedProduct(productRepo, model.ProductAvailable)

	svc := NewWishlistService(wishlistRepo, productRepo, newMockMailer())

	item, err := svc.Add(context.Background(), uuid.New(), dto.AddWishlistRequest{
		ProductID:    product.ID,
		NotifyOnSale: true,
	})
	require.NoError(t, err)
	assert.True(t, item.NotifyOnSale)
	assert.False(t, item.NotifyOnAvailable)
}

func TestWishlistService_Add_SoldProduct(t *testing.T) {
	productRepo := newMockProductRepo()
	product := seedProduct(productRepo, model.ProductSold)

	svc := NewWishlistService(newMockWishlistRepo(), productRepo, newMockMailer())

	_, err := svc.Add(context.Background(), uuid.New(), dto.AddWishlistRequest{ProductID: product.ID})
	assert.ErrorIs(t, err, ErrProductSold)
}

func TestWishlistService_Add_Duplicate(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	product := seedProduct(productRepo, model.ProductAvailable)
	userID := uuid.New()

	svc := NewWishlistService(wishlistRepo, productRepo, newMockMailer())

	_, err := svc.Add(context.Background(), userID, dto.AddWishlistRequest{ProductID: product.ID})
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), userID, dto.AddWishlistRequest{ProductID: product.ID})
	assert.ErrorIs(t, err, ErrWishlistExists)
	assert.Len(t, wishlistRepo.items, 1)
}

func TestWishlistService_Add_PreArmsComingSoon(t *testing.T) {
	productRepo := newMockProductRepo()
	product := seedProduct(productRepo, model.ProductComingSoon)

	svc := NewWishlistService(newMockWishlistRepo(), productRepo, newMockMailer())

	item, err := svc.Add(context.Background(), uuid.New(), dto.AddWishlistRequest{ProductID: product.ID})
	require.NoError(t, err)
	assert.True(t, item.NotifyOnAvailable)
}

func TestWishlistService_Add_ProductNotFound(t *testing.T) {
	svc := NewWishlistService(newMockWishlistRepo(), newMockProductRepo(), newMockMailer())
	_, err := svc.Add(context.Background(), uuid.New(), dto.AddWishlistRequest{ProductID: uuid.New()})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestWishlistService_Remove_NotFound(t *testing.T) {
	svc := NewWishlistService(newMockWishlistRepo(), newMockProductRepo(), newMockMailer())
	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrWishlistNotFound)
}

func TestWishlistService_NotifyAvailable_ExactlyOnce(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	mail := newMockMailer()
	product := seedProduct(productRepo, model.ProductAvailable)

	item := subscribe(wishlistRepo, product.ID, "sub@example.nl", model.WishlistItem{
		NotifyOnAvailable: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, mail)

	outcomes, err := svc.NotifyAvailable(context.Background(), product)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeSent, outcomes[0].Status)
	assert.Equal(t, 1, mail.sentTo("back_in_stock", "sub@example.nl"))

	stored := wishlistRepo.items[item.ID]
	assert.True(t, stored.NotifiedAvailable)
	assert.False(t, stored.NotifiedSold)

	// Second run finds no armed subscribers.
	outcomes, err = svc.NotifyAvailable(context.Background(), product)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, 1, mail.sentTo("back_in_stock", "sub@example.nl"))
}

func TestWishlistService_NotifySold_RespectsOptOut(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	mail := newMockMailer()
	product := seedProduct(productRepo, model.ProductSold)

	subscribe(wishlistRepo, product.ID, "optout@example.nl", model.WishlistItem{
		NotifyOnSale: false,
	})
	subscribe(wishlistRepo, product.ID, "optin@example.nl", model.WishlistItem{
		NotifyOnSale: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, mail)

	outcomes, err := svc.NotifySold(context.Background(), product)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 1, mail.sentTo("sold", "optin@example.nl"))
	assert.Equal(t, 0, mail.sentTo("sold", "optout@example.nl"))
}

func TestWishlistService_NotifySold_FlagsResetAvailable(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	product := seedProduct(productRepo, model.ProductSold)

	item := subscribe(wishlistRepo, product.ID, "sub@example.nl", model.WishlistItem{
		NotifyOnSale:      true,
		NotifiedAvailable: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, newMockMailer())

	_, err := svc.NotifySold(context.Background(), product)
	require.NoError(t, err)

	stored := wishlistRepo.items[item.ID]
	assert.True(t, stored.NotifiedSold)
	// Marking sold re-arms the back-in-stock path.
	assert.False(t, stored.NotifiedAvailable)
}

func TestWishlistService_NotifyAvailable_FailureIsolation(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	mail := newMockMailer()
	mail.failFor["broken@example.nl"] = true
	product := seedProduct(productRepo, model.ProductAvailable)

	failing := subscribe(wishlistRepo, product.ID, "broken@example.nl", model.WishlistItem{
		NotifyOnAvailable: true,
	})
	working := subscribe(wishlistRepo, product.ID, "fine@example.nl", model.WishlistItem{
		NotifyOnAvailable: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, mail)

	outcomes, err := svc.NotifyAvailable(context.Background(), product)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byEmail := map[string]OutcomeStatus{}
	for _, o := range outcomes {
		byEmail[o.Email] = o.Status
	}
	assert.Equal(t, OutcomeFailed, byEmail["broken@example.nl"])
	assert.Equal(t, OutcomeSent, byEmail["fine@example.nl"])

	// The failed item stays armed for a later retry.
	assert.False(t, wishlistRepo.items[failing.ID].NotifiedAvailable)
	assert.True(t, wishlistRepo.items[working.ID].NotifiedAvailable)
}

func TestWishlistService_NotifyAvailable_SkipsEmptyEmail(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	product := seedProduct(productRepo, model.ProductAvailable)

	item := subscribe(wishlistRepo, product.ID, "", model.WishlistItem{
		NotifyOnAvailable: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, newMockMailer())

	outcomes, err := svc.NotifyAvailable(context.Background(), product)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)
	assert.False(t, wishlistRepo.items[item.ID].NotifiedAvailable)
}

func TestWishlistService_NotifyPriceDrop_Repeats(t *testing.T) {
	productRepo := newMockProductRepo()
	wishlistRepo := newMockWishlistRepo()
	mail := newMockMailer()
	product := seedProduct(productRepo, model.ProductAvailable)

	subscribe(wishlistRepo, product.ID, "bargain@example.nl", model.WishlistItem{
		NotifyOnPriceChange: true,
	})

	svc := NewWishlistService(wishlistRepo, productRepo, mail)

	oldPrice := decimal.NewFromInt(1500)
	_, err := svc.NotifyPriceDrop(context.Background(), product, oldPrice)
	require.NoError(t, err)
	_, err = svc.NotifyPriceDrop(context.Background(), product, oldPrice)
	require.NoError(t, err)

	// No once-only flag for price changes: every drop notifies again.
	assert.Equal(t, 2, mail.sentTo("price_drop", "bargain@example.nl"))
}
