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

func checkoutAddress() dto.CheckoutAddressRequest {
	return dto.CheckoutAddressRequest{
		Name:    "Jan de Vries",
		Email:   "jan@example.nl",
		Street:  "Herengracht 12",
		City:    "Amsterdam",
		Postal:  "1015 BK",
		Country: "NL",
	}
}

func TestCheckoutService_CreateSession(t *testing.T) {
	productRepo := newMockProductRepo()
	client := &mockPaymentClient{}
	product := seedProduct(productRepo, model.ProductAvailable)

	svc := NewCheckoutService(productRepo, client, decimal.NewFromInt(49))

	resp, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{{ProductID: product.ID}},
		Shipping: checkoutAddress(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", resp.SessionID)
	assert.NotEmpty(t, resp.URL)

	require.Len(t, client.lastParams.Lines, 1)
	// Catalog price in cents, never the client's numbers.
	assert.Equal(t, int64(125000), client.lastParams.Lines[0].UnitAmount)
	assert.Equal(t, int64(4900), client.lastParams.ShippingCost)
	assert.Equal(t, "jan@example.nl", client.lastParams.CustomerEmail)
}

func TestCheckoutService_CreateSession_ShippingOverride(t *testing.T) {
	productRepo := newMockProductRepo()
	client := &mockPaymentClient{}
	product := seedProduct(productRepo, model.ProductAvailable)
	override := decimal.NewFromInt(125)
	productRepo.products[product.ID].ShippingCost = &override

	svc := NewCheckoutService(productRepo, client, decimal.NewFromInt(49))

	_, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{{ProductID: product.ID}},
		Shipping: checkoutAddress(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), client.lastParams.ShippingCost)
}

func TestCheckoutService_CreateSession_ProductNotAvailable(t *testing.T) {
	productRepo := newMockProductRepo()
	product := seedProduct(productRepo, model.ProductSold)

	svc := NewCheckoutService(productRepo, &mockPaymentClient{}, decimal.NewFromInt(49))

	_, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{{ProductID: product.ID}},
		Shipping: checkoutAddress(),
	}, nil)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCheckoutService_CreateSession_UnknownProduct(t *testing.T) {
	svc := NewCheckoutService(newMockProductRepo(), &mockPaymentClient{}, decimal.NewFromInt(49))

	_, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{{ProductID: uuid.New()}},
		Shipping: checkoutAddress(),
	}, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCheckoutService_CreateSession_DuplicateLine(t *testing.T) {
	productRepo := newMockProductRepo()
	product := seedProduct(productRepo, model.ProductAvailable)

	svc := NewCheckoutService(productRepo, &mockPaymentClient{}, decimal.NewFromInt(49))

	_, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{
			{ProductID: product.ID},
			{ProductID: product.ID},
		},
		Shipping: checkoutAddress(),
	}, nil)
	assert.ErrorIs(t, err, ErrDuplicateLine)
}

func TestCheckoutService_CreateSession_CarriesUserID(t *testing.T) {
	productRepo := newMockProductRepo()
	client := &mockPaymentClient{}
	product := seedProduct(productRepo, model.ProductAvailable)
	userID := uuid.New()

	svc := NewCheckoutService(productRepo, client, decimal.NewFromInt(49))

	_, err := svc.CreateSession(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{{ProductID: product.ID}},
		Shipping: checkoutAddress(),
	}, &userID)
	require.NoError(t, err)
	require.NotNil(t, client.lastParams.UserID)
	assert.Equal(t, userID, *client.lastParams.UserID)
}
