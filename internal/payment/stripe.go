package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

// CheckoutLine is one priced line for the hosted payment page. Amounts
// are minor units (euro cents).
type CheckoutLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutParams struct {
	Lines         []CheckoutLine
	ShippingCost  int64
	CustomerEmail string
	ProductIDs    []uuid.UUID
	Shipping      model.ShippingAddress
	UserID        *uuid.UUID
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Client is the payment processor surface the checkout service needs.
// Once a session is created it is the source of truth for the amount
// charged.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

type StripeClient struct {
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeClient(secretKey, currency, successURL, cancelURL string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{currency: currency, successURL: successURL, cancelURL: cancelURL}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.Lines)+1)
	for _, line := range p.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	if p.ShippingCost > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.currency),
				UnitAmount: stripe.Int64(p.ShippingCost),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	metadata, err := sessionMetadata(p)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(c.successURL),
		CancelURL:     stripe.String(c.cancelURL),
		CustomerEmail: stripe.String(p.CustomerEmail),
	}
	params.Context = ctx
	params.Metadata = metadata

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// Session metadata carries everything the order worker needs, so order
// creation never has to call back into the payment API.
func sessionMetadata(p CheckoutParams) (map[string]string, error) {
	ids := make([]string, 0, len(p.ProductIDs))
	for _, id := range p.ProductIDs {
		ids = append(ids, id.String())
	}
	shipping, err := json.Marshal(p.Shipping)
	if err != nil {
		return nil, fmt.Errorf("marshal shipping metadata: %w", err)
	}
	metadata := map[string]string{
		"product_ids":   strings.Join(ids, ","),
		"shipping":      string(shipping),
		"shipping_cost": fmt.Sprintf("%d", p.ShippingCost),
	}
	if p.UserID != nil {
		metadata["user_id"] = p.UserID.String()
	}
	return metadata, nil
}

// ParsePaymentEvent verifies the webhook signature and extracts the
// queue payload from a completed checkout session. It returns nil for
// event types the store does not care about.
func ParsePaymentEvent(payload []byte, sigHeader, webhookSecret string) (*model.PaymentMessage, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}
	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	msg := &model.PaymentMessage{
		EventID:     event.ID,
		SessionID:   s.ID,
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
	}
	if s.CustomerEmail != "" {
		msg.Shipping.Email = s.CustomerEmail
	}

	meta := s.Metadata
	for _, raw := range strings.Split(meta["product_ids"], ",") {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse product id %q: %w", raw, err)
		}
		msg.ProductIDs = append(msg.ProductIDs, id)
	}
	if raw := meta["shipping"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &msg.Shipping); err != nil {
			return nil, fmt.Errorf("unmarshal shipping metadata: %w", err)
		}
	}
	if raw := meta["shipping_cost"]; raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &msg.ShippingCost); err != nil {
			return nil, fmt.Errorf("parse shipping cost: %w", err)
		}
	}
	if raw := meta["user_id"]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		msg.UserID = &id
	}
	return msg, nil
}
