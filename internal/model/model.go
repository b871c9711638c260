package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductAvailable  ProductStatus = "AVAILABLE"
	ProductReserved   ProductStatus = "RESERVED"
	ProductSold       ProductStatus = "SOLD"
	ProductComingSoon ProductStatus = "COMING_SOON"
)

// ParseProductStatus validates an admin-submitted status string.
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch ProductStatus(s) {
	case ProductAvailable, ProductReserved, ProductSold, ProductComingSoon:
		return ProductStatus(s), true
	}
	return "", false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uuid.UUID
	Slug      string
	NameEN    string
	NameNL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID            uuid.UUID
	Slug          string
	NameEN        string
	NameNL        string
	DescriptionEN string
	DescriptionNL string
	Price         decimal.Decimal
	Status        ProductStatus
	// SoldAt is set on the transition into SOLD and cleared on the
	// transition away from it.
	SoldAt     *time.Time
	CategoryID uuid.UUID
	Era        string
	Material   string
	Dimensions string
	Featured   bool
	// ShippingCost overrides the store-wide flat rate when set.
	ShippingCost *decimal.Decimal
	Images       []ProductImage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Product) Name(lang string) string {
	if lang == "nl" && p.NameNL != "" {
		return p.NameNL
	}
	return p.NameEN
}

type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	PublicID  string
	URL       string
	Position  int
	CreatedAt time.Time
}

// Order captures the shipping address at checkout time; it is never
// re-derived from a user profile. UserID is nil for guest checkouts.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          *uuid.UUID
	Status          OrderStatus
	ShippingName    string
	ShippingEmail   string
	ShippingPhone   string
	ShippingStreet  string
	ShippingCity    string
	ShippingPostal  string
	ShippingCountry string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
	InternalNotes   string
	TrackingNumber  string
	CarrierName     string
	TrackingURL     string
	ShippedAt       *time.Time
	StripeSessionID string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NotificationEmail is where shipment mails go: the address entered at
// checkout, falling back to the account email when present.
func (o *Order) NotificationEmail(accountEmail string) string {
	if o.ShippingEmail != "" {
		return o.ShippingEmail
	}
	return accountEmail
}

// OrderItem snapshots title, slug and price at purchase time. ProductID
// references the live product for image lookups only.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	Title        string
	Slug         string
	UnitPrice    decimal.Decimal
	Quantity     int
	ProductImage string
}

// WishlistItem subscribes one user to notifications about one product.
// NotifiedSold and NotifiedAvailable are mutually resetting: marking one
// true resets the other, so a product that sells and later returns to
// stock re-arms both paths exactly once per transition.
type WishlistItem struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	ProductID           uuid.UUID
	NotifyOnSale        bool
	NotifyOnAvailable   bool
	NotifyOnPriceChange bool
	NotifiedSold        bool
	NotifiedAvailable   bool
	CreatedAt           time.Time
}

// WishlistSubscriber pairs a wishlist item with the owner's email for the
// notification fan-out.
type WishlistSubscriber struct {
	Item  WishlistItem
	Email string
}

// PaymentMessage is the payload enqueued by the Stripe webhook handler
// and consumed by the order worker.
type PaymentMessage struct {
	EventID       string          `json:"event_id"`
	SessionID     string          `json:"session_id"`
	AmountTotal   int64           `json:"amount_total"`
	Currency      string          `json:"currency"`
	ProductIDs    []uuid.UUID     `json:"product_ids"`
	ShippingCost  int64           `json:"shipping_cost"`
	Shipping      ShippingAddress `json:"shipping"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

// CartItem is the display snapshot held in the server-side cart. The
// snapshot is whatever the client submitted at add time; nothing here is
// authoritative for checkout.
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Status    ProductStatus   `json:"status"`
	AddedAt   time.Time       `json:"added_at"`
}
