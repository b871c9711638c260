package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Slug   string `json:"slug" binding:"required"`
	NameEN string `json:"name_en" binding:"required"`
	NameNL string `json:"name_nl" binding:"required"`
}

type CategoryResponse struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	NameEN string    `json:"name_en"`
	NameNL string    `json:"name_nl"`
}

// --- Product ---

type CreateProductRequest struct {
	Slug          string           `json:"slug" binding:"required"`
	NameEN        string           `json:"name_en" binding:"required"`
	NameNL        string           `json:"name_nl" binding:"required"`
	DescriptionEN string           `json:"description_en"`
	DescriptionNL string           `json:"description_nl"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	Status        string           `json:"status"`
	CategoryID    uuid.UUID        `json:"category_id" binding:"required"`
	Era           string           `json:"era"`
	Material      string           `json:"material"`
	Dimensions    string           `json:"dimensions"`
	Featured      bool             `json:"featured"`
	ShippingCost  *decimal.Decimal `json:"shipping_cost"`
}

// UpdateProductRequest is a partial update: nil fields are untouched.
type UpdateProductRequest struct {
	Slug          *string          `json:"slug"`
	NameEN        *string          `json:"name_en"`
	NameNL        *string          `json:"name_nl"`
	DescriptionEN *string          `json:"description_en"`
	DescriptionNL *string          `json:"description_nl"`
	Price         *decimal.Decimal `json:"price"`
	Status        *string          `json:"status"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Era           *string          `json:"era"`
	Material      *string          `json:"material"`
	Dimensions    *string          `json:"dimensions"`
	Featured      *bool            `json:"featured"`
	ShippingCost  *decimal.Decimal `json:"shipping_cost"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status"`
	Featured bool   `form:"featured"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductImageResponse struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

type ProductResponse struct {
	ID            uuid.UUID              `json:"id"`
	Slug          string                 `json:"slug"`
	NameEN        string                 `json:"name_en"`
	NameNL        string                 `json:"name_nl"`
	DescriptionEN string                 `json:"description_en"`
	DescriptionNL string                 `json:"description_nl"`
	Price         decimal.Decimal        `json:"price"`
	Status        string                 `json:"status"`
	SoldAt        *time.Time             `json:"sold_at,omitempty"`
	CategoryID    uuid.UUID              `json:"category_id"`
	Era           string                 `json:"era,omitempty"`
	Material      string                 `json:"material,omitempty"`
	Dimensions    string                 `json:"dimensions,omitempty"`
	Featured      bool                   `json:"featured"`
	ShippingCost  *decimal.Decimal       `json:"shipping_cost,omitempty"`
	Images        []ProductImageResponse `json:"images"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Wishlist ---

type AddWishlistRequest struct {
	ProductID           uuid.UUID `json:"product_id" binding:"required"`
	NotifyOnSale        bool      `json:"notify_on_sale"`
	NotifyOnAvailable   bool      `json:"notify_on_available"`
	NotifyOnPriceChange bool      `json:"notify_on_price_change"`
}

type WishlistItemResponse struct {
	ID                  uuid.UUID        `json:"id"`
	ProductID           uuid.UUID        `json:"product_id"`
	NotifyOnSale        bool             `json:"notify_on_sale"`
	NotifyOnAvailable   bool             `json:"notify_on_available"`
	NotifyOnPriceChange bool             `json:"notify_on_price_change"`
	Product             *ProductResponse `json:"product,omitempty"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Title     string          `json:"title" binding:"required"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Status    string          `json:"status"`
}

type CartResponse struct {
	Token string             `json:"token"`
	Count int                `json:"count"`
	Items []CartItemResponse `json:"items"`
}

type CartItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Status    string          `json:"status"`
}

// --- Checkout ---

type CheckoutLine struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type CheckoutRequest struct {
	Lines    []CheckoutLine         `json:"lines" binding:"required,min=1,dive"`
	Shipping CheckoutAddressRequest `json:"shipping" binding:"required"`
}

type CheckoutAddressRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	Postal  string `json:"postal" binding:"required"`
	Country string `json:"country" binding:"required"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// --- Order ---

// UpdateOrderRequest is the admin partial update for one order. A nil
// SendNotification means true.
type UpdateOrderRequest struct {
	Status           *string    `json:"status"`
	InternalNotes    *string    `json:"internal_notes"`
	ShippedAt        *time.Time `json:"shipped_at"`
	TrackingNumber   *string    `json:"tracking_number"`
	CarrierName      *string    `json:"carrier_name"`
	TrackingURL      *string    `json:"tracking_url"`
	SendNotification *bool      `json:"send_notification"`
}

type ListOrdersRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status string `form:"status"`
	Search string `form:"search"`
}

type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	ProductImage string          `json:"product_image,omitempty"`
}

type OrderAddressResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

type OrderResponse struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    string               `json:"order_number"`
	Status         string               `json:"status"`
	Shipping       OrderAddressResponse `json:"shipping"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	ShippingCost   decimal.Decimal      `json:"shipping_cost"`
	Total          decimal.Decimal      `json:"total"`
	InternalNotes  string               `json:"internal_notes,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	CarrierName    string               `json:"carrier_name,omitempty"`
	TrackingURL    string               `json:"tracking_url,omitempty"`
	ShippedAt      *time.Time           `json:"shipped_at,omitempty"`
	Items          []OrderItemResponse  `json:"items"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}
