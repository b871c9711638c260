package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/payment"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

// --- users ---

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// --- categories ---

type mockCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	products   map[uuid.UUID]int // category id -> product count
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		categories: make(map[uuid.UUID]*model.Category),
		products:   make(map[uuid.UUID]int),
	}
}

func (m *mockCategoryRepo) Create(_ context.Context, category *model.Category) error {
	category.ID = uuid.New()
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	return m.categories[id], nil
}

func (m *mockCategoryRepo) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) HasProducts(_ context.Context, id uuid.UUID) (bool, error) {
	return m.products[id] > 0, nil
}

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
	images   map[uuid.UUID]*model.ProductImage
	// orderItems backs RestoreSoldForOrder: order id -> product ids.
	orderItems map[uuid.UUID][]uuid.UUID
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products:   make(map[uuid.UUID]*model.Product),
		images:     make(map[uuid.UUID]*model.ProductImage),
		orderItems: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockProductRepo) Create(_ context.Context, product *model.Product) error {
	product.ID = uuid.New()
	product.CreatedAt = time.Now()
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := m.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) CountFeatured(_ context.Context) (int, error) {
	count := 0
	for _, p := range m.products {
		if p.Featured {
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepo) MarkSold(_ context.Context, ids []uuid.UUID, soldAt time.Time) error {
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			p.Status = model.ProductSold
			at := soldAt
			p.SoldAt = &at
		}
	}
	return nil
}

func (m *mockProductRepo) RestoreSoldForOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var restored int64
	for _, productID := range m.orderItems[orderID] {
		if p, ok := m.products[productID]; ok && p.Status == model.ProductSold {
			p.Status = model.ProductAvailable
			p.SoldAt = nil
			restored++
		}
	}
	return restored, nil
}

func (m *mockProductRepo) AddImage(_ context.Context, image *model.ProductImage) error {
	image.ID = uuid.New()
	if image.Position < 0 {
		next := 0
		for _, img := range m.images {
			if img.ProductID == image.ProductID && img.Position >= next {
				next = img.Position + 1
			}
		}
		image.Position = next
	}
	m.images[image.ID] = image
	return nil
}

func (m *mockProductRepo) GetImage(_ context.Context, imageID uuid.UUID) (*model.ProductImage, error) {
	return m.images[imageID], nil
}

func (m *mockProductRepo) DeleteImage(_ context.Context, imageID uuid.UUID) error {
	delete(m.images, imageID)
	return nil
}

// --- orders ---

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	seq    int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) NextOrderNumber(_ context.Context, prefix string) (string, error) {
	m.seq++
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().Year(), m.seq), nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, nil
}

func (m *mockOrderRepo) GetBySessionID(_ context.Context, sessionID string) (*model.Order, error) {
	for _, o := range m.orders {
		if o.StripeSessionID == sessionID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ repository.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, order *model.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

// --- wishlist ---

type mockWishlistRepo struct {
	items map[uuid.UUID]*model.WishlistItem
	// emails maps user id to the address returned for subscribers.
	emails map[uuid.UUID]string
}

func newMockWishlistRepo() *mockWishlistRepo {
	return &mockWishlistRepo{
		items:  make(map[uuid.UUID]*model.WishlistItem),
		emails: make(map[uuid.UUID]string),
	}
}

func (m *mockWishlistRepo) Create(_ context.Context, item *model.WishlistItem) error {
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	m.items[item.ID] = item
	return nil
}

func (m *mockWishlistRepo) GetByUserAndProduct(_ context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, nil
}

func (m *mockWishlistRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	var out []model.WishlistItem
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *mockWishlistRepo) Delete(_ context.Context, userID, productID uuid.UUID) error {
	for id, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			delete(m.items, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockWishlistRepo) SubscribersForAvailable(_ context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	var out []model.WishlistSubscriber
	for _, item := range m.items {
		if item.ProductID == productID && item.NotifyOnAvailable && !item.NotifiedAvailable {
			out = append(out, model.WishlistSubscriber{Item: *item, Email: m.emails[item.UserID]})
		}
	}
	return out, nil
}

func (m *mockWishlistRepo) SubscribersForSold(_ context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	var out []model.WishlistSubscriber
	for _, item := range m.items {
		if item.ProductID == productID && item.NotifyOnSale && !item.NotifiedSold {
			out = append(out, model.WishlistSubscriber{Item: *item, Email: m.emails[item.UserID]})
		}
	}
	return out, nil
}

func (m *mockWishlistRepo) SubscribersForPriceChange(_ context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	var out []model.WishlistSubscriber
	for _, item := range m.items {
		if item.ProductID == productID && item.NotifyOnPriceChange {
			out = append(out, model.WishlistSubscriber{Item: *item, Email: m.emails[item.UserID]})
		}
	}
	return out, nil
}

func (m *mockWishlistRepo) MarkNotifiedAvailable(_ context.Context, itemID uuid.UUID) error {
	if item, ok := m.items[itemID]; ok {
		item.NotifiedAvailable = true
		item.NotifiedSold = false
	}
	return nil
}

func (m *mockWishlistRepo) MarkNotifiedSold(_ context.Context, itemID uuid.UUID) error {
	if item, ok := m.items[itemID]; ok {
		item.NotifiedSold = true
		item.NotifiedAvailable = false
	}
	return nil
}

// --- cart ---

type mockCartStore struct {
	carts map[string]map[uuid.UUID]model.CartItem
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]map[uuid.UUID]model.CartItem)}
}

func (m *mockCartStore) Add(_ context.Context, token string, item model.CartItem) error {
	cart, ok := m.carts[token]
	if !ok {
		cart = make(map[uuid.UUID]model.CartItem)
		m.carts[token] = cart
	}
	if _, exists := cart[item.ProductID]; !exists {
		cart[item.ProductID] = item
	}
	return nil
}

func (m *mockCartStore) Remove(_ context.Context, token string, productID uuid.UUID) error {
	delete(m.carts[token], productID)
	return nil
}

func (m *mockCartStore) Items(_ context.Context, token string) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, item := range m.carts[token] {
		out = append(out, item)
	}
	return out, nil
}

func (m *mockCartStore) Count(_ context.Context, token string) (int, error) {
	return len(m.carts[token]), nil
}

func (m *mockCartStore) Contains(_ context.Context, token string, productID uuid.UUID) (bool, error) {
	_, ok := m.carts[token][productID]
	return ok, nil
}

func (m *mockCartStore) Clear(_ context.Context, token string) error {
	delete(m.carts, token)
	return nil
}

// --- mailer ---

type sentMail struct {
	kind string
	to   string
}

type mockMailer struct {
	sent []sentMail
	// failFor makes delivery to these addresses fail.
	failFor map[string]bool
}

func newMockMailer() *mockMailer {
	return &mockMailer{failFor: make(map[string]bool)}
}

func (m *mockMailer) deliver(kind, to string) error {
	if m.failFor[to] {
		return fmt.Errorf("smtp: delivery to %s failed", to)
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to})
	return nil
}

func (m *mockMailer) sentTo(kind, to string) int {
	count := 0
	for _, s := range m.sent {
		if s.kind == kind && s.to == to {
			count++
		}
	}
	return count
}

func (m *mockMailer) SendShipmentEmail(to string, _ *model.Order) error {
	return m.deliver("shipment", to)
}

func (m *mockMailer) SendOrderConfirmation(to string, _ *model.Order) error {
	return m.deliver("confirmation", to)
}

func (m *mockMailer) SendBackInStock(to string, _ *model.Product) error {
	return m.deliver("back_in_stock", to)
}

func (m *mockMailer) SendProductSold(to string, _ *model.Product) error {
	return m.deliver("sold", to)
}

func (m *mockMailer) SendPriceDrop(to string, _ *model.Product, _ decimal.Decimal) error {
	return m.deliver("price_drop", to)
}

// --- payments ---

type mockPaymentClient struct {
	lastParams payment.CheckoutParams
	fail       bool
}

func (m *mockPaymentClient) CreateCheckoutSession(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	if m.fail {
		return nil, fmt.Errorf("stripe: unavailable")
	}
	m.lastParams = params
	return &payment.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}
