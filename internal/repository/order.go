package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

type OrderFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	NextOrderNumber(ctx context.Context, prefix string) (string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	Update(ctx context.Context, order *model.Order) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, status,
			shipping_name, shipping_email, shipping_phone, shipping_street,
			shipping_city, shipping_postal, shipping_country,
			subtotal, shipping_cost, total, internal_notes,
			tracking_number, carrier_name, tracking_url, shipped_at,
			stripe_session_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.Status,
		order.ShippingName, order.ShippingEmail, order.ShippingPhone, order.ShippingStreet,
		order.ShippingCity, order.ShippingPostal, order.ShippingCountry,
		order.Subtotal, order.ShippingCost, order.Total, order.InternalNotes,
		order.TrackingNumber, order.CarrierName, order.TrackingURL, order.ShippedAt,
		order.StripeSessionID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, title, slug, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.Items[i].ID, order.Items[i].OrderID, order.Items[i].ProductID,
			order.Items[i].Title, order.Items[i].Slug, order.Items[i].UnitPrice, order.Items[i].Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *pgOrderRepo) NextOrderNumber(ctx context.Context, prefix string) (string, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().Year(), seq), nil
}

const orderColumns = `id, order_number, user_id, status,
	shipping_name, shipping_email, shipping_phone, shipping_street,
	shipping_city, shipping_postal, shipping_country,
	subtotal, shipping_cost, total, internal_notes,
	tracking_number, carrier_name, tracking_url, shipped_at,
	stripe_session_id, created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status,
		&o.ShippingName, &o.ShippingEmail, &o.ShippingPhone, &o.ShippingStreet,
		&o.ShippingCity, &o.ShippingPostal, &o.ShippingCountry,
		&o.Subtotal, &o.ShippingCost, &o.Total, &o.InternalNotes,
		&o.TrackingNumber, &o.CarrierName, &o.TrackingURL, &o.ShippedAt,
		&o.StripeSessionID, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *pgOrderRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID)
}

func (r *pgOrderRepo) get(ctx context.Context, query string, arg any) (*model.Order, error) {
	order := &model.Order{}
	if err := scanOrder(r.pool.QueryRow(ctx, query, arg), order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	// The LEFT JOIN keeps the purchase-time snapshot usable when the live
	// product has been deleted; the image is lookup-only.
	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.product_id, oi.title, oi.slug, oi.unit_price, oi.quantity,
				COALESCE((SELECT url FROM product_images
						  WHERE product_id = oi.product_id ORDER BY position ASC LIMIT 1), '')
		 FROM order_items oi WHERE oi.order_id = $1`, order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Title, &item.Slug,
			&item.UnitPrice, &item.Quantity, &item.ProductImage); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	where := `($1 = '' OR status = $1) AND ($2 = '' OR order_number ILIKE '%' || $2 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, f.Status, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		f.Status, f.Search, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *pgOrderRepo) Update(ctx context.Context, order *model.Order) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status=$2, internal_notes=$3, tracking_number=$4,
			carrier_name=$5, tracking_url=$6, shipped_at=$7, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		order.ID, order.Status, order.InternalNotes, order.TrackingNumber,
		order.CarrierName, order.TrackingURL, order.ShippedAt,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}
