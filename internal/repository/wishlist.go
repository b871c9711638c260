package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

type WishlistRepository interface {
	Create(ctx context.Context, item *model.WishlistItem) error
	GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	// Subscriber queries select only items whose "already notified" flag
	// for that edge is still unset.
	SubscribersForAvailable(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error)
	SubscribersForSold(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error)
	SubscribersForPriceChange(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error)
	// MarkNotifiedAvailable sets notified_available and resets
	// notified_sold, re-arming the sold path. MarkNotifiedSold is the
	// mirror image.
	MarkNotifiedAvailable(ctx context.Context, itemID uuid.UUID) error
	MarkNotifiedSold(ctx context.Context, itemID uuid.UUID) error
}

type pgWishlistRepo struct{ pool *pgxpool.Pool }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{pool: pool}
}

const wishlistColumns = `id, user_id, product_id, notify_on_sale, notify_on_available,
	notify_on_price_change, notified_sold, notified_available, created_at`

func (r *pgWishlistRepo) Create(ctx context.Context, item *model.WishlistItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO wishlist_items (id, user_id, product_id, notify_on_sale,
				notify_on_available, notify_on_price_change, notified_sold, notified_available, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, false, false, NOW())
			  RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		item.ID, item.UserID, item.ProductID,
		item.NotifyOnSale, item.NotifyOnAvailable, item.NotifyOnPriceChange,
	).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error) {
	item := &model.WishlistItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.NotifyOnSale, &item.NotifyOnAvailable,
		&item.NotifyOnPriceChange, &item.NotifiedSold, &item.NotifiedAvailable, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	return item, nil
}

func (r *pgWishlistRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var items []model.WishlistItem
	for rows.Next() {
		var item model.WishlistItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.NotifyOnSale, &item.NotifyOnAvailable,
			&item.NotifyOnPriceChange, &item.NotifiedSold, &item.NotifiedAvailable, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *pgWishlistRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgWishlistRepo) SubscribersForAvailable(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	return r.subscribers(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.notify_on_sale, w.notify_on_available,
				w.notify_on_price_change, w.notified_sold, w.notified_available, w.created_at, u.email
		 FROM wishlist_items w JOIN users u ON u.id = w.user_id
		 WHERE w.product_id = $1 AND w.notify_on_available AND NOT w.notified_available`,
		productID,
	)
}

func (r *pgWishlistRepo) SubscribersForSold(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	return r.subscribers(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.notify_on_sale, w.notify_on_available,
				w.notify_on_price_change, w.notified_sold, w.notified_available, w.created_at, u.email
		 FROM wishlist_items w JOIN users u ON u.id = w.user_id
		 WHERE w.product_id = $1 AND w.notify_on_sale AND NOT w.notified_sold`,
		productID,
	)
}

func (r *pgWishlistRepo) SubscribersForPriceChange(ctx context.Context, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	return r.subscribers(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.notify_on_sale, w.notify_on_available,
				w.notify_on_price_change, w.notified_sold, w.notified_available, w.created_at, u.email
		 FROM wishlist_items w JOIN users u ON u.id = w.user_id
		 WHERE w.product_id = $1 AND w.notify_on_price_change`,
		productID,
	)
}

func (r *pgWishlistRepo) subscribers(ctx context.Context, query string, productID uuid.UUID) ([]model.WishlistSubscriber, error) {
	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []model.WishlistSubscriber
	for rows.Next() {
		var s model.WishlistSubscriber
		if err := rows.Scan(
			&s.Item.ID, &s.Item.UserID, &s.Item.ProductID, &s.Item.NotifyOnSale,
			&s.Item.NotifyOnAvailable, &s.Item.NotifyOnPriceChange,
			&s.Item.NotifiedSold, &s.Item.NotifiedAvailable, &s.Item.CreatedAt, &s.Email,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

func (r *pgWishlistRepo) MarkNotifiedAvailable(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE wishlist_items SET notified_available = true, notified_sold = false WHERE id = $1`, itemID,
	)
	if err != nil {
		return fmt.Errorf("mark notified available: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) MarkNotifiedSold(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE wishlist_items SET notified_sold = true, notified_available = false WHERE id = $1`, itemID,
	)
	if err != nil {
		return fmt.Errorf("mark notified sold: %w", err)
	}
	return nil
}
