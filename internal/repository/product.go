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

type ProductFilter struct {
	Search   string
	Category string
	Status   string
	Featured bool
	Sort     string
	Order    string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountFeatured(ctx context.Context) (int, error)
	MarkSold(ctx context.Context, ids []uuid.UUID, soldAt time.Time) error
	// RestoreSoldForOrder reverts every SOLD product referenced by the
	// order's items back to AVAILABLE and clears sold_at. It does not
	// check which order sold the product.
	RestoreSoldForOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	// AddImage inserts at image.Position; a negative position appends
	// after the product's current last image.
	AddImage(ctx context.Context, image *model.ProductImage) error
	GetImage(ctx context.Context, imageID uuid.UUID) (*model.ProductImage, error)
	DeleteImage(ctx context.Context, imageID uuid.UUID) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, slug, name_en, name_nl, description_en, description_nl, price, status,
	sold_at, category_id, era, material, dimensions, featured, shipping_cost, created_at, updated_at`

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, slug, name_en, name_nl, description_en, description_nl,
				price, status, sold_at, category_id, era, material, dimensions, featured, shipping_cost,
				created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Slug, product.NameEN, product.NameNL,
		product.DescriptionEN, product.DescriptionNL, product.Price, product.Status,
		product.SoldAt, product.CategoryID, product.Era, product.Material,
		product.Dimensions, product.Featured, product.ShippingCost,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *pgProductRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *pgProductRepo) get(ctx context.Context, query string, arg any) (*model.Product, error) {
	p := &model.Product{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Slug, &p.NameEN, &p.NameNL, &p.DescriptionEN, &p.DescriptionNL,
		&p.Price, &p.Status, &p.SoldAt, &p.CategoryID, &p.Era, &p.Material,
		&p.Dimensions, &p.Featured, &p.ShippingCost, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	images, err := r.imagesFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Images = images[p.ID]
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "created_at": true}
	sort := f.Sort
	if !allowedSorts[sort] {
		sort = "created_at"
	}
	if sort == "name" {
		sort = "name_en"
	}
	order := f.Order
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	where := `($1 = '' OR name_en ILIKE '%' || $1 || '%' OR name_nl ILIKE '%' || $1 || '%'
			OR description_en ILIKE '%' || $1 || '%' OR description_nl ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category_id IN (SELECT id FROM categories WHERE slug = $2))
		AND ($3 = '' OR status = $3)
		AND (NOT $4 OR featured)`

	var total int
	countQ := `SELECT COUNT(*) FROM products WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQ, f.Search, f.Category, f.Status, f.Featured).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products WHERE `+where+
		` ORDER BY %s %s LIMIT $5 OFFSET $6`, sort, order)

	rows, err := r.pool.Query(ctx, query, f.Search, f.Category, f.Status, f.Featured, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	var ids []uuid.UUID
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Slug, &p.NameEN, &p.NameNL, &p.DescriptionEN, &p.DescriptionNL,
			&p.Price, &p.Status, &p.SoldAt, &p.CategoryID, &p.Era, &p.Material,
			&p.Dimensions, &p.Featured, &p.ShippingCost, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}

	images, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Images = images[products[i].ID]
	}
	return products, total, nil
}

func (r *pgProductRepo) imagesFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ProductImage, error) {
	result := make(map[uuid.UUID][]model.ProductImage)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, public_id, url, position, created_at
		 FROM product_images WHERE product_id = ANY($1) ORDER BY position ASC`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.PublicID, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		result[img.ProductID] = append(result[img.ProductID], img)
	}
	return result, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET slug=$2, name_en=$3, name_nl=$4, description_en=$5, description_nl=$6,
				price=$7, status=$8, sold_at=$9, category_id=$10, era=$11, material=$12,
				dimensions=$13, featured=$14, shipping_cost=$15, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Slug, product.NameEN, product.NameNL,
		product.DescriptionEN, product.DescriptionNL, product.Price, product.Status,
		product.SoldAt, product.CategoryID, product.Era, product.Material,
		product.Dimensions, product.Featured, product.ShippingCost,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) CountFeatured(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE featured`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count featured: %w", err)
	}
	return count, nil
}

func (r *pgProductRepo) MarkSold(ctx context.Context, ids []uuid.UUID, soldAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $2, sold_at = $3, updated_at = NOW() WHERE id = ANY($1)`,
		ids, model.ProductSold, soldAt,
	)
	if err != nil {
		return fmt.Errorf("mark products sold: %w", err)
	}
	return nil
}

func (r *pgProductRepo) RestoreSoldForOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $2, sold_at = NULL, updated_at = NOW()
		 WHERE status = $3
		   AND id IN (SELECT product_id FROM order_items WHERE order_id = $1)`,
		orderID, model.ProductAvailable, model.ProductSold,
	)
	if err != nil {
		return 0, fmt.Errorf("restore sold products: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgProductRepo) AddImage(ctx context.Context, image *model.ProductImage) error {
	image.ID = uuid.New()
	query := `INSERT INTO product_images (id, product_id, public_id, url, position, created_at)
			  VALUES ($1, $2, $3, $4,
				CASE WHEN $5 >= 0 THEN $5
				     ELSE COALESCE((SELECT MAX(position) + 1 FROM product_images WHERE product_id = $2), 0)
				END,
				NOW())
			  RETURNING position, created_at`
	err := r.pool.QueryRow(ctx, query, image.ID, image.ProductID, image.PublicID, image.URL, image.Position).
		Scan(&image.Position, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("add product image: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetImage(ctx context.Context, imageID uuid.UUID) (*model.ProductImage, error) {
	img := &model.ProductImage{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, public_id, url, position, created_at FROM product_images WHERE id = $1`,
		imageID,
	).Scan(&img.ID, &img.ProductID, &img.PublicID, &img.URL, &img.Position, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product image: %w", err)
	}
	return img, nil
}

func (r *pgProductRepo) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_images WHERE id = $1`, imageID)
	if err != nil {
		return fmt.Errorf("delete product image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
