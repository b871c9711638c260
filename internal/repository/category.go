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

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasProducts(ctx context.Context, id uuid.UUID) (bool, error)
}

type pgCategoryRepo struct{ pool *pgxpool.Pool }

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &pgCategoryRepo{pool: pool}
}

func (r *pgCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = uuid.New()
	query := `INSERT INTO categories (id, slug, name_en, name_nl, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		category.ID, category.Slug, category.NameEN, category.NameNL,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return r.get(ctx, `SELECT id, slug, name_en, name_nl, created_at, updated_at FROM categories WHERE id = $1`, id)
}

func (r *pgCategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return r.get(ctx, `SELECT id, slug, name_en, name_nl, created_at, updated_at FROM categories WHERE slug = $1`, slug)
}

func (r *pgCategoryRepo) get(ctx context.Context, query string, arg any) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Slug, &c.NameEN, &c.NameNL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *pgCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, slug, name_en, name_nl, created_at, updated_at FROM categories ORDER BY name_en ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.NameEN, &c.NameNL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *pgCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCategoryRepo) HasProducts(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count category products: %w", err)
	}
	return count > 0, nil
}
