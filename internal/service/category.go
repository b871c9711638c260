package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
)

var (
	ErrCategoryExists      = errors.New("category already exists")
	ErrCategoryHasProducts = errors.New("category still has products")
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*model.Category, error) {
	existing, err := s.categoryRepo.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	category := &model.Category{
		Slug:   req.Slug,
		NameEN: req.NameEN,
		NameNL: req.NameNL,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Delete refuses to remove a category that still has products.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	hasProducts, err := s.categoryRepo.HasProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("check products: %w", err)
	}
	if hasProducts {
		return ErrCategoryHasProducts
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
