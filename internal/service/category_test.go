package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
)

func TestCategoryService_Create_Duplicate(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())

	req := dto.CreateCategoryRequest{Slug: "tafels", NameEN: "Tables", NameNL: "Tafels"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrCategoryExists)
}

func TestCategoryService_Delete_WithProducts(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewCategoryService(repo)

	category, err := svc.Create(context.Background(), dto.CreateCategoryRequest{
		Slug: "stoelen", NameEN: "Chairs", NameNL: "Stoelen",
	})
	require.NoError(t, err)
	repo.products[category.ID] = 3

	err = svc.Delete(context.Background(), category.ID)
	assert.ErrorIs(t, err, ErrCategoryHasProducts)
}

func TestCategoryService_Delete(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())

	category, err := svc.Create(context.Background(), dto.CreateCategoryRequest{
		Slug: "spiegels", NameEN: "Mirrors", NameNL: "Spiegels",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), category.ID))
	err = svc.Delete(context.Background(), category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_GetBySlug_NotFound(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())
	_, err := svc.GetBySlug(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
