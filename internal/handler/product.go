package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(product))
}

// Get resolves the path segment as a UUID first and falls back to a
// slug, so storefront URLs and admin links share one endpoint.
func (h *ProductHandler) Get(c *gin.Context) {
	key := c.Param("id")

	var (
		product *model.Product
		err     error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		product, err = h.productService.GetByID(c.Request.Context(), id)
	} else {
		product, err = h.productService.GetBySlug(c.Request.Context(), key)
	}
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "errorCode": "INVALID_STATUS"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{
		Products: items,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	})
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	// Absent position appends after the product's last image.
	position := -1
	if raw := c.PostForm("position"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
			return
		}
		position = parsed
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer file.Close()

	image, err := h.productService.AddImage(c.Request.Context(), id, file, position)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, dto.ProductImageResponse{
		ID:       image.ID,
		URL:      image.URL,
		Position: image.Position,
	})
}

func (h *ProductHandler) DeleteImage(c *gin.Context) {
	imageID, err := uuid.Parse(c.Param("imageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image ID"})
		return
	}

	if err := h.productService.DeleteImage(c.Request.Context(), imageID); err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) writeProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, service.ErrCategoryNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "category not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "errorCode": "INVALID_STATUS"})
	case errors.Is(err, service.ErrSlugExists):
		c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
	case errors.Is(err, service.ErrFeaturedLimit):
		c.JSON(http.StatusConflict, gin.H{"error": "featured product limit reached", "errorCode": "FEATURED_LIMIT_EXCEEDED"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toProductResponse(product *model.Product) dto.ProductResponse {
	images := make([]dto.ProductImageResponse, 0, len(product.Images))
	for _, img := range product.Images {
		images = append(images, dto.ProductImageResponse{
			ID:       img.ID,
			URL:      img.URL,
			Position: img.Position,
		})
	}
	return dto.ProductResponse{
		ID:            product.ID,
		Slug:          product.Slug,
		NameEN:        product.NameEN,
		NameNL:        product.NameNL,
		DescriptionEN: product.DescriptionEN,
		DescriptionNL: product.DescriptionNL,
		Price:         product.Price,
		Status:        string(product.Status),
		SoldAt:        product.SoldAt,
		CategoryID:    product.CategoryID,
		Era:           product.Era,
		Material:      product.Material,
		Dimensions:    product.Dimensions,
		Featured:      product.Featured,
		ShippingCost:  product.ShippingCost,
		Images:        images,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
