package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/antiekhuis/antiekhuis-api/internal/dto"
	"github.com/antiekhuis/antiekhuis-api/internal/model"
	"github.com/antiekhuis/antiekhuis-api/internal/repository"
	"github.com/antiekhuis/antiekhuis-api/internal/storage"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSlugExists       = errors.New("slug already in use")
	ErrFeaturedLimit    = errors.New("featured product limit reached")
	ErrCategoryNotFound = errors.New("category not found")
)

// maxFeaturedProducts caps the homepage carousel.
const maxFeaturedProducts = 8

const productCacheTTL = 60 * time.Second

// WishlistNotifier is the fan-out surface the catalog calls on product
// status edges.
type WishlistNotifier interface {
	NotifyAvailable(ctx context.Context, product *model.Product) ([]NotificationOutcome, error)
	NotifySold(ctx context.Context, product *model.Product) ([]NotificationOutcome, error)
	NotifyPriceDrop(ctx context.Context, product *model.Product, oldPrice decimal.Decimal) ([]NotificationOutcome, error)
}

type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	redisClient  *redis.Client
	notifier     WishlistNotifier
	images       storage.ImageStore
	log          *slog.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	redisClient *redis.Client,
	notifier WishlistNotifier,
	images storage.ImageStore,
	log *slog.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		redisClient:  redisClient,
		notifier:     notifier,
		images:       images,
		log:          log,
	}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	existing, err := s.productRepo.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if existing != nil {
		return nil, ErrSlugExists
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	status := model.ProductAvailable
	if req.Status != "" {
		parsed, ok := model.ParseProductStatus(req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		status = parsed
	}

	if req.Featured {
		if err := s.checkFeaturedLimit(ctx); err != nil {
			return nil, err
		}
	}

	product := &model.Product{
		Slug:          req.Slug,
		NameEN:        req.NameEN,
		NameNL:        req.NameNL,
		DescriptionEN: req.DescriptionEN,
		DescriptionNL: req.DescriptionNL,
		Price:         req.Price,
		Status:        status,
		CategoryID:    req.CategoryID,
		Era:           req.Era,
		Material:      req.Material,
		Dimensions:    req.Dimensions,
		Featured:      req.Featured,
		ShippingCost:  req.ShippingCost,
	}
	if status == model.ProductSold {
		now := time.Now()
		product.SoldAt = &now
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var product model.Product
			if json.Unmarshal([]byte(cached), &product) == nil {
				return &product, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return product, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	cacheKey := "product:slug:" + slug

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var product model.Product
			if json.Unmarshal([]byte(cached), &product) == nil {
				return &product, nil
			}
		}
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) ([]model.Product, int, error) {
	if req.Status != "" {
		if _, ok := model.ParseProductStatus(req.Status); !ok {
			return nil, 0, ErrInvalidStatus
		}
	}
	return s.productRepo.List(ctx, repository.ProductFilter{
		Search:   req.Search,
		Category: req.Category,
		Status:   req.Status,
		Featured: req.Featured,
		Sort:     req.Sort,
		Order:    req.Order,
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
	})
}

// Update applies a partial update and, when the status changed, runs the
// matching wishlist fan-out before returning. Fan-out outcomes are
// logged here; per-subscriber failures never fail the update.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	prevStatus := product.Status
	prevPrice := product.Price
	prevSlug := product.Slug

	if req.Slug != nil && *req.Slug != product.Slug {
		existing, err := s.productRepo.GetBySlug(ctx, *req.Slug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if existing != nil {
			return nil, ErrSlugExists
		}
		product.Slug = *req.Slug
	}
	if req.NameEN != nil {
		product.NameEN = *req.NameEN
	}
	if req.NameNL != nil {
		product.NameNL = *req.NameNL
	}
	if req.DescriptionEN != nil {
		product.DescriptionEN = *req.DescriptionEN
	}
	if req.DescriptionNL != nil {
		product.DescriptionNL = *req.DescriptionNL
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Era != nil {
		product.Era = *req.Era
	}
	if req.Material != nil {
		product.Material = *req.Material
	}
	if req.Dimensions != nil {
		product.Dimensions = *req.Dimensions
	}
	if req.ShippingCost != nil {
		product.ShippingCost = req.ShippingCost
	}
	if req.Featured != nil {
		if *req.Featured && !product.Featured {
			if err := s.checkFeaturedLimit(ctx); err != nil {
				return nil, err
			}
		}
		product.Featured = *req.Featured
	}

	if req.Status != nil {
		status, ok := model.ParseProductStatus(*req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		product.Status = status
		if status == model.ProductSold && prevStatus != model.ProductSold {
			now := time.Now()
			product.SoldAt = &now
		}
		if status != model.ProductSold && prevStatus == model.ProductSold {
			product.SoldAt = nil
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidateCache(ctx, product.ID, prevSlug, product.Slug)

	s.runNotifications(ctx, product, prevStatus, prevPrice, req)

	return product, nil
}

func (s *ProductService) runNotifications(
	ctx context.Context,
	product *model.Product,
	prevStatus model.ProductStatus,
	prevPrice decimal.Decimal,
	req dto.UpdateProductRequest,
) {
	if s.notifier == nil {
		return
	}

	if product.Status != prevStatus {
		switch {
		case product.Status == model.ProductAvailable &&
			(prevStatus == model.ProductSold || prevStatus == model.ProductComingSoon || prevStatus == model.ProductReserved):
			outcomes, err := s.notifier.NotifyAvailable(ctx, product)
			s.logOutcomes("back_in_stock", product, outcomes, err)
		case product.Status == model.ProductSold:
			outcomes, err := s.notifier.NotifySold(ctx, product)
			s.logOutcomes("sold", product, outcomes, err)
		}
	}

	if req.Price != nil && product.Price.LessThan(prevPrice) {
		outcomes, err := s.notifier.NotifyPriceDrop(ctx, product, prevPrice)
		s.logOutcomes("price_drop", product, outcomes, err)
	}
}

func (s *ProductService) logOutcomes(kind string, product *model.Product, outcomes []NotificationOutcome, err error) {
	if err != nil {
		s.log.Error("wishlist fan-out failed", "kind", kind, "product", product.Slug, "error", err)
		return
	}
	sent := 0
	for _, o := range outcomes {
		if o.Status == OutcomeSent {
			sent++
			continue
		}
		if o.Status == OutcomeFailed {
			s.log.Error("wishlist notification failed",
				"kind", kind, "product", product.Slug, "email", o.Email, "error", o.Err)
		}
	}
	if sent > 0 {
		s.log.Info("wishlist notifications sent", "kind", kind, "product", product.Slug, "count", sent)
	}
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id, product.Slug, product.Slug)
	return nil
}

var ErrImageNotFound = errors.New("image not found")

// AddImage uploads the photo to object storage before touching the
// database, so a failed upload leaves no dangling row. A negative
// position appends after the product's last image.
func (s *ProductService) AddImage(ctx context.Context, productID uuid.UUID, file io.Reader, position int) (*model.ProductImage, error) {
	if s.images == nil {
		return nil, errors.New("image storage not configured")
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	result, err := s.images.Upload(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	image := &model.ProductImage{
		ProductID: productID,
		PublicID:  result.PublicID,
		URL:       result.URL,
		Position:  position,
	}
	if err := s.productRepo.AddImage(ctx, image); err != nil {
		if delErr := s.images.Delete(ctx, result.PublicID); delErr != nil {
			s.log.Error("orphaned image after failed insert",
				"public_id", result.PublicID, "error", delErr)
		}
		return nil, fmt.Errorf("save image: %w", err)
	}
	s.invalidateCache(ctx, productID, product.Slug)
	return image, nil
}

func (s *ProductService) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	if s.images == nil {
		return errors.New("image storage not configured")
	}
	image, err := s.productRepo.GetImage(ctx, imageID)
	if err != nil {
		return fmt.Errorf("get image: %w", err)
	}
	if image == nil {
		return ErrImageNotFound
	}
	product, err := s.productRepo.GetByID(ctx, image.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if err := s.images.Delete(ctx, image.PublicID); err != nil {
		return fmt.Errorf("delete remote image: %w", err)
	}
	if err := s.productRepo.DeleteImage(ctx, imageID); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if product != nil {
		s.invalidateCache(ctx, image.ProductID, product.Slug)
	} else {
		s.invalidateCache(ctx, image.ProductID)
	}
	return nil
}

func (s *ProductService) checkFeaturedLimit(ctx context.Context) error {
	count, err := s.productRepo.CountFeatured(ctx)
	if err != nil {
		return fmt.Errorf("count featured: %w", err)
	}
	if count >= maxFeaturedProducts {
		return ErrFeaturedLimit
	}
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID, slugs ...string) {
	if s.redisClient == nil {
		return
	}
	keys := []string{"product:" + id.String()}
	seen := map[string]bool{}
	for _, slug := range slugs {
		if slug != "" && !seen[slug] {
			keys = append(keys, "product:slug:"+slug)
			seen[slug] = true
		}
	}
	s.redisClient.Del(ctx, keys...)
}
