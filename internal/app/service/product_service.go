package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"github.com/shopvn/shopvn-backend/pkg/redis"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

const productCacheTTL = 5 * time.Minute

// ProductList is a paginated listing result.
type ProductList struct {
	Products   []model.Product `json:"products"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

type ProductService interface {
	List(filter repository.ProductFilter, page, pageSize int) (*ProductList, error)
	GetByID(id uint) (*model.Product, error)
	Create(product *model.Product) error
	Update(product *model.Product) error
	Delete(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) List(filter repository.ProductFilter, page, pageSize int) (*ProductList, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 30
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ProductList{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns one product and counts the view. Product detail is served
// cache-aside; a cache outage falls through to the database.
func (s *productService) GetByID(id uint) (*model.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("product:%d", id)

	var cached model.Product
	if err := redis.GetJSON(ctx, cacheKey, &cached); err == nil {
		// View counting stays accurate even on a cache hit
		if err := s.productRepo.IncrementViewCount(id); err != nil {
			logger.Warn("Failed to increment product view count", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
		}
		return &cached, nil
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := s.productRepo.IncrementViewCount(id); err != nil {
		logger.Warn("Failed to increment product view count", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
	}

	if err := redis.SetJSON(ctx, cacheKey, product, productCacheTTL); err != nil {
		logger.Debug("Failed to cache product", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
	}
	return product, nil
}

func (s *productService) Create(product *model.Product) error {
	if _, err := s.categoryRepo.FindByID(product.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return s.productRepo.Create(product)
}

func (s *productService) Update(product *model.Product) error {
	if _, err := s.productRepo.FindByID(product.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	redis.Delete(context.Background(), fmt.Sprintf("product:%d", product.ID))
	return nil
}

func (s *productService) Delete(id uint) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}
	redis.Delete(context.Background(), fmt.Sprintf("product:%d", id))
	return nil
}
