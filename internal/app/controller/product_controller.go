package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/app/service"
	apperrors "github.com/shopvn/shopvn-backend/internal/errors"
	"github.com/shopvn/shopvn-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
	ratingService  service.RatingService
}

func NewProductController(
	productService service.ProductService,
	ratingService service.RatingService,
) *ProductController {
	return &ProductController{
		productService: productService,
		ratingService:  ratingService,
	}
}

type ProductRequest struct {
	Name                string  `json:"name" binding:"required"`
	Description         string  `json:"description"`
	CategoryID          uint    `json:"category_id" binding:"required"`
	Image               string  `json:"image"`
	Price               float64 `json:"price" binding:"required,gt=0"`
	PriceBeforeDiscount float64 `json:"price_before_discount"`
	Quantity            int     `json:"quantity" binding:"min=0"`
}

type RateProductRequest struct {
	Star    int    `json:"star" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func listFilterFromQuery(c *gin.Context) repository.ProductFilter {
	filter := repository.ProductFilter{
		Search:        c.Query("name"),
		SortBy:        repository.ProductSort(c.DefaultQuery("sort_by", "createdAt")),
		SortAscending: c.Query("order") == "asc",
	}

	if categoryParam := c.Query("category"); categoryParam != "" {
		if id, err := strconv.ParseUint(categoryParam, 10, 32); err == nil {
			categoryID := uint(id)
			filter.CategoryID = &categoryID
		}
	}
	if excludeParam := c.Query("exclude"); excludeParam != "" {
		if id, err := strconv.ParseUint(excludeParam, 10, 32); err == nil {
			excludeID := uint(id)
			filter.ExcludeID = &excludeID
		}
	}
	if ratingParam := c.Query("rating_filter"); ratingParam != "" {
		if rating, err := strconv.ParseFloat(ratingParam, 64); err == nil {
			filter.RatingFilter = &rating
		}
	}
	if minParam := c.Query("price_min"); minParam != "" {
		if min, err := strconv.ParseFloat(minParam, 64); err == nil {
			filter.PriceMin = &min
		}
	}
	if maxParam := c.Query("price_max"); maxParam != "" {
		if max, err := strconv.ParseFloat(maxParam, 64); err == nil {
			filter.PriceMax = &max
		}
	}
	return filter
}

// List returns the product catalog
// GET /api/products
func (ctrl *ProductController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	result, err := ctrl.productService.List(listFilterFromQuery(c), page, pageSize)
	if err != nil {
		log.Error("Failed to list products", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products fetched",
		"data":    result,
	})
}

// Get returns one product and counts the view
// GET /api/products/:id
func (ctrl *ProductController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	product, err := ctrl.productService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product fetched",
		"data":    product,
	})
}

// Create adds a product to the catalog
// POST /api/admin/products
func (ctrl *ProductController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	product := &model.Product{
		Name:                req.Name,
		Description:         req.Description,
		CategoryID:          req.CategoryID,
		Image:               req.Image,
		Price:               req.Price,
		PriceBeforeDiscount: req.PriceBeforeDiscount,
		Quantity:            req.Quantity,
	}
	if err := ctrl.productService.Create(product); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apperrors.BadRequest(c, apperrors.ResourceNotFound, "Category not found")
			return
		}
		log.Error("Failed to create product", err)
		apperrors.RespondWithParsedError(c, err, "create")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created",
		"data":    product,
	})
}

// Update edits a catalog product
// PUT /api/admin/products/:id
func (ctrl *ProductController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	product := &model.Product{
		ID:                  uint(id),
		Name:                req.Name,
		Description:         req.Description,
		CategoryID:          req.CategoryID,
		Image:               req.Image,
		Price:               req.Price,
		PriceBeforeDiscount: req.PriceBeforeDiscount,
		Quantity:            req.Quantity,
	}
	if err := ctrl.productService.Update(product); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated",
		"data":    product,
	})
}

// Delete removes a product from the catalog
// DELETE /api/admin/products/:id
func (ctrl *ProductController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	if err := ctrl.productService.Delete(uint(id)); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted",
	})
}

// Rate records the user's rating for a delivered product
// POST /api/products/:id/ratings
func (ctrl *ProductController) Rate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	var req RateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.RatingInvalidStar, "Star must be between 1 and 5")
		return
	}

	rating, err := ctrl.ratingService.RateProduct(userID, uint(id), req.Star, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidStar):
			apperrors.BadRequest(c, apperrors.RatingInvalidStar, "Star must be between 1 and 5")
		case errors.Is(err, service.ErrPurchaseRequired):
			apperrors.Forbidden(c, "Product must be delivered before rating")
		default:
			log.Error("Failed to rate product", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Rating recorded",
		"data":    rating,
	})
}

// Ratings lists the ratings of a product
// GET /api/products/:id/ratings
func (ctrl *ProductController) Ratings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product id")
		return
	}

	ratings, err := ctrl.ratingService.GetProductRatings(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch ratings", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ratings fetched",
		"data":    ratings,
	})
}
