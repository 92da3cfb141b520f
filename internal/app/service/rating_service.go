package service

import (
	"errors"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidStar      = errors.New("star must be between 1 and 5")
	ErrPurchaseRequired = errors.New("product must be delivered before rating")
)

type RatingService interface {
	RateProduct(userID, productID uint, star int, comment string) (*model.Rating, error)
	GetProductRatings(productID uint) ([]model.Rating, error)
}

type ratingService struct {
	ratingRepo   repository.RatingRepository
	productRepo  repository.ProductRepository
	purchaseRepo repository.PurchaseRepository
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
) RatingService {
	return &ratingService{
		ratingRepo:   ratingRepo,
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
	}
}

// RateProduct records or replaces the user's rating for a product they have
// received, then refreshes the product's aggregate rating.
func (s *ratingService) RateProduct(userID, productID uint, star int, comment string) (*model.Rating, error) {
	logger.Info("Rating product", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"star":       star,
	})

	if star < 1 || star > 5 {
		return nil, ErrInvalidStar
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// Only buyers with a delivered line may rate
	delivered, err := s.purchaseRepo.FindByUserAndStatus(userID, model.StatusDelivered)
	if err != nil {
		return nil, err
	}
	eligible := false
	for _, p := range delivered {
		if p.ProductID == productID {
			eligible = true
			break
		}
	}
	if !eligible {
		logger.Warn("Cannot rate product: no delivered purchase", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrPurchaseRequired
	}

	rating, err := s.ratingRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if rating != nil {
		rating.Star = star
		rating.Comment = comment
		if err := s.ratingRepo.Update(rating); err != nil {
			return nil, err
		}
	} else {
		rating = &model.Rating{
			UserID:    userID,
			ProductID: productID,
			Star:      star,
			Comment:   comment,
		}
		if err := s.ratingRepo.Create(rating); err != nil {
			return nil, err
		}
	}

	avg, count, err := s.ratingRepo.AverageByProduct(productID)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateRating(productID, avg); err != nil {
		return nil, err
	}

	logger.Info("Product rating updated", map[string]interface{}{
		"product_id":   productID,
		"rating":       avg,
		"rating_count": count,
	})
	return rating, nil
}

func (s *ratingService) GetProductRatings(productID uint) ([]model.Rating, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.ratingRepo.FindByProductID(productID)
}
