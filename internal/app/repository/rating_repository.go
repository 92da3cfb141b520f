package repository

import (
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
)

type RatingRepository interface {
	Create(rating *model.Rating) error
	Update(rating *model.Rating) error
	FindByUserAndProduct(userID, productID uint) (*model.Rating, error)
	FindByProductID(productID uint) ([]model.Rating, error)
	AverageByProduct(productID uint) (float64, int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(rating *model.Rating) error {
	if err := r.db.Create(rating).Error; err != nil {
		logger.Error("Failed to create rating in database", err, map[string]interface{}{
			"user_id":    rating.UserID,
			"product_id": rating.ProductID,
		})
		return err
	}
	return nil
}

func (r *ratingRepository) Update(rating *model.Rating) error {
	if err := r.db.Save(rating).Error; err != nil {
		logger.Error("Failed to update rating in database", err, map[string]interface{}{
			"rating_id": rating.ID,
		})
		return err
	}
	return nil
}

func (r *ratingRepository) FindByUserAndProduct(userID, productID uint) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&rating).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find rating in database", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
		}
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) FindByProductID(productID uint) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.Where("product_id = ?", productID).
		Preload("User").
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		logger.Error("Failed to find ratings by product in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return ratings, nil
}

// AverageByProduct computes the live average star value and rating count.
func (r *ratingRepository) AverageByProduct(productID uint) (float64, int64, error) {
	type result struct {
		Avg   float64
		Count int64
	}
	var res result
	err := r.db.Model(&model.Rating{}).
		Select("COALESCE(AVG(star), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&res).Error
	if err != nil {
		logger.Error("Failed to compute rating average in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return 0, 0, err
	}
	return res.Avg, res.Count, nil
}
