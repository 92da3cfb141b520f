package repository

import (
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
)

type CheckoutSessionRepository interface {
	Create(session *model.CheckoutSession) error
	FindByOrderID(orderID string) (*model.CheckoutSession, error)
	// AdvanceState moves a session from one state to another. Returns false
	// when the session was not in the expected state, which makes repeated
	// gateway callbacks observable no-ops.
	AdvanceState(orderID string, from, to model.CheckoutState) (bool, error)
}

type checkoutSessionRepository struct {
	db *gorm.DB
}

func NewCheckoutSessionRepository(db *gorm.DB) CheckoutSessionRepository {
	return &checkoutSessionRepository{db: db}
}

func (r *checkoutSessionRepository) Create(session *model.CheckoutSession) error {
	logger.Debug("Creating checkout session in database", map[string]interface{}{
		"order_id": session.OrderID,
		"user_id":  session.UserID,
		"amount":   session.Amount,
	})

	if err := r.db.Create(session).Error; err != nil {
		logger.Error("Failed to create checkout session in database", err, map[string]interface{}{
			"order_id": session.OrderID,
			"user_id":  session.UserID,
		})
		return err
	}
	return nil
}

func (r *checkoutSessionRepository) FindByOrderID(orderID string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.db.Where("order_id = ?", orderID).First(&session).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find checkout session in database", err, map[string]interface{}{
				"order_id": orderID,
			})
		}
		return nil, err
	}
	return &session, nil
}

func (r *checkoutSessionRepository) AdvanceState(orderID string, from, to model.CheckoutState) (bool, error) {
	result := r.db.Model(&model.CheckoutSession{}).
		Where("order_id = ? AND state = ?", orderID, from).
		Update("state", to)
	if result.Error != nil {
		logger.Error("Failed to advance checkout session state in database", result.Error, map[string]interface{}{
			"order_id": orderID,
			"from":     from,
			"to":       to,
		})
		return false, result.Error
	}

	logger.Debug("Checkout session state advanced in database", map[string]interface{}{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"applied":  result.RowsAffected > 0,
	})
	return result.RowsAffected > 0, nil
}
