package repository

import (
	"time"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
)

// AdminPurchaseFilter drives the back-office purchase listing.
type AdminPurchaseFilter struct {
	Status *model.PurchaseStatus
	Search string // matches order id or product name
	Limit  int
	Offset int
}

type PurchaseRepository interface {
	Create(purchase *model.Purchase) error
	FindByID(id uint) (*model.Purchase, error)
	FindCartLine(userID, productID uint) (*model.Purchase, error)
	FindByUserAndStatus(userID uint, status model.PurchaseStatus) ([]model.Purchase, error)
	Update(purchase *model.Purchase) error
	UpdateBuyCountChecked(id, userID uint, buyCount int) (bool, error)
	RefreshCartExpiry(id uint, expireAt time.Time) error
	DeleteCartLines(userID uint, ids []uint) (int64, error)
	FindByOrderID(orderID string) ([]model.Purchase, error)
	StageOrder(userID uint, orderID string, payMethod model.PayMethod) (int64, error)
	MarkReconciled(orderID string) (int64, error)
	ClearOrderID(orderID string) (int64, error)
	FindAllAdmin(filter AdminPurchaseFilter) ([]model.Purchase, int64, error)
	Delete(id uint) error
	DeleteExpiredCartLines(now time.Time) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(purchase *model.Purchase) error {
	logger.Debug("Creating purchase in database", map[string]interface{}{
		"user_id":    purchase.UserID,
		"product_id": purchase.ProductID,
		"buy_count":  purchase.BuyCount,
		"status":     purchase.Status,
	})

	if err := r.db.Create(purchase).Error; err != nil {
		logger.Error("Failed to create purchase in database", err, map[string]interface{}{
			"user_id":    purchase.UserID,
			"product_id": purchase.ProductID,
		})
		return err
	}

	logger.Debug("Purchase created in database", map[string]interface{}{
		"purchase_id": purchase.ID,
		"user_id":     purchase.UserID,
		"product_id":  purchase.ProductID,
	})
	return nil
}

func (r *purchaseRepository) FindByID(id uint) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.Preload("Product").Preload("Product.Category").First(&purchase, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find purchase by ID in database", err, map[string]interface{}{
				"purchase_id": id,
			})
		}
		return nil, err
	}
	return &purchase, nil
}

// FindCartLine returns the in-cart line for a user/product pair, if any.
func (r *purchaseRepository) FindCartLine(userID, productID uint) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.Where("user_id = ? AND product_id = ? AND status = ?",
		userID, productID, model.StatusInCart).
		First(&purchase).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart line in database", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
		}
		return nil, err
	}
	return &purchase, nil
}

// FindByUserAndStatus lists a user's purchases for one status value.
// StatusAll returns every non-cart purchase.
func (r *purchaseRepository) FindByUserAndStatus(userID uint, status model.PurchaseStatus) ([]model.Purchase, error) {
	query := r.db.Where("user_id = ?", userID)
	if status == model.StatusAll {
		query = query.Where("status <> ?", model.StatusInCart)
	} else {
		query = query.Where("status = ?", status)
	}

	var purchases []model.Purchase
	err := query.Preload("Product").Preload("Product.Category").
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		logger.Error("Failed to find purchases by user and status in database", err, map[string]interface{}{
			"user_id": userID,
			"status":  status,
		})
		return nil, err
	}

	logger.Debug("Purchases found by user and status in database", map[string]interface{}{
		"user_id": userID,
		"status":  status,
		"count":   len(purchases),
	})
	return purchases, nil
}

func (r *purchaseRepository) Update(purchase *model.Purchase) error {
	if err := r.db.Save(purchase).Error; err != nil {
		logger.Error("Failed to update purchase in database", err, map[string]interface{}{
			"purchase_id": purchase.ID,
		})
		return err
	}
	return nil
}

// UpdateBuyCountChecked sets the quantity of an in-cart line only while the
// product still has that much stock. The stock check and the write happen in
// one statement so concurrent stock changes cannot slip between them.
func (r *purchaseRepository) UpdateBuyCountChecked(id, userID uint, buyCount int) (bool, error) {
	result := r.db.Model(&model.Purchase{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.StatusInCart).
		Where("(SELECT quantity FROM products WHERE products.id = purchases.product_id) >= ?", buyCount).
		Update("buy_count", buyCount)
	if result.Error != nil {
		logger.Error("Failed to update purchase buy count in database", result.Error, map[string]interface{}{
			"purchase_id": id,
			"user_id":     userID,
			"buy_count":   buyCount,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RefreshCartExpiry restarts the cart retention window for a line.
func (r *purchaseRepository) RefreshCartExpiry(id uint, expireAt time.Time) error {
	if err := r.db.Model(&model.Purchase{}).
		Where("id = ? AND status = ?", id, model.StatusInCart).
		Update("expire_at", expireAt).Error; err != nil {
		logger.Error("Failed to refresh cart expiry in database", err, map[string]interface{}{
			"purchase_id": id,
		})
		return err
	}
	return nil
}

// DeleteCartLines removes the given in-cart lines for a user and reports how
// many were actually deleted.
func (r *purchaseRepository) DeleteCartLines(userID uint, ids []uint) (int64, error) {
	result := r.db.Where("id IN ? AND user_id = ? AND status = ?", ids, userID, model.StatusInCart).
		Delete(&model.Purchase{})
	if result.Error != nil {
		logger.Error("Failed to delete cart lines in database", result.Error, map[string]interface{}{
			"user_id": userID,
			"ids":     ids,
		})
		return 0, result.Error
	}

	logger.Debug("Cart lines deleted in database", map[string]interface{}{
		"user_id":       userID,
		"deleted_count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *purchaseRepository) FindByOrderID(orderID string) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.Where("order_id = ?", orderID).
		Preload("Product").
		Find(&purchases).Error
	if err != nil {
		logger.Error("Failed to find purchases by order ID in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	return purchases, nil
}

// StageOrder tags every in-cart line of a user with the checkout order id and
// pay method, keeping the lines in the cart until the gateway settles.
func (r *purchaseRepository) StageOrder(userID uint, orderID string, payMethod model.PayMethod) (int64, error) {
	result := r.db.Model(&model.Purchase{}).
		Where("user_id = ? AND status = ?", userID, model.StatusInCart).
		Updates(map[string]interface{}{
			"order_id":   orderID,
			"pay_method": payMethod,
		})
	if result.Error != nil {
		logger.Error("Failed to stage order in database", result.Error, map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return 0, result.Error
	}

	logger.Debug("Order staged in database", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
		"count":    result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// MarkReconciled promotes every line under an order id to wait-confirmation
// with payment recorded. The order id stays on the lines so the write is
// idempotent by value.
func (r *purchaseRepository) MarkReconciled(orderID string) (int64, error) {
	result := r.db.Model(&model.Purchase{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":         model.StatusWaitConfirmation,
			"payment_status": model.PaymentPaid,
			"expire_at":      nil,
		})
	if result.Error != nil {
		logger.Error("Failed to mark purchases reconciled in database", result.Error, map[string]interface{}{
			"order_id": orderID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClearOrderID detaches the order id from its lines after a failed payment,
// returning them to plain cart lines.
func (r *purchaseRepository) ClearOrderID(orderID string) (int64, error) {
	result := r.db.Model(&model.Purchase{}).
		Where("order_id = ?", orderID).
		Update("order_id", "")
	if result.Error != nil {
		logger.Error("Failed to clear order ID in database", result.Error, map[string]interface{}{
			"order_id": orderID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *purchaseRepository) FindAllAdmin(filter AdminPurchaseFilter) ([]model.Purchase, int64, error) {
	query := r.db.Model(&model.Purchase{}).
		Joins("LEFT JOIN products ON products.id = purchases.product_id").
		Joins("LEFT JOIN users ON users.id = purchases.user_id").
		Where("purchases.status <> ?", model.StatusInCart)

	if filter.Status != nil && *filter.Status != model.StatusAll {
		query = query.Where("purchases.status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"LOWER(users.email) LIKE LOWER(?) OR LOWER(products.name) LIKE LOWER(?) OR purchases.order_id LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count purchases in database", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var purchases []model.Purchase
	err := query.Preload("User").Preload("Product").Preload("Product.Category").
		Order("purchases.created_at DESC").
		Find(&purchases).Error
	if err != nil {
		logger.Error("Failed to find purchases for admin in database", err)
		return nil, 0, err
	}

	return purchases, total, nil
}

func (r *purchaseRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Purchase{}, id).Error; err != nil {
		logger.Error("Failed to delete purchase in database", err, map[string]interface{}{
			"purchase_id": id,
		})
		return err
	}
	return nil
}

// DeleteExpiredCartLines drops in-cart lines whose expiry has passed.
// Lines staged for a gateway checkout keep their expiry until reconciled,
// so an abandoned checkout is still cleaned up.
func (r *purchaseRepository) DeleteExpiredCartLines(now time.Time) (int64, error) {
	result := r.db.Where("status = ? AND expire_at IS NOT NULL AND expire_at <= ?",
		model.StatusInCart, now).
		Delete(&model.Purchase{})
	if result.Error != nil {
		logger.Error("Failed to delete expired cart lines in database", result.Error)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("Expired cart lines deleted", map[string]interface{}{
			"count": result.RowsAffected,
		})
	}
	return result.RowsAffected, nil
}
