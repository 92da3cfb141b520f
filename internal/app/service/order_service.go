package service

import (
	"errors"
	"fmt"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidPayMethod  = errors.New("invalid pay method")
	ErrStockExceeded     = errors.New("stock exceeded")
)

// BuyItem is one line of a buy-products request. The storefront sends the
// full checkout shape; Status, when present, must be the order entry state.
type BuyItem struct {
	ProductID uint                  `json:"product_id" binding:"required"`
	BuyCount  int                   `json:"buy_count" binding:"required,min=1"`
	OrderID   string                `json:"orderId"`
	PayMethod model.PayMethod       `json:"payMethod"`
	Status    *model.PurchaseStatus `json:"status"`
}

type OrderService interface {
	BuyProducts(userID uint, items []BuyItem) ([]model.Purchase, error)
	AdvanceStatus(purchaseID uint, newStatus model.PurchaseStatus) (*model.Purchase, error)
	ListPurchases(filter repository.AdminPurchaseFilter) ([]model.Purchase, int64, error)
	GetPurchase(purchaseID uint) (*model.Purchase, error)
	DeletePurchase(purchaseID uint) error
}

type orderService struct {
	purchaseRepo repository.PurchaseRepository
	productRepo  repository.ProductRepository
	db           *gorm.DB
}

func NewOrderService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	db *gorm.DB,
) OrderService {
	return &orderService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		db:           db,
	}
}

// BuyProducts places an order for the given product lines. Lines already in
// the user's cart are converted in place; a product bought straight from the
// product page gets a fresh line with its current price snapshotted. The whole
// batch is validated against live stock before any line is written; one bad
// line rejects the entire request and leaves the cart untouched.
func (s *orderService) BuyProducts(userID uint, items []BuyItem) ([]model.Purchase, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":    userID,
		"item_count": len(items),
	})

	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.PayMethod != model.PayMethodCash && item.PayMethod != model.PayMethodVNPay {
			return nil, ErrInvalidPayMethod
		}
		if item.Status != nil && *item.Status != model.StatusWaitConfirmation {
			return nil, ErrInvalidTransition
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic while placing order, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	type stagedLine struct {
		purchaseID uint // zero when the product is bought without a cart line
		product    model.Product
		item       BuyItem
	}
	staged := make([]stagedLine, 0, len(items))

	// Validate every line under row locks before writing anything
	for _, item := range items {
		var product model.Product
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cannot place order: product not found", map[string]interface{}{
					"user_id":    userID,
					"product_id": item.ProductID,
				})
				return nil, ErrProductNotFound
			}
			return nil, err
		}

		if item.BuyCount <= 0 || item.BuyCount > product.Quantity {
			tx.Rollback()
			logger.Warn("Cannot place order: quantity above stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
				"requested":  item.BuyCount,
				"stock":      product.Quantity,
			})
			return nil, ErrInsufficientStock
		}

		line := stagedLine{product: product, item: item}

		var purchase model.Purchase
		err := tx.
			Where("user_id = ? AND product_id = ? AND status = ?",
				userID, item.ProductID, model.StatusInCart).
			First(&purchase).Error
		switch {
		case err == nil:
			line.purchaseID = purchase.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Direct buy, no cart line to convert
		default:
			tx.Rollback()
			return nil, err
		}

		staged = append(staged, line)
	}

	ids := make([]uint, 0, len(staged))
	for _, line := range staged {
		if line.purchaseID == 0 {
			purchase := model.Purchase{
				UserID:              userID,
				ProductID:           line.product.ID,
				BuyCount:            line.item.BuyCount,
				Price:               line.product.Price,
				PriceBeforeDiscount: line.product.PriceBeforeDiscount,
				Status:              model.StatusWaitConfirmation,
				OrderID:             line.item.OrderID,
				PayMethod:           line.item.PayMethod,
			}
			if err := tx.Create(&purchase).Error; err != nil {
				tx.Rollback()
				logger.Error("Failed to create order line", err, map[string]interface{}{
					"user_id":    userID,
					"product_id": line.product.ID,
				})
				return nil, err
			}
			ids = append(ids, purchase.ID)
			continue
		}

		updates := map[string]interface{}{
			"status":     model.StatusWaitConfirmation,
			"buy_count":  line.item.BuyCount,
			"expire_at":  nil,
			"pay_method": line.item.PayMethod,
		}
		if line.item.OrderID != "" {
			updates["order_id"] = line.item.OrderID
		}
		if err := tx.Model(&model.Purchase{}).
			Where("id = ?", line.purchaseID).
			Updates(updates).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to place order line", err, map[string]interface{}{
				"user_id":     userID,
				"purchase_id": line.purchaseID,
			})
			return nil, err
		}
		ids = append(ids, line.purchaseID)
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var placed []model.Purchase
	if err := s.db.Where("id IN ?", ids).
		Preload("Product").Preload("Product.Category").
		Find(&placed).Error; err != nil {
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"user_id":    userID,
		"line_count": len(placed),
	})
	return placed, nil
}

// AdvanceStatus moves a purchase forward in its lifecycle. Only forward
// moves are allowed; cancellation is allowed from any non-terminal state.
// Reaching delivered decrements stock and records the sale in the same
// transaction, rejecting the move when stock would go negative.
func (s *orderService) AdvanceStatus(purchaseID uint, newStatus model.PurchaseStatus) (*model.Purchase, error) {
	logger.Info("Advancing purchase status", map[string]interface{}{
		"purchase_id": purchaseID,
		"new_status":  newStatus,
	})

	if !newStatus.Valid() || newStatus == model.StatusInCart {
		return nil, ErrInvalidTransition
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var purchase model.Purchase
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&purchase, purchaseID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}

	if purchase.Status == model.StatusInCart || purchase.Status.Terminal() {
		tx.Rollback()
		logger.Warn("Cannot advance purchase: not transitionable", map[string]interface{}{
			"purchase_id": purchaseID,
			"status":      purchase.Status,
		})
		return nil, ErrInvalidTransition
	}

	// Forward only, except cancellation
	if newStatus != model.StatusCancelled && newStatus <= purchase.Status {
		tx.Rollback()
		logger.Warn("Cannot advance purchase: backward transition", map[string]interface{}{
			"purchase_id": purchaseID,
			"from":        purchase.Status,
			"to":          newStatus,
		})
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": newStatus}

	if newStatus == model.StatusDelivered {
		// Stock leaves the shelf at delivery. The decrement and the guard
		// run in one statement so a concurrent delivery cannot oversell.
		result := tx.Model(&model.Product{}).
			Where("id = ? AND quantity >= ?", purchase.ProductID, purchase.BuyCount).
			Updates(map[string]interface{}{
				"quantity": gorm.Expr("quantity - ?", purchase.BuyCount),
				"sold":     gorm.Expr("sold + ?", purchase.BuyCount),
			})
		if result.Error != nil {
			tx.Rollback()
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			logger.Warn("Cannot deliver purchase: stock exceeded", map[string]interface{}{
				"purchase_id": purchaseID,
				"product_id":  purchase.ProductID,
				"buy_count":   purchase.BuyCount,
			})
			return nil, ErrStockExceeded
		}
		// Cash on delivery settles at handover
		updates["payment_status"] = model.PaymentPaid
	}

	if err := tx.Model(&model.Purchase{}).
		Where("id = ?", purchase.ID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit status advance", err, map[string]interface{}{
			"purchase_id": purchaseID,
		})
		return nil, err
	}

	logger.Info("Purchase status advanced", map[string]interface{}{
		"purchase_id": purchaseID,
		"from":        purchase.Status,
		"to":          newStatus,
	})
	return s.purchaseRepo.FindByID(purchaseID)
}

func (s *orderService) ListPurchases(filter repository.AdminPurchaseFilter) ([]model.Purchase, int64, error) {
	return s.purchaseRepo.FindAllAdmin(filter)
}

func (s *orderService) GetPurchase(purchaseID uint) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return purchase, nil
}

func (s *orderService) DeletePurchase(purchaseID uint) error {
	if _, err := s.GetPurchase(purchaseID); err != nil {
		return err
	}
	return s.purchaseRepo.Delete(purchaseID)
}
