package service

import (
	"errors"
	"time"

	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidBuyCount     = errors.New("invalid buy count")
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)

type CartService interface {
	AddToCart(userID, productID uint, buyCount int) (*model.Purchase, error)
	UpdateCartLine(userID, purchaseID uint, buyCount int) (*model.Purchase, error)
	UpdateCartLineByProduct(userID, productID uint, buyCount int) (*model.Purchase, error)
	RemoveCartLines(userID uint, purchaseIDs []uint) (int64, error)
	GetPurchases(userID uint, status model.PurchaseStatus) ([]model.Purchase, error)
}

type cartService struct {
	purchaseRepo repository.PurchaseRepository
	productRepo  repository.ProductRepository
}

func NewCartService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
	}
}

// AddToCart adds buyCount units of a product to the user's cart. Adding a
// product already in the cart accumulates onto the existing line and
// restarts its retention window. The accumulated total must stay within
// current stock.
func (s *cartService) AddToCart(userID, productID uint, buyCount int) (*model.Purchase, error) {
	logger.Info("Adding product to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"buy_count":  buyCount,
	})

	if buyCount <= 0 {
		return nil, ErrInvalidBuyCount
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	expireAt := time.Now().Add(config.CartExpiry)

	existing, err := s.purchaseRepo.FindCartLine(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		newCount := existing.BuyCount + buyCount
		ok, err := s.purchaseRepo.UpdateBuyCountChecked(existing.ID, userID, newCount)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn("Cannot add to cart: accumulated quantity above stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
				"requested":  newCount,
				"stock":      product.Quantity,
			})
			return nil, ErrInsufficientStock
		}
		if err := s.purchaseRepo.RefreshCartExpiry(existing.ID, expireAt); err != nil {
			return nil, err
		}

		line, err := s.purchaseRepo.FindByID(existing.ID)
		if err != nil {
			return nil, err
		}

		logger.Info("Cart line accumulated", map[string]interface{}{
			"user_id":     userID,
			"purchase_id": line.ID,
			"buy_count":   line.BuyCount,
		})
		return line, nil
	}

	if buyCount > product.Quantity {
		logger.Warn("Cannot add to cart: quantity above stock", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  buyCount,
			"stock":      product.Quantity,
		})
		return nil, ErrInsufficientStock
	}

	// Price is snapshotted at the moment the line enters the cart
	purchase := &model.Purchase{
		UserID:              userID,
		ProductID:           productID,
		BuyCount:            buyCount,
		Price:               product.Price,
		PriceBeforeDiscount: product.PriceBeforeDiscount,
		Status:              model.StatusInCart,
		ExpireAt:            &expireAt,
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	line, err := s.purchaseRepo.FindByID(purchase.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Product added to cart", map[string]interface{}{
		"user_id":     userID,
		"purchase_id": line.ID,
		"buy_count":   line.BuyCount,
	})
	return line, nil
}

// UpdateCartLine replaces the quantity of an in-cart line. The new quantity
// must be within current stock.
func (s *cartService) UpdateCartLine(userID, purchaseID uint, buyCount int) (*model.Purchase, error) {
	logger.Info("Updating cart line", map[string]interface{}{
		"user_id":     userID,
		"purchase_id": purchaseID,
		"buy_count":   buyCount,
	})

	if buyCount <= 0 {
		return nil, ErrInvalidBuyCount
	}

	ok, err := s.purchaseRepo.UpdateBuyCountChecked(purchaseID, userID, buyCount)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing line from a stock rejection
		purchase, err := s.purchaseRepo.FindByID(purchaseID)
		if err != nil || purchase.UserID != userID || purchase.Status != model.StatusInCart {
			logger.Warn("Cannot update cart line: not found", map[string]interface{}{
				"user_id":     userID,
				"purchase_id": purchaseID,
			})
			return nil, ErrPurchaseNotFound
		}
		logger.Warn("Cannot update cart line: quantity above stock", map[string]interface{}{
			"user_id":     userID,
			"purchase_id": purchaseID,
			"requested":   buyCount,
		})
		return nil, ErrInsufficientStock
	}

	return s.purchaseRepo.FindByID(purchaseID)
}

// UpdateCartLineByProduct is UpdateCartLine addressed by product, matching
// the storefront request shape.
func (s *cartService) UpdateCartLineByProduct(userID, productID uint, buyCount int) (*model.Purchase, error) {
	line, err := s.purchaseRepo.FindCartLine(userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return s.UpdateCartLine(userID, line.ID, buyCount)
}

// RemoveCartLines deletes the given in-cart lines and reports how many were
// actually removed. Lines that already left the cart are skipped.
func (s *cartService) RemoveCartLines(userID uint, purchaseIDs []uint) (int64, error) {
	logger.Info("Removing cart lines", map[string]interface{}{
		"user_id": userID,
		"ids":     purchaseIDs,
	})

	if len(purchaseIDs) == 0 {
		return 0, nil
	}
	return s.purchaseRepo.DeleteCartLines(userID, purchaseIDs)
}

// GetPurchases lists the user's purchases for one status value. StatusInCart
// returns the cart; StatusAll returns every placed order.
func (s *cartService) GetPurchases(userID uint, status model.PurchaseStatus) ([]model.Purchase, error) {
	if status != model.StatusAll && !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}

	purchases, err := s.purchaseRepo.FindByUserAndStatus(userID, status)
	if err != nil {
		logger.Error("Failed to fetch purchases", err, map[string]interface{}{
			"user_id": userID,
			"status":  status,
		})
		return nil, err
	}
	return purchases, nil
}
