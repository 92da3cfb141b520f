package service

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"github.com/shopvn/shopvn-backend/pkg/payment/vnpay"
	"github.com/shopvn/shopvn-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderSettled  = errors.New("order already settled")
)

type PaymentService interface {
	StageGatewayCheckout(userID uint, orderID string) ([]model.Purchase, *model.CheckoutSession, error)
	CreatePaymentURL(userID uint, orderID, clientIP string) (string, error)
	ReconcileByOrderID(orderID string) ([]model.Purchase, bool, error)
	RevertByOrderID(orderID string) (int64, bool, error)
	HandleGatewayReturn(query url.Values) (*vnpay.ReturnData, error)
}

type paymentService struct {
	purchaseRepo repository.PurchaseRepository
	sessionRepo  repository.CheckoutSessionRepository
	vnpayClient  *vnpay.Client
}

func NewPaymentService(
	purchaseRepo repository.PurchaseRepository,
	sessionRepo repository.CheckoutSessionRepository,
	cfg *config.Config,
) (PaymentService, error) {
	client, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		BaseURL:    cfg.VNPay.BaseURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
		Version:    cfg.VNPay.Version,
		Locale:     cfg.VNPay.Locale,
		CurrCode:   cfg.VNPay.CurrCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vnpay client: %w", err)
	}

	return &paymentService{
		purchaseRepo: purchaseRepo,
		sessionRepo:  sessionRepo,
		vnpayClient:  client,
	}, nil
}

// StageGatewayCheckout tags every in-cart line of the user with a checkout
// order id and opens a checkout session for it. The lines stay in the cart
// until the gateway settles; an abandoned checkout simply expires with them.
// An empty orderID gets a fresh server-generated one.
func (s *paymentService) StageGatewayCheckout(userID uint, orderID string) ([]model.Purchase, *model.CheckoutSession, error) {
	if orderID == "" {
		orderID = util.NewOrderID()
	}

	logger.Info("Staging gateway checkout", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	cart, err := s.purchaseRepo.FindByUserAndStatus(userID, model.StatusInCart)
	if err != nil {
		return nil, nil, err
	}
	if len(cart) == 0 {
		logger.Warn("Cannot stage checkout: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, nil, ErrEmptyCart
	}

	var total float64
	for _, line := range cart {
		total += line.Price * float64(line.BuyCount)
	}

	if _, err := s.purchaseRepo.StageOrder(userID, orderID, model.PayMethodVNPay); err != nil {
		return nil, nil, err
	}

	session := &model.CheckoutSession{
		OrderID: orderID,
		UserID:  userID,
		Amount:  total,
		State:   model.CheckoutCreated,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, nil, err
	}

	staged, err := s.purchaseRepo.FindByOrderID(orderID)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Gateway checkout staged", map[string]interface{}{
		"user_id":    userID,
		"order_id":   orderID,
		"line_count": len(staged),
		"amount":     total,
	})
	return staged, session, nil
}

// CreatePaymentURL builds the signed gateway redirect URL for a staged
// checkout. The charged amount comes from the checkout session, never from
// the client.
func (s *paymentService) CreatePaymentURL(userID uint, orderID, clientIP string) (string, error) {
	logger.Info("Creating payment URL", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	session, err := s.sessionRepo.FindByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}
	if session.UserID != userID {
		return "", ErrOrderNotFound
	}
	if session.State == model.CheckoutReconciled || session.State == model.CheckoutReverted {
		return "", ErrOrderSettled
	}

	paymentURL, err := s.vnpayClient.BuildPaymentURL(vnpay.PaymentRequest{
		OrderID:    orderID,
		Amount:     int64(session.Amount),
		IPAddr:     clientIP,
		CreateTime: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to build payment URL", err, map[string]interface{}{
			"order_id": orderID,
		})
		return "", err
	}

	// Re-requesting the URL while still pending is allowed
	if session.State == model.CheckoutCreated {
		if _, err := s.sessionRepo.AdvanceState(orderID, model.CheckoutCreated, model.CheckoutPaymentPending); err != nil {
			return "", err
		}
	}

	logger.Info("Payment URL created", map[string]interface{}{
		"order_id": orderID,
		"amount":   session.Amount,
	})
	return paymentURL, nil
}

// ReconcileByOrderID settles a successful payment: every line under the
// order id becomes a wait-confirmation order with payment recorded. Repeat
// calls return the already settled lines without writing; the applied flag
// reports whether this call did the settlement.
func (s *paymentService) ReconcileByOrderID(orderID string) ([]model.Purchase, bool, error) {
	logger.Info("Reconciling order", map[string]interface{}{
		"order_id": orderID,
	})

	session, err := s.sessionRepo.FindByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrOrderNotFound
		}
		return nil, false, err
	}

	applied, err := s.sessionRepo.AdvanceState(orderID, model.CheckoutPaymentPending, model.CheckoutReconciled)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		// A manually staged checkout can settle without a URL ever issued
		applied, err = s.sessionRepo.AdvanceState(orderID, model.CheckoutCreated, model.CheckoutReconciled)
		if err != nil {
			return nil, false, err
		}
	}

	if !applied {
		if session.State == model.CheckoutReverted {
			logger.Warn("Cannot reconcile order: already reverted", map[string]interface{}{
				"order_id": orderID,
			})
			return nil, false, ErrOrderSettled
		}
		// Already reconciled: observable no-op
		purchases, err := s.purchaseRepo.FindByOrderID(orderID)
		if err != nil {
			return nil, false, err
		}
		logger.Info("Order already reconciled", map[string]interface{}{
			"order_id": orderID,
		})
		return purchases, false, nil
	}

	count, err := s.purchaseRepo.MarkReconciled(orderID)
	if err != nil {
		return nil, false, err
	}

	purchases, err := s.purchaseRepo.FindByOrderID(orderID)
	if err != nil {
		return nil, false, err
	}

	logger.Info("Order reconciled", map[string]interface{}{
		"order_id":   orderID,
		"line_count": count,
	})
	return purchases, true, nil
}

// RevertByOrderID undoes a failed payment: the order id is detached and the
// lines return to plain cart lines. Repeat calls are observable no-ops.
func (s *paymentService) RevertByOrderID(orderID string) (int64, bool, error) {
	logger.Info("Reverting order", map[string]interface{}{
		"order_id": orderID,
	})

	session, err := s.sessionRepo.FindByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, ErrOrderNotFound
		}
		return 0, false, err
	}

	applied, err := s.sessionRepo.AdvanceState(orderID, model.CheckoutPaymentPending, model.CheckoutReverted)
	if err != nil {
		return 0, false, err
	}
	if !applied {
		applied, err = s.sessionRepo.AdvanceState(orderID, model.CheckoutCreated, model.CheckoutReverted)
		if err != nil {
			return 0, false, err
		}
	}

	if !applied {
		if session.State == model.CheckoutReconciled {
			logger.Warn("Cannot revert order: already reconciled", map[string]interface{}{
				"order_id": orderID,
			})
			return 0, false, ErrOrderSettled
		}
		logger.Info("Order already reverted", map[string]interface{}{
			"order_id": orderID,
		})
		return 0, false, nil
	}

	count, err := s.purchaseRepo.ClearOrderID(orderID)
	if err != nil {
		return 0, false, err
	}

	logger.Info("Order reverted", map[string]interface{}{
		"order_id":   orderID,
		"line_count": count,
	})
	return count, true, nil
}

// HandleGatewayReturn verifies the signed gateway return and settles or
// reverts the order it names. The returned data is safe to show the user
// only when err is nil.
func (s *paymentService) HandleGatewayReturn(query url.Values) (*vnpay.ReturnData, error) {
	data, err := s.vnpayClient.VerifyReturn(query)
	if err != nil {
		logger.Warn("Gateway return rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	if data.Success {
		if _, _, err := s.ReconcileByOrderID(data.OrderID); err != nil {
			return data, err
		}
		return data, nil
	}

	if _, _, err := s.RevertByOrderID(data.OrderID); err != nil {
		return data, err
	}
	return data, nil
}
