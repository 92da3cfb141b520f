package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/service"
	apperrors "github.com/shopvn/shopvn-backend/internal/errors"
	"github.com/shopvn/shopvn-backend/internal/middleware"
	"github.com/shopvn/shopvn-backend/pkg/payment/vnpay"
)

type PurchaseController struct {
	cartService    service.CartService
	orderService   service.OrderService
	paymentService service.PaymentService
}

func NewPurchaseController(
	cartService service.CartService,
	orderService service.OrderService,
	paymentService service.PaymentService,
) *PurchaseController {
	return &PurchaseController{
		cartService:    cartService,
		orderService:   orderService,
		paymentService: paymentService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	BuyCount  int  `json:"buy_count" binding:"required,gt=0"`
}

type UpdatePurchaseRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	BuyCount  int  `json:"buy_count" binding:"required,gt=0"`
}

type OrderIDRequest struct {
	OrderID string `json:"orderId"`
}

type CreatePaymentURLRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// AddToCart adds a product to the user's cart
// POST /api/purchases/add-to-cart
func (ctrl *PurchaseController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	purchase, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.BuyCount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.NotAcceptable(c, apperrors.ProductInsufficientStock, "Requested quantity exceeds available stock")
		case errors.Is(err, service.ErrInvalidBuyCount):
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Buy count must be positive")
		default:
			log.Error("Failed to add to cart", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product added to cart",
		"data":    purchase,
	})
}

// UpdatePurchase changes the quantity of a cart line
// PUT /api/purchases/update-purchase
func (ctrl *PurchaseController) UpdatePurchase(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	purchase, err := ctrl.cartService.UpdateCartLineByProduct(userID, req.ProductID, req.BuyCount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPurchaseNotFound):
			apperrors.NotFound(c, apperrors.PurchaseNotFound, "Purchase not found")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.NotAcceptable(c, apperrors.ProductInsufficientStock, "Requested quantity exceeds available stock")
		case errors.Is(err, service.ErrInvalidBuyCount):
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Buy count must be positive")
		default:
			log.Error("Failed to update purchase", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase updated",
		"data":    purchase,
	})
}

// DeletePurchases removes cart lines
// DELETE /api/purchases
// Body: array of purchase ids
func (ctrl *PurchaseController) DeletePurchases(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var ids []uint
	if err := c.ShouldBindJSON(&ids); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	count, err := ctrl.cartService.RemoveCartLines(userID, ids)
	if err != nil {
		log.Error("Failed to delete purchases", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchases deleted",
		"data": gin.H{
			"deleted_count": count,
		},
	})
}

// BuyProducts places an order, converting cart lines or buying directly
// POST /api/purchases/buy-products
// Body: array of {product_id, buy_count, orderId, payMethod, status}
func (ctrl *PurchaseController) BuyProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var items []service.BuyItem
	if err := c.ShouldBindJSON(&items); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	placed, err := ctrl.orderService.BuyProducts(userID, items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Order has no items")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidPayMethod):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid pay method")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.BadRequest(c, apperrors.PurchaseInvalidStatus, "Invalid status for order placement")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.NotAcceptable(c, apperrors.ProductInsufficientStock, "Requested quantity exceeds available stock")
		default:
			log.Error("Failed to buy products", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed",
		"data":    placed,
	})
}

// GetPurchases lists purchases filtered by status
// GET /api/purchases?status=N
func (ctrl *PurchaseController) GetPurchases(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	statusParam := c.DefaultQuery("status", "0")
	statusValue, err := strconv.Atoi(statusParam)
	if err != nil {
		apperrors.BadRequest(c, apperrors.PurchaseInvalidStatus, "Invalid status value")
		return
	}

	purchases, err := ctrl.cartService.GetPurchases(userID, model.PurchaseStatus(statusValue))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatusFilter) {
			apperrors.BadRequest(c, apperrors.PurchaseInvalidStatus, "Invalid status value")
			return
		}
		log.Error("Failed to fetch purchases", err, map[string]interface{}{
			"user_id": userID,
			"status":  statusValue,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchases fetched",
		"data":    purchases,
	})
}

// UpdateCartByVNPay stages the cart for a gateway checkout
// PUT /api/purchases/update-by-vnpay
func (ctrl *PurchaseController) UpdateCartByVNPay(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	staged, session, err := ctrl.paymentService.StageGatewayCheckout(userID, req.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Cart is empty")
			return
		}
		log.Error("Failed to stage gateway checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout staged",
		"data": gin.H{
			"orderId":   session.OrderID,
			"amount":    session.Amount,
			"purchases": staged,
		},
	})
}

// CreatePaymentURL builds the signed gateway redirect URL
// POST /api/purchases/create-payment-url
func (ctrl *PurchaseController) CreatePaymentURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	paymentURL, err := ctrl.paymentService.CreatePaymentURL(userID, req.OrderID, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.PurchaseOrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderSettled):
			apperrors.BadRequest(c, apperrors.PurchaseAlreadyReconciled, "Order already settled")
		default:
			log.Error("Failed to create payment URL", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.PaymentURLFailed, "Failed to create payment URL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment URL created",
		"data": gin.H{
			"vnPayURL": paymentURL,
		},
	})
}

// UpdateByOrderID settles a successful payment
// PUT /api/purchases/update-by-orderId
func (ctrl *PurchaseController) UpdateByOrderID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	purchases, applied, err := ctrl.paymentService.ReconcileByOrderID(req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.PurchaseOrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderSettled):
			apperrors.BadRequest(c, apperrors.PurchaseAlreadyReconciled, "Order already settled")
		default:
			log.Error("Failed to reconcile order", err, map[string]interface{}{
				"order_id": req.OrderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	message := "Order reconciled"
	if !applied {
		message = "Order was already reconciled"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    purchases,
	})
}

// RemoveFieldByOrderID reverts a failed payment
// PUT /api/purchases/remove-field-by-orderId
func (ctrl *PurchaseController) RemoveFieldByOrderID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	count, _, err := ctrl.paymentService.RevertByOrderID(req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.PurchaseOrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderSettled):
			apperrors.BadRequest(c, apperrors.PurchaseAlreadyReconciled, "Order already settled")
		default:
			log.Error("Failed to revert order", err, map[string]interface{}{
				"order_id": req.OrderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order reverted",
		"data": gin.H{
			"reverted_count": count,
		},
	})
}

// VNPayReturn handles the signed gateway redirect
// GET /api/purchases/vnpay-return
func (ctrl *PurchaseController) VNPayReturn(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	data, err := ctrl.paymentService.HandleGatewayReturn(c.Request.URL.Query())
	if err != nil {
		switch {
		case errors.Is(err, vnpay.ErrMissingSignature), errors.Is(err, vnpay.ErrSignatureMismatch):
			log.Warn("Gateway return with bad signature", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.PaymentSignatureInvalid, "Invalid payment signature")
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.PurchaseOrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderSettled):
			apperrors.BadRequest(c, apperrors.PurchaseAlreadyReconciled, "Order already settled")
		default:
			log.Error("Failed to handle gateway return", err)
			apperrors.InternalError(c, "")
		}
		return
	}

	message := "Payment successful"
	if !data.Success {
		message = "Payment failed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"orderId":      data.OrderID,
			"responseCode": data.ResponseCode,
			"success":      data.Success,
		},
	})
}
