package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/shopvn/shopvn-backend/pkg/payment/vnpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testHashSecret = "TESTSECRET123456"

func paymentTestConfig() *config.Config {
	return &config.Config{
		VNPay: config.VNPayConfig{
			TmnCode:    "TESTCODE",
			HashSecret: testHashSecret,
			BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:  "http://localhost:4000/api/purchases/vnpay-return",
		},
	}
}

func setupPaymentServiceTest(t *testing.T) (PaymentService, CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	purchaseRepo := repository.NewPurchaseRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	sessionRepo := repository.NewCheckoutSessionRepository(testDB)

	paymentService, err := NewPaymentService(purchaseRepo, sessionRepo, paymentTestConfig())
	require.NoError(t, err)
	cartService := NewCartService(purchaseRepo, productRepo)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	category := &model.Category{Name: "Phones"}
	testDB.Create(category)

	product := &model.Product{
		Name:       "Test Phone",
		CategoryID: category.ID,
		Price:      150000,
		Quantity:   10,
	}
	testDB.Create(product)

	return paymentService, cartService, user, product, testDB
}

func stageCheckout(t *testing.T, paymentService PaymentService, cartService CartService, user *model.User, product *model.Product, buyCount int) string {
	t.Helper()
	_, err := cartService.AddToCart(user.ID, product.ID, buyCount)
	require.NoError(t, err)
	staged, session, err := paymentService.StageGatewayCheckout(user.ID, "")
	require.NoError(t, err)
	require.NotEmpty(t, staged)
	return session.OrderID
}

func TestPaymentService_StageGatewayCheckout(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	staged, session, err := paymentService.StageGatewayCheckout(user.ID, "")
	require.NoError(t, err)
	require.Len(t, staged, 1)

	// Lines stay in the cart, tagged with the order id
	assert.Equal(t, model.StatusInCart, staged[0].Status)
	assert.Equal(t, session.OrderID, staged[0].OrderID)
	assert.Equal(t, model.PayMethodVNPay, staged[0].PayMethod)

	// The session carries the server-side total
	assert.Equal(t, float64(300000), session.Amount)
	assert.Equal(t, model.CheckoutCreated, session.State)
}

func TestPaymentService_StageGatewayCheckout_EmptyCart(t *testing.T) {
	paymentService, _, user, _, _ := setupPaymentServiceTest(t)

	_, _, err := paymentService.StageGatewayCheckout(user.ID, "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPaymentService_CreatePaymentURL(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)

	paymentURL, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)
	assert.Contains(t, paymentURL, "vnp_SecureHash=")
	// 300000 VND, times 100 per the gateway protocol
	assert.Contains(t, paymentURL, "vnp_Amount=30000000")
	assert.Contains(t, paymentURL, "vnp_TxnRef="+orderID)

	// The URL is requestable again while pending
	_, err = paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	assert.NoError(t, err)
}

func TestPaymentService_CreatePaymentURL_WrongUser(t *testing.T) {
	paymentService, cartService, user, product, testDB := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 1)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash"}
	testDB.Create(other)

	_, err := paymentService.CreatePaymentURL(other.ID, orderID, "127.0.0.1")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = paymentService.CreatePaymentURL(user.ID, "missing-order", "127.0.0.1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_ReconcileByOrderID(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)
	_, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)

	purchases, applied, err := paymentService.ReconcileByOrderID(orderID)
	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, purchases, 1)
	assert.Equal(t, model.StatusWaitConfirmation, purchases[0].Status)
	assert.Equal(t, model.PaymentPaid, purchases[0].PaymentStatus)
	assert.Nil(t, purchases[0].ExpireAt)
	// The order id stays attached after settlement
	assert.Equal(t, orderID, purchases[0].OrderID)

	// A second settlement is an observable no-op
	again, applied, err := paymentService.ReconcileByOrderID(orderID)
	require.NoError(t, err)
	assert.False(t, applied)
	require.Len(t, again, 1)
	assert.Equal(t, model.StatusWaitConfirmation, again[0].Status)
}

func TestPaymentService_ReconcileByOrderID_WithoutURL(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	// Manual settlement directly after staging
	orderID := stageCheckout(t, paymentService, cartService, user, product, 1)

	_, applied, err := paymentService.ReconcileByOrderID(orderID)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestPaymentService_ReconcileByOrderID_NotFound(t *testing.T) {
	paymentService, _, _, _, _ := setupPaymentServiceTest(t)

	_, _, err := paymentService.ReconcileByOrderID("missing-order")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_RevertByOrderID(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)
	_, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)

	count, applied, err := paymentService.RevertByOrderID(orderID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(1), count)

	// The line is a plain cart line again
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Empty(t, cart[0].OrderID)
	assert.Equal(t, model.StatusInCart, cart[0].Status)

	// Repeat revert is an observable no-op
	count, applied, err = paymentService.RevertByOrderID(orderID)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Zero(t, count)
}

func TestPaymentService_SettledOrdersRejectTheOtherOutcome(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	reconciled := stageCheckout(t, paymentService, cartService, user, product, 1)
	_, _, err := paymentService.ReconcileByOrderID(reconciled)
	require.NoError(t, err)

	_, _, err = paymentService.RevertByOrderID(reconciled)
	assert.ErrorIs(t, err, ErrOrderSettled)

	reverted := stageCheckout(t, paymentService, cartService, user, product, 1)
	_, _, err = paymentService.RevertByOrderID(reverted)
	require.NoError(t, err)

	_, _, err = paymentService.ReconcileByOrderID(reverted)
	assert.ErrorIs(t, err, ErrOrderSettled)
}

// signedReturnQuery builds a gateway return query signed the way VNPay signs
// its redirects.
func signedReturnQuery(orderID, responseCode string) url.Values {
	query := url.Values{}
	query.Set("vnp_TxnRef", orderID)
	query.Set("vnp_ResponseCode", responseCode)
	query.Set("vnp_TmnCode", "TESTCODE")
	query.Set("vnp_Amount", "30000000")

	mac := hmac.New(sha512.New, []byte(testHashSecret))
	mac.Write([]byte(query.Encode()))
	query.Set("vnp_SecureHash", hex.EncodeToString(mac.Sum(nil)))
	return query
}

func TestPaymentService_HandleGatewayReturn_Success(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)
	_, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)

	data, err := paymentService.HandleGatewayReturn(signedReturnQuery(orderID, "00"))
	require.NoError(t, err)
	assert.True(t, data.Success)
	assert.Equal(t, orderID, data.OrderID)

	orders, err := cartService.GetPurchases(user.ID, model.StatusWaitConfirmation)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestPaymentService_HandleGatewayReturn_Failure(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)
	_, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)

	data, err := paymentService.HandleGatewayReturn(signedReturnQuery(orderID, "24"))
	require.NoError(t, err)
	assert.False(t, data.Success)

	// Back in the cart without an order id
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Empty(t, cart[0].OrderID)
}

func TestPaymentService_HandleGatewayReturn_TamperedSignature(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 2)
	_, err := paymentService.CreatePaymentURL(user.ID, orderID, "127.0.0.1")
	require.NoError(t, err)

	query := signedReturnQuery(orderID, "00")
	query.Set("vnp_Amount", "1")

	_, err = paymentService.HandleGatewayReturn(query)
	assert.ErrorIs(t, err, vnpay.ErrSignatureMismatch)

	// A rejected return must not settle anything
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, orderID, cart[0].OrderID)
}

func TestPaymentService_HandleGatewayReturn_MissingSignature(t *testing.T) {
	paymentService, _, _, _, _ := setupPaymentServiceTest(t)

	query := url.Values{}
	query.Set("vnp_TxnRef", "some-order")
	query.Set("vnp_ResponseCode", "00")

	_, err := paymentService.HandleGatewayReturn(query)
	assert.ErrorIs(t, err, vnpay.ErrMissingSignature)
}

func TestPaymentService_OrderIDFormat(t *testing.T) {
	paymentService, cartService, user, product, _ := setupPaymentServiceTest(t)

	orderID := stageCheckout(t, paymentService, cartService, user, product, 1)
	parts := strings.SplitN(orderID, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 14)
	assert.Len(t, parts[1], 8)
}
