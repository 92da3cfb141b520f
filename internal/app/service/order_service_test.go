package service

import (
	"testing"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (OrderService, CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	purchaseRepo := repository.NewPurchaseRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderService := NewOrderService(purchaseRepo, productRepo, testDB)
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
		Name:                "Test Phone",
		CategoryID:          category.ID,
		Price:               150000,
		PriceBeforeDiscount: 180000,
		Quantity:            10,
	}
	testDB.Create(product)

	return orderService, cartService, user, product, testDB
}

func TestOrderService_BuyProducts_Success(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	placed, err := orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 3},
	})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, model.StatusWaitConfirmation, placed[0].Status)
	assert.Equal(t, 3, placed[0].BuyCount)
	assert.Nil(t, placed[0].ExpireAt)
	assert.Equal(t, model.PaymentUnpaid, placed[0].PaymentStatus)

	// Cart is empty afterwards
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestOrderService_BuyProducts_EmptyRequest(t *testing.T) {
	orderService, _, user, _, _ := setupOrderServiceTest(t)

	_, err := orderService.BuyProducts(user.ID, nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestOrderService_BuyProducts_DirectBuyCreatesLine(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	// Buying from the product page skips the cart entirely
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 2},
	})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, model.StatusWaitConfirmation, placed[0].Status)
	assert.Equal(t, 2, placed[0].BuyCount)
	assert.Nil(t, placed[0].ExpireAt)

	// The current catalog price is snapshotted onto the new line
	assert.Equal(t, product.Price, placed[0].Price)
	assert.Equal(t, product.PriceBeforeDiscount, placed[0].PriceBeforeDiscount)

	// No cart line appears as a side effect
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestOrderService_BuyProducts_DirectBuyAboveStock(t *testing.T) {
	orderService, _, user, product, _ := setupOrderServiceTest(t)

	_, err := orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 99},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestOrderService_BuyProducts_StampsCheckoutFields(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	entry := model.StatusWaitConfirmation
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{
		{
			ProductID: product.ID,
			BuyCount:  2,
			OrderID:   "20260101120000-abcd1234",
			PayMethod: model.PayMethodVNPay,
			Status:    &entry,
		},
	})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, "20260101120000-abcd1234", placed[0].OrderID)
	assert.Equal(t, model.PayMethodVNPay, placed[0].PayMethod)
	assert.Equal(t, model.StatusWaitConfirmation, placed[0].Status)
}

func TestOrderService_BuyProducts_RejectsBadCheckoutFields(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	// Only the order entry state may be requested
	delivered := model.StatusDelivered
	_, err = orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 1, Status: &delivered},
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 1, PayMethod: model.PayMethod(7)},
	})
	assert.ErrorIs(t, err, ErrInvalidPayMethod)

	// The cart line is untouched by the rejected requests
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, model.StatusInCart, cart[0].Status)
}

func TestOrderService_BuyProducts_AtomicRejection(t *testing.T) {
	orderService, cartService, user, product, testDB := setupOrderServiceTest(t)

	category := &model.Category{Name: "Laptops"}
	testDB.Create(category)
	scarce := &model.Product{Name: "Scarce Laptop", CategoryID: category.ID, Price: 300000, Quantity: 1}
	testDB.Create(scarce)

	_, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = cartService.AddToCart(user.ID, scarce.ID, 1)
	require.NoError(t, err)

	// Second line exceeds stock: the whole batch must be rejected
	_, err = orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: 2},
		{ProductID: scarce.ID, BuyCount: 5},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing left the cart
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	assert.Len(t, cart, 2)
	for _, line := range cart {
		assert.Equal(t, model.StatusInCart, line.Status)
	}
}

func TestOrderService_AdvanceStatus_ForwardOnly(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 2}})
	require.NoError(t, err)
	id := placed[0].ID

	updated, err := orderService.AdvanceStatus(id, model.StatusWaitGetting)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitGetting, updated.Status)

	// Backward move is rejected
	_, err = orderService.AdvanceStatus(id, model.StatusWaitConfirmation)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Skipping forward is allowed
	updated, err = orderService.AdvanceStatus(id, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, updated.Status)
}

func TestOrderService_AdvanceStatus_DeliveredDecrementsStock(t *testing.T) {
	orderService, cartService, user, product, testDB := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 4)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 4}})
	require.NoError(t, err)

	delivered, err := orderService.AdvanceStatus(placed[0].ID, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, delivered.Status)
	// Cash settles at handover
	assert.Equal(t, model.PaymentPaid, delivered.PaymentStatus)

	var fresh model.Product
	require.NoError(t, testDB.First(&fresh, product.ID).Error)
	assert.Equal(t, 6, fresh.Quantity)
	assert.Equal(t, 4, fresh.Sold)
}

func TestOrderService_AdvanceStatus_DeliveredStockExceeded(t *testing.T) {
	orderService, cartService, user, product, testDB := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 8)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 8}})
	require.NoError(t, err)

	// Stock drained after the order was placed
	require.NoError(t, testDB.Model(&model.Product{}).
		Where("id = ?", product.ID).
		Update("quantity", 3).Error)

	_, err = orderService.AdvanceStatus(placed[0].ID, model.StatusDelivered)
	assert.ErrorIs(t, err, ErrStockExceeded)

	// The purchase stays where it was, stock untouched
	unchanged, err := orderService.GetPurchase(placed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitConfirmation, unchanged.Status)

	var fresh model.Product
	require.NoError(t, testDB.First(&fresh, product.ID).Error)
	assert.Equal(t, 3, fresh.Quantity)
	assert.Equal(t, 0, fresh.Sold)
}

func TestOrderService_AdvanceStatus_CancelFromAnyActive(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 1}})
	require.NoError(t, err)
	id := placed[0].ID

	_, err = orderService.AdvanceStatus(id, model.StatusInProgress)
	require.NoError(t, err)

	cancelled, err := orderService.AdvanceStatus(id, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// Terminal states accept no further transitions
	_, err = orderService.AdvanceStatus(id, model.StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = orderService.AdvanceStatus(id, model.StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_AdvanceStatus_CartLineRejected(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	line, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	_, err = orderService.AdvanceStatus(line.ID, model.StatusWaitGetting)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_AdvanceStatus_InvalidTarget(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 1}})
	require.NoError(t, err)

	_, err = orderService.AdvanceStatus(placed[0].ID, model.StatusInCart)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = orderService.AdvanceStatus(placed[0].ID, model.PurchaseStatus(42))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_DeletePurchase(t *testing.T) {
	orderService, cartService, user, product, _ := setupOrderServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	placed, err := orderService.BuyProducts(user.ID, []BuyItem{{ProductID: product.ID, BuyCount: 1}})
	require.NoError(t, err)

	require.NoError(t, orderService.DeletePurchase(placed[0].ID))

	_, err = orderService.GetPurchase(placed[0].ID)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)

	err = orderService.DeletePurchase(9999)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}
