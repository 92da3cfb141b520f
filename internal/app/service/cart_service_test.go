package service

import (
	"testing"
	"time"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	purchaseRepo := repository.NewPurchaseRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
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

	return cartService, user, product, testDB
}

func TestCartService_AddToCart(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	line, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.BuyCount)
	assert.Equal(t, model.StatusInCart, line.Status)
	assert.Equal(t, product.Price, line.Price)
	assert.Equal(t, product.PriceBeforeDiscount, line.PriceBeforeDiscount)
	require.NotNil(t, line.ExpireAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *line.ExpireAt, time.Minute)
}

func TestCartService_AddToCart_Accumulates(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	first, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	second, err := cartService.AddToCart(user.ID, product.ID, 3)
	require.NoError(t, err)

	// Same line, accumulated quantity
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.BuyCount)

	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}

func TestCartService_AddToCart_InsufficientStock(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Accumulation above stock is rejected, the line keeps its old quantity
	line, err := cartService.AddToCart(user.ID, product.ID, 6)
	require.NoError(t, err)

	_, err = cartService.AddToCart(user.ID, product.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, line.BuyCount, cart[0].BuyCount)
}

func TestCartService_AddToCart_ProductNotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddToCart_InvalidBuyCount(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidBuyCount)

	_, err = cartService.AddToCart(user.ID, product.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidBuyCount)
}

func TestCartService_UpdateCartLine(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	line, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	updated, err := cartService.UpdateCartLine(user.ID, line.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.BuyCount)

	_, err = cartService.UpdateCartLine(user.ID, line.ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = cartService.UpdateCartLine(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestCartService_UpdateCartLine_OtherUsersLine(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	line, err := cartService.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash"}
	testDB.Create(other)

	_, err = cartService.UpdateCartLine(other.ID, line.ID, 3)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestCartService_RemoveCartLines(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	category := &model.Category{Name: "Laptops"}
	testDB.Create(category)
	second := &model.Product{Name: "Test Laptop", CategoryID: category.ID, Price: 300000, Quantity: 5}
	testDB.Create(second)

	lineA, err := cartService.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	lineB, err := cartService.AddToCart(user.ID, second.ID, 1)
	require.NoError(t, err)

	count, err := cartService.RemoveCartLines(user.ID, []uint{lineA.ID, lineB.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCartService_StaleLineRejectedAtCheckout(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	// The line was within stock when it entered the cart
	line, err := cartService.AddToCart(user.ID, product.ID, 6)
	require.NoError(t, err)

	// Stock drops while the line sits in the cart, e.g. a racing add or an
	// admin correction; the cart itself is not revalidated
	require.NoError(t, testDB.Model(&model.Product{}).
		Where("id = ?", product.ID).
		Update("quantity", 4).Error)

	// Checkout revalidates against live stock and rejects the stale line
	purchaseRepo := repository.NewPurchaseRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderService := NewOrderService(purchaseRepo, productRepo, testDB)

	_, err = orderService.BuyProducts(user.ID, []BuyItem{
		{ProductID: product.ID, BuyCount: line.BuyCount},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// The line stays in the cart, untouched
	cart, err := cartService.GetPurchases(user.ID, model.StatusInCart)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, model.StatusInCart, cart[0].Status)
	assert.Equal(t, 6, cart[0].BuyCount)
}

func TestCartService_GetPurchases_InvalidStatus(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	_, err := cartService.GetPurchases(user.ID, model.PurchaseStatus(42))
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)
}
