package repository

import (
	"testing"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCheckoutSessionTest(t *testing.T) (*gorm.DB, CheckoutSessionRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	return testDB, NewCheckoutSessionRepository(testDB)
}

func TestCheckoutSessionRepository_CreateAndFind(t *testing.T) {
	testDB, repo := setupCheckoutSessionTest(t)
	defer db.CleanupTestDB(testDB)

	session := &model.CheckoutSession{
		OrderID: "20260101120000-abcd1234",
		UserID:  1,
		Amount:  150000,
		State:   model.CheckoutCreated,
	}
	require.NoError(t, repo.Create(session))

	found, err := repo.FindByOrderID("20260101120000-abcd1234")
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutCreated, found.State)
	assert.Equal(t, float64(150000), found.Amount)

	_, err = repo.FindByOrderID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCheckoutSessionRepository_AdvanceState(t *testing.T) {
	testDB, repo := setupCheckoutSessionTest(t)
	defer db.CleanupTestDB(testDB)

	session := &model.CheckoutSession{
		OrderID: "20260101120000-abcd1234",
		UserID:  1,
		State:   model.CheckoutPaymentPending,
	}
	require.NoError(t, repo.Create(session))

	ok, err := repo.AdvanceState(session.OrderID, model.CheckoutPaymentPending, model.CheckoutReconciled)
	assert.NoError(t, err)
	assert.True(t, ok)

	// A second settlement attempt is a no-op
	ok, err = repo.AdvanceState(session.OrderID, model.CheckoutPaymentPending, model.CheckoutReconciled)
	assert.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByOrderID(session.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutReconciled, found.State)
}
