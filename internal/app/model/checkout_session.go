package model

import (
	"time"

	"gorm.io/gorm"
)

// CheckoutState tracks one checkout action (one orderId) through payment.
type CheckoutState string

const (
	CheckoutCreated        CheckoutState = "created"
	CheckoutPaymentPending CheckoutState = "payment_pending"
	CheckoutReconciled     CheckoutState = "reconciled"
	CheckoutReverted       CheckoutState = "reverted"
)

// CheckoutSession is the explicit record behind the orderId grouping token.
// Every gateway checkout creates one; the reconciliation handler uses its
// state to make repeated gateway callbacks observable no-ops.
type CheckoutSession struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	OrderID   string         `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Amount    float64        `json:"amount"`
	State     CheckoutState  `gorm:"type:varchar(20);default:'created'" json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}
