package model

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseStatus is the lifecycle position of a purchase line. The integer
// values are a wire contract with the storefront client and must not change.
type PurchaseStatus int

const (
	StatusInCart           PurchaseStatus = -1
	StatusAll              PurchaseStatus = 0 // filter sentinel, never stored
	StatusWaitConfirmation PurchaseStatus = 1
	StatusWaitGetting      PurchaseStatus = 2
	StatusInProgress       PurchaseStatus = 3
	StatusDelivered        PurchaseStatus = 4
	StatusCancelled        PurchaseStatus = 5
)

// Terminal reports whether no further transition is allowed from s
func (s PurchaseStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is a storable status value
func (s PurchaseStatus) Valid() bool {
	switch s {
	case StatusInCart, StatusWaitConfirmation, StatusWaitGetting,
		StatusInProgress, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PayMethod int

const (
	PayMethodCash  PayMethod = 0
	PayMethodVNPay PayMethod = 1
)

type PaymentStatus int

const (
	PaymentUnpaid PaymentStatus = 0
	PaymentPaid   PaymentStatus = 1
)

// Purchase is a single product line, either still in the user's cart
// (status -1, carrying an expiry) or part of a placed order. Price and
// PriceBeforeDiscount are snapshots taken when the line is created; once a
// line leaves the cart they never track the catalog again.
type Purchase struct {
	ID                  uint           `gorm:"primarykey" json:"_id"`
	UserID              uint           `gorm:"not null;index" json:"-"`
	ProductID           uint           `gorm:"not null;index" json:"-"`
	BuyCount            int            `gorm:"not null" json:"buy_count"`
	Price               float64        `gorm:"not null" json:"price"`
	PriceBeforeDiscount float64        `json:"price_before_discount"`
	Status              PurchaseStatus `gorm:"not null;index" json:"status"`
	OrderID             string         `gorm:"index" json:"orderId,omitempty"`
	PayMethod           PayMethod      `json:"payMethod"`
	PaymentStatus       PaymentStatus  `gorm:"default:0" json:"paymentStatus"`
	ExpireAt            *time.Time     `gorm:"index" json:"expireAt,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (Purchase) TableName() string {
	return "purchases"
}
