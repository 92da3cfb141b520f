package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID                  uint           `gorm:"primarykey" json:"_id"`
	Name                string         `gorm:"not null;index" json:"name"`
	Description         string         `gorm:"type:text" json:"description"`
	CategoryID          uint           `gorm:"not null;index" json:"-"`
	Image               string         `json:"image"`
	Price               float64        `gorm:"not null" json:"price"`
	PriceBeforeDiscount float64        `json:"price_before_discount"`
	Quantity            int            `gorm:"not null;default:0" json:"quantity"`
	Sold                int            `gorm:"not null;default:0" json:"sold"`
	View                int            `gorm:"not null;default:0" json:"view"`
	Rating              float64        `gorm:"default:0" json:"rating"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

func (Product) TableName() string {
	return "products"
}
