package model

import (
	"time"

	"gorm.io/gorm"
)

type Rating struct {
	ID        uint           `gorm:"primarykey" json:"_id"`
	UserID    uint           `gorm:"not null;index" json:"-"`
	ProductID uint           `gorm:"not null;index" json:"-"`
	Star      int            `gorm:"not null" json:"star"`
	Comment   string         `gorm:"type:text" json:"comment"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Rating) TableName() string {
	return "ratings"
}
