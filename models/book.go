package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Book struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string         `gorm:"not null" json:"title"`
	Author          string         `gorm:"not null" json:"author"`
	Genre           string         `json:"genre"`
	Publisher       string         `json:"publisher"`
	PublicationDate *time.Time     `json:"publication_date,omitempty"`
	ISBN            *string        `gorm:"uniqueIndex" json:"isbn,omitempty"`
	Price           float64        `gorm:"not null" json:"price"`
	StockQuantity   int            `gorm:"default:0" json:"stock_quantity"`
	Description     string         `json:"description"`
	ImageURL        string         `json:"image_url"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CategoryID      *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category        *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SellerID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller          User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Book) IsInStock() bool {
	return b.StockQuantity > 0
}

// ReduceStock decrements the stock by quantity and reports whether the
// decrement happened. Stock never goes below zero.
func (b *Book) ReduceStock(quantity int) bool {
	if b.StockQuantity >= quantity {
		b.StockQuantity -= quantity
		return true
	}
	return false
}
