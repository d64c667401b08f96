package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is created lazily the first time a customer needs one and is never
// deleted; checkout only clears its items.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GetTotal sums quantity times the book's current price across all lines.
// Order totals are snapshotted separately at checkout; this one always
// reflects today's prices.
func (c *Cart) GetTotal() float64 {
	var total float64
	for _, item := range c.Items {
		if item.Book != nil {
			total += float64(item.Quantity) * item.Book.Price
		}
	}
	return total
}

func (c *Cart) GetItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

type CartItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CartID   uuid.UUID `gorm:"type:uuid;not null;index" json:"cart_id"`
	BookID   uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`
	Book     *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Quantity int       `gorm:"default:1" json:"quantity"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

func (ci *CartItem) GetSubtotal() float64 {
	if ci.Book == nil {
		return 0
	}
	return float64(ci.Quantity) * ci.Book.Price
}
