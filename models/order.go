package models

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatuses is the full status set accepted by the admin
// status-update endpoint.
var ValidOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func IsValidOrderStatus(s OrderStatus) bool {
	for _, v := range ValidOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderDate       time.Time      `gorm:"autoCreateTime" json:"order_date"`
	TotalPrice      float64        `gorm:"default:0" json:"total_price"`
	Status          OrderStatus    `gorm:"default:pending" json:"status"`
	ShippingAddress string         `json:"shipping_address"`
	PaymentMethod   string         `gorm:"default:cod" json:"payment_method"` // cod, card, upi
	Notes           string         `json:"notes"`
	Items           []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = GenerateOrderNumber()
	}
	return nil
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber produces the relational-backend order number format:
// ORD-<UTC timestamp>-<4 random uppercase alphanumerics>. The key-value
// backend uses its own BB-<epoch> format; the two are intentionally left
// divergent.
func GenerateOrderNumber() string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.Intn(len(orderNumberCharset))]
	}
	return "ORD-" + time.Now().UTC().Format("20060102150405") + "-" + string(suffix)
}

// CalculateTotal recomputes TotalPrice from the snapshotted line prices.
func (o *Order) CalculateTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.GetSubtotal()
	}
	o.TotalPrice = total
	return total
}

type OrderItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	BookID   uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`
	Book     *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Quantity int       `gorm:"default:1" json:"quantity"`
	Price    float64   `gorm:"not null" json:"price"` // snapshot of Book.Price at purchase time
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

func (oi *OrderItem) GetSubtotal() float64 {
	return float64(oi.Quantity) * oi.Price
}
