package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Username   string         `gorm:"uniqueIndex;not null" json:"username"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	Address    string         `json:"address"`
	Phone      string         `json:"phone"`
	Role       string         `gorm:"default:customer" json:"role"` // customer, seller, admin
	// No column defaults here: GORM drops zero-valued fields carrying a
	// default tag at insert, which would silently store a new seller as
	// approved.
	IsActive   bool           `json:"is_active"`
	IsApproved bool           `json:"is_approved"` // seller approval gate
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Books  []Book  `gorm:"foreignKey:SellerID" json:"books,omitempty"`
	Orders []Order `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

// IsApprovedSeller reports whether the user may access seller tooling:
// the seller role alone is not enough, an admin must have signed off.
func (u *User) IsApprovedSeller() bool {
	return u.Role == RoleSeller && u.IsApproved
}
