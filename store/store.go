package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookbazaar-backend/models"
)

// ErrNotFound is returned when a record does not exist in the backing store.
var ErrNotFound = errors.New("record not found")

// InsufficientStockError is returned by PlaceOrder when a cart line asks for
// more copies than the book has left.
type InsufficientStockError struct {
	BookTitle string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (available: %d)", e.BookTitle, e.Available)
}

// Book list sort orders.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortTitle     = "title"
	SortStockLow  = "stock_low"
)

// BookFilter narrows and pages a book listing. Zero values mean "no filter".
type BookFilter struct {
	ActiveOnly bool
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Query      string
	Sort       string
	Page       int
	Limit      int
}

// UserFilter narrows and pages the admin user listing. Query matches
// username or email as a case-insensitive substring.
type UserFilter struct {
	Role  string
	Query string
	Page  int
	Limit int
}

// OrderFilter narrows and pages the admin order listing.
type OrderFilter struct {
	Status string
	Page   int
	Limit  int
}

// Store bundles the per-entity repositories. Handlers depend on this
// interface only; the backend is chosen once at startup.
type Store interface {
	Users() UserStore
	Categories() CategoryStore
	Books() BookStore
	Carts() CartStore
	Orders() OrderStore
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	ListPendingSellers(ctx context.Context) ([]models.User, error)
	ListRecent(ctx context.Context, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	CountPendingSellers(ctx context.Context) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Category, error)
	CountBooks(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	// Delete removes the book row entirely. Books already referenced by
	// order items are deactivated instead; the handler decides which.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f BookFilter) ([]models.Book, int64, error)
	Count(ctx context.Context) (int64, error)
	CountOrderItems(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type CartStore interface {
	// GetOrCreate returns the user's cart with items and their books
	// loaded, creating an empty cart on first use.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// AddItem adds a line to the cart, merging quantities when the book
	// is already present.
	AddItem(ctx context.Context, cartID, bookID uuid.UUID, quantity int) error
	// UpdateItemQuantity sets a line's quantity. A quantity of zero or
	// less removes the line.
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type OrderStore interface {
	// PlaceOrder turns the cart into an order: it checks and decrements
	// stock for every line, snapshots unit prices, and empties the cart.
	// On the relational backend this is a single transaction.
	PlaceOrder(ctx context.Context, user *models.User, cart *models.Cart, shippingAddress, paymentMethod, notes string) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	// ListBySeller returns orders containing at least one of the
	// seller's books, with items narrowed to that seller.
	ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	SellerStats(ctx context.Context, sellerID uuid.UUID) (*SellerStats, error)
}

// SellerStats summarizes a seller's sales for the dashboard.
type SellerStats struct {
	TotalOrders int64              `json:"total_orders"`
	TotalSales  float64            `json:"total_sales"`
	UnitsSold   int64              `json:"units_sold"`
	RecentItems []models.OrderItem `json:"recent_items"`
}

// pageBounds converts 1-based page/limit into slice bounds over n items.
func pageBounds(n, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}

// normalizePage clamps page/limit for SQL offset queries.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	return page, limit
}
