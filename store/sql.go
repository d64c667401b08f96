package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookbazaar-backend/models"
)

// SQLStore implements Store on a relational database through GORM.
type SQLStore struct {
	db *gorm.DB

	users      *sqlUserStore
	categories *sqlCategoryStore
	books      *sqlBookStore
	carts      *sqlCartStore
	orders     *sqlOrderStore
}

func NewSQL(db *gorm.DB) *SQLStore {
	s := &SQLStore{db: db}
	s.users = &sqlUserStore{db: db}
	s.categories = &sqlCategoryStore{db: db}
	s.books = &sqlBookStore{db: db}
	s.carts = &sqlCartStore{db: db}
	s.orders = &sqlOrderStore{db: db}
	return s
}

func (s *SQLStore) Users() UserStore           { return s.users }
func (s *SQLStore) Categories() CategoryStore  { return s.categories }
func (s *SQLStore) Books() BookStore           { return s.books }
func (s *SQLStore) Carts() CartStore           { return s.carts }
func (s *SQLStore) Orders() OrderStore         { return s.orders }

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users ---

type sqlUserStore struct {
	db *gorm.DB
}

func (s *sqlUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *sqlUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *sqlUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *sqlUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *sqlUserStore) Update(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *sqlUserStore) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		query = query.Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var users []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *sqlUserStore) ListPendingSellers(ctx context.Context) ([]models.User, error) {
	var sellers []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_approved = ?", models.RoleSeller, false).
		Order("created_at ASC").
		Find(&sellers).Error
	return sellers, err
}

func (s *sqlUserStore) ListRecent(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

func (s *sqlUserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (s *sqlUserStore) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (s *sqlUserStore) CountPendingSellers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_approved = ?", models.RoleSeller, false).
		Count(&n).Error
	return n, err
}

// --- categories ---

type sqlCategoryStore struct {
	db *gorm.DB
}

func (s *sqlCategoryStore) Create(ctx context.Context, category *models.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *sqlCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translateErr(err)
	}
	return &category, nil
}

func (s *sqlCategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error; err != nil {
		return nil, translateErr(err)
	}
	return &category, nil
}

func (s *sqlCategoryStore) Update(ctx context.Context, category *models.Category) error {
	return s.db.WithContext(ctx).Save(category).Error
}

func (s *sqlCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlCategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *sqlCategoryStore) CountBooks(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Book{}).
		Where("category_id = ?", categoryID).
		Count(&n).Error
	return n, err
}

// --- books ---

type sqlBookStore struct {
	db *gorm.DB
}

func (s *sqlBookStore) Create(ctx context.Context, book *models.Book) error {
	return s.db.WithContext(ctx).Create(book).Error
}

func (s *sqlBookStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).
		Preload("Category").Preload("Seller").
		Where("id = ?", id).First(&book).Error; err != nil {
		return nil, translateErr(err)
	}
	return &book, nil
}

func (s *sqlBookStore) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, translateErr(err)
	}
	return &book, nil
}

func (s *sqlBookStore) Update(ctx context.Context, book *models.Book) error {
	return s.db.WithContext(ctx).Save(book).Error
}

func (s *sqlBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlBookStore) List(ctx context.Context, f BookFilter) ([]models.Book, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Book{})
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.SellerID != nil {
		query = query.Where("seller_id = ?", *f.SellerID)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(genre) LIKE LOWER(?) OR isbn LIKE ?",
			like, like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case SortPriceLow:
		query = query.Order("price ASC")
	case SortPriceHigh:
		query = query.Order("price DESC")
	case SortTitle:
		query = query.Order("title ASC")
	case SortStockLow:
		query = query.Order("stock_quantity ASC")
	default:
		query = query.Order("created_at DESC")
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var books []models.Book
	if err := query.Preload("Category").Preload("Seller").
		Offset((page - 1) * limit).Limit(limit).
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (s *sqlBookStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Book{}).Count(&n).Error
	return n, err
}

func (s *sqlBookStore) CountOrderItems(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("book_id = ?", bookID).
		Count(&n).Error
	return n, err
}

// --- carts ---

type sqlCartStore struct {
	db *gorm.DB
}

func (s *sqlCartStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items.Book").Preload("Items.Book.Category").
		Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{ID: uuid.New(), UserID: userID}
		if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *sqlCartStore) AddItem(ctx context.Context, cartID, bookID uuid.UUID, quantity int) error {
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		First(&item).Error
	if err == nil {
		item.Quantity += quantity
		return s.db.WithContext(ctx).Save(&item).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	item = models.CartItem{
		ID:       uuid.New(),
		CartID:   cartID,
		BookID:   bookID,
		Quantity: quantity,
	}
	return s.db.WithContext(ctx).Create(&item).Error
}

func (s *sqlCartStore) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	var item models.CartItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error; err != nil {
		return translateErr(err)
	}
	if quantity <= 0 {
		return s.db.WithContext(ctx).Delete(&item).Error
	}
	item.Quantity = quantity
	return s.db.WithContext(ctx).Save(&item).Error
}

func (s *sqlCartStore) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlCartStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// --- orders ---

type sqlOrderStore struct {
	db *gorm.DB
}

func (s *sqlOrderStore) PlaceOrder(ctx context.Context, user *models.User, cart *models.Cart, shippingAddress, paymentMethod, notes string) (*models.Order, error) {
	order := models.Order{
		ID:              uuid.New(),
		UserID:          user.ID,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Notes:           notes,
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var total float64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		// Lock the book row so concurrent checkouts cannot oversell.
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", line.BookID).
			First(&book).Error; err != nil {
			tx.Rollback()
			return nil, translateErr(err)
		}
		if book.StockQuantity < line.Quantity {
			tx.Rollback()
			return nil, &InsufficientStockError{BookTitle: book.Title, Available: book.StockQuantity}
		}
		book.StockQuantity -= line.Quantity
		if err := tx.Save(&book).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		items = append(items, models.OrderItem{
			ID:       uuid.New(),
			BookID:   book.ID,
			Quantity: line.Quantity,
			Price:    book.Price,
		})
		total += float64(line.Quantity) * book.Price
	}

	order.TotalPrice = total
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Omit("Book", "Order").CreateInBatches(&items, 100).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetByID(ctx, order.ID)
}

func (s *sqlOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Book").Preload("User").
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (s *sqlOrderStore) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	var orders []models.Order
	if err := query.Preload("Items").Preload("Items.Book").
		Order("order_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *sqlOrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var orders []models.Order
	if err := query.Preload("Items").Preload("Items.Book").Preload("User").
		Order("order_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *sqlOrderStore) ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	sub := s.db.Model(&models.OrderItem{}).
		Select("DISTINCT order_items.order_id").
		Joins("JOIN books ON books.id = order_items.book_id").
		Where("books.seller_id = ?", sellerID)

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("id IN (?)", sub)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	var orders []models.Order
	if err := query.Preload("Items").Preload("Items.Book").Preload("User").
		Order("order_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	// Keep only the seller's own lines in each order.
	for i := range orders {
		kept := orders[i].Items[:0]
		for _, item := range orders[i].Items {
			if item.Book != nil && item.Book.SellerID == sellerID {
				kept = append(kept, item)
			}
		}
		orders[i].Items = kept
	}
	return orders, total, nil
}

func (s *sqlOrderStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateErr(err)
	}
	order.Status = status
	if err := s.db.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *sqlOrderStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("User").
		Order("order_date DESC").Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (s *sqlOrderStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (s *sqlOrderStore) Revenue(ctx context.Context) (float64, error) {
	var revenue float64
	// Only paid-and-progressing orders count toward revenue; pending
	// orders have not been confirmed yet.
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{
			models.OrderStatusConfirmed,
			models.OrderStatusShipped,
			models.OrderStatusDelivered,
		}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error
	return revenue, err
}

func (s *sqlOrderStore) SellerStats(ctx context.Context, sellerID uuid.UUID) (*SellerStats, error) {
	stats := &SellerStats{}

	row := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN books ON books.id = order_items.book_id").
		Where("books.seller_id = ?", sellerID).
		Select("COUNT(DISTINCT order_items.order_id), COALESCE(SUM(order_items.price * order_items.quantity), 0), COALESCE(SUM(order_items.quantity), 0)").
		Row()
	if err := row.Scan(&stats.TotalOrders, &stats.TotalSales, &stats.UnitsSold); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN books ON books.id = order_items.book_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("books.seller_id = ?", sellerID).
		Preload("Book").
		Order("orders.order_date DESC").
		Limit(10).
		Find(&stats.RecentItems).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
