package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookbazaar-backend/models"
)

// KVPrefixes names the key namespaces for each entity collection.
type KVPrefixes struct {
	Users      string
	Books      string
	Categories string
	Carts      string
	Orders     string
}

// KVStore implements Store on Redis used as a document store: each entity
// is one JSON document at `<prefix>:<id>`. Listings SCAN the prefix,
// MGET the documents and filter in memory, so this backend fits small to
// medium catalogs only.
type KVStore struct {
	rdb *redis.Client
	p   KVPrefixes

	users      *kvUserStore
	categories *kvCategoryStore
	books      *kvBookStore
	carts      *kvCartStore
	orders     *kvOrderStore
}

func NewKV(rdb *redis.Client, p KVPrefixes) *KVStore {
	s := &KVStore{rdb: rdb, p: p}
	s.users = &kvUserStore{s: s}
	s.categories = &kvCategoryStore{s: s}
	s.books = &kvBookStore{s: s}
	s.carts = &kvCartStore{s: s}
	s.orders = &kvOrderStore{s: s}
	return s
}

func (s *KVStore) Users() UserStore          { return s.users }
func (s *KVStore) Categories() CategoryStore { return s.categories }
func (s *KVStore) Books() BookStore          { return s.books }
func (s *KVStore) Carts() CartStore          { return s.carts }
func (s *KVStore) Orders() OrderStore        { return s.orders }

func (s *KVStore) key(prefix string, id uuid.UUID) string {
	return prefix + ":" + id.String()
}

func (s *KVStore) getDoc(ctx context.Context, prefix string, id uuid.UUID, out any) error {
	raw, err := s.rdb.Get(ctx, s.key(prefix, id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *KVStore) putDoc(ctx context.Context, prefix string, id uuid.UUID, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(prefix, id), raw, 0).Err()
}

func (s *KVStore) deleteDoc(ctx context.Context, prefix string, id uuid.UUID) error {
	n, err := s.rdb.Del(ctx, s.key(prefix, id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanDocs walks every key under prefix and returns the raw documents.
func (s *KVStore) scanDocs(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			docs = append(docs, []byte(str))
		}
	}
	return docs, nil
}

// --- users ---

// userDoc carries the password hash, which the model hides from JSON.
type userDoc struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func encodeUser(u *models.User) userDoc {
	return userDoc{User: *u, PasswordHash: u.Password}
}

func (d userDoc) decode() *models.User {
	u := d.User
	u.Password = d.PasswordHash
	return &u
}

type kvUserStore struct {
	s *KVStore
}

func (s *kvUserStore) all(ctx context.Context) ([]models.User, error) {
	docs, err := s.s.scanDocs(ctx, s.s.p.Users)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, raw := range docs {
		var d userDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		users = append(users, *d.decode())
	}
	return users, nil
}

func (s *kvUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	return s.s.putDoc(ctx, s.s.p.Users, user.ID, encodeUser(user))
}

func (s *kvUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var d userDoc
	if err := s.s.getDoc(ctx, s.s.p.Users, id, &d); err != nil {
		return nil, err
	}
	return d.decode(), nil
}

func (s *kvUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *kvUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *kvUserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	return s.s.putDoc(ctx, s.s.p.Users, user.ID, encodeUser(user))
}

func (s *kvUserStore) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	users = filterUsers(users, f)
	sortUsersNewest(users)
	total := int64(len(users))
	start, end := pageBounds(len(users), f.Page, f.Limit)
	return users[start:end], total, nil
}

func (s *kvUserStore) ListPendingSellers(ctx context.Context) ([]models.User, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]models.User, 0)
	for _, u := range users {
		if u.Role == models.RoleSeller && !u.IsApproved {
			pending = append(pending, u)
		}
	}
	sortUsersNewest(pending)
	return pending, nil
}

func (s *kvUserStore) ListRecent(ctx context.Context, limit int) ([]models.User, error) {
	users, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sortUsersNewest(users)
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *kvUserStore) Count(ctx context.Context) (int64, error) {
	users, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (s *kvUserStore) CountByRole(ctx context.Context, role string) (int64, error) {
	users, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(filterUsers(users, UserFilter{Role: role}))), nil
}

func (s *kvUserStore) CountPendingSellers(ctx context.Context) (int64, error) {
	pending, err := s.ListPendingSellers(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(pending)), nil
}

// --- categories ---

type kvCategoryStore struct {
	s *KVStore
}

func (s *kvCategoryStore) all(ctx context.Context) ([]models.Category, error) {
	docs, err := s.s.scanDocs(ctx, s.s.p.Categories)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(docs))
	for _, raw := range docs {
		var c models.Category
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *kvCategoryStore) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	return s.s.putDoc(ctx, s.s.p.Categories, category.ID, category)
}

func (s *kvCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := s.s.getDoc(ctx, s.s.p.Categories, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *kvCategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	categories, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *kvCategoryStore) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	return s.s.putDoc(ctx, s.s.p.Categories, category.ID, category)
}

func (s *kvCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.s.deleteDoc(ctx, s.s.p.Categories, id)
}

func (s *kvCategoryStore) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sortCategoriesByName(categories)
	return categories, nil
}

func (s *kvCategoryStore) CountBooks(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	books, err := s.s.books.all(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, b := range books {
		if b.CategoryID != nil && *b.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// --- books ---

type kvBookStore struct {
	s *KVStore
}

func (s *kvBookStore) all(ctx context.Context) ([]models.Book, error) {
	docs, err := s.s.scanDocs(ctx, s.s.p.Books)
	if err != nil {
		return nil, err
	}
	books := make([]models.Book, 0, len(docs))
	for _, raw := range docs {
		var b models.Book
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// hydrate attaches the category document so listings render names.
func (s *kvBookStore) hydrate(ctx context.Context, book *models.Book) {
	if book.CategoryID != nil && book.Category == nil {
		if c, err := s.s.categories.GetByID(ctx, *book.CategoryID); err == nil {
			book.Category = c
		}
	}
}

func (s *kvBookStore) Create(ctx context.Context, book *models.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	return s.s.putDoc(ctx, s.s.p.Books, book.ID, book)
}

func (s *kvBookStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var b models.Book
	if err := s.s.getDoc(ctx, s.s.p.Books, id, &b); err != nil {
		return nil, err
	}
	s.hydrate(ctx, &b)
	return &b, nil
}

func (s *kvBookStore) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	books, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ISBN != nil && *books[i].ISBN == isbn {
			return &books[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *kvBookStore) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	// Relations are hydrated on read, never persisted.
	stored := *book
	stored.Category = nil
	return s.s.putDoc(ctx, s.s.p.Books, book.ID, &stored)
}

func (s *kvBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.s.deleteDoc(ctx, s.s.p.Books, id)
}

func (s *kvBookStore) List(ctx context.Context, f BookFilter) ([]models.Book, int64, error) {
	books, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	books = filterBooks(books, f)
	sortBooks(books, f.Sort)
	total := int64(len(books))
	start, end := pageBounds(len(books), f.Page, f.Limit)
	page := books[start:end]
	for i := range page {
		s.hydrate(ctx, &page[i])
	}
	return page, total, nil
}

func (s *kvBookStore) Count(ctx context.Context) (int64, error) {
	books, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(books)), nil
}

func (s *kvBookStore) CountOrderItems(ctx context.Context, bookID uuid.UUID) (int64, error) {
	orders, err := s.s.orders.all(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, o := range orders {
		for _, item := range o.Items {
			if item.BookID == bookID {
				n++
			}
		}
	}
	return n, nil
}

// --- carts ---

// In this backend the cart document is keyed by the user ID and cart
// lines have no identity of their own, so the book ID doubles as the
// line ID in the API.
type cartDoc struct {
	UserID uuid.UUID `json:"user_id"`
	Items  []cartLine `json:"items"`
}

type cartLine struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

type kvCartStore struct {
	s *KVStore
}

func (s *kvCartStore) load(ctx context.Context, userID uuid.UUID) (*cartDoc, error) {
	var doc cartDoc
	err := s.s.getDoc(ctx, s.s.p.Carts, userID, &doc)
	if err == ErrNotFound {
		doc = cartDoc{UserID: userID, Items: []cartLine{}}
		if err := s.s.putDoc(ctx, s.s.p.Carts, userID, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *kvCartStore) save(ctx context.Context, doc *cartDoc) error {
	return s.s.putDoc(ctx, s.s.p.Carts, doc.UserID, doc)
}

func (s *kvCartStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &models.Cart{ID: userID, UserID: userID}
	for _, line := range doc.Items {
		item := models.CartItem{
			ID:       line.BookID,
			CartID:   userID,
			BookID:   line.BookID,
			Quantity: line.Quantity,
			AddedAt:  line.AddedAt,
		}
		if book, err := s.s.books.GetByID(ctx, line.BookID); err == nil {
			item.Book = book
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (s *kvCartStore) AddItem(ctx context.Context, cartID, bookID uuid.UUID, quantity int) error {
	doc, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].BookID == bookID {
			doc.Items[i].Quantity += quantity
			return s.save(ctx, doc)
		}
	}
	doc.Items = append(doc.Items, cartLine{BookID: bookID, Quantity: quantity, AddedAt: time.Now().UTC()})
	return s.save(ctx, doc)
}

func (s *kvCartStore) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	doc, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].BookID == itemID {
			if quantity <= 0 {
				doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			} else {
				doc.Items[i].Quantity = quantity
			}
			return s.save(ctx, doc)
		}
	}
	return ErrNotFound
}

func (s *kvCartStore) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	doc, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].BookID == itemID {
			doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			return s.save(ctx, doc)
		}
	}
	return ErrNotFound
}

func (s *kvCartStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	doc, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	doc.Items = []cartLine{}
	return s.save(ctx, doc)
}

// --- orders ---

type kvOrderStore struct {
	s *KVStore
}

func (s *kvOrderStore) all(ctx context.Context) ([]models.Order, error) {
	docs, err := s.s.scanDocs(ctx, s.s.p.Orders)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(docs))
	for _, raw := range docs {
		var o models.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *kvOrderStore) hydrate(ctx context.Context, order *models.Order) {
	for i := range order.Items {
		if order.Items[i].Book == nil {
			if book, err := s.s.books.GetByID(ctx, order.Items[i].BookID); err == nil {
				order.Items[i].Book = book
			}
		}
	}
	if order.User.ID == uuid.Nil {
		if user, err := s.s.users.GetByID(ctx, order.UserID); err == nil {
			order.User = *user
		}
	}
}

// PlaceOrder has no transaction on this backend: each book document is
// checked and written in turn. A crash mid-checkout can leave stock
// decremented without an order document.
func (s *kvOrderStore) PlaceOrder(ctx context.Context, user *models.User, cart *models.Cart, shippingAddress, paymentMethod, notes string) (*models.Order, error) {
	now := time.Now().UTC()
	order := models.Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("BB-%d", now.Unix()),
		UserID:          user.ID,
		OrderDate:       now,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var total float64
	for _, line := range cart.Items {
		book, err := s.s.books.GetByID(ctx, line.BookID)
		if err != nil {
			return nil, err
		}
		if book.StockQuantity < line.Quantity {
			return nil, &InsufficientStockError{BookTitle: book.Title, Available: book.StockQuantity}
		}
		book.StockQuantity -= line.Quantity
		if err := s.s.books.Update(ctx, book); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:       uuid.New(),
			OrderID:  order.ID,
			BookID:   book.ID,
			Quantity: line.Quantity,
			Price:    book.Price,
		})
		total += float64(line.Quantity) * book.Price
	}
	order.TotalPrice = total

	stored := order
	for i := range stored.Items {
		stored.Items[i].Book = nil
	}
	if err := s.s.putDoc(ctx, s.s.p.Orders, order.ID, &stored); err != nil {
		return nil, err
	}

	if err := s.s.carts.Clear(ctx, cart.ID); err != nil {
		return nil, err
	}

	s.hydrate(ctx, &order)
	return &order, nil
}

func (s *kvOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := s.s.getDoc(ctx, s.s.p.Orders, id, &o); err != nil {
		return nil, err
	}
	s.hydrate(ctx, &o)
	return &o, nil
}

func (s *kvOrderStore) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	mine := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	sortOrdersNewest(mine)
	total := int64(len(mine))
	start, end := pageBounds(len(mine), page, limit)
	out := mine[start:end]
	for i := range out {
		s.hydrate(ctx, &out[i])
	}
	return out, total, nil
}

func (s *kvOrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	orders = filterOrdersByStatus(orders, f.Status)
	sortOrdersNewest(orders)
	total := int64(len(orders))
	start, end := pageBounds(len(orders), f.Page, f.Limit)
	out := orders[start:end]
	for i := range out {
		s.hydrate(ctx, &out[i])
	}
	return out, total, nil
}

func (s *kvOrderStore) ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]models.Order, 0)
	for _, o := range orders {
		s.hydrate(ctx, &o)
		kept := make([]models.OrderItem, 0, len(o.Items))
		for _, item := range o.Items {
			if item.Book != nil && item.Book.SellerID == sellerID {
				kept = append(kept, item)
			}
		}
		if len(kept) > 0 {
			o.Items = kept
			matched = append(matched, o)
		}
	}
	sortOrdersNewest(matched)
	total := int64(len(matched))
	start, end := pageBounds(len(matched), page, limit)
	return matched[start:end], total, nil
}

func (s *kvOrderStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var o models.Order
	if err := s.s.getDoc(ctx, s.s.p.Orders, id, &o); err != nil {
		return nil, err
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if err := s.s.putDoc(ctx, s.s.p.Orders, id, &o); err != nil {
		return nil, err
	}
	s.hydrate(ctx, &o)
	return &o, nil
}

func (s *kvOrderStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sortOrdersNewest(orders)
	if len(orders) > limit {
		orders = orders[:limit]
	}
	for i := range orders {
		s.hydrate(ctx, &orders[i])
	}
	return orders, nil
}

func (s *kvOrderStore) Count(ctx context.Context) (int64, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(orders)), nil
}

func (s *kvOrderStore) Revenue(ctx context.Context) (float64, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	var revenue float64
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusConfirmed, models.OrderStatusShipped, models.OrderStatusDelivered:
			revenue += o.TotalPrice
		}
	}
	return revenue, nil
}

func (s *kvOrderStore) SellerStats(ctx context.Context, sellerID uuid.UUID) (*SellerStats, error) {
	orders, _, err := s.ListBySeller(ctx, sellerID, 1, 1000000)
	if err != nil {
		return nil, err
	}
	stats := &SellerStats{TotalOrders: int64(len(orders))}
	for _, o := range orders {
		for _, item := range o.Items {
			stats.TotalSales += item.Price * float64(item.Quantity)
			stats.UnitsSold += int64(item.Quantity)
			if len(stats.RecentItems) < 10 {
				stats.RecentItems = append(stats.RecentItems, item)
			}
		}
	}
	return stats, nil
}
