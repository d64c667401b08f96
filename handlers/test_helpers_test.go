package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookbazaar-backend/models"
	"bookbazaar-backend/store"
	"bookbazaar-backend/utils"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	// Limit to 1 open connection to prevent SQLite concurrent access issues
	// with in-memory databases.
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	// Create tables using raw SQLite-compatible SQL instead of AutoMigrate,
	// because the GORM model tags use PostgreSQL-specific defaults like gen_random_uuid().
	if err := createSQLiteTables(testDB); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	code := m.Run()
	os.Exit(code)
}

func createSQLiteTables(db *gorm.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY,
			"username" TEXT NOT NULL UNIQUE,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"address" TEXT,
			"phone" TEXT,
			"role" TEXT DEFAULT 'customer',
			"is_active" INTEGER DEFAULT 1,
			"is_approved" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON "users"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "categories" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL UNIQUE,
			"description" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS "books" (
			"id" TEXT PRIMARY KEY,
			"title" TEXT NOT NULL,
			"author" TEXT NOT NULL,
			"genre" TEXT,
			"publisher" TEXT,
			"publication_date" DATETIME,
			"isbn" TEXT UNIQUE,
			"price" REAL NOT NULL,
			"stock_quantity" INTEGER DEFAULT 0,
			"description" TEXT,
			"image_url" TEXT,
			"is_active" INTEGER DEFAULT 1,
			"category_id" TEXT,
			"seller_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_books_category FOREIGN KEY ("category_id") REFERENCES "categories"("id"),
			CONSTRAINT fk_books_seller FOREIGN KEY ("seller_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_books_deleted_at ON "books"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "carts" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL UNIQUE,
			"created_at" DATETIME,
			"updated_at" DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS "cart_items" (
			"id" TEXT PRIMARY KEY,
			"cart_id" TEXT NOT NULL,
			"book_id" TEXT NOT NULL,
			"quantity" INTEGER DEFAULT 1,
			"added_at" DATETIME,
			CONSTRAINT fk_cart_items_cart FOREIGN KEY ("cart_id") REFERENCES "carts"("id"),
			CONSTRAINT fk_cart_items_book FOREIGN KEY ("book_id") REFERENCES "books"("id")
		)`,

		`CREATE TABLE IF NOT EXISTS "orders" (
			"id" TEXT PRIMARY KEY,
			"order_number" TEXT NOT NULL UNIQUE,
			"user_id" TEXT NOT NULL,
			"order_date" DATETIME,
			"total_price" REAL DEFAULT 0,
			"status" TEXT DEFAULT 'pending',
			"shipping_address" TEXT,
			"payment_method" TEXT DEFAULT 'cod',
			"notes" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_orders_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_deleted_at ON "orders"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "order_items" (
			"id" TEXT PRIMARY KEY,
			"order_id" TEXT NOT NULL,
			"book_id" TEXT NOT NULL,
			"quantity" INTEGER NOT NULL,
			"price" REAL NOT NULL,
			CONSTRAINT fk_order_items_order FOREIGN KEY ("order_id") REFERENCES "orders"("id"),
			CONSTRAINT fk_order_items_book FOREIGN KEY ("book_id") REFERENCES "books"("id")
		)`,
	}

	for _, ddl := range tables {
		if err := db.Exec(ddl).Error; err != nil {
			return err
		}
	}
	return nil
}

// freshStore returns a clean store for each test by deleting all rows.
func freshStore() store.Store {
	testDB.Exec("DELETE FROM order_items")
	testDB.Exec("DELETE FROM orders")
	testDB.Exec("DELETE FROM cart_items")
	testDB.Exec("DELETE FROM carts")
	testDB.Exec("DELETE FROM books")
	testDB.Exec("DELETE FROM categories")
	testDB.Exec("DELETE FROM users")
	return store.NewSQL(testDB)
}

// testPassword is the plaintext behind every seeded account.
const testPassword = "password123"

func seedUser(t *testing.T, role string, approved bool) *models.User {
	t.Helper()
	hashed, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	user := &models.User{
		ID:         uuid.New(),
		Username:   "user-" + uuid.NewString()[:8],
		Email:      uuid.NewString()[:8] + "@example.com",
		Password:   string(hashed),
		Role:       role,
		IsActive:   true,
		IsApproved: approved,
		Address:    "1 Test Lane",
	}
	if err := testDB.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: name}
	if err := testDB.Create(category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return category
}

func seedBook(t *testing.T, seller *models.User, title string, price float64, stock int) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:            uuid.New(),
		Title:         title,
		Author:        "Test Author",
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
		SellerID:      seller.ID,
	}
	if err := testDB.Create(book).Error; err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
	return book
}

func seedCartItem(t *testing.T, s store.Store, user *models.User, book *models.Book, qty int) {
	t.Helper()
	cart, err := s.Carts().GetOrCreate(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("failed to get cart: %v", err)
	}
	if err := s.Carts().AddItem(context.Background(), cart.ID, book.ID, qty); err != nil {
		t.Fatalf("failed to add cart item: %v", err)
	}
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// jsonRequest performs a request with an optional JSON body and bearer token.
func jsonRequest(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return resp
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
