package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookbazaar-backend/models"
	"bookbazaar-backend/store"
	"bookbazaar-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-for-routes")
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY, "username" TEXT NOT NULL UNIQUE, "email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL, "address" TEXT, "phone" TEXT, "role" TEXT DEFAULT 'customer',
			"is_active" INTEGER DEFAULT 1, "is_approved" INTEGER DEFAULT 1,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "categories" (
			"id" TEXT PRIMARY KEY, "name" TEXT NOT NULL UNIQUE, "description" TEXT,
			"created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "books" (
			"id" TEXT PRIMARY KEY, "title" TEXT NOT NULL, "author" TEXT NOT NULL,
			"genre" TEXT, "publisher" TEXT, "publication_date" DATETIME, "isbn" TEXT UNIQUE,
			"price" REAL NOT NULL, "stock_quantity" INTEGER DEFAULT 0, "description" TEXT,
			"image_url" TEXT, "is_active" INTEGER DEFAULT 1, "category_id" TEXT,
			"seller_id" TEXT NOT NULL, "created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "carts" (
			"id" TEXT PRIMARY KEY, "user_id" TEXT NOT NULL UNIQUE,
			"created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "cart_items" (
			"id" TEXT PRIMARY KEY, "cart_id" TEXT NOT NULL, "book_id" TEXT NOT NULL,
			"quantity" INTEGER DEFAULT 1, "added_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "orders" (
			"id" TEXT PRIMARY KEY, "order_number" TEXT NOT NULL UNIQUE, "user_id" TEXT NOT NULL,
			"order_date" DATETIME, "total_price" REAL DEFAULT 0, "status" TEXT DEFAULT 'pending',
			"shipping_address" TEXT, "payment_method" TEXT DEFAULT 'cod', "notes" TEXT,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "order_items" (
			"id" TEXT PRIMARY KEY, "order_id" TEXT NOT NULL, "book_id" TEXT NOT NULL,
			"quantity" INTEGER NOT NULL, "price" REAL NOT NULL
		)`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := setupTestDB(t)
	r := gin.New()
	SetupRoutes(r, store.NewSQL(db), nil)
	return r, db
}

func TestPublicCatalogRoutes(t *testing.T) {
	r, _ := setupRouter(t)
	for _, path := range []string{"/api/", "/api/books", "/api/search", "/api/categories"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/cart", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRouteBlocksNonAdmin(t *testing.T) {
	r, _ := setupRouter(t)
	token, _ := utils.GenerateToken(uuid.New(), "reader", "customer")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSellerRouteBlocksNonSeller(t *testing.T) {
	r, _ := setupRouter(t)
	token, _ := utils.GenerateToken(uuid.New(), "reader", "customer")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/seller/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSellerRouteBlocksPendingSeller(t *testing.T) {
	r, db := setupRouter(t)

	pending := models.User{
		ID:         uuid.New(),
		Username:   "newseller",
		Email:      "newseller@test.com",
		Password:   "irrelevant",
		Role:       models.RoleSeller,
		IsActive:   true,
		IsApproved: false,
		CreatedAt:  time.Now(),
	}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatal(err)
	}
	token, _ := utils.GenerateToken(pending.ID, pending.Username, pending.Role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/seller/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCustomerRouteAdmitsAdmin(t *testing.T) {
	r, db := setupRouter(t)

	admin := models.User{
		ID:        uuid.New(),
		Username:  "root",
		Email:     "root@test.com",
		Password:  "irrelevant",
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}
	token, _ := utils.GenerateToken(admin.ID, admin.Username, admin.Role)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
