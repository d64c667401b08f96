package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookbazaar-backend/models"
	"bookbazaar-backend/store"
	"bookbazaar-backend/utils"
)

type SellerHandler struct {
	Store store.Store
}

type bookRequest struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	Publisher       string  `json:"publisher"`
	PublicationDate string  `json:"publication_date"`
	ISBN            string  `json:"isbn"`
	Price           float64 `json:"price"`
	StockQuantity   int     `json:"stock_quantity"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	CategoryID      string  `json:"category_id"`
}

// apply validates the request and copies it onto the book. The returned
// error list is empty when the book is ready to persist.
func (h *SellerHandler) apply(c *gin.Context, req *bookRequest, book *models.Book) []string {
	errs := utils.ValidateBook(utils.BookInput{
		Title:         req.Title,
		Author:        req.Author,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})

	ctx := c.Request.Context()

	var categoryID *uuid.UUID
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			errs = append(errs, "Invalid category.")
		} else if _, err := h.Store.Categories().GetByID(ctx, id); err != nil {
			errs = append(errs, "Invalid category.")
		} else {
			categoryID = &id
		}
	}

	var isbn *string
	if trimmed := strings.TrimSpace(req.ISBN); trimmed != "" {
		if existing, err := h.Store.Books().GetByISBN(ctx, trimmed); err == nil && existing.ID != book.ID {
			errs = append(errs, "A book with this ISBN already exists.")
		} else {
			isbn = &trimmed
		}
	}

	var pubDate *time.Time
	if req.PublicationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			errs = append(errs, "Publication date must be YYYY-MM-DD.")
		} else {
			pubDate = &parsed
		}
	}

	if len(errs) > 0 {
		return errs
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Genre = req.Genre
	book.Publisher = req.Publisher
	book.PublicationDate = pubDate
	book.ISBN = isbn
	book.Price = req.Price
	book.StockQuantity = req.StockQuantity
	book.Description = req.Description
	book.ImageURL = req.ImageURL
	book.CategoryID = categoryID
	return nil
}

func (h *SellerHandler) Dashboard(c *gin.Context) {
	sellerID := c.MustGet("user_id").(uuid.UUID)
	ctx := c.Request.Context()

	books, totalBooks, err := h.Store.Books().List(ctx, store.BookFilter{
		SellerID: &sellerID,
		Page:     1,
		Limit:    1000,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	totalStock := 0
	lowStock := 0
	for _, b := range books {
		totalStock += b.StockQuantity
		if b.IsActive && b.StockQuantity < 5 {
			lowStock++
		}
	}

	stats, err := h.Store.Orders().SellerStats(ctx, sellerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_books":     totalBooks,
		"total_stock":     totalStock,
		"low_stock_books": lowStock,
		"total_orders":    stats.TotalOrders,
		"total_sales":     stats.TotalSales,
		"units_sold":      stats.UnitsSold,
		"recent_items":    stats.RecentItems,
	})
}

func (h *SellerHandler) ListBooks(c *gin.Context) {
	sellerID := c.MustGet("user_id").(uuid.UUID)
	page, limit := pageParams(c, 10)

	books, total, err := h.Store.Books().List(c.Request.Context(), store.BookFilter{
		SellerID: &sellerID,
		Query:    c.Query("search"),
		Sort:     c.DefaultQuery("sort", store.SortNewest),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *SellerHandler) CreateBook(c *gin.Context) {
	sellerID := c.MustGet("user_id").(uuid.UUID)

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	book := models.Book{
		ID:       uuid.New(),
		SellerID: sellerID,
		IsActive: true,
	}
	if errs := h.apply(c, &req, &book); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if err := h.Store.Books().Create(c.Request.Context(), &book); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
		return
	}

	c.JSON(http.StatusCreated, book)
}

// getOwnBook loads a book and enforces that it belongs to the caller.
func (h *SellerHandler) getOwnBook(c *gin.Context) (*models.Book, bool) {
	sellerID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return nil, false
	}

	book, err := h.Store.Books().GetByID(c.Request.Context(), id)
	if err != nil {
		notFound(c, err, "Book not found")
		return nil, false
	}
	if book.SellerID != sellerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return nil, false
	}
	return book, true
}

func (h *SellerHandler) UpdateBook(c *gin.Context) {
	book, ok := h.getOwnBook(c)
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if errs := h.apply(c, &req, book); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if err := h.Store.Books().Update(c.Request.Context(), book); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *SellerHandler) DeleteBook(c *gin.Context) {
	book, ok := h.getOwnBook(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sold, err := h.Store.Books().CountOrderItems(ctx, book.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
		return
	}

	// A book that was ever sold stays on record for order history.
	if sold > 0 {
		book.IsActive = false
		if err := h.Store.Books().Update(ctx, book); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate book"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Book deactivated because it has existing orders"})
		return
	}

	if err := h.Store.Books().Delete(ctx, book.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}

func (h *SellerHandler) ListOrders(c *gin.Context) {
	sellerID := c.MustGet("user_id").(uuid.UUID)
	page, limit := pageParams(c, 10)

	orders, total, err := h.Store.Orders().ListBySeller(c.Request.Context(), sellerID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *SellerHandler) Inventory(c *gin.Context) {
	sellerID := c.MustGet("user_id").(uuid.UUID)

	// Lowest stock first so shortages surface at the top.
	books, _, err := h.Store.Books().List(c.Request.Context(), store.BookFilter{
		SellerID: &sellerID,
		Sort:     store.SortStockLow,
		Page:     1,
		Limit:    1000,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	lowStock := make([]models.Book, 0)
	for _, b := range books {
		if b.StockQuantity < 5 {
			lowStock = append(lowStock, b)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"books":     books,
		"low_stock": lowStock,
	})
}

func (h *SellerHandler) UpdateInventory(c *gin.Context) {
	book, ok := h.getOwnBook(c)
	if !ok {
		return
	}

	var req struct {
		StockQuantity *int     `json:"stock_quantity"`
		Price         *float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var errs []string
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			errs = append(errs, "Stock quantity cannot be negative.")
		} else {
			book.StockQuantity = *req.StockQuantity
		}
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			errs = append(errs, "Price must be greater than 0.")
		} else {
			book.Price = *req.Price
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if err := h.Store.Books().Update(c.Request.Context(), book); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inventory"})
		return
	}

	c.JSON(http.StatusOK, book)
}
