package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookbazaar-backend/models"
	"bookbazaar-backend/store"
)

// CatalogHandler serves the public browsing surface: no auth required,
// only active books are visible.
type CatalogHandler struct {
	Store store.Store
}

func pageParams(c *gin.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}

func (h *CatalogHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()

	featured, _, err := h.Store.Books().List(ctx, store.BookFilter{
		ActiveOnly: true,
		Sort:       store.SortNewest,
		Page:       1,
		Limit:      8,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	categories, err := h.Store.Categories().List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"featured_books": featured,
		"categories":     categories,
	})
}

func (h *CatalogHandler) ListBooks(c *gin.Context) {
	page, limit := pageParams(c, 12)

	filter := store.BookFilter{
		ActiveOnly: true,
		Query:      c.Query("search"),
		Sort:       c.DefaultQuery("sort", store.SortNewest),
		Page:       page,
		Limit:      limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		filter.CategoryID = &id
	}

	books, total, err := h.Store.Books().List(c.Request.Context(), filter)
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

func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	ctx := c.Request.Context()
	book, err := h.Store.Books().GetByID(ctx, id)
	if err != nil {
		notFound(c, err, "Book not found")
		return
	}
	if !book.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	related := []models.Book{}
	if book.CategoryID != nil {
		candidates, _, err := h.Store.Books().List(ctx, store.BookFilter{
			ActiveOnly: true,
			CategoryID: book.CategoryID,
			Page:       1,
			Limit:      5,
		})
		if err == nil {
			for _, b := range candidates {
				if b.ID == book.ID {
					continue
				}
				related = append(related, b)
				if len(related) == 4 {
					break
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"book":          book,
		"related_books": related,
	})
}

func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	page, limit := pageParams(c, 12)

	books, total, err := h.Store.Books().List(c.Request.Context(), store.BookFilter{
		ActiveOnly: true,
		Query:      query,
		Sort:       c.DefaultQuery("sort", store.SortNewest),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"total": total,
		"query": query,
		"page":  page,
		"limit": limit,
	})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.Store.Categories().List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
