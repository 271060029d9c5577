package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/cache"
	"github.com/datptitudu2/backendthuvienptit/internal/database/books"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
)

type BooksController struct {
	books    *books.Repository
	cache    *cache.CatalogCache
	notifier *notify.Service
	activity *activity.Service
}

func NewBooksController(repo *books.Repository, catalog *cache.CatalogCache, notifier *notify.Service, activity *activity.Service) *BooksController {
	return &BooksController{
		books:    repo,
		cache:    catalog,
		notifier: notifier,
		activity: activity,
	}
}

type createBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Category    string `json:"category"`
	Publisher   string `json:"publisher"`
	PublishYear int    `json:"publish_year"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// updateBookRequest leaves absent fields unchanged.
type updateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	Category    *string `json:"category"`
	Publisher   *string `json:"publisher"`
	PublishYear *int    `json:"publish_year"`
	Description *string `json:"description"`
	Quantity    *int    `json:"quantity"`
}

// GetAllBooks serves the catalog, from the cache when it holds a listing.
// Cache errors only cost a database round trip.
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	ctx := c.Request.Context()

	if controller.cache != nil {
		cached, ok, err := controller.cache.GetBooks(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("catalog cache read failed")
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, gin.H{"books": cached, "count": len(cached)})
			return
		}
	}

	list, err := controller.books.GetAllBooks(ctx)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	if controller.cache != nil {
		if err := controller.cache.SetBooks(ctx, list); err != nil {
			log.Warn().Err(err).Msg("catalog cache write failed")
		}
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.books.GetBookByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook adds a title with every copy on the shelf and announces it to
// all users.
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}
	if req.Quantity < 0 {
		respondBadRequest(c, "quantity must not be negative")
		return
	}

	ctx := c.Request.Context()
	book := &entities.Book{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        strings.TrimSpace(req.ISBN),
		Category:    strings.TrimSpace(req.Category),
		Publisher:   strings.TrimSpace(req.Publisher),
		PublishYear: req.PublishYear,
		Description: req.Description,
		Quantity:    req.Quantity,
	}
	err := controller.books.CreateBook(ctx, book)
	if errors.Is(err, books.ErrDuplicateISBN) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	controller.invalidateCatalog(c)
	if controller.notifier != nil {
		if _, err := controller.notifier.NotifyAll(ctx, entities.NotificationNewBook,
			"New book in the library",
			fmt.Sprintf("New arrival: %q by %s is now available", book.Title, book.Author)); err != nil {
			log.Error().Err(err).Uint("book_id", book.ID).Msg("new book notification failed")
		}
	}
	controller.logActivity(c, entities.ActivityCreateBook, "Added book: "+book.Title, book.ID)

	respondCreated(c, book)
}

// UpdateBook edits a title. A new quantity keeps the copies on loan, so the
// shelf count moves by the same amount.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if (req.Title != nil && strings.TrimSpace(*req.Title) == "") ||
		(req.Author != nil && strings.TrimSpace(*req.Author) == "") {
		respondBadRequest(c, "title and author must not be empty")
		return
	}

	book, err := controller.books.UpdateBook(c.Request.Context(), id, books.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Category:    req.Category,
		Publisher:   req.Publisher,
		PublishYear: req.PublishYear,
		Description: req.Description,
		Quantity:    req.Quantity,
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, books.ErrInvalidQuantity), errors.Is(err, books.ErrDuplicateISBN):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, books.ErrQuantityBelowLoaned):
		respondError(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "update book")
		return
	}

	controller.invalidateCatalog(c)
	controller.logActivity(c, entities.ActivityUpdateBook, "Updated book: "+book.Title, book.ID)
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a title that has no copies on loan.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.books.DeleteBook(c.Request.Context(), id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, books.ErrBookOnLoan):
		respondError(c, http.StatusConflict, "cannot delete a book that is currently borrowed")
		return
	case err != nil:
		respondInternalError(c, err, "delete book")
		return
	}

	controller.invalidateCatalog(c)
	controller.logActivity(c, entities.ActivityDeleteBook, fmt.Sprintf("Deleted book #%d", id), id)
	respondSuccess(c, "book deleted")
}

// SearchBooks matches ?keyword= against title, author and ISBN.
func (controller *BooksController) SearchBooks(c *gin.Context) {
	limit := books.DefaultSearchLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}

	list, err := controller.books.SearchBooks(c.Request.Context(), c.Query("keyword"), limit)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) GetBooksByCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))
	if category == "" {
		respondBadRequest(c, "invalid category")
		return
	}

	list, err := controller.books.GetBooksByCategory(c.Request.Context(), category)
	if err != nil {
		respondInternalError(c, err, "list books by category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// invalidateCatalog drops the cached listing after a write. A failure only
// leaves a stale listing until the TTL runs out.
func (controller *BooksController) invalidateCatalog(c *gin.Context) {
	if controller.cache == nil {
		return
	}
	if err := controller.cache.InvalidateCatalog(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func (controller *BooksController) logActivity(c *gin.Context, action, description string, bookID uint) {
	if controller.activity == nil {
		return
	}
	if err := controller.activity.LogEntity(c.Request.Context(), auth.GetUserID(c), action,
		description, "book", bookID); err != nil {
		log.Error().Err(err).Msg("activity log failed")
	}
}
