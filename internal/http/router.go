package http

import (
	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/database/books"
	"github.com/datptitudu2/backendthuvienptit/internal/database/favorites"
	"github.com/datptitudu2/backendthuvienptit/internal/database/loans"
	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/database/penalties"
	"github.com/datptitudu2/backendthuvienptit/internal/database/reviews"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestMetaMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.EnableHSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	loanRepo := loans.NewRepository(cfg.DB)
	bookRepo := books.NewRepository(cfg.DB)

	var cacheProbe Pinger
	if cfg.Cache != nil {
		cacheProbe = cfg.Cache
	}
	var jobs JobLister
	if cfg.Scheduler != nil {
		jobs = cfg.Scheduler
	}

	health := NewHealthController(cfg.Health, cacheProbe, cfg.Version)
	authController := NewAuthController(cfg.AuthService, cfg.Activity)
	booksController := NewBooksController(bookRepo, cfg.Cache, cfg.Notifier, cfg.Activity)
	borrowsController := NewBorrowsController(cfg.Engine, loanRepo)
	notificationsController := NewNotificationsController(notifications.NewRepository(cfg.DB), cfg.Notifier)
	penaltiesController := NewPenaltiesController(penalties.NewRepository(cfg.DB), loanRepo)
	activitiesController := NewActivitiesController(cfg.Activity)
	sweepsController := NewSweepsController(cfg.Sweeps, jobs)
	reviewsController := NewReviewsController(reviews.NewRepository(cfg.DB), bookRepo)
	favoritesController := NewFavoritesController(favorites.NewRepository(cfg.DB))

	requireAuth := cfg.AuthMiddleware.Handler()
	requireAdmin := cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/api/test", health.Ping)

	api := router.Group("/api")

	// Auth endpoints
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)

	// Catalog endpoints
	api.GET("/books", booksController.GetAllBooks)
	api.GET("/books/search", booksController.SearchBooks)
	api.GET("/books/category/:category", booksController.GetBooksByCategory)
	api.GET("/books/:id", booksController.GetBook)
	api.POST("/books", requireAuth, requireAdmin, booksController.CreateBook)
	api.PUT("/books/:id", requireAuth, requireAdmin, booksController.UpdateBook)
	api.DELETE("/books/:id", requireAuth, requireAdmin, booksController.DeleteBook)

	// Review endpoints; listing a book's reviews is public
	api.GET("/reviews/book/:book_id", reviewsController.GetBookReviews)
	rev := api.Group("/reviews", requireAuth)
	rev.POST("/book/:book_id", reviewsController.CreateReview)
	rev.GET("/my-reviews", reviewsController.GetMyReviews)
	rev.PUT("/:id", reviewsController.UpdateReview)
	rev.DELETE("/:id", reviewsController.DeleteReview)

	// Favorite endpoints
	favs := api.Group("/favorites", requireAuth)
	favs.GET("", favoritesController.GetFavorites)
	favs.POST("", favoritesController.AddFavorite)
	favs.GET("/check/:book_id", favoritesController.CheckFavorite)
	favs.DELETE("/:book_id", favoritesController.RemoveFavorite)

	// Borrow endpoints
	borrows := api.Group("/borrows", requireAuth)
	borrows.POST("", borrowsController.CreateBorrow)
	borrows.POST("/return/:borrow_id", borrowsController.ReturnBook)
	borrows.GET("/my-borrows", borrowsController.GetMyBorrows)
	borrows.GET("/all", requireAdmin, borrowsController.GetAllBorrows)

	// Notification endpoints
	notes := api.Group("/notifications", requireAuth)
	notes.GET("/user", notificationsController.GetUserNotifications)
	notes.PUT("/:notificationId/read", notificationsController.MarkAsRead)
	notesAdmin := notes.Group("/admin", requireAdmin)
	notesAdmin.GET("", notificationsController.ListNotifications)
	notesAdmin.POST("", notificationsController.CreateNotifications)
	notesAdmin.DELETE("/:id", notificationsController.DeleteNotification)
	notesAdmin.POST("/delete-bulk", notificationsController.DeleteNotifications)

	// Penalty endpoints
	fines := api.Group("/penalties", requireAuth)
	fines.GET("", penaltiesController.GetMyPenalties)
	fines.POST("", requireAdmin, penaltiesController.CreatePenalty)
	fines.GET("/all", requireAdmin, penaltiesController.GetAllPenalties)
	fines.PUT("/:id/status", requireAdmin, penaltiesController.UpdatePenaltyStatus)

	// Activity trail
	api.GET("/activities", requireAuth, activitiesController.GetMyActivities)

	// Sweep administration
	sweeps := api.Group("/admin/sweeps", requireAuth, requireAdmin)
	sweeps.GET("", sweepsController.ListSweeps)
	sweeps.POST("/:name/run", sweepsController.RunSweep)

	return router
}
