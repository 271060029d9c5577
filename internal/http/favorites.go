package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/database/favorites"
)

type FavoritesController struct {
	repo *favorites.Repository
}

func NewFavoritesController(repo *favorites.Repository) *FavoritesController {
	return &FavoritesController{repo: repo}
}

type addFavoriteRequest struct {
	BookID uint `json:"book_id"`
}

func (controller *FavoritesController) AddFavorite(c *gin.Context) {
	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}

	fav, err := controller.repo.AddFavorite(c.Request.Context(), auth.GetUserID(c), req.BookID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, favorites.ErrAlreadyFavorite):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "add favorite")
		return
	}
	respondCreated(c, fav)
}

func (controller *FavoritesController) RemoveFavorite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}

	removed, err := controller.repo.RemoveFavorite(c.Request.Context(), auth.GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "remove favorite")
		return
	}
	if !removed {
		respondNotFound(c, "favorite")
		return
	}
	respondSuccess(c, "removed from favorites")
}

// GetFavorites lists the caller's favorite books, most recent first.
func (controller *FavoritesController) GetFavorites(c *gin.Context) {
	list, err := controller.repo.ListFavorites(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": list, "count": len(list)})
}

func (controller *FavoritesController) CheckFavorite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}

	fav, err := controller.repo.IsFavorite(c.Request.Context(), auth.GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "check favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": bookID, "is_favorited": fav})
}
