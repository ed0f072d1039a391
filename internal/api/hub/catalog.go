package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/arcade-hub/internal/catalog"
)

// ListGames returns the catalog, filtered by search query or category.
// GET /api/v1/games?q=dino&category=arcade.
func (h *Handler) ListGames(c *gin.Context) {
	query := c.Query("q")
	category := c.Query("category")

	var games []catalog.Game
	if query != "" {
		games = h.registry.Search(query)
	} else {
		games = h.registry.ByCategory(category)
	}

	c.JSON(http.StatusOK, gin.H{
		"games":    games,
		"total":    len(games),
		"query":    query,
		"category": category,
	})
}

// ListCategories returns every category with its game count.
// GET /api/v1/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":  h.registry.Categories(),
		"total_games": h.registry.Len(),
	})
}

// GetDailyGame returns today's featured game.
// GET /api/v1/games/daily.
func (h *Handler) GetDailyGame(c *gin.Context) {
	today := h.now().UTC()
	game, ok := h.registry.Daily(today)
	if !ok {
		h.errorResponse(c, http.StatusNotFound, "no games in catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game": game,
		"date": today.Format("2006-01-02"),
	})
}
