package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ToggleLike likes or unlikes a game for the calling user.
// POST /api/v1/games/:game/like.
func (h *Handler) ToggleLike(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))
	result := h.interactions.ToggleLike(c.Request.Context(), game, UserID(c), c.ClientIP())
	c.JSON(statusFor(result.ErrorKind), result)
}

// ToggleFavorite adds or removes a game from the calling user's favorites.
// POST /api/v1/games/:game/favorite.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))
	result := h.interactions.ToggleFavorite(c.Request.Context(), game, UserID(c), c.ClientIP())
	c.JSON(statusFor(result.ErrorKind), result)
}

// GetGameStats returns a game's like, favorite and play totals.
// GET /api/v1/games/:game/stats.
func (h *Handler) GetGameStats(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))
	stats := h.interactions.GetGameStats(c.Request.Context(), game, UserID(c))
	if !stats.Success {
		h.errorResponse(c, statusFor(stats.ErrorKind), "Failed to retrieve game stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMyLikes lists the games the calling user liked.
// GET /api/v1/me/likes.
func (h *Handler) GetMyLikes(c *gin.Context) {
	games, err := h.interactions.GetUserLikes(c.Request.Context(), UserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list user likes")
		h.errorResponse(c, statusForError(err), "Failed to retrieve likes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "total": len(games)})
}

// GetMyFavorites lists the calling user's favorite games.
// GET /api/v1/me/favorites.
func (h *Handler) GetMyFavorites(c *gin.Context) {
	games, err := h.interactions.GetUserFavorites(c.Request.Context(), UserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list user favorites")
		h.errorResponse(c, statusForError(err), "Failed to retrieve favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "total": len(games)})
}
