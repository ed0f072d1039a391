package hub

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// NewRouter builds the gin engine serving every hub route.
func NewRouter(cfg *config.ServerConfig, h *Handler, log *logger.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	router.Use(Identity(cfg.SecureCookies))

	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/games", h.ListGames)
		api.GET("/games/daily", h.GetDailyGame)
		api.GET("/categories", h.ListCategories)

		api.POST("/scores", h.SubmitScore)

		api.GET("/leaderboards", h.ListLeaderboards)
		api.GET("/leaderboards/:game", h.GetLeaderboard)
		api.GET("/leaderboards/:game/widget", h.GetWidget)
		api.GET("/leaderboards/:game/export", h.ExportLeaderboard)
		api.GET("/leaderboards/:game/live", h.StreamLeaderboard)

		api.POST("/games/:game/like", h.ToggleLike)
		api.POST("/games/:game/favorite", h.ToggleFavorite)
		api.GET("/games/:game/stats", h.GetGameStats)

		api.GET("/me/likes", h.GetMyLikes)
		api.GET("/me/favorites", h.GetMyFavorites)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
