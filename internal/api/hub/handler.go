// Package hub provides the REST API of the arcade hub: the games catalog,
// score submission, leaderboards, likes and favorites.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/arcade-hub/internal/catalog"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/internal/service/interactions"
	"github.com/aimd54/arcade-hub/internal/service/leaderboard"
	"github.com/aimd54/arcade-hub/internal/service/submission"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// SubmissionService interface for score submissions.
type SubmissionService interface {
	SubmitScore(ctx context.Context, req submission.Request) *submission.Result
}

// LeaderboardService interface for leaderboard reads.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, game string, limit, offset int) *leaderboard.Page
	GetWidget(ctx context.Context, game string) *leaderboard.Page
	ListGames(ctx context.Context) *leaderboard.Index
	PageSize(limit int) int
	ExportXLSX(game string, w io.Writer) error
}

// LiveFeed streams leaderboard updates over a websocket.
type LiveFeed interface {
	Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, game string) error
}

// InteractionService interface for likes and favorites.
type InteractionService interface {
	ToggleLike(ctx context.Context, game, user, ip string) *interactions.ToggleResult
	ToggleFavorite(ctx context.Context, game, user, ip string) *interactions.ToggleResult
	GetGameStats(ctx context.Context, game, user string) *interactions.GameStats
	GetUserLikes(ctx context.Context, user string) ([]repository.UserGame, error)
	GetUserFavorites(ctx context.Context, user string) ([]repository.UserGame, error)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler handles hub API requests.
type Handler struct {
	submissions  SubmissionService
	leaderboards LeaderboardService
	interactions InteractionService
	registry     *catalog.Registry
	live         LiveFeed
	checks       map[string]HealthCheck
	log          *logger.Logger
	now          func() time.Time
}

// NewHandler creates a new hub handler.
func NewHandler(
	submissions *submission.Service,
	leaderboards *leaderboard.Service,
	interactionService *interactions.Service,
	registry *catalog.Registry,
	log *logger.Logger,
) *Handler {
	return NewHandlerWithInterfaces(submissions, leaderboards, interactionService, registry, log)
}

// NewHandlerWithInterfaces creates a new hub handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	submissions SubmissionService,
	leaderboards LeaderboardService,
	interactionService InteractionService,
	registry *catalog.Registry,
	log *logger.Logger,
) *Handler {
	if registry == nil {
		registry, _ = catalog.New(nil)
	}
	return &Handler{
		submissions:  submissions,
		leaderboards: leaderboards,
		interactions: interactionService,
		registry:     registry,
		checks:       make(map[string]HealthCheck),
		log:          log,
		now:          time.Now,
	}
}

// SetLiveFeed enables the websocket leaderboard feed.
func (h *Handler) SetLiveFeed(feed LiveFeed) {
	h.live = feed
}

// AddHealthCheck registers a dependency checked by the health endpoint.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Health reports the status of every registered dependency.
// GET /health.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("component", name).Msg("Health check failed")
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"timestamp":  h.now().UTC(),
	})
}

// resolveGame maps a catalog slug to its game name. Unknown values are
// used as given, so games outside the catalog still have leaderboards.
func (h *Handler) resolveGame(value string) string {
	if g, ok := h.registry.Lookup(value); ok {
		return g.Name
	}
	return value
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	return limit, nil
}

// parseNonNegative extracts an optional non-negative integer query parameter.
func (h *Handler) parseNonNegative(c *gin.Context, name string) (int, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return n, true, nil
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// statusForError maps an error to an HTTP status.
func statusForError(err error) int {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": h.now().UTC(),
	})
}
