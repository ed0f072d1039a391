package hub

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/arcade-hub/internal/catalog"
	"github.com/aimd54/arcade-hub/internal/service/leaderboard"
	"github.com/aimd54/arcade-hub/internal/service/submission"
)

// SubmitScoreRequest is the body of a score submission.
type SubmitScoreRequest struct {
	GameName      string   `json:"game_name" binding:"required"`
	Username      string   `json:"username"`
	Score         *float64 `json:"score" binding:"required"`
	ScoreType     string   `json:"score_type"`
	RankingMethod string   `json:"ranking_method"`
	TargetValue   *float64 `json:"target_value"`
}

// SubmitScore records a score and reports its rank.
// POST /api/v1/scores.
func (h *Handler) SubmitScore(c *gin.Context) {
	var body SubmitScoreRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req := submission.Request{
		GameName:      h.resolveGame(body.GameName),
		Username:      body.Username,
		Score:         *body.Score,
		ScoreType:     body.ScoreType,
		RankingMethod: body.RankingMethod,
		TargetValue:   body.TargetValue,
		IPAddress:     c.ClientIP(),
		SessionID:     SessionID(c),
	}

	// Catalog games supply their ranking rules when the client omits them.
	if game, ok := h.registry.Lookup(req.GameName); ok {
		if req.ScoreType == "" {
			req.ScoreType = game.ScoreType
		}
		if req.RankingMethod == "" {
			req.RankingMethod = game.RankingMethod
			if req.TargetValue == nil {
				req.TargetValue = game.TargetValue
			}
		}
	}

	result := h.submissions.SubmitScore(c.Request.Context(), req)
	if !result.Success {
		h.log.Warn().
			Str("game", req.GameName).
			Str("kind", result.ErrorKind).
			Str("error", result.Error).
			Msg("Score submission rejected")
	}

	c.JSON(statusFor(result.ErrorKind), result)
}

// leaderboardResponse adds page-number pagination to a leaderboard page.
type leaderboardResponse struct {
	*leaderboard.Page
	CurrentPage int `json:"page"`
	TotalPages  int `json:"total_pages"`
}

// GetLeaderboard returns one page of a game's leaderboard. Either offset
// or a 1-based page number selects the window.
// GET /api/v1/leaderboards/:game?limit=50&offset=0.
// GET /api/v1/leaderboards/:game?page=2.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))

	limit, err := h.parseLimit(c, 0)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	limit = h.leaderboards.PageSize(limit)

	offset, _, err := h.parseNonNegative(c, "offset")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	page, hasPage, err := h.parseNonNegative(c, "page")
	if err != nil || (hasPage && page < 1) {
		h.errorResponse(c, http.StatusBadRequest, "page must be greater than 0")
		return
	}
	if hasPage {
		offset = (page - 1) * limit
	} else {
		page = offset/limit + 1
	}

	result := h.leaderboards.GetLeaderboard(c.Request.Context(), game, limit, offset)
	if !result.Success {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	h.log.Debug().
		Str("game", game).
		Int("limit", limit).
		Int("offset", offset).
		Int("entries", len(result.Entries)).
		Msg("Retrieved leaderboard")

	c.JSON(http.StatusOK, leaderboardResponse{
		Page:        result,
		CurrentPage: page,
		TotalPages:  leaderboard.TotalPages(result.TotalEntries, limit),
	})
}

// GetWidget returns the top entries of a game for embedding.
// GET /api/v1/leaderboards/:game/widget.
func (h *Handler) GetWidget(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))

	result := h.leaderboards.GetWidget(c.Request.Context(), game)
	if !result.Success {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListLeaderboards returns every game with scores and its current leader.
// GET /api/v1/leaderboards.
func (h *Handler) ListLeaderboards(c *gin.Context) {
	index := h.leaderboards.ListGames(c.Request.Context())
	if !index.Success {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboards")
		return
	}
	c.JSON(http.StatusOK, index)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportLeaderboard downloads a game's complete leaderboard as a spreadsheet.
// GET /api/v1/leaderboards/:game/export.
func (h *Handler) ExportLeaderboard(c *gin.Context) {
	game := h.resolveGame(c.Param("game"))

	var buf bytes.Buffer
	if err := h.leaderboards.ExportXLSX(game, &buf); err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to export leaderboard")
		return
	}

	filename := catalog.Slugify(game)
	if filename == "" {
		filename = "game"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`-leaderboard.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// StreamLeaderboard upgrades to a websocket that receives every accepted
// submission of a game.
// GET /api/v1/leaderboards/:game/live.
func (h *Handler) StreamLeaderboard(c *gin.Context) {
	if h.live == nil {
		h.errorResponse(c, http.StatusNotFound, "live updates are disabled")
		return
	}

	game := h.resolveGame(c.Param("game"))
	if err := h.live.Serve(c.Request.Context(), c.Writer, c.Request, game); err != nil {
		h.log.Debug().Err(err).Str("game", game).Msg("Live stream ended")
	}
}
