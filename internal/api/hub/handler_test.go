//nolint:noctx // Test file uses http.NewRequest for simplicity
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/arcade-hub/internal/catalog"
	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/live"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/internal/service/interactions"
	"github.com/aimd54/arcade-hub/internal/service/leaderboard"
	"github.com/aimd54/arcade-hub/internal/service/submission"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Mock Leaderboard Service that always fails
type failingLeaderboardService struct{}

func (failingLeaderboardService) GetLeaderboard(ctx context.Context, game string, limit, offset int) *leaderboard.Page {
	return &leaderboard.Page{Success: false, Error: "database is locked", GameName: game}
}

func (failingLeaderboardService) GetWidget(ctx context.Context, game string) *leaderboard.Page {
	return &leaderboard.Page{Success: false, Error: "database is locked", GameName: game}
}

func (failingLeaderboardService) ListGames(ctx context.Context) *leaderboard.Index {
	return &leaderboard.Index{Success: false, Error: "database is locked"}
}

func (failingLeaderboardService) ExportXLSX(game string, w io.Writer) error {
	return errors.New("database is locked")
}

func (failingLeaderboardService) PageSize(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()

	target := 10.0
	registry, err := catalog.New([]config.GameEntry{
		{
			Name:          "Time Predict Challenge",
			Slug:          "time-predict",
			Description:   "Hit exactly 10.000 seconds",
			Category:      "skill",
			Tags:          []string{"timing"},
			ScoreType:     "seconds",
			RankingMethod: "closest_to_target",
			TargetValue:   &target,
		},
		{Name: "Cosmic Dino Runner", Category: "arcade", Tags: []string{"dino", "endless"}},
		{Name: "Space Invaders", Category: "arcade"},
	})
	require.NoError(t, err)
	return registry
}

// Test Setup
func setupTestHandler(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenSQLite(":memory:", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.LeaderboardConfig{
		MaxUsernameLength: 20,
		TopN:              10,
		DefaultPageSize:   50,
		MaxPageSize:       1000,
		WidgetSize:        5,
	}
	log := logger.Nop()

	scoreRepo := repository.NewScoreRepository(db)
	submissions := submission.NewServiceWithInterfaces(scoreRepo, nil, nil, cfg, log)
	leaderboards := leaderboard.NewServiceWithInterfaces(scoreRepo, nil, cfg, log)
	interactionService := interactions.NewService(repository.NewInteractionRepository(db), repository.NewStatsRepository(db), log)

	handler := NewHandlerWithInterfaces(submissions, leaderboards, interactionService, testRegistry(t), log)
	handler.AddHealthCheck("database", func(ctx context.Context) error { return db.Health() })

	return handler, NewRouter(&config.ServerConfig{}, handler, log)
}

func doRequest(router *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func submit(t *testing.T, router *gin.Engine, game, user string, score float64) map[string]interface{} {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/v1/scores", gin.H{
		"game_name": game,
		"username":  user,
		"score":     score,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func identityCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	var cookies []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == UserCookie || c.Name == SessionCookie {
			cookies = append(cookies, c)
		}
	}
	return cookies
}

// Tests

func TestHealth(t *testing.T) {
	handler, router := setupTestHandler(t)

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	handler.AddHealthCheck("cache", func(ctx context.Context) error { return errors.New("connection refused") })
	w = doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	response := decode(t, w)
	assert.Equal(t, "degraded", response["status"])
	components := response["components"].(map[string]interface{})
	assert.Equal(t, "ok", components["database"])
	assert.Equal(t, "connection refused", components["cache"])
}

func TestSubmitScore_Success(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodPost, "/api/v1/scores", gin.H{
		"game_name": "Space Invaders",
		"username":  "ace",
		"score":     1200,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, float64(1), response["rank"])
	assert.Equal(t, true, response["is_new_record"])
	assert.Len(t, identityCookies(w), 2)
}

func TestSubmitScore_MissingScore(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodPost, "/api/v1/scores", gin.H{"game_name": "Snake", "username": "ace"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "invalid request body")
}

func TestSubmitScore_InvalidInput(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodPost, "/api/v1/scores", gin.H{
		"game_name":      "Guess",
		"username":       "ace",
		"score":          9.9,
		"ranking_method": "closest_to_target",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decode(t, w)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "invalid_input", response["error_kind"])
}

func TestSubmitScore_CatalogDefaults(t *testing.T) {
	_, router := setupTestHandler(t)

	submit(t, router, "time-predict", "steady", 9.80)
	res := submit(t, router, "time-predict", "sharp", 9.95)
	assert.Equal(t, float64(1), res["rank"])

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/time-predict", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, "Time Predict Challenge", response["game_name"])
	assert.Equal(t, "closest_to_target", response["ranking_method"])
	assert.Equal(t, float64(10), response["target_value"])

	entries := response["entries"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "sharp", first["username"])
	assert.Equal(t, "9.95 (target: 10)", first["display"])
}

func TestGetLeaderboard_PageNumbers(t *testing.T) {
	_, router := setupTestHandler(t)

	for i := 1; i <= 5; i++ {
		submit(t, router, "Snake", fmt.Sprintf("player%d", i), float64(i*100))
	}

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Snake?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, float64(2), response["page"])
	assert.Equal(t, float64(3), response["total_pages"])
	assert.Equal(t, float64(5), response["total_entries"])
	assert.Equal(t, float64(2), response["offset"])

	entries := response["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, float64(3), entries[0].(map[string]interface{})["rank"])
	assert.Equal(t, "player3", entries[0].(map[string]interface{})["username"])
}

func TestGetLeaderboard_Offset(t *testing.T) {
	_, router := setupTestHandler(t)

	for i := 1; i <= 3; i++ {
		submit(t, router, "Snake", fmt.Sprintf("player%d", i), float64(i))
	}

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Snake?offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := decode(t, w)["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, float64(2), entries[0].(map[string]interface{})["rank"])
}

func TestGetLeaderboard_InvalidParams(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"non numeric limit", "limit=abc", "invalid limit"},
		{"zero limit", "limit=0", "limit must be greater than 0"},
		{"negative offset", "offset=-1", "invalid offset"},
		{"zero page", "page=0", "page must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Snake?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["error"], tt.want)
		})
	}
}

func TestGetLeaderboard_UnknownGame(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Nothing%20Here", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, "Nothing Here", response["game_name"])
	assert.Equal(t, "higher_is_better", response["ranking_method"])
	assert.Empty(t, response["entries"])
	assert.Equal(t, float64(0), response["total_pages"])
}

func TestGetWidget(t *testing.T) {
	_, router := setupTestHandler(t)

	for i := 1; i <= 7; i++ {
		submit(t, router, "Snake", fmt.Sprintf("p%d", i), float64(i))
	}

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Snake/widget", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["entries"], 5)
}

func TestListLeaderboards(t *testing.T) {
	_, router := setupTestHandler(t)

	submit(t, router, "Snake", "a", 10)
	submit(t, router, "Snake", "b", 20)
	submit(t, router, "Pong", "c", 5)

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards", nil)
	require.Equal(t, http.StatusOK, w.Code)

	games := decode(t, w)["games"].([]interface{})
	require.Len(t, games, 2)
	snake := games[0].(map[string]interface{})
	assert.Equal(t, "Snake", snake["game_name"])
	assert.Equal(t, "b", snake["top_player"])
}

func TestLeaderboards_StorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWithInterfaces(nil, failingLeaderboardService{}, nil, nil, logger.Nop())
	router := NewRouter(&config.ServerConfig{}, handler, logger.Nop())

	for _, path := range []string{
		"/api/v1/leaderboards",
		"/api/v1/leaderboards/Snake",
		"/api/v1/leaderboards/Snake/widget",
		"/api/v1/leaderboards/Snake/export",
	} {
		w := doRequest(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Contains(t, decode(t, w)["error"], "Failed to")
	}
}

func TestToggleLike_CookieIdentity(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodPost, "/api/v1/games/space-invaders/like", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	assert.Equal(t, "liked", first["action"])
	assert.Equal(t, "Space Invaders", first["game_name"])

	cookies := identityCookies(w)
	require.Len(t, cookies, 2)

	w = doRequest(router, http.MethodPost, "/api/v1/games/space-invaders/like", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Equal(t, "unliked", second["action"])
	assert.Equal(t, float64(0), second["game_count"])

	// A visitor without cookies is a different user.
	w = doRequest(router, http.MethodPost, "/api/v1/games/space-invaders/like", nil)
	assert.Equal(t, "liked", decode(t, w)["action"])
}

func TestFavorites_RoundTrip(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodPost, "/api/v1/games/Space%20Invaders/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "favorited", decode(t, w)["action"])
	cookies := identityCookies(w)

	w = doRequest(router, http.MethodGet, "/api/v1/me/favorites", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(1), response["total"])
	games := response["games"].([]interface{})
	assert.Equal(t, "Space Invaders", games[0].(map[string]interface{})["game_name"])

	w = doRequest(router, http.MethodGet, "/api/v1/games/Space%20Invaders/stats", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["favorites"])
	assert.Equal(t, true, stats["favorited"])
	assert.Equal(t, false, stats["liked"])

	w = doRequest(router, http.MethodGet, "/api/v1/me/likes", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])
}

func TestGetGameStats_BlankGameIsBadRequest(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodGet, "/api/v1/games/%20%20/stats", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "error")
}

func TestIdentity_ReplacesInvalidCookie(t *testing.T) {
	_, router := setupTestHandler(t)

	bogus := &http.Cookie{Name: UserCookie, Value: "not-a-uuid"}
	w := doRequest(router, http.MethodGet, "/api/v1/me/likes", nil, bogus)
	require.Equal(t, http.StatusOK, w.Code)

	var reissued *http.Cookie
	for _, c := range identityCookies(w) {
		if c.Name == UserCookie {
			reissued = c
		}
	}
	require.NotNil(t, reissued)
	assert.NotEqual(t, "not-a-uuid", reissued.Value)
	assert.True(t, reissued.HttpOnly)
}

func TestCatalogEndpoints(t *testing.T) {
	handler, router := setupTestHandler(t)
	handler.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }

	w := doRequest(router, http.MethodGet, "/api/v1/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["total"])

	w = doRequest(router, http.MethodGet, "/api/v1/games?category=arcade", nil)
	assert.Equal(t, float64(2), decode(t, w)["total"])

	w = doRequest(router, http.MethodGet, "/api/v1/games?q=dino", nil)
	games := decode(t, w)["games"].([]interface{})
	require.Len(t, games, 1)
	assert.Equal(t, "Cosmic Dino Runner", games[0].(map[string]interface{})["name"])

	w = doRequest(router, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode(t, w)["categories"].([]interface{})
	require.Len(t, categories, 2)
	assert.Equal(t, "arcade", categories[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(2), categories[0].(map[string]interface{})["games"])

	w = doRequest(router, http.MethodGet, "/api/v1/games/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	daily := decode(t, w)
	assert.Equal(t, "2026-01-01", daily["date"])
	assert.Equal(t, "Cosmic Dino Runner", daily["game"].(map[string]interface{})["name"])
}

func TestGetDailyGame_EmptyCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWithInterfaces(nil, failingLeaderboardService{}, nil, nil, logger.Nop())
	router := NewRouter(&config.ServerConfig{}, handler, logger.Nop())

	w := doRequest(router, http.MethodGet, "/api/v1/games/daily", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCorsConfig(t *testing.T) {
	open := corsConfig(nil)
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)

	wildcard := corsConfig([]string{"https://a.example", "*"})
	assert.True(t, wildcard.AllowAllOrigins)
	assert.Empty(t, wildcard.AllowOrigins)

	restricted := corsConfig([]string{"https://arcade.example.com"})
	assert.False(t, restricted.AllowAllOrigins)
	assert.True(t, restricted.AllowCredentials)
	assert.Equal(t, []string{"https://arcade.example.com"}, restricted.AllowOrigins)
}

func TestExportLeaderboard(t *testing.T) {
	_, router := setupTestHandler(t)

	submit(t, router, "Space Invaders", "ace", 1200)

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/space-invaders/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "space-invaders-leaderboard.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestStreamLeaderboard_Disabled(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboards/Snake/live", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamLeaderboard(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenSQLite(":memory:", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default().Leaderboard
	scoreRepo := repository.NewScoreRepository(db)
	feed := live.NewHub(nil, logger.Nop())
	submissions := submission.NewServiceWithInterfaces(scoreRepo, nil, nil, cfg, logger.Nop())
	submissions.SetBroadcaster(feed)

	handler := NewHandlerWithInterfaces(submissions, leaderboard.NewServiceWithInterfaces(scoreRepo, nil, cfg, logger.Nop()), nil, testRegistry(t), logger.Nop())
	handler.SetLiveFeed(feed)

	server := httptest.NewServer(NewRouter(&config.ServerConfig{}, handler, logger.Nop()))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/leaderboards/space-invaders/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.Subscribers("Space Invaders") == 1 }, 2*time.Second, 10*time.Millisecond)

	body := strings.NewReader(`{"game_name":"Space Invaders","username":"ace","score":1200}`)
	resp, err := http.Post(server.URL+"/api/v1/scores", "application/json", body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev live.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, live.EventRecord, ev.Type)
	assert.Equal(t, "ace", ev.Username)
	assert.Equal(t, "1,200", ev.Display)
}
