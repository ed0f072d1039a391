// Package leaderboard provides paginated, ranked views of game leaderboards.
package leaderboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aimd54/arcade-hub/internal/cache"
	"github.com/aimd54/arcade-hub/internal/config"
	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/ranking"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Defaults reported for a game that has never received a score.
const (
	DefaultScoreType     = "points"
	DefaultRankingMethod = ranking.HigherIsBetter
)

// ScoreRepository interface for leaderboard reads.
type ScoreRepository interface {
	GetGameConfig(game string) (*models.GameConfig, error)
	CountTotal(game string) (int64, error)
	QueryOrdered(game string, descending bool, limit, offset int) ([]repository.RankedEntry, error)
	ListGamesWithEntries() ([]repository.GameSummary, error)
	TopEntry(game string, descending bool) (*models.ScoreEntry, error)
}

// PageCache interface for the read-through page cache.
type PageCache interface {
	Get(ctx context.Context, key string) (string, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Entry represents a single entry in a leaderboard.
type Entry struct {
	Rank         int       `json:"rank"`
	Username     string    `json:"username"`
	Score        float64   `json:"score"` // raw score as submitted
	RankingScore float64   `json:"ranking_score"`
	Display      string    `json:"display"`
	Timestamp    time.Time `json:"timestamp"`
	Date         string    `json:"date"`
}

// Page is one page of a game's leaderboard.
type Page struct {
	Success        bool     `json:"success"`
	Error          string   `json:"error,omitempty"`
	GameName       string   `json:"game_name"`
	ScoreType      string   `json:"score_type"`
	RankingMethod  string   `json:"ranking_method"`
	TargetValue    *float64 `json:"target_value"`
	HigherIsBetter bool     `json:"higher_is_better"`
	TotalEntries   int64    `json:"total_entries"`
	Limit          int      `json:"limit"`
	Offset         int      `json:"offset"`
	Entries        []Entry  `json:"entries"`
}

// Service handles leaderboard queries.
type Service struct {
	scoreRepo ScoreRepository
	cache     PageCache
	cfg       config.LeaderboardConfig
	log       *logger.Logger
}

// NewService creates a new leaderboard service with concrete types.
// cacheClient may be nil.
func NewService(scoreRepo *repository.ScoreRepository, cacheClient *cache.Cache, cfg config.LeaderboardConfig, log *logger.Logger) *Service {
	s := NewServiceWithInterfaces(scoreRepo, nil, cfg, log)
	if cacheClient != nil {
		s.cache = cacheClient
	}
	return s
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(scoreRepo ScoreRepository, pageCache PageCache, cfg config.LeaderboardConfig, log *logger.Logger) *Service {
	return &Service{
		scoreRepo: scoreRepo,
		cache:     pageCache,
		cfg:       cfg,
		log:       log,
	}
}

// PageSize clamps a requested page size to the configured bounds. A
// non-positive size selects the default.
func (s *Service) PageSize(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return limit
}

// GetLeaderboard returns entries [offset, offset+limit) of game, best first.
// The game name is trimmed the same way submissions trim it.
// A game without any stored config yields an empty page with default
// settings. Ordering always follows the game's current config.
func (s *Service) GetLeaderboard(ctx context.Context, game string, limit, offset int) *Page {
	game = strings.TrimSpace(game)
	limit = s.PageSize(limit)
	if offset < 0 {
		offset = 0
	}

	key, cacheable := s.pageKey(ctx, game, limit, offset)
	if cacheable {
		var cached Page
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			prommetrics.RecordCacheLookup("hit")
			return &cached
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn().Err(err).Str("game", game).Msg("Failed to read leaderboard cache")
		}
		prommetrics.RecordCacheLookup("miss")
	}

	page := s.load(game, limit, offset)

	if cacheable && page.Success {
		if err := s.cache.SetJSON(ctx, key, page, s.cfg.CacheTTLDuration()); err != nil {
			s.log.Warn().Err(err).Str("game", game).Msg("Failed to write leaderboard cache")
		}
	}

	return page
}

// GetWidget returns the top entries of game for embedding next to a game.
func (s *Service) GetWidget(ctx context.Context, game string) *Page {
	return s.GetLeaderboard(ctx, game, s.cfg.WidgetSize, 0)
}

func (s *Service) load(game string, limit, offset int) *Page {
	page := &Page{
		Success:        true,
		GameName:       game,
		ScoreType:      DefaultScoreType,
		RankingMethod:  DefaultRankingMethod.String(),
		HigherIsBetter: true,
		Limit:          limit,
		Offset:         offset,
		Entries:        []Entry{},
	}

	cfg, err := s.scoreRepo.GetGameConfig(game)
	if err != nil {
		return s.failed(page, err)
	}
	if cfg == nil {
		return page
	}

	method := ranking.Method(cfg.RankingMethod)
	descending := ranking.IsDescendingBetter(method)

	page.ScoreType = cfg.ScoreType
	page.RankingMethod = cfg.RankingMethod
	page.TargetValue = cfg.TargetValue
	page.HigherIsBetter = descending

	total, err := s.scoreRepo.CountTotal(game)
	if err != nil {
		return s.failed(page, err)
	}
	page.TotalEntries = total

	ranked, err := s.scoreRepo.QueryOrdered(game, descending, limit, offset)
	if err != nil {
		return s.failed(page, err)
	}

	for _, r := range ranked {
		page.Entries = append(page.Entries, Entry{
			Rank:         r.Rank,
			Username:     r.Username,
			Score:        r.RawScore,
			RankingScore: r.RankingScore,
			Display:      ranking.FormatScore(r.RawScore, cfg.ScoreType, method, cfg.TargetValue),
			Timestamp:    r.SubmittedAt,
			Date:         r.SubmittedOn,
		})
	}

	return page
}

func (s *Service) failed(page *Page, err error) *Page {
	s.log.Error().Err(err).Str("game", page.GameName).Msg("Failed to load leaderboard")
	page.Success = false
	page.Error = err.Error()
	page.Entries = []Entry{}
	return page
}

// pageKey resolves the cache key of a page under the game's current
// generation. It reports false when caching is unavailable.
func (s *Service) pageKey(ctx context.Context, game string, limit, offset int) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, ok := s.generation(ctx, cache.LeaderboardGenerationKey(game))
	if !ok {
		return "", false
	}
	return cache.LeaderboardPageKey(game, gen, limit, offset), true
}

func (s *Service) generation(ctx context.Context, key string) (string, bool) {
	gen, err := s.cache.Get(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "0", true
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to read cache generation")
		return "", false
	}
	return gen, true
}

// TotalPages returns how many pages of perPage entries total spans.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
