// Package interactions handles per-user likes and favorites of games.
package interactions

import (
	"context"
	"fmt"
	"strings"

	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Toggle actions.
const (
	ActionLiked       = "liked"
	ActionUnliked     = "unliked"
	ActionFavorited   = "favorited"
	ActionUnfavorited = "unfavorited"
)

// InteractionRepository interface for like and favorite storage.
type InteractionRepository interface {
	Toggle(ctx context.Context, kind repository.InteractionKind, user, game, ip string) (*repository.ToggleOutcome, error)
	Exists(kind repository.InteractionKind, user, game string) (bool, error)
	ListByUser(kind repository.InteractionKind, user string) ([]repository.UserGame, error)
}

// StatsRepository interface for game totals.
type StatsRepository interface {
	Count(game string) (*models.GameStats, error)
}

// ToggleResult reports the state after a like or favorite toggle.
type ToggleResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	GameName  string `json:"game_name"`
	Action    string `json:"action,omitempty"`
	Active    bool   `json:"active"`
	GameCount int64  `json:"game_count"`
	UserCount int64  `json:"user_count"`
}

// GameStats is the public view of a game's totals.
type GameStats struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	GameName  string `json:"game_name"`
	Likes     int64  `json:"likes"`
	Favorites int64  `json:"favorites"`
	Plays     int64  `json:"plays"`
	Liked     bool   `json:"liked"`
	Favorited bool   `json:"favorited"`
}

// Service handles likes and favorites.
type Service struct {
	interactionRepo InteractionRepository
	statsRepo       StatsRepository
	log             *logger.Logger
}

// NewService creates a new interactions service with concrete repository types.
func NewService(interactionRepo *repository.InteractionRepository, statsRepo *repository.StatsRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(interactionRepo, statsRepo, log)
}

// NewServiceWithInterfaces creates a new interactions service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(interactionRepo InteractionRepository, statsRepo StatsRepository, log *logger.Logger) *Service {
	return &Service{
		interactionRepo: interactionRepo,
		statsRepo:       statsRepo,
		log:             log,
	}
}

// ToggleLike flips whether user likes game.
func (s *Service) ToggleLike(ctx context.Context, game, user, ip string) *ToggleResult {
	return s.toggle(ctx, repository.KindLike, game, user, ip)
}

// ToggleFavorite flips whether game is one of user's favorites.
func (s *Service) ToggleFavorite(ctx context.Context, game, user, ip string) *ToggleResult {
	return s.toggle(ctx, repository.KindFavorite, game, user, ip)
}

func (s *Service) toggle(ctx context.Context, kind repository.InteractionKind, game, user, ip string) *ToggleResult {
	game = strings.TrimSpace(game)
	result := &ToggleResult{GameName: game}

	if err := validate(game, user); err != nil {
		return toggleFailure(result, err)
	}

	outcome, err := s.interactionRepo.Toggle(ctx, kind, user, game, ip)
	if err != nil {
		s.log.Error().Err(err).Str("game", game).Str("kind", string(kind)).Msg("Failed to toggle interaction")
		return toggleFailure(result, err)
	}

	result.Success = true
	result.Active = outcome.Active
	result.GameCount = outcome.GameCount
	result.UserCount = outcome.UserCount
	result.Action = action(kind, outcome.Active)

	if outcome.Stats != nil {
		prommetrics.SetGameStats(game, outcome.Stats.TotalLikes, outcome.Stats.TotalFavorites, outcome.Stats.TotalPlays)
	}
	prommetrics.RecordInteractionToggle(string(kind), result.Action)

	s.log.Info().
		Str("game", game).
		Str("action", result.Action).
		Int64("game_count", result.GameCount).
		Msg("Interaction toggled")

	return result
}

func action(kind repository.InteractionKind, active bool) string {
	switch {
	case kind == repository.KindLike && active:
		return ActionLiked
	case kind == repository.KindLike:
		return ActionUnliked
	case active:
		return ActionFavorited
	default:
		return ActionUnfavorited
	}
}

// GetGameStats returns fresh totals for game. When user is non-empty the
// result also says whether that user liked or favorited it.
func (s *Service) GetGameStats(ctx context.Context, game, user string) *GameStats {
	game = strings.TrimSpace(game)
	result := &GameStats{GameName: game}
	if game == "" {
		return statsFailure(result, fmt.Errorf("%w: game name is required", apperrors.ErrInvalidInput))
	}

	stats, err := s.statsRepo.Count(game)
	if err != nil {
		s.log.Error().Err(err).Str("game", game).Msg("Failed to count game stats")
		return statsFailure(result, err)
	}
	result.Likes = stats.TotalLikes
	result.Favorites = stats.TotalFavorites
	result.Plays = stats.TotalPlays

	if user != "" {
		if result.Liked, err = s.interactionRepo.Exists(repository.KindLike, user, game); err != nil {
			return statsFailure(result, err)
		}
		if result.Favorited, err = s.interactionRepo.Exists(repository.KindFavorite, user, game); err != nil {
			return statsFailure(result, err)
		}
	}

	result.Success = true
	return result
}

func statsFailure(result *GameStats, err error) *GameStats {
	result.Success = false
	result.Error = err.Error()
	result.ErrorKind = apperrors.KindOf(err)
	return result
}

// GetUserLikes returns the games user liked, newest first.
func (s *Service) GetUserLikes(ctx context.Context, user string) ([]repository.UserGame, error) {
	return s.list(repository.KindLike, user)
}

// GetUserFavorites returns user's favorite games, newest first.
func (s *Service) GetUserFavorites(ctx context.Context, user string) ([]repository.UserGame, error) {
	return s.list(repository.KindFavorite, user)
}

func (s *Service) list(kind repository.InteractionKind, user string) ([]repository.UserGame, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user identifier is required", apperrors.ErrInvalidInput)
	}

	games, err := s.interactionRepo.ListByUser(kind, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	return games, nil
}

func validate(game, user string) error {
	if game == "" {
		return fmt.Errorf("%w: game name is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: user identifier is required", apperrors.ErrInvalidInput)
	}
	return nil
}

func toggleFailure(result *ToggleResult, err error) *ToggleResult {
	result.Success = false
	result.Error = err.Error()
	result.ErrorKind = apperrors.KindOf(err)
	return result
}
