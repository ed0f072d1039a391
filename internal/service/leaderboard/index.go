package leaderboard

import (
	"context"
	"errors"

	"github.com/aimd54/arcade-hub/internal/cache"
	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/ranking"
)

// GameListing summarizes one game on the leaderboards index.
type GameListing struct {
	GameName      string   `json:"game_name"`
	Submissions   int64    `json:"submissions"`
	ScoreType     string   `json:"score_type"`
	RankingMethod string   `json:"ranking_method"`
	TopPlayer     string   `json:"top_player,omitempty"`
	TopScore      *float64 `json:"top_score,omitempty"`
	TopDisplay    string   `json:"top_display,omitempty"`
}

// Index lists every game that has a leaderboard.
type Index struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Games   []GameListing `json:"games"`
}

// ListGames returns the games with at least one score, most played first,
// each with its current best entry.
func (s *Service) ListGames(ctx context.Context) *Index {
	var key string
	if s.cache != nil {
		if gen, ok := s.generation(ctx, cache.GamesIndexGenerationKey); ok {
			key = cache.GamesIndexKey(gen)
			var cached Index
			err := s.cache.GetJSON(ctx, key, &cached)
			if err == nil {
				prommetrics.RecordCacheLookup("hit")
				return &cached
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.log.Warn().Err(err).Msg("Failed to read leaderboards index cache")
			}
			prommetrics.RecordCacheLookup("miss")
		}
	}

	index := s.loadIndex()

	if key != "" && index.Success {
		if err := s.cache.SetJSON(ctx, key, index, s.cfg.CacheTTLDuration()); err != nil {
			s.log.Warn().Err(err).Msg("Failed to write leaderboards index cache")
		}
	}
	return index
}

func (s *Service) loadIndex() *Index {
	index := &Index{Success: true, Games: []GameListing{}}

	summaries, err := s.scoreRepo.ListGamesWithEntries()
	if err != nil {
		return s.failedIndex(index, err)
	}

	for _, summary := range summaries {
		listing := GameListing{
			GameName:      summary.GameName,
			Submissions:   summary.Submissions,
			ScoreType:     DefaultScoreType,
			RankingMethod: DefaultRankingMethod.String(),
		}

		cfg, err := s.scoreRepo.GetGameConfig(summary.GameName)
		if err != nil {
			return s.failedIndex(index, err)
		}
		if cfg != nil {
			listing.ScoreType = cfg.ScoreType
			listing.RankingMethod = cfg.RankingMethod
		}

		method := ranking.Method(listing.RankingMethod)
		top, err := s.scoreRepo.TopEntry(summary.GameName, ranking.IsDescendingBetter(method))
		if err != nil {
			return s.failedIndex(index, err)
		}
		if top != nil {
			score := top.RawScore
			listing.TopPlayer = top.Username
			listing.TopScore = &score
			var target *float64
			if cfg != nil {
				target = cfg.TargetValue
			}
			listing.TopDisplay = ranking.FormatScore(score, listing.ScoreType, method, target)
		}

		index.Games = append(index.Games, listing)
	}

	return index
}

func (s *Service) failedIndex(index *Index, err error) *Index {
	s.log.Error().Err(err).Msg("Failed to load leaderboards index")
	index.Success = false
	index.Error = err.Error()
	index.Games = []GameListing{}
	return index
}
