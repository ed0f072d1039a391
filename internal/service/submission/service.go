// Package submission records player scores and reports their rank.
//
// A submission is validated, converted to a ranking score, and then written
// together with the game's config in one transaction that holds the game's
// write lock. Rank, total and new-record status are read inside that same
// transaction, so concurrent submissions to one game never observe each
// other half-done.
package submission

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aimd54/arcade-hub/internal/cache"
	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/live"
	"github.com/aimd54/arcade-hub/internal/mattermost"
	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/ranking"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// DefaultScoreType is used when a submission names no score type.
const DefaultScoreType = "points"

const announceTimeout = 10 * time.Second

// ScoreStore runs the submission transaction.
type ScoreStore interface {
	WithGameLock(ctx context.Context, game string, fn func(tx *repository.ScoreRepository) error) error
}

// CacheInvalidator bumps cache generation counters.
type CacheInvalidator interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Notifier announces new records.
type Notifier interface {
	AnnounceNewRecord(ctx context.Context, rec mattermost.NewRecord) error
}

// Broadcaster pushes accepted submissions to live subscribers.
type Broadcaster interface {
	Publish(ev live.Event) int
}

// Request is one score submission.
type Request struct {
	GameName      string
	Username      string
	Score         float64
	ScoreType     string
	RankingMethod string
	TargetValue   *float64
	IPAddress     string
	SessionID     string
}

// Result reports the outcome of a submission. Failures are reported with
// Success false and never as a panic.
type Result struct {
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`
	ErrorKind     string  `json:"error_kind,omitempty"`
	Rank          int64   `json:"rank,omitempty"`
	TotalEntries  int64   `json:"total_entries,omitempty"`
	IsTop10       bool    `json:"is_top_10"`
	IsNewRecord   bool    `json:"is_new_record"`
	EntryID       uint    `json:"entry_id,omitempty"`
	OriginalScore float64 `json:"original_score"`
	RankingScore  float64 `json:"ranking_score"`

	err error
}

// Err returns the underlying error of a failed submission, or nil.
func (r *Result) Err() error {
	return r.err
}

func failure(err error) *Result {
	return &Result{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: apperrors.KindOf(err),
		err:       err,
	}
}

// Service handles score submissions.
type Service struct {
	store       ScoreStore
	cache       CacheInvalidator
	notifier    Notifier
	broadcaster Broadcaster
	maxUsername int
	topN        int
	log         *logger.Logger
	now         func() time.Time
	pending     sync.WaitGroup
}

// NewService creates a submission service with concrete dependencies.
// cacheClient and notifier may be nil.
func NewService(
	scoreRepo *repository.ScoreRepository,
	cacheClient *cache.Cache,
	notifier *mattermost.Client,
	cfg config.LeaderboardConfig,
	log *logger.Logger,
) *Service {
	s := NewServiceWithInterfaces(scoreRepo, nil, nil, cfg, log)
	if cacheClient != nil {
		s.cache = cacheClient
	}
	if notifier != nil && notifier.Enabled() {
		s.notifier = notifier
	}
	return s
}

// NewServiceWithInterfaces creates a submission service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	store ScoreStore,
	cacheInvalidator CacheInvalidator,
	notifier Notifier,
	cfg config.LeaderboardConfig,
	log *logger.Logger,
) *Service {
	maxUsername := cfg.MaxUsernameLength
	if maxUsername <= 0 {
		maxUsername = 20
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}

	return &Service{
		store:       store,
		cache:       cacheInvalidator,
		notifier:    notifier,
		maxUsername: maxUsername,
		topN:        topN,
		log:         log,
		now:         time.Now,
	}
}

// SetBroadcaster enables live updates for accepted submissions.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SubmitScore validates and records a score and reports its rank among all
// entries of the game.
func (s *Service) SubmitScore(ctx context.Context, req Request) *Result {
	start := time.Now()

	game := strings.TrimSpace(req.GameName)
	result := s.submit(ctx, game, req)

	status := "success"
	if !result.Success {
		status = result.ErrorKind
	}
	prommetrics.RecordSubmission(game, status)
	prommetrics.ObserveSubmissionDuration(time.Since(start).Seconds())

	return result
}

func (s *Service) submit(ctx context.Context, game string, req Request) *Result {
	if game == "" {
		return s.reject(game, fmt.Errorf("%w: game name is required", apperrors.ErrInvalidInput))
	}

	username := NormalizeUsername(req.Username, s.maxUsername)
	if username == "" {
		return s.reject(game, fmt.Errorf("%w: username is required", apperrors.ErrInvalidInput))
	}

	method := ranking.Parse(req.RankingMethod)
	if !method.Known() {
		s.log.Warn().
			Str("game", game).
			Str("ranking_method", method.String()).
			Msg("Unknown ranking method, ranking raw scores highest first")
	}

	if err := ranking.Validate(req.Score, method, req.TargetValue); err != nil {
		return s.reject(game, err)
	}

	rankingScore, err := ranking.Compute(req.Score, method, req.TargetValue)
	if err != nil {
		return s.reject(game, err)
	}
	descending := ranking.IsDescendingBetter(method)

	scoreType := strings.TrimSpace(req.ScoreType)
	if scoreType == "" {
		scoreType = DefaultScoreType
	}

	var target *float64
	if req.TargetValue != nil {
		t := *req.TargetValue
		target = &t
	}

	now := s.now().UTC()
	result := &Result{Success: true, OriginalScore: req.Score, RankingScore: rankingScore}

	err = s.store.WithGameLock(ctx, game, func(tx *repository.ScoreRepository) error {
		err := tx.UpsertGameConfig(&models.GameConfig{
			GameName:          game,
			ScoreType:         scoreType,
			RankingMethod:     method.String(),
			TargetValue:       target,
			HigherIsBetter:    descending,
			MaxEntriesPerUser: models.DefaultMaxEntriesPerUser,
		})
		if err != nil {
			return err
		}

		entryID, err := tx.InsertEntry(&models.ScoreEntry{
			GameName:       game,
			Username:       username,
			RawScore:       req.Score,
			RankingScore:   rankingScore,
			ScoreType:      scoreType,
			RankingMethod:  method.String(),
			TargetValue:    target,
			HigherIsBetter: descending,
			SubmittedAt:    now,
			SubmittedOn:    now.Format("2006-01-02"),
			IPAddress:      req.IPAddress,
			SessionID:      req.SessionID,
		})
		if err != nil {
			return err
		}

		better, err := tx.CountBetter(game, rankingScore, descending)
		if err != nil {
			return err
		}
		total, err := tx.CountTotal(game)
		if err != nil {
			return err
		}
		best, err := tx.BestExisting(game, descending, entryID)
		if err != nil {
			return err
		}
		if _, err := tx.RefreshGameStats(game); err != nil {
			return err
		}

		result.EntryID = entryID
		result.Rank = better + 1
		result.TotalEntries = total
		result.IsTop10 = result.Rank <= int64(s.topN)
		result.IsNewRecord = ranking.Better(rankingScore, best, descending)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("game", game).Msg("Failed to record score")
		return failure(err)
	}

	s.log.Info().
		Str("game", game).
		Str("username", username).
		Float64("score", req.Score).
		Int64("rank", result.Rank).
		Int64("total_entries", result.TotalEntries).
		Bool("new_record", result.IsNewRecord).
		Msg("Score recorded")

	s.afterCommit(ctx, game, username, scoreType, method, target, result)
	return result
}

func (s *Service) reject(game string, err error) *Result {
	s.log.Warn().Err(err).Str("game", game).Msg("Rejected score submission")
	return failure(err)
}

func (s *Service) afterCommit(
	ctx context.Context,
	game, username, scoreType string,
	method ranking.Method,
	target *float64,
	result *Result,
) {
	if result.IsNewRecord {
		prommetrics.RecordNewRecord(game)
	}

	if s.cache != nil {
		for _, key := range []string{cache.LeaderboardGenerationKey(game), cache.GamesIndexGenerationKey} {
			if _, err := s.cache.Incr(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Failed to invalidate leaderboard cache")
			}
		}
	}

	display := ranking.FormatScore(result.OriginalScore, scoreType, method, target)

	if s.broadcaster != nil {
		ev := live.Event{
			Type:         live.EventScore,
			GameName:     game,
			Username:     username,
			Score:        result.OriginalScore,
			Display:      display,
			Rank:         result.Rank,
			TotalEntries: result.TotalEntries,
			IsNewRecord:  result.IsNewRecord,
			Timestamp:    s.now().UTC(),
		}
		if result.IsNewRecord {
			ev.Type = live.EventRecord
		}
		s.broadcaster.Publish(ev)
	}

	// The first entry of a game is trivially a record; only announce beaten scores.
	if s.notifier == nil || !result.IsNewRecord || result.TotalEntries < 2 {
		return
	}

	rec := mattermost.NewRecord{
		GameName:     game,
		Username:     username,
		DisplayScore: display,
		TotalEntries: result.TotalEntries,
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		announceCtx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()

		if err := s.notifier.AnnounceNewRecord(announceCtx, rec); err != nil {
			prommetrics.RecordNotification("failed")
			s.log.Warn().Err(err).Str("game", rec.GameName).Msg("Failed to announce new record")
			return
		}
		prommetrics.RecordNotification("sent")
	}()
}

// Wait blocks until pending record announcements finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// NormalizeUsername trims surrounding whitespace and keeps at most max runes.
func NormalizeUsername(username string, max int) string {
	trimmed := strings.TrimSpace(username)
	runes := []rune(trimmed)
	if len(runes) > max {
		return string(runes[:max])
	}
	return trimmed
}
