package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm/clause"

	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/internal/ranking"
)

// RankedEntry is a score entry with its 1-based position in a leaderboard page.
type RankedEntry struct {
	Rank int
	models.ScoreEntry
}

// GameSummary is one game of the leaderboards index.
type GameSummary struct {
	GameName    string
	Submissions int64
}

// ScoreRepository handles score entry and game config persistence.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// WithGameLock runs fn in a single transaction holding the write lock of game.
// The repository passed to fn is bound to that transaction.
func (r *ScoreRepository) WithGameLock(ctx context.Context, game string, fn func(repo *ScoreRepository) error) error {
	err := r.db.locked(ctx, ScoresLockKey(game), func(tx *DB) error {
		return fn(&ScoreRepository{db: tx})
	})
	if err != nil && !errors.Is(err, apperrors.ErrStorage) && !errors.Is(err, apperrors.ErrInvalidInput) {
		return storageError("commit score transaction", err)
	}
	return err
}

// InsertEntry stores a new score entry and returns its id.
func (r *ScoreRepository) InsertEntry(entry *models.ScoreEntry) (uint, error) {
	if err := r.db.Create(entry).Error; err != nil {
		return 0, storageError("insert score entry", err)
	}
	return entry.ID, nil
}

// UpsertGameConfig creates the config of a game or overwrites its ranking
// fields. The last writer wins.
func (r *ScoreRepository) UpsertGameConfig(cfg *models.GameConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	if cfg.MaxEntriesPerUser == 0 {
		cfg.MaxEntriesPerUser = models.DefaultMaxEntriesPerUser
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score_type",
			"ranking_method",
			"target_value",
			"higher_is_better",
			"updated_at",
		}),
	}).Create(cfg).Error
	if err != nil {
		return storageError("upsert game config", err)
	}
	return nil
}

// GetGameConfig returns the config of a game, or nil if none was ever stored.
func (r *ScoreRepository) GetGameConfig(game string) (*models.GameConfig, error) {
	var configs []models.GameConfig
	if err := r.db.Where("game_name = ?", game).Limit(1).Find(&configs).Error; err != nil {
		return nil, storageError("get game config", err)
	}
	if len(configs) == 0 {
		return nil, nil
	}
	return &configs[0], nil
}

// CountBetter counts entries of game whose ranking score strictly beats rankingScore.
func (r *ScoreRepository) CountBetter(game string, rankingScore float64, descending bool) (int64, error) {
	cond := "game_name = ? AND ranking_score < ?"
	if descending {
		cond = "game_name = ? AND ranking_score > ?"
	}

	var count int64
	if err := r.db.Model(&models.ScoreEntry{}).Where(cond, game, rankingScore).Count(&count).Error; err != nil {
		return 0, storageError("count better entries", err)
	}
	return count, nil
}

// CountTotal counts all entries of game.
func (r *ScoreRepository) CountTotal(game string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ScoreEntry{}).Where("game_name = ?", game).Count(&count).Error; err != nil {
		return 0, storageError("count entries", err)
	}
	return count, nil
}

// BestExisting returns the best ranking score of game ignoring excludingID.
// With no other entries it returns ranking.WorstSentinel(descending).
func (r *ScoreRepository) BestExisting(game string, descending bool, excludingID uint) (float64, error) {
	agg := "MIN(ranking_score)"
	if descending {
		agg = "MAX(ranking_score)"
	}

	var best sql.NullFloat64
	err := r.db.Model(&models.ScoreEntry{}).
		Select(agg).
		Where("game_name = ? AND id <> ?", game, excludingID).
		Row().
		Scan(&best)
	if err != nil {
		return 0, storageError("find best entry", err)
	}
	if !best.Valid {
		return ranking.WorstSentinel(descending), nil
	}
	return best.Float64, nil
}

// QueryOrdered returns a page of game's entries ordered best first. Ties keep
// submission order.
func (r *ScoreRepository) QueryOrdered(game string, descending bool, limit, offset int) ([]RankedEntry, error) {
	var entries []models.ScoreEntry
	err := r.db.
		Where("game_name = ?", game).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "ranking_score"}, Desc: descending}).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, storageError("query leaderboard", err)
	}

	ranked := make([]RankedEntry, len(entries))
	for i := range entries {
		ranked[i] = RankedEntry{Rank: offset + i + 1, ScoreEntry: entries[i]}
	}
	return ranked, nil
}

// TopEntry returns the best entry of game, or nil when it has none.
func (r *ScoreRepository) TopEntry(game string, descending bool) (*models.ScoreEntry, error) {
	entries, err := r.QueryOrdered(game, descending, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0].ScoreEntry, nil
}

// ListGamesWithEntries returns every game with at least one entry, most
// submissions first.
func (r *ScoreRepository) ListGamesWithEntries() ([]GameSummary, error) {
	var summaries []GameSummary
	err := r.db.Model(&models.ScoreEntry{}).
		Select("game_name, COUNT(*) AS submissions").
		Group("game_name").
		Order("submissions DESC, game_name ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, storageError("list games with entries", err)
	}
	return summaries, nil
}

// RefreshGameStats recomputes the stats row of game inside the current transaction.
func (r *ScoreRepository) RefreshGameStats(game string) (*models.GameStats, error) {
	return NewStatsRepository(r.db).Refresh(game)
}
