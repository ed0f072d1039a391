package repository

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
)

// StatsRepository maintains the game_stats materialized counts.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Count computes fresh totals for game without storing them.
func (r *StatsRepository) Count(game string) (*models.GameStats, error) {
	stats := &models.GameStats{GameName: game}

	if err := r.db.Model(&models.LikeRecord{}).Where("game_name = ?", game).Count(&stats.TotalLikes).Error; err != nil {
		return nil, storageError("count likes", err)
	}
	if err := r.db.Model(&models.FavoriteRecord{}).Where("game_name = ?", game).Count(&stats.TotalFavorites).Error; err != nil {
		return nil, storageError("count favorites", err)
	}
	if err := r.db.Model(&models.ScoreEntry{}).Where("game_name = ?", game).Count(&stats.TotalPlays).Error; err != nil {
		return nil, storageError("count plays", err)
	}

	stats.LastUpdated = time.Now().UTC()
	return stats, nil
}

// Refresh recomputes the totals of game and stores them. The count and the
// write run under StatsLockKey(game), nested in the caller's transaction
// when there is one, so concurrent writers cannot store a stale count.
func (r *StatsRepository) Refresh(game string) (*models.GameStats, error) {
	var stats *models.GameStats
	err := r.db.Transaction(func(tx *gorm.DB) error {
		locked := &DB{tx}
		if err := locked.advisoryLock(StatsLockKey(game)); err != nil {
			return err
		}

		counted, err := NewStatsRepository(locked).Count(game)
		if err != nil {
			return err
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_name"}},
			UpdateAll: true,
		}).Create(counted).Error
		if err != nil {
			return storageError("store game stats", err)
		}
		stats = counted
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrStorage) {
			return nil, storageError("refresh game stats", err)
		}
		return nil, err
	}
	return stats, nil
}

// Get returns the stored stats of game, or nil when none were stored.
func (r *StatsRepository) Get(game string) (*models.GameStats, error) {
	var rows []models.GameStats
	if err := r.db.Where("game_name = ?", game).Limit(1).Find(&rows).Error; err != nil {
		return nil, storageError("get game stats", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// KnownGames returns every game name referenced by scores, interactions or stats.
func (r *StatsRepository) KnownGames() ([]string, error) {
	seen := make(map[string]bool)
	for _, model := range []interface{}{
		&models.ScoreEntry{},
		&models.LikeRecord{},
		&models.FavoriteRecord{},
		&models.GameStats{},
	} {
		var names []string
		if err := r.db.Model(model).Distinct().Pluck("game_name", &names).Error; err != nil {
			return nil, storageError("list known games", err)
		}
		for _, name := range names {
			seen[name] = true
		}
	}

	games := make([]string, 0, len(seen))
	for name := range seen {
		games = append(games, name)
	}
	sort.Strings(games)
	return games, nil
}
