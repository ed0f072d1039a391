package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
)

// InteractionKind selects the like or favorite relation.
type InteractionKind string

// Interaction kinds.
const (
	KindLike     InteractionKind = "like"
	KindFavorite InteractionKind = "favorite"
)

func (k InteractionKind) model() (interface{}, error) {
	switch k {
	case KindLike:
		return &models.LikeRecord{}, nil
	case KindFavorite:
		return &models.FavoriteRecord{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown interaction kind %q", apperrors.ErrInvalidInput, k)
	}
}

func (k InteractionKind) newRecord(user, game, ip string, at time.Time) interface{} {
	if k == KindFavorite {
		return &models.FavoriteRecord{UserIdentifier: user, GameName: game, IPAddress: ip, CreatedAt: at}
	}
	return &models.LikeRecord{UserIdentifier: user, GameName: game, IPAddress: ip, CreatedAt: at}
}

// UserGame is a game a user liked or favorited.
type UserGame struct {
	GameName  string    `json:"game_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleOutcome is the state after a toggle committed.
type ToggleOutcome struct {
	Active    bool
	GameCount int64
	UserCount int64
	Stats     *models.GameStats
}

// InteractionRepository handles likes and favorites.
type InteractionRepository struct {
	db *DB
}

// NewInteractionRepository creates a new interaction repository.
func NewInteractionRepository(db *DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Toggle flips the (user, game) relation of the given kind in one
// transaction: an existing record is deleted, otherwise one is created. The
// game's stats row is recomputed before commit.
func (r *InteractionRepository) Toggle(ctx context.Context, kind InteractionKind, user, game, ip string) (*ToggleOutcome, error) {
	model, err := kind.model()
	if err != nil {
		return nil, err
	}

	var outcome ToggleOutcome
	err = r.db.locked(ctx, InteractionLockKey(kind, user, game), func(tx *DB) error {
		res := tx.Where("user_identifier = ? AND game_name = ?", user, game).Delete(model)
		if res.Error != nil {
			return storageError("remove "+string(kind), res.Error)
		}

		if res.RowsAffected == 0 {
			record := kind.newRecord(user, game, ip, time.Now().UTC())
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
				return storageError("add "+string(kind), err)
			}
			outcome.Active = true
		}

		stats, err := NewStatsRepository(tx).Refresh(game)
		if err != nil {
			return err
		}
		outcome.Stats = stats
		outcome.GameCount = stats.TotalLikes
		if kind == KindFavorite {
			outcome.GameCount = stats.TotalFavorites
		}

		userCount, err := (&InteractionRepository{db: tx}).CountByUser(kind, user)
		if err != nil {
			return err
		}
		outcome.UserCount = userCount
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrStorage) {
			err = storageError("commit "+string(kind)+" toggle", err)
		}
		return nil, err
	}
	return &outcome, nil
}

// Exists reports whether user has a record of the given kind for game.
func (r *InteractionRepository) Exists(kind InteractionKind, user, game string) (bool, error) {
	model, err := kind.model()
	if err != nil {
		return false, err
	}

	var count int64
	if err := r.db.Model(model).Where("user_identifier = ? AND game_name = ?", user, game).Count(&count).Error; err != nil {
		return false, storageError("check "+string(kind), err)
	}
	return count > 0, nil
}

// CountByUser counts the records of the given kind owned by user.
func (r *InteractionRepository) CountByUser(kind InteractionKind, user string) (int64, error) {
	model, err := kind.model()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.Model(model).Where("user_identifier = ?", user).Count(&count).Error; err != nil {
		return 0, storageError("count user "+string(kind)+"s", err)
	}
	return count, nil
}

// ListByUser returns the games user liked or favorited, newest first.
func (r *InteractionRepository) ListByUser(kind InteractionKind, user string) ([]UserGame, error) {
	model, err := kind.model()
	if err != nil {
		return nil, err
	}

	games := []UserGame{}
	err = r.db.Model(model).
		Select("game_name, created_at").
		Where("user_identifier = ?", user).
		Order("created_at DESC, id DESC").
		Scan(&games).Error
	if err != nil {
		return nil, storageError("list user "+string(kind)+"s", err)
	}
	return games, nil
}
