package models

import (
	"time"
)

// LikeRecord marks that a user likes a game. At most one per (user, game).
type LikeRecord struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserIdentifier string    `gorm:"not null;size:64;uniqueIndex:idx_user_likes_user_game,priority:1;index" json:"-"`
	GameName       string    `gorm:"not null;size:100;uniqueIndex:idx_user_likes_user_game,priority:2;index" json:"game_name"`
	IPAddress      string    `gorm:"size:45" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for LikeRecord model.
func (LikeRecord) TableName() string {
	return "user_likes"
}

// FavoriteRecord marks a game as a user's favorite. At most one per (user, game).
type FavoriteRecord struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserIdentifier string    `gorm:"not null;size:64;uniqueIndex:idx_user_favorites_user_game,priority:1;index" json:"-"`
	GameName       string    `gorm:"not null;size:100;uniqueIndex:idx_user_favorites_user_game,priority:2;index" json:"game_name"`
	IPAddress      string    `gorm:"size:45" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for FavoriteRecord model.
func (FavoriteRecord) TableName() string {
	return "user_favorites"
}

// GameStats caches per-game totals. Every refresh recomputes the counts from
// the source tables, so the row is never authoritative.
type GameStats struct {
	GameName       string    `gorm:"primaryKey;size:100" json:"game_name"`
	TotalLikes     int64     `gorm:"not null" json:"total_likes"`
	TotalFavorites int64     `gorm:"not null" json:"total_favorites"`
	TotalPlays     int64     `gorm:"not null" json:"total_plays"`
	LastUpdated    time.Time `json:"last_updated"`
}

// TableName specifies the table name for GameStats model.
func (GameStats) TableName() string {
	return "game_stats"
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&ScoreEntry{},
		&GameConfig{},
		&LikeRecord{},
		&FavoriteRecord{},
		&GameStats{},
	}
}
