// Package models defines the persisted domain models of the arcade hub.
package models

import (
	"time"
)

// ScoreEntry is one submitted score. Rows are append-only.
type ScoreEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GameName       string    `gorm:"not null;size:100;index:idx_score_entries_game_ranking,priority:1;index:idx_score_entries_game_submitted,priority:1" json:"game_name"`
	Username       string    `gorm:"not null;size:20;index" json:"username"`
	RawScore       float64   `gorm:"not null" json:"raw_score"`
	RankingScore   float64   `gorm:"not null;index:idx_score_entries_game_ranking,priority:2" json:"ranking_score"`
	ScoreType      string    `gorm:"not null;size:50" json:"score_type"`
	RankingMethod  string    `gorm:"not null;size:50" json:"ranking_method"`
	TargetValue    *float64  `json:"target_value,omitempty"`
	HigherIsBetter bool      `gorm:"not null" json:"higher_is_better"` // direction at submission time
	SubmittedAt    time.Time `gorm:"not null;index:idx_score_entries_game_submitted,priority:2" json:"submitted_at"`
	SubmittedOn    string    `gorm:"size:10" json:"submitted_on"` // YYYY-MM-DD
	IPAddress      string    `gorm:"size:45" json:"-"`
	SessionID      string    `gorm:"size:64" json:"-"`
}

// TableName specifies the table name for ScoreEntry model.
func (ScoreEntry) TableName() string {
	return "score_entries"
}

// DefaultMaxEntriesPerUser is stored on every GameConfig. It is informational
// only: submissions are never rejected or pruned because of it.
const DefaultMaxEntriesPerUser = 10

// GameConfig is the ranking configuration of a game. The most recent
// submission for a game overwrites it.
type GameConfig struct {
	GameName          string    `gorm:"primaryKey;size:100" json:"game_name"`
	ScoreType         string    `gorm:"not null;size:50" json:"score_type"`
	RankingMethod     string    `gorm:"not null;size:50" json:"ranking_method"`
	TargetValue       *float64  `json:"target_value"`
	HigherIsBetter    bool      `gorm:"not null" json:"higher_is_better"`
	MaxEntriesPerUser int       `gorm:"not null;default:10" json:"max_entries_per_user"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for GameConfig model.
func (GameConfig) TableName() string {
	return "game_configs"
}
