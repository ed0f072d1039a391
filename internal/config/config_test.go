package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: sqlite
  sqlite:
    path: /tmp/arcade-test.db
catalog:
  games:
    - name: Reaction Time
      category: reflex
      ranking_method: lower_is_better
      score_type: time
    - name: Number Guess
      ranking_method: closest_to_target
      target_value: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.LiveFeed)
	assert.Equal(t, "09:00", cfg.Scheduler.DailyGame)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Leaderboard.MaxUsernameLength)
	assert.Equal(t, 50, cfg.Leaderboard.DefaultPageSize)
	assert.Equal(t, 5, cfg.Leaderboard.WidgetSize)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.StatsRefresh)
	require.Len(t, cfg.Catalog.Games, 2)
	require.NotNil(t, cfg.Catalog.Games[1].TargetValue)
	assert.Equal(t, 50.0, *cfg.Catalog.Games[1].TargetValue)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SQLITE_PATH", "/data/override.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_LIVE_FEED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/data/override.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Server.LiveFeed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{
			name: "postgres complete",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Postgres.Host = "db"
				c.Database.Postgres.Database = "arcade"
				c.Database.Postgres.User = "arcade"
			},
		},
		{name: "redis enabled without host", mutate: func(c *Config) { c.Database.Redis.Enabled = true }, wantErr: true},
		{name: "mattermost without webhook", mutate: func(c *Config) { c.Mattermost.Enabled = true }, wantErr: true},
		{name: "username length above column size", mutate: func(c *Config) { c.Leaderboard.MaxUsernameLength = 21 }, wantErr: true},
		{name: "username length at column size", mutate: func(c *Config) { c.Leaderboard.MaxUsernameLength = 20 }},
		{name: "shorter usernames", mutate: func(c *Config) { c.Leaderboard.MaxUsernameLength = 12 }},
		{name: "zero username length", mutate: func(c *Config) { c.Leaderboard.MaxUsernameLength = 0 }, wantErr: true},
		{name: "page size above max", mutate: func(c *Config) { c.Leaderboard.DefaultPageSize = 5000 }, wantErr: true},
		{
			name: "duplicate game",
			mutate: func(c *Config) {
				c.Catalog.Games = []GameEntry{{Name: "Snake"}, {Name: "Snake"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
