// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Mattermost  MattermostConfig  `mapstructure:"mattermost"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// UsernameColumnSize is the width of the stored username column.
const UsernameColumnSize = 20

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SecureCookies  bool     `mapstructure:"secure_cookies"`
	LiveFeed       bool     `mapstructure:"live_feed"`
}

// DatabaseConfig selects the SQL driver and holds the Redis cache settings.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // postgres or sqlite
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// SQLiteConfig contains the embedded database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LeaderboardConfig contains ranking and pagination limits.
type LeaderboardConfig struct {
	MaxUsernameLength int `mapstructure:"max_username_length"`
	TopN              int `mapstructure:"top_n"`
	DefaultPageSize   int `mapstructure:"default_page_size"`
	MaxPageSize       int `mapstructure:"max_page_size"`
	WidgetSize        int `mapstructure:"widget_size"`
	CacheTTL          int `mapstructure:"cache_ttl"` // seconds
}

// CacheTTLDuration returns the page cache TTL as a duration.
func (c LeaderboardConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// CatalogConfig lists the games shown on the hub. Games from File are
// appended after the inline ones.
type CatalogConfig struct {
	File  string      `mapstructure:"file"`
	Games []GameEntry `mapstructure:"games"`
}

// GameEntry describes one game in the catalog.
type GameEntry struct {
	Name          string   `mapstructure:"name" yaml:"name"`
	Slug          string   `mapstructure:"slug" yaml:"slug"`
	Description   string   `mapstructure:"description" yaml:"description"`
	Path          string   `mapstructure:"path" yaml:"path"`
	Icon          string   `mapstructure:"icon" yaml:"icon"`
	Category      string   `mapstructure:"category" yaml:"category"`
	Tags          []string `mapstructure:"tags" yaml:"tags"`
	Difficulty    int      `mapstructure:"difficulty" yaml:"difficulty"`
	ScoreType     string   `mapstructure:"score_type" yaml:"score_type"`
	RankingMethod string   `mapstructure:"ranking_method" yaml:"ranking_method"`
	TargetValue   *float64 `mapstructure:"target_value" yaml:"target_value"`
}

// MattermostConfig contains Mattermost webhook notification settings.
type MattermostConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Enabled    bool   `mapstructure:"enabled"`
	HubURL     string `mapstructure:"hub_url"` // used to link leaderboards in announcements
}

// SchedulerConfig contains background job settings.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	StatsRefresh string `mapstructure:"stats_refresh"` // cron expression
	DailyGame    string `mapstructure:"daily_game"`    // HH:MM, empty disables the announcement
	SkipWeekends bool   `mapstructure:"skip_weekends"`
	Timezone     string `mapstructure:"timezone"`
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.live_feed", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "arcade.db")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 25)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("leaderboard.max_username_length", 20)
	v.SetDefault("leaderboard.top_n", 10)
	v.SetDefault("leaderboard.default_page_size", 50)
	v.SetDefault("leaderboard.max_page_size", 1000)
	v.SetDefault("leaderboard.widget_size", 5)
	v.SetDefault("leaderboard.cache_ttl", 60)

	v.SetDefault("scheduler.stats_refresh", "*/15 * * * *")
	v.SetDefault("scheduler.daily_game", "09:00")
	v.SetDefault("scheduler.skip_weekends", false)
	v.SetDefault("scheduler.timezone", "UTC")

	v.SetDefault("metrics.prometheus.port", 9090)
	v.SetDefault("metrics.prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Unmarshalling defaults into plain fields cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/arcade-hub/")
	}

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")
	_ = v.BindEnv("server.secure_cookies", "SERVER_SECURE_COOKIES")
	_ = v.BindEnv("server.live_feed", "SERVER_LIVE_FEED")

	// Database configuration
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.sqlite.path", "SQLITE_PATH")
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Leaderboard configuration
	_ = v.BindEnv("leaderboard.default_page_size", "LEADERBOARD_DEFAULT_PAGE_SIZE")
	_ = v.BindEnv("leaderboard.max_page_size", "LEADERBOARD_MAX_PAGE_SIZE")
	_ = v.BindEnv("leaderboard.cache_ttl", "LEADERBOARD_CACHE_TTL")

	// Catalog configuration
	_ = v.BindEnv("catalog.file", "CATALOG_FILE")

	// Mattermost configuration
	_ = v.BindEnv("mattermost.webhook_url", "MATTERMOST_WEBHOOK_URL")
	_ = v.BindEnv("mattermost.channel", "MATTERMOST_CHANNEL")
	_ = v.BindEnv("mattermost.enabled", "MATTERMOST_ENABLED")
	_ = v.BindEnv("mattermost.hub_url", "MATTERMOST_HUB_URL")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.stats_refresh", "SCHEDULER_STATS_REFRESH")
	_ = v.BindEnv("scheduler.daily_game", "SCHEDULER_DAILY_GAME")
	_ = v.BindEnv("scheduler.skip_weekends", "SCHEDULER_SKIP_WEEKENDS")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if c.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Database.Redis.Enabled && c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required when redis is enabled")
	}
	if c.Mattermost.Enabled && c.Mattermost.WebhookURL == "" {
		return fmt.Errorf("mattermost.webhook_url is required when mattermost is enabled")
	}

	lb := c.Leaderboard
	if lb.MaxUsernameLength <= 0 || lb.MaxUsernameLength > UsernameColumnSize {
		return fmt.Errorf("leaderboard.max_username_length must be between 1 and %d", UsernameColumnSize)
	}
	if lb.TopN <= 0 {
		return fmt.Errorf("leaderboard.top_n must be positive")
	}
	if lb.DefaultPageSize <= 0 || lb.MaxPageSize < lb.DefaultPageSize {
		return fmt.Errorf("leaderboard page sizes must satisfy 0 < default_page_size <= max_page_size")
	}
	if lb.WidgetSize <= 0 {
		return fmt.Errorf("leaderboard.widget_size must be positive")
	}

	seen := make(map[string]bool, len(c.Catalog.Games))
	for _, g := range c.Catalog.Games {
		if g.Name == "" {
			return fmt.Errorf("catalog game name is required")
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate catalog game %q", g.Name)
		}
		seen[g.Name] = true
	}

	return nil
}

// GetLocation returns the timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
