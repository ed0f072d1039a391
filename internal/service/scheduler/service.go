// Package scheduler runs the periodic stats reconciliation and the daily game announcement.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aimd54/arcade-hub/internal/catalog"
	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/mattermost"
	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/internal/models"
	"github.com/aimd54/arcade-hub/internal/service/leaderboard"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Job names used in logs and metrics.
const (
	JobStatsRefresh = "stats_refresh"
	JobDailyGame    = "daily_game"
)

// StatsRepository interface for game stats reconciliation.
type StatsRepository interface {
	KnownGames() ([]string, error)
	Refresh(game string) (*models.GameStats, error)
}

// Leaderboards interface for reading a game's current leader.
type Leaderboards interface {
	GetWidget(ctx context.Context, game string) *leaderboard.Page
}

// Announcer interface for posting the daily game.
type Announcer interface {
	AnnounceDailyGame(ctx context.Context, game mattermost.DailyGame) error
}

// Service handles the cron jobs.
type Service struct {
	config       config.SchedulerConfig
	statsRepo    StatsRepository
	registry     *catalog.Registry
	leaderboards Leaderboards
	announcer    Announcer
	log          *logger.Logger
	cron         *cron.Cron
	now          func() time.Time
}

// NewService creates a new scheduler service. registry, leaderboards and
// announcer may be nil, which disables the daily game job.
func NewService(
	cfg config.SchedulerConfig,
	statsRepo StatsRepository,
	registry *catalog.Registry,
	leaderboards Leaderboards,
	announcer Announcer,
	log *logger.Logger,
) *Service {
	return &Service{
		config:       cfg,
		statsRepo:    statsRepo,
		registry:     registry,
		leaderboards: leaderboards,
		announcer:    announcer,
		log:          log,
		now:          time.Now,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	_, err = s.cron.AddFunc(s.config.StatsRefresh, func() {
		s.runStatsRefresh(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register stats refresh job: %w", err)
	}

	if s.dailyGameEnabled() {
		cronExpr, err := s.buildCronExpression()
		if err != nil {
			return fmt.Errorf("failed to build cron expression: %w", err)
		}
		_, err = s.cron.AddFunc(cronExpr, func() {
			s.runDailyGame(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register daily game job: %w", err)
		}
		s.log.Info().
			Str("schedule", cronExpr).
			Bool("skip_weekends", s.config.SkipWeekends).
			Msg("Daily game job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("stats_refresh", s.config.StatsRefresh).
		Str("timezone", s.config.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

func (s *Service) dailyGameEnabled() bool {
	return s.config.DailyGame != "" && s.registry != nil && s.announcer != nil
}

// buildCronExpression turns the HH:MM daily game time into a cron expression.
func (s *Service) buildCronExpression() (string, error) {
	parts := strings.Split(s.config.DailyGame, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.DailyGame)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	if s.config.SkipWeekends {
		return fmt.Sprintf("%d %d * * 1-5", minute, hour), nil
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// RefreshStats recomputes the stored stats of every known game, including
// total plays, and publishes them as gauges. It returns the number of games
// refreshed; a failing game does not stop the others.
func (s *Service) RefreshStats(ctx context.Context) (int, error) {
	games, err := s.statsRepo.KnownGames()
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var firstErr error
	for _, game := range games {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		stats, err := s.statsRepo.Refresh(game)
		if err != nil {
			s.log.Warn().Err(err).Str("game", game).Msg("Failed to refresh game stats")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		prommetrics.SetGameStats(game, stats.TotalLikes, stats.TotalFavorites, stats.TotalPlays)
		refreshed++
	}

	return refreshed, firstErr
}

func (s *Service) runStatsRefresh(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun()
	}()

	refreshed, err := s.RefreshStats(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Int("refreshed", refreshed).
			Dur("duration", time.Since(start)).
			Msg("Stats refresh job failed")
		prommetrics.RecordSchedulerJobRun(JobStatsRefresh, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(JobStatsRefresh, "success")
	s.log.Info().
		Int("games", refreshed).
		Dur("duration", time.Since(start)).
		Msg("Stats refresh job completed")
}

// AnnounceDailyGame posts today's featured game with its current leader.
func (s *Service) AnnounceDailyGame(ctx context.Context) error {
	if s.registry == nil || s.announcer == nil {
		return nil
	}

	game, ok := s.registry.Daily(s.today())
	if !ok {
		s.log.Debug().Msg("Catalog is empty, no daily game to announce")
		return nil
	}

	return s.announcer.AnnounceDailyGame(ctx, s.buildDailyGame(ctx, game))
}

func (s *Service) today() time.Time {
	now := s.now()
	if location, err := s.config.GetLocation(); err == nil {
		now = now.In(location)
	}
	return now
}

func (s *Service) runDailyGame(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(time.Since(start).Seconds())
	}()

	if err := s.AnnounceDailyGame(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to announce daily game")
		prommetrics.RecordSchedulerJobRun(JobDailyGame, "error")
		prommetrics.RecordNotification("failed")
		return
	}

	prommetrics.RecordSchedulerJobRun(JobDailyGame, "success")
	prommetrics.RecordNotification("sent")
	s.log.Info().Dur("duration", time.Since(start)).Msg("Daily game announced")
}
