// Command arcade-hub serves the games catalog, leaderboards and score API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/arcade-hub/internal/api/hub"
	"github.com/aimd54/arcade-hub/internal/cache"
	"github.com/aimd54/arcade-hub/internal/catalog"
	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/live"
	"github.com/aimd54/arcade-hub/internal/mattermost"
	"github.com/aimd54/arcade-hub/internal/repository"
	"github.com/aimd54/arcade-hub/internal/service/interactions"
	"github.com/aimd54/arcade-hub/internal/service/leaderboard"
	"github.com/aimd54/arcade-hub/internal/service/scheduler"
	"github.com/aimd54/arcade-hub/internal/service/submission"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Arcade hub stopped with an error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := catalog.Load(&cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load game catalog: %w", err)
	}
	log.Info().Int("games", registry.Len()).Msg("Game catalog loaded")

	db, err := repository.NewDB(&cfg.Database, log.Component("database"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var cacheClient *cache.Cache
	if cfg.Database.Redis.Enabled {
		cacheClient, err = cache.New(ctx, &cfg.Database.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = cacheClient.Close() }()
		log.Info().Str("host", cfg.Database.Redis.Host).Msg("Leaderboard cache enabled")
	}

	mattermostClient := mattermost.NewClient(&cfg.Mattermost, log.Component("mattermost"))

	scoreRepo := repository.NewScoreRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	submissionService := submission.NewService(scoreRepo, cacheClient, mattermostClient, cfg.Leaderboard, log.Component("submission"))
	var liveHub *live.Hub
	if cfg.Server.LiveFeed {
		liveHub = live.NewHub(cfg.Server.AllowedOrigins, log.Component("live"))
		submissionService.SetBroadcaster(liveHub)
	}
	leaderboardService := leaderboard.NewService(scoreRepo, cacheClient, cfg.Leaderboard, log.Component("leaderboard"))
	interactionService := interactions.NewService(repository.NewInteractionRepository(db), statsRepo, log.Component("interactions"))

	var announcer scheduler.Announcer
	if mattermostClient.Enabled() {
		announcer = mattermostClient
	}
	schedulerService := scheduler.NewService(cfg.Scheduler, statsRepo, registry, leaderboardService, announcer, log.Component("scheduler"))
	if err := schedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	handler := hub.NewHandler(submissionService, leaderboardService, interactionService, registry, log.Component("api"))
	if liveHub != nil {
		handler.SetLiveFeed(liveHub)
	}
	handler.AddHealthCheck("database", func(ctx context.Context) error { return db.Health() })
	if cacheClient != nil {
		handler.AddHealthCheck("cache", cacheClient.Health)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      hub.NewRouter(&cfg.Server, handler, log.Component("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	servers := []*http.Server{srv}
	if cfg.Metrics.Prometheus.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Prometheus.Path, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Prometheus.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			log.Info().Str("addr", s.Addr).Msg("Starting HTTP server")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s failed: %w", s.Addr, err)
			}
		}(s)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Shutting down after server failure")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("addr", s.Addr).Msg("Server forced to shutdown")
		}
	}
	submissionService.Wait()

	log.Info().Msg("Arcade hub exited properly")
	return runErr
}
