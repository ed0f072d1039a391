// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the arcade hub.
var (
	// Counters.
	ScoreSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_submissions_total",
			Help: "Total number of score submissions by outcome",
		},
		[]string{"game", "status"},
	)

	NewRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_new_records_total",
			Help: "Total number of submissions that beat the previous best score",
		},
		[]string{"game"},
	)

	InteractionTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_toggles_total",
			Help: "Total number of like and favorite toggles",
		},
		[]string{"kind", "action"},
	)

	LeaderboardCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_lookups_total",
			Help: "Leaderboard page cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// Gauges.
	GameLikes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "game_likes",
			Help: "Current number of likes per game",
		},
		[]string{"game"},
	)

	GameFavorites = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "game_favorites",
			Help: "Current number of favorites per game",
		},
		[]string{"game"},
	)

	GamePlays = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "game_plays",
			Help: "Current number of recorded scores per game",
		},
		[]string{"game"},
	)

	// Histograms.
	SubmissionDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "score_submission_duration_seconds",
			Help:    "Time spent in the score submission transaction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute a scheduler job",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	// Notification metrics.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Mattermost announcements by outcome",
		},
		[]string{"status"},
	)

	// Live feed metrics.
	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_leaderboard_subscribers",
			Help: "Current number of websocket leaderboard subscribers",
		},
	)

	LeaderboardExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_exports_total",
			Help: "Spreadsheet exports of leaderboards by outcome",
		},
		[]string{"status"},
	)
)

// RecordSubmission records a score submission outcome.
func RecordSubmission(game, status string) {
	ScoreSubmissionsTotal.WithLabelValues(game, status).Inc()
}

// RecordNewRecord records a new best score for a game.
func RecordNewRecord(game string) {
	NewRecordsTotal.WithLabelValues(game).Inc()
}

// ObserveSubmissionDuration observes the duration of a submission transaction.
func ObserveSubmissionDuration(seconds float64) {
	SubmissionDurationSeconds.Observe(seconds)
}

// RecordInteractionToggle records a like or favorite toggle.
func RecordInteractionToggle(kind, action string) {
	InteractionTogglesTotal.WithLabelValues(kind, action).Inc()
}

// RecordCacheLookup records a page cache hit or miss.
func RecordCacheLookup(result string) {
	LeaderboardCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(seconds)
}

// SetGameStats sets the interaction and play gauges of a game.
func SetGameStats(game string, likes, favorites, plays int64) {
	GameLikes.WithLabelValues(game).Set(float64(likes))
	GameFavorites.WithLabelValues(game).Set(float64(favorites))
	GamePlays.WithLabelValues(game).Set(float64(plays))
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun() {
	SchedulerLastRunTimestamp.SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(seconds float64) {
	SchedulerJobDurationSeconds.Observe(seconds)
}

// RecordNotification records a Mattermost announcement outcome.
func RecordNotification(status string) {
	NotificationsSentTotal.WithLabelValues(status).Inc()
}

// AddLiveSubscribers adjusts the live subscriber gauge by delta.
func AddLiveSubscribers(delta float64) {
	LiveSubscribers.Add(delta)
}

// RecordExport records a leaderboard export outcome.
func RecordExport(status string) {
	LeaderboardExportsTotal.WithLabelValues(status).Inc()
}
