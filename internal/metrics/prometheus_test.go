package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSubmission(t *testing.T) {
	// Reset the counter before test
	ScoreSubmissionsTotal.Reset()

	RecordSubmission("Snake", "success")
	RecordSubmission("Snake", "success")
	RecordSubmission("Snake", "invalid_input")

	count := testutil.ToFloat64(ScoreSubmissionsTotal.WithLabelValues("Snake", "success"))
	if count != 2 {
		t.Errorf("Expected Snake success count = 2, got %f", count)
	}

	count = testutil.ToFloat64(ScoreSubmissionsTotal.WithLabelValues("Snake", "invalid_input"))
	if count != 1 {
		t.Errorf("Expected Snake invalid_input count = 1, got %f", count)
	}
}

func TestRecordNewRecord(t *testing.T) {
	NewRecordsTotal.Reset()

	RecordNewRecord("Tetris")

	count := testutil.ToFloat64(NewRecordsTotal.WithLabelValues("Tetris"))
	if count != 1 {
		t.Errorf("Expected Tetris records = 1, got %f", count)
	}
}

func TestRecordInteractionToggle(t *testing.T) {
	InteractionTogglesTotal.Reset()

	RecordInteractionToggle("like", "liked")
	RecordInteractionToggle("like", "unliked")
	RecordInteractionToggle("like", "liked")

	count := testutil.ToFloat64(InteractionTogglesTotal.WithLabelValues("like", "liked"))
	if count != 2 {
		t.Errorf("Expected liked = 2, got %f", count)
	}
}

func TestSetGameStats(t *testing.T) {
	SetGameStats("Pong", 3, 1, 42)

	if v := testutil.ToFloat64(GameLikes.WithLabelValues("Pong")); v != 3 {
		t.Errorf("Expected likes = 3, got %f", v)
	}
	if v := testutil.ToFloat64(GameFavorites.WithLabelValues("Pong")); v != 1 {
		t.Errorf("Expected favorites = 1, got %f", v)
	}
	if v := testutil.ToFloat64(GamePlays.WithLabelValues("Pong")); v != 42 {
		t.Errorf("Expected plays = 42, got %f", v)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("GET", "/api/v1/leaderboards/:game", "200", 0.01)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/leaderboards/:game", "200"))
	if count != 1 {
		t.Errorf("Expected 1 request, got %f", count)
	}
}

func TestSchedulerMetrics(t *testing.T) {
	SchedulerJobsRunTotal.Reset()

	RecordSchedulerJobRun("stats_refresh", "success")
	SetSchedulerLastRun()
	ObserveSchedulerJobDuration(0.2)

	count := testutil.ToFloat64(SchedulerJobsRunTotal.WithLabelValues("stats_refresh", "success"))
	if count != 1 {
		t.Errorf("Expected 1 run, got %f", count)
	}
	if ts := testutil.ToFloat64(SchedulerLastRunTimestamp); ts <= 0 {
		t.Errorf("Expected last run timestamp to be set, got %f", ts)
	}
}

func TestHistogramsCollect(t *testing.T) {
	ObserveSubmissionDuration(0.004)

	if n := testutil.CollectAndCount(SubmissionDurationSeconds); n != 1 {
		t.Errorf("Expected 1 histogram series, got %d", n)
	}
}

func TestLiveAndExportMetrics(t *testing.T) {
	LiveSubscribers.Set(0)
	LeaderboardExportsTotal.Reset()

	AddLiveSubscribers(1)
	AddLiveSubscribers(1)
	AddLiveSubscribers(-1)
	if got := testutil.ToFloat64(LiveSubscribers); got != 1 {
		t.Errorf("Expected 1 live subscriber, got %f", got)
	}

	RecordExport("success")
	if got := testutil.ToFloat64(LeaderboardExportsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful export, got %f", got)
	}
}
