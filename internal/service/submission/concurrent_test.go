package submission

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/arcade-hub/internal/repository"
)

// TestConcurrentSubmissions verifies that parallel submissions to one game are
// serialized: each sees a distinct total and the final ranks are 1..N.
func TestConcurrentSubmissions(t *testing.T) {
	svc, db, _, _ := setupTestService(t)
	ctx := context.Background()

	const numPlayers = 25

	var wg sync.WaitGroup
	results := make([]*Result, numPlayers)
	for i := 0; i < numPlayers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.SubmitHigherIsBetter(ctx, "Race", "player", float64(i+1))
		}(i)
	}
	wg.Wait()

	totals := make([]int, 0, numPlayers)
	for i, res := range results {
		require.True(t, res.Success, "submission %d failed: %s", i, res.Error)
		totals = append(totals, int(res.TotalEntries))
	}
	sort.Ints(totals)
	for i, total := range totals {
		assert.Equal(t, i+1, total, "totals must be a permutation of 1..N")
	}

	entries, err := repository.NewScoreRepository(db).QueryOrdered("Race", true, numPlayers, 0)
	require.NoError(t, err)
	require.Len(t, entries, numPlayers)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, float64(numPlayers-i), e.RawScore)
	}
}

func TestConcurrentSubmissions_SeparateGames(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	games := []string{"Snake", "Pong", "Tetris"}
	const perGame = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string][]int64)
	for _, game := range games {
		for i := 0; i < perGame; i++ {
			wg.Add(1)
			go func(game string, score float64) {
				defer wg.Done()
				res := svc.SubmitLowerIsBetter(ctx, game, "p", score)
				if !res.Success {
					t.Errorf("submission failed: %s", res.Error)
					return
				}
				mu.Lock()
				seen[game] = append(seen[game], res.TotalEntries)
				mu.Unlock()
			}(game, float64(i+1))
		}
	}
	wg.Wait()

	for _, game := range games {
		totals := seen[game]
		sort.Slice(totals, func(i, j int) bool { return totals[i] < totals[j] })
		require.Len(t, totals, perGame)
		for i, total := range totals {
			assert.Equal(t, int64(i+1), total, game)
		}
	}
}
