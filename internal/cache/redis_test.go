package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/arcade-hub/internal/config"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

type page struct {
	Game    string `json:"game"`
	Entries []int  `json:"entries"`
}

func TestCache_JSONRoundTrip(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	key := LeaderboardPageKey("Snake", "3", 50, 0)
	require.NoError(t, c.SetJSON(ctx, key, page{Game: "Snake", Entries: []int{1, 2}}, time.Minute))

	var got page
	require.NoError(t, c.GetJSON(ctx, key, &got))
	assert.Equal(t, "Snake", got.Game)
	assert.Equal(t, []int{1, 2}, got.Entries)

	mr.FastForward(2 * time.Minute)
	err := c.GetJSON(ctx, key, &got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCache_GetMissing(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCache_Generation(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	key := LeaderboardGenerationKey("Snake")
	n, err := c.Incr(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	gen, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2", gen)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), &config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr), PoolSize: 2})
	require.NoError(t, err)
	assert.NoError(t, c.Health(context.Background()))
	require.NoError(t, c.Close())

	_, err = New(context.Background(), &config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:Snake:gen", LeaderboardGenerationKey("Snake"))
	assert.Equal(t, "leaderboard:Snake:v7:10:20", LeaderboardPageKey("Snake", "7", 10, 20))
	assert.Equal(t, "leaderboards:index:v0", GamesIndexKey("0"))
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()

	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}
