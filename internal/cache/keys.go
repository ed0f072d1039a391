package cache

import "fmt"

// Leaderboard pages are cached under a per-game generation number. Bumping
// the generation orphans every cached page of that game; the orphans expire
// through their TTL.

// GamesIndexGenerationKey holds the generation of the leaderboards index.
const GamesIndexGenerationKey = "leaderboards:gen"

// LeaderboardGenerationKey holds the page generation of game.
func LeaderboardGenerationKey(game string) string {
	return fmt.Sprintf("leaderboard:%s:gen", game)
}

// LeaderboardPageKey addresses one cached page.
func LeaderboardPageKey(game, generation string, limit, offset int) string {
	return fmt.Sprintf("leaderboard:%s:v%s:%d:%d", game, generation, limit, offset)
}

// GamesIndexKey addresses the cached leaderboards index.
func GamesIndexKey(generation string) string {
	return fmt.Sprintf("leaderboards:index:v%s", generation)
}
