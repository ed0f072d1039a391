// Package live pushes leaderboard updates to websocket subscribers.
package live

import (
	"sync"
	"time"

	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Event types.
const (
	EventScore  = "score"
	EventRecord = "record"
)

const defaultBufferSize = 16

// Event is pushed to the subscribers of a game after an accepted submission.
type Event struct {
	Type         string    `json:"type"`
	GameName     string    `json:"game_name"`
	Username     string    `json:"username"`
	Score        float64   `json:"score"`
	Display      string    `json:"display"`
	Rank         int64     `json:"rank"`
	TotalEntries int64     `json:"total_entries"`
	IsNewRecord  bool      `json:"is_new_record"`
	Timestamp    time.Time `json:"timestamp"`
}

type subscriber struct {
	events chan Event
}

// Hub fans events out to per-game subscribers. Slow subscribers miss
// events instead of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	games   map[string]map[*subscriber]struct{}
	origins map[string]bool
	log     *logger.Logger
}

// NewHub creates a hub. Websocket upgrades are accepted from the given
// origins, or from any origin when none are listed.
func NewHub(allowedOrigins []string, log *logger.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			origins = map[string]bool{}
			break
		}
		origins[o] = true
	}
	return &Hub{
		games:   make(map[string]map[*subscriber]struct{}),
		origins: origins,
		log:     log,
	}
}

// Subscribe registers interest in game. The returned function removes the
// subscription and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(game string) (<-chan Event, func()) {
	sub := &subscriber{events: make(chan Event, defaultBufferSize)}

	h.mu.Lock()
	if h.games[game] == nil {
		h.games[game] = make(map[*subscriber]struct{})
	}
	h.games[game][sub] = struct{}{}
	h.mu.Unlock()
	prommetrics.AddLiveSubscribers(1)

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.games[game], sub)
			if len(h.games[game]) == 0 {
				delete(h.games, game)
			}
			close(sub.events)
			h.mu.Unlock()
			prommetrics.AddLiveSubscribers(-1)
		})
	}
}

// Publish delivers ev to every subscriber of its game and returns how many
// received it.
func (h *Hub) Publish(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.games[ev.GameName] {
		select {
		case sub.events <- ev:
			delivered++
		default:
			h.log.Debug().Str("game", ev.GameName).Msg("Dropped live event for slow subscriber")
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers of game.
func (h *Hub) Subscribers(game string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[game])
}
