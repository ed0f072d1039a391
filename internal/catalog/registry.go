// Package catalog holds the registry of games offered by the hub.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/ranking"
)

// Game is one catalog entry.
type Game struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Path          string   `json:"path"`
	Icon          string   `json:"icon,omitempty"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Difficulty    int      `json:"difficulty"`
	ScoreType     string   `json:"score_type,omitempty"`
	RankingMethod string   `json:"ranking_method,omitempty"`
	TargetValue   *float64 `json:"target_value,omitempty"`
}

// CategoryCount is the number of games in one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Games int    `json:"games"`
}

// Registry is an immutable, ordered set of games.
type Registry struct {
	games  []Game
	byName map[string]int
	bySlug map[string]int
}

type catalogFile struct {
	Games []config.GameEntry `yaml:"games"`
}

// Load builds a registry from the inline games of cfg followed by the games
// listed in cfg.File, when set.
func Load(cfg *config.CatalogConfig) (*Registry, error) {
	entries := append([]config.GameEntry{}, cfg.Games...)
	if cfg.File != "" {
		fromFile, err := ReadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile...)
	}
	return New(entries)
}

// ReadFile parses a YAML catalog file with a top-level "games" list.
func ReadFile(path string) ([]config.GameEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return f.Games, nil
}

// New validates entries and builds a registry preserving their order.
func New(entries []config.GameEntry) (*Registry, error) {
	r := &Registry{
		games:  make([]Game, 0, len(entries)),
		byName: make(map[string]int, len(entries)),
		bySlug: make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog game name is required")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate catalog game %q", name)
		}

		slug := e.Slug
		if slug == "" {
			slug = Slugify(name)
		}
		if _, dup := r.bySlug[slug]; dup {
			return nil, fmt.Errorf("duplicate catalog slug %q", slug)
		}

		if e.RankingMethod != "" {
			method := ranking.Parse(e.RankingMethod)
			if !method.Known() {
				return nil, fmt.Errorf("game %q: unknown ranking method %q", name, e.RankingMethod)
			}
			if method.RequiresTarget() && e.TargetValue == nil {
				return nil, fmt.Errorf("game %q: ranking method %s requires a target value", name, method)
			}
		}

		category := strings.ToLower(strings.TrimSpace(e.Category))
		if category == "" {
			category = "other"
		}

		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}

		r.byName[name] = len(r.games)
		r.bySlug[slug] = len(r.games)
		r.games = append(r.games, Game{
			Name:          name,
			Slug:          slug,
			Description:   e.Description,
			Path:          e.Path,
			Icon:          e.Icon,
			Category:      category,
			Tags:          tags,
			Difficulty:    e.Difficulty,
			ScoreType:     e.ScoreType,
			RankingMethod: e.RankingMethod,
			TargetValue:   e.TargetValue,
		})
	}

	return r, nil
}

// All returns every game in catalog order.
func (r *Registry) All() []Game {
	return append([]Game{}, r.games...)
}

// Len returns the number of games.
func (r *Registry) Len() int {
	return len(r.games)
}

// Lookup finds a game by exact name or slug.
func (r *Registry) Lookup(nameOrSlug string) (Game, bool) {
	if i, ok := r.byName[nameOrSlug]; ok {
		return r.games[i], true
	}
	if i, ok := r.bySlug[nameOrSlug]; ok {
		return r.games[i], true
	}
	return Game{}, false
}

// Categories returns the distinct categories with their game counts,
// sorted by name.
func (r *Registry) Categories() []CategoryCount {
	counts := make(map[string]int)
	for _, g := range r.games {
		counts[g.Category]++
	}

	result := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, CategoryCount{Name: name, Games: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ByCategory returns the games of category; an empty category returns all.
func (r *Registry) ByCategory(category string) []Game {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return r.All()
	}

	games := []Game{}
	for _, g := range r.games {
		if g.Category == category {
			games = append(games, g)
		}
	}
	return games
}

// Search returns games whose name, description or one of whose tags
// contains query, case-insensitively. An empty query returns all games.
func (r *Registry) Search(query string) []Game {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return r.All()
	}

	games := []Game{}
	for _, g := range r.games {
		if matches(g, query) {
			games = append(games, g)
		}
	}
	return games
}

func matches(g Game, query string) bool {
	if strings.Contains(strings.ToLower(g.Name), query) ||
		strings.Contains(strings.ToLower(g.Description), query) {
		return true
	}
	for _, tag := range g.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Daily returns the featured game for day. The choice cycles through the
// catalog by day of year so every caller sees the same game all day.
func (r *Registry) Daily(day time.Time) (Game, bool) {
	if len(r.games) == 0 {
		return Game{}, false
	}
	return r.games[day.YearDay()%len(r.games)], true
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(c)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
