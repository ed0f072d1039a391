package scheduler

import (
	"context"

	"github.com/aimd54/arcade-hub/internal/catalog"
	"github.com/aimd54/arcade-hub/internal/mattermost"
)

// buildDailyGame transforms a catalog game into the Mattermost announcement,
// adding the current leader when one exists.
func (s *Service) buildDailyGame(ctx context.Context, game catalog.Game) mattermost.DailyGame {
	daily := mattermost.DailyGame{
		Name:        game.Name,
		Description: game.Description,
		Icon:        game.Icon,
		Category:    game.Category,
		Path:        game.Path,
	}

	if s.leaderboards == nil {
		return daily
	}

	page := s.leaderboards.GetWidget(ctx, game.Name)
	if page == nil || !page.Success || len(page.Entries) == 0 {
		return daily
	}

	daily.TopPlayer = page.Entries[0].Username
	daily.TopScore = page.Entries[0].Display
	return daily
}
