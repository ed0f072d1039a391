package submission

import (
	"context"

	"github.com/aimd54/arcade-hub/internal/ranking"
)

// SubmitHigherIsBetter records a points score where higher ranks first.
func (s *Service) SubmitHigherIsBetter(ctx context.Context, game, username string, score float64) *Result {
	return s.SubmitScore(ctx, Request{
		GameName:      game,
		Username:      username,
		Score:         score,
		ScoreType:     "points",
		RankingMethod: string(ranking.HigherIsBetter),
	})
}

// SubmitLowerIsBetter records a time score where lower ranks first.
func (s *Service) SubmitLowerIsBetter(ctx context.Context, game, username string, score float64) *Result {
	return s.SubmitScore(ctx, Request{
		GameName:      game,
		Username:      username,
		Score:         score,
		ScoreType:     "time",
		RankingMethod: string(ranking.LowerIsBetter),
	})
}

// SubmitClosestToZero records a deviation where the smallest magnitude ranks first.
func (s *Service) SubmitClosestToZero(ctx context.Context, game, username string, score float64) *Result {
	return s.SubmitScore(ctx, Request{
		GameName:      game,
		Username:      username,
		Score:         score,
		ScoreType:     "deviation",
		RankingMethod: string(ranking.ClosestToZero),
	})
}

// SubmitClosestToTarget records a guess ranked by its distance to target.
func (s *Service) SubmitClosestToTarget(ctx context.Context, game, username string, score, target float64) *Result {
	return s.SubmitScore(ctx, Request{
		GameName:      game,
		Username:      username,
		Score:         score,
		ScoreType:     "guess",
		RankingMethod: string(ranking.ClosestToTarget),
		TargetValue:   &target,
	})
}

// SubmitPercentage records a percentage in [0, 100]. With higherIsBetter it
// is an accuracy, otherwise an error rate.
func (s *Service) SubmitPercentage(ctx context.Context, game, username string, percentage float64, higherIsBetter bool) *Result {
	req := Request{
		GameName:      game,
		Username:      username,
		Score:         percentage,
		ScoreType:     "accuracy",
		RankingMethod: string(ranking.HighestPercentage),
	}
	if !higherIsBetter {
		req.ScoreType = "error_rate"
		req.RankingMethod = string(ranking.LowestPercentage)
	}
	return s.SubmitScore(ctx, req)
}

// SubmitPositiveOnlyLower records a positive attempt count where fewer ranks first.
func (s *Service) SubmitPositiveOnlyLower(ctx context.Context, game, username string, score float64) *Result {
	return s.SubmitScore(ctx, Request{
		GameName:      game,
		Username:      username,
		Score:         score,
		ScoreType:     "attempts",
		RankingMethod: string(ranking.PositiveOnlyLower),
	})
}
