package leaderboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/internal/ranking"
)

// ExportSheet is the worksheet holding an exported leaderboard.
const ExportSheet = "Leaderboard"

var exportHeader = []interface{}{"Rank", "Player", "Score", "Display", "Ranking score", "Submitted"}

// ExportXLSX writes the complete leaderboard of game, best first, as an
// Excel workbook to w. A game without scores yields a header-only sheet.
func (s *Service) ExportXLSX(game string, w io.Writer) error {
	game = strings.TrimSpace(game)
	err := s.exportXLSX(game, w)
	if err != nil {
		prommetrics.RecordExport("error")
		s.log.Error().Err(err).Str("game", game).Msg("Failed to export leaderboard")
		return err
	}
	prommetrics.RecordExport("success")
	return nil
}

func (s *Service) exportXLSX(game string, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetRowStyle(ExportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	cfg, err := s.scoreRepo.GetGameConfig(game)
	if err != nil {
		return err
	}

	if cfg != nil {
		method := ranking.Method(cfg.RankingMethod)
		descending := ranking.IsDescendingBetter(method)
		pageSize := s.cfg.MaxPageSize
		if pageSize <= 0 {
			pageSize = 1000
		}

		row := 2
		for offset := 0; ; offset += pageSize {
			ranked, err := s.scoreRepo.QueryOrdered(game, descending, pageSize, offset)
			if err != nil {
				return err
			}

			for _, r := range ranked {
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return err
				}
				values := []interface{}{
					r.Rank,
					r.Username,
					r.RawScore,
					ranking.FormatScore(r.RawScore, cfg.ScoreType, method, cfg.TargetValue),
					r.RankingScore,
					r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
				}
				if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
					return fmt.Errorf("failed to write row %d: %w", row, err)
				}
				row++
			}

			if len(ranked) < pageSize {
				break
			}
		}
	}

	if err := f.SetColWidth(ExportSheet, "A", "F", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
