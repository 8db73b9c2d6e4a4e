package services

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/isotime"
	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

// Summarizer turns downloaded match files into a report. files is ordered
// newest first and is never empty.
type Summarizer interface {
	Summarize(team models.Team, files []models.MatchFile, window timewindow.Window) models.ScoutReport
}

// ReportService is the default Summarizer. It extracts per-team totals from
// each file and derives win-rate, K/D and form tendencies from them.
type ReportService struct {
	trends *TrendsService
	now    func() time.Time
	logger *zap.Logger
}

func NewReportService(logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{trends: NewTrendsService(), now: time.Now, logger: logger}
}

func (s *ReportService) Summarize(team models.Team, files []models.MatchFile, window timewindow.Window) models.ScoutReport {
	report := models.ScoutReport{
		TeamName:     team.Name,
		Region:       "Unknown",
		LastUpdated:  isotime.Format(s.now()),
		SampleSize:   len(files),
		DateRange:    window.DateRange(),
		Tendencies:   []models.Tendency{},
		Players:      []models.Player{},
		Compositions: []models.Composition{},
		Evidence:     []models.EvidenceItem{},
	}

	stats := make([]models.SeriesStats, 0, len(files))
	for _, f := range files {
		perTeam, err := grid.ParseEndState(f.SeriesID, f.Data)
		if err != nil {
			s.logger.Debug("match file has no usable team stats",
				zap.String("seriesId", f.SeriesID),
				zap.String("fileName", f.FileName),
				zap.Error(err))
			continue
		}
		if st := pickTeamStats(perTeam, team); st != nil {
			stats = append(stats, *st)
		}
	}

	report.Evidence = append(report.Evidence, models.EvidenceItem{
		Metric:     "Match files analyzed",
		Value:      fmt.Sprintf("%d", len(files)),
		SampleSize: fmt.Sprintf("%d series", len(files)),
	})

	if len(stats) == 0 {
		report.Tendencies = append(report.Tendencies, models.Tendency{
			Title:      "Limited in-game detail",
			Evidence:   fmt.Sprintf("%d match file(s) retrieved, none carried team totals for %s", len(files), team.Name),
			Confidence: models.ConfidenceLow,
		})
		return report
	}

	conf := CalculateConfidence(len(stats), len(files), window)
	overall := summarizePeriod(stats)

	var wins, kills, games int
	for _, st := range stats {
		if st.Won {
			wins++
		}
		kills += st.Kills
		games += st.GamesPlayed
	}

	report.Tendencies = append(report.Tendencies,
		models.Tendency{
			Title:      winRateTitle(overall.WinRate),
			Evidence:   fmt.Sprintf("Won %d of %d series (%.0f%%). %s", wins, len(stats), overall.WinRate*100, conf.Reasoning),
			Confidence: conf.Level,
		},
		models.Tendency{
			Title:      kdTitle(overall.KDRatio),
			Evidence:   fmt.Sprintf("Team K/D of %.2f across %d series", overall.KDRatio, len(stats)),
			Confidence: conf.Level,
		},
	)
	report.Tendencies = append(report.Tendencies, s.trends.AnalyzeTrends(stats)...)

	sampleSize := fmt.Sprintf("%d series", len(stats))
	report.Evidence = append(report.Evidence,
		models.EvidenceItem{Metric: "Series win rate", Value: fmt.Sprintf("%.0f%%", overall.WinRate*100), SampleSize: sampleSize},
		models.EvidenceItem{Metric: "K/D ratio", Value: fmt.Sprintf("%.2f", overall.KDRatio), SampleSize: sampleSize},
	)
	if games > 0 {
		report.Evidence = append(report.Evidence, models.EvidenceItem{
			Metric:     "Kills per game",
			Value:      fmt.Sprintf("%.1f", float64(kills)/float64(games)),
			SampleSize: fmt.Sprintf("%d games", games),
		})
	}

	return report
}

// pickTeamStats matches by id first and falls back to a case-insensitive
// name match, since some files key teams by an in-game id.
func pickTeamStats(perTeam map[string]*models.SeriesStats, team models.Team) *models.SeriesStats {
	if st, ok := perTeam[team.ID]; ok {
		return st
	}
	for _, st := range perTeam {
		if team.Name != "" && strings.EqualFold(st.TeamName, team.Name) {
			return st
		}
	}
	return nil
}

func winRateTitle(winRate float64) string {
	switch {
	case winRate >= 0.65:
		return "Dominant series record"
	case winRate >= 0.45:
		return "Even series record"
	default:
		return "Struggling series record"
	}
}

func kdTitle(kd float64) string {
	switch {
	case kd >= 1.15:
		return "Wins most fights"
	case kd >= 0.9:
		return "Trades evenly"
	default:
		return "Loses more fights than it wins"
	}
}
