package services

import (
	"fmt"
	"math"

	"github.com/yourusername/esports-scout-api/internal/models"
)

type periodStats struct {
	Series  int
	WinRate float64
	KDRatio float64
}

// TrendsService compares a team's most recent series to its whole sample.
type TrendsService struct{}

func NewTrendsService() *TrendsService {
	return &TrendsService{}
}

// AnalyzeTrends expects stats ordered newest first. The recent period is the
// newer half of the sample.
func (s *TrendsService) AnalyzeTrends(stats []models.SeriesStats) []models.Tendency {
	if len(stats) < 4 {
		return nil
	}

	overall := summarizePeriod(stats)
	recent := summarizePeriod(stats[:len(stats)/2])
	return s.generateAlerts(overall, recent)
}

func summarizePeriod(stats []models.SeriesStats) periodStats {
	var wins, kills, deaths int
	for _, st := range stats {
		if st.Won {
			wins++
		}
		kills += st.Kills
		deaths += st.Deaths
	}

	p := periodStats{Series: len(stats)}
	if len(stats) > 0 {
		p.WinRate = float64(wins) / float64(len(stats))
	}
	if deaths > 0 {
		p.KDRatio = float64(kills) / float64(deaths)
	} else {
		p.KDRatio = float64(kills)
	}
	return p
}

func (s *TrendsService) generateAlerts(overall, recent periodStats) []models.Tendency {
	var alerts []models.Tendency

	if recent.Series < 2 {
		return alerts
	}

	if overall.WinRate > 0 {
		winRateChangePct := (recent.WinRate - overall.WinRate) / overall.WinRate * 100
		if math.Abs(winRateChangePct) >= 15 {
			title := "Improving form"
			direction := "increased"
			if winRateChangePct < 0 {
				title = "Slumping form"
				direction = "decreased"
			}
			alerts = append(alerts, models.Tendency{
				Title: title,
				Evidence: fmt.Sprintf("Win rate %s by %.0f%% over the last %d series (%.0f%% vs %.0f%% overall)",
					direction, math.Abs(winRateChangePct), recent.Series, recent.WinRate*100, overall.WinRate*100),
				Confidence: s.determineSeverity(math.Abs(winRateChangePct)),
			})
		}
	}

	if overall.KDRatio > 0 {
		kdChangePct := (recent.KDRatio - overall.KDRatio) / overall.KDRatio * 100
		if math.Abs(kdChangePct) >= 10 {
			title := "More efficient fights recently"
			direction := "improved"
			if kdChangePct < 0 {
				title = "Losing more fights recently"
				direction = "declined"
			}
			alerts = append(alerts, models.Tendency{
				Title:      title,
				Evidence:   fmt.Sprintf("K/D ratio %s by %.0f%% (%.2f vs %.2f overall)", direction, math.Abs(kdChangePct), recent.KDRatio, overall.KDRatio),
				Confidence: s.determineSeverity(math.Abs(kdChangePct)),
			})
		}
	}

	if len(alerts) == 0 && recent.Series >= 3 {
		alerts = append(alerts, models.Tendency{
			Title:      "Consistent performance",
			Evidence:   "No significant change between recent series and the full sample",
			Confidence: models.ConfidenceLow,
		})
	}

	return alerts
}

func (s *TrendsService) determineSeverity(changePct float64) models.ConfidenceLevel {
	if changePct >= 25 {
		return models.ConfidenceHigh
	} else if changePct >= 15 {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}
