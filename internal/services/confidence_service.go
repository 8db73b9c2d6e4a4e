package services

import (
	"fmt"
	"time"

	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

type Confidence struct {
	Level            models.ConfidenceLevel
	SampleSize       int
	Reasoning        string
	ReliabilityScore int
}

// CalculateConfidence rates a statistic computed from sampleSize parsed
// series out of totalSeries found for the team in window.
func CalculateConfidence(sampleSize, totalSeries int, window timewindow.Window) Confidence {
	var level models.ConfidenceLevel
	var reliabilityScore int

	if totalSeries >= 10 {
		if sampleSize >= 8 {
			level = models.ConfidenceHigh
			reliabilityScore = 90
		} else if sampleSize >= 4 {
			level = models.ConfidenceMedium
			reliabilityScore = 65
		} else {
			level = models.ConfidenceLow
			reliabilityScore = 35
		}
	} else {
		if sampleSize >= 6 {
			level = models.ConfidenceHigh
			reliabilityScore = 85
		} else if sampleSize >= 3 {
			level = models.ConfidenceMedium
			reliabilityScore = 60
		} else {
			level = models.ConfidenceLow
			reliabilityScore = 30
		}
	}

	windowStr := formatTimeWindow(window)
	var reasoning string
	if sampleSize == totalSeries {
		reasoning = fmt.Sprintf("Based on all %d series available %s", sampleSize, windowStr)
	} else {
		reasoning = fmt.Sprintf("Based on %d of %d series %s", sampleSize, totalSeries, windowStr)
	}

	switch level {
	case models.ConfidenceHigh:
		reasoning += " - highly reliable"
	case models.ConfidenceMedium:
		reasoning += " - moderately reliable"
	case models.ConfidenceLow:
		reasoning += " - limited data, less reliable"
	}

	return Confidence{
		Level:            level,
		SampleSize:       sampleSize,
		Reasoning:        reasoning,
		ReliabilityScore: reliabilityScore,
	}
}

func formatTimeWindow(w timewindow.Window) string {
	span := w.Lte.Sub(w.Gte)
	switch {
	case span <= 0:
		return "in the selected time period"
	case span <= 8*24*time.Hour:
		return "over the last week"
	case span <= 32*24*time.Hour:
		return "over the last month"
	case span <= 95*24*time.Hour:
		return "over the last 3 months"
	case span <= 190*24*time.Hour:
		return "over the last 6 months"
	case span <= 370*24*time.Hour:
		return "over the last year"
	default:
		return fmt.Sprintf("over the last %d days", int(span.Hours()/24))
	}
}
