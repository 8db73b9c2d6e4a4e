// Package timewindow builds the [gte, lte] bounds used for series discovery.
package timewindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/esports-scout-api/internal/isotime"
	"github.com/yourusername/esports-scout-api/internal/models"
)

type Direction string

const (
	Past Direction = "past"
	Next Direction = "next"
)

// WidenHours is the fixed increment applied by the one-time widening retry.
const WidenHours = 336

// Window is an immutable pair of bounds. Widen returns a new value.
type Window struct {
	Gte time.Time
	Lte time.Time
}

// ParseDirection accepts "past" or "next" (case-insensitive). Empty defaults to past.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Past:
		return Past, nil
	case Next:
		return Next, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be 'past' or 'next'", s)
	}
}

// Compute anchors one bound at now and places the other hours away in dir.
func Compute(dir Direction, hours int, now time.Time) Window {
	span := time.Duration(hours) * time.Hour
	if dir == Next {
		return Window{Gte: now, Lte: now.Add(span)}
	}
	return Window{Gte: now.Add(-span), Lte: now}
}

// DaysBack is the legacy window used when no hours were supplied.
func DaysBack(days int, now time.Time) Window {
	return Window{Gte: now.AddDate(0, 0, -days), Lte: now}
}

// Widen moves only the bound furthest from now, by extraHours in dir.
func Widen(w Window, dir Direction, extraHours int) Window {
	span := time.Duration(extraHours) * time.Hour
	if dir == Next {
		return Window{Gte: w.Gte, Lte: w.Lte.Add(span)}
	}
	return Window{Gte: w.Gte.Add(-span), Lte: w.Lte}
}

// Bounds renders the window the way GRID expects date strings.
func (w Window) Bounds() models.WindowBounds {
	return models.WindowBounds{
		Gte: isotime.Format(w.Gte),
		Lte: isotime.Format(w.Lte),
	}
}

// DateRange is the human-readable range shown on reports.
func (w Window) DateRange() string {
	return fmt.Sprintf("%s to %s", w.Gte.UTC().Format("2006-01-02"), w.Lte.UTC().Format("2006-01-02"))
}
