package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

// DiscoverFunc runs discovery and the team filter for one window.
type DiscoverFunc func(ctx context.Context, w timewindow.Window) ([]models.SeriesCandidate, error)

type WidenPlan struct {
	Window    timewindow.Window
	Direction timewindow.Direction
	// AllowWiden is true only when the caller supplied an hours window.
	AllowWiden bool
	ExtraHours int
}

type WidenResult struct {
	Series    []models.SeriesCandidate
	Original  timewindow.Window
	Final     timewindow.Window
	Widened   *timewindow.Window
	Attempted bool
}

// WideningController retries an empty discovery once with a larger window.
// One controller serves one request; it never widens a second time, even
// across repeated Run calls.
type WideningController struct {
	attempted bool
	logger    *zap.Logger
}

func NewWideningController(logger *zap.Logger) *WideningController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WideningController{logger: logger}
}

func (c *WideningController) Run(ctx context.Context, plan WidenPlan, discover DiscoverFunc) (WidenResult, error) {
	res := WidenResult{Original: plan.Window, Final: plan.Window}

	series, err := discover(ctx, plan.Window)
	if err != nil {
		return res, err
	}
	res.Series = series

	if len(series) > 0 || !plan.AllowWiden || c.attempted {
		return res, nil
	}

	extra := plan.ExtraHours
	if extra <= 0 {
		extra = timewindow.WidenHours
	}
	widened := timewindow.Widen(plan.Window, plan.Direction, extra)
	c.attempted = true
	res.Attempted = true
	res.Widened = &widened
	res.Final = widened

	c.logger.Info("no series in window, widening once",
		zap.String("direction", string(plan.Direction)),
		zap.Int("extraHours", extra),
		zap.String("gte", widened.Bounds().Gte),
		zap.String("lte", widened.Bounds().Lte))

	series, err = discover(ctx, widened)
	if err != nil {
		return res, err
	}
	res.Series = series
	return res, nil
}
