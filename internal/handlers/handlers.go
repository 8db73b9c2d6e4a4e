package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/services"
)

// GridAPI is the part of grid.Client the proxy routes use.
type GridAPI interface {
	HealthCheck(ctx context.Context) error
	SearchTeams(ctx context.Context, q string, limit int) ([]models.Team, error)
	ListTitles(ctx context.Context) ([]models.Title, error)
	ListTournaments(ctx context.Context, titleID string) (grid.TournamentList, error)
	GetSeriesState(ctx context.Context, seriesID string) (*grid.SeriesState, error)
	ListFiles(ctx context.Context, seriesID string) ([]models.FileEntry, error)
	IntrospectSeriesTypes(ctx context.Context) (grid.SeriesTypes, error)
}

type Scouter interface {
	Scout(ctx context.Context, req services.ScoutRequest) *services.ScoutResult
}

// CacheHealth is satisfied by cache.RedisStore.
type CacheHealth interface {
	HealthCheck(ctx context.Context) bool
}

type Options struct {
	HasAPIKey       bool
	Whitelist       []string
	UpstreamTimeout time.Duration
	// Cache is optional; /health reports "disabled" without it.
	Cache  CacheHealth
	Logger *zap.Logger
}

type Handler struct {
	gridClient GridAPI
	scout      Scouter
	opts       Options
	logger     *zap.Logger
}

func NewHandler(gc GridAPI, scout Scouter, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 10 * time.Second
	}
	if len(opts.Whitelist) == 0 {
		opts.Whitelist = grid.DefaultTournamentIDs()
	}
	return &Handler{gridClient: gc, scout: scout, opts: opts, logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/scout", h.Scout)
		api.GET("/scout", h.ScoutQuery)
		api.GET("/teams", h.SearchTeams)

		g := api.Group("/grid")
		g.GET("/health", h.GridHealth)
		g.GET("/titles", h.ListTitles)
		g.GET("/tournaments", h.ListTournaments)
		g.GET("/series-state", h.GetSeriesState)
		g.GET("/file-download/list", h.ListFiles)
		g.GET("/introspect", h.Introspect)
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	redisStatus := "disabled"
	if h.opts.Cache != nil {
		redisStatus = "ok"
		if !h.opts.Cache.HealthCheck(ctx) {
			redisStatus = "error"
		}
	}

	status := "ok"
	if redisStatus == "error" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"redis":         redisStatus,
		"gridKeyLoaded": h.opts.HasAPIKey,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) missingKey(c *gin.Context) bool {
	if h.opts.HasAPIKey {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "code": services.CodeMissingAPIKey})
	return true
}

func (h *Handler) upstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.opts.UpstreamTimeout)
}

// upstreamFailure writes the standard proxy error body for a GRID failure.
func (h *Handler) upstreamFailure(c *gin.Context, op string, err error) {
	h.logger.Error("GRID proxy call failed", zap.String("op", op), zap.Error(err))

	var ue *grid.UpstreamError
	status, code := http.StatusBadGateway, services.CodeGridFetchFailed
	switch {
	case errors.Is(err, context.DeadlineExceeded), grid.KindOf(err) == grid.KindTimeout:
		status, code = http.StatusGatewayTimeout, services.CodeTimeout
	case errors.As(err, &ue) && ue.Kind == grid.KindUnauthorized:
		status, code = http.StatusUnauthorized, services.CodeUnauthorized
	case errors.As(err, &ue) && ue.Kind == grid.KindForbidden:
		status, code = http.StatusForbidden, services.CodeForbidden
	}

	c.JSON(status, gin.H{"success": false, "code": code, "error": err.Error()})
}
