package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/services"
)

const (
	sourceGRID = "GRID"

	codeQueryRequired       = "QUERY_REQUIRED"
	codeTitleIDRequired     = "TITLE_ID_REQUIRED"
	codeSeriesIDRequired    = "SERIES_ID_REQUIRED"
	codeNoState             = "NO_STATE"
	codeEndpointNotFound    = "ENDPOINT_NOT_FOUND"
	codeIntrospectionFailed = "INTROSPECTION_FAILED"
	defaultTeamSearchLimit  = 10
	maxTeamSearchLimit      = 50
)

// SearchTeams looks teams up by name.
// GET /api/v1/teams?q=cloud9&limit=10
func (h *Handler) SearchTeams(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": codeQueryRequired, "error": "q is required"})
		return
	}

	limit := defaultTeamSearchLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxTeamSearchLimit)
		}
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	teams, err := h.gridClient.SearchTeams(ctx, q, limit)
	if err != nil {
		h.upstreamFailure(c, "teams", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": sourceGRID, "teams": teams})
}

// GridHealth checks that the configured key can reach central-data.
func (h *Handler) GridHealth(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	if err := h.gridClient.HealthCheck(ctx); err != nil {
		h.upstreamFailure(c, "health", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": sourceGRID})
}

func (h *Handler) ListTitles(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	titles, err := h.gridClient.ListTitles(ctx)
	if err != nil {
		h.upstreamFailure(c, "titles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": sourceGRID, "titles": titles})
}

// ListTournaments returns the whitelisted tournaments of a title, or all of
// them when none are whitelisted.
func (h *Handler) ListTournaments(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	titleID := strings.TrimSpace(c.Query("titleId"))
	if titleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": codeTitleIDRequired, "error": "titleId is required"})
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	list, err := h.gridClient.ListTournaments(ctx, titleID)
	if err != nil {
		h.upstreamFailure(c, "tournaments", err)
		return
	}

	filtered := grid.FilterWhitelisted(list.Tournaments, h.opts.Whitelist)
	whitelisted := len(filtered) > 0
	if !whitelisted {
		filtered = list.Tournaments
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"source":               sourceGRID,
		"titleId":              titleID,
		"tournaments":          filtered,
		"totalCount":           len(filtered),
		"totalCountUnfiltered": list.TotalCount,
		"whitelistApplied":     whitelisted,
	})
}

func (h *Handler) GetSeriesState(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	seriesID := strings.TrimSpace(c.Query("seriesId"))
	if seriesID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": codeSeriesIDRequired, "error": "seriesId is required"})
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	state, err := h.gridClient.GetSeriesState(ctx, seriesID)
	if err != nil {
		h.logger.Error("series state failed", zap.String("seriesId", seriesID), zap.Error(err))

		status, code := http.StatusBadGateway, services.CodeGridFetchFailed
		var ue *grid.UpstreamError
		switch {
		case errors.Is(err, context.DeadlineExceeded), grid.KindOf(err) == grid.KindTimeout:
			status, code = http.StatusGatewayTimeout, services.CodeTimeout
		case errors.As(err, &ue):
			switch ue.Kind {
			case grid.KindUnauthorized:
				status, code = http.StatusUnauthorized, services.CodeUnauthorized
			case grid.KindForbidden:
				status, code = http.StatusForbidden, services.CodeForbidden
			case grid.KindNotFound:
				status, code = http.StatusNotFound, codeEndpointNotFound
			case grid.KindQuery:
				code = services.CodeGraphQLError
			}
		}
		c.JSON(status, gin.H{"success": false, "code": code, "seriesId": seriesID, "error": err.Error()})
		return
	}

	if state == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "code": codeNoState, "seriesId": seriesID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": sourceGRID, "seriesId": seriesID, "state": state})
}

// ListFiles proxies the file-download manifest. Missing manifests come back
// as an empty list.
func (h *Handler) ListFiles(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	seriesID := strings.TrimSpace(c.Query("seriesId"))
	if seriesID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": codeSeriesIDRequired, "error": "seriesId is required"})
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	files, err := h.gridClient.ListFiles(ctx, seriesID)
	if err != nil {
		h.upstreamFailure(c, "file-download list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": sourceGRID, "seriesId": seriesID, "files": files})
}

// Introspect reports the live schema for series discovery and the field
// names extracted from it.
func (h *Handler) Introspect(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	types, err := h.gridClient.IntrospectSeriesTypes(ctx)
	if err != nil {
		h.logger.Error("introspection failed", zap.Error(err))

		details := gin.H{}
		var ie *grid.IntrospectionError
		if errors.As(err, &ie) {
			details["which"] = ie.Which
			details["httpStatus"] = ie.StatusCode()
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"code":    codeIntrospectionFailed,
			"error":   err.Error(),
			"details": details,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"source":        sourceGRID,
		"seriesType":    types.Series,
		"seriesFilter":  types.SeriesFilter,
		"seriesOrderBy": types.SeriesOrderBy,
		"fields":        grid.ExtractSchemaFields(types),
	})
}
