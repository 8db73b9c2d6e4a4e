package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/services"
)

// Scout runs the scouting pipeline for a JSON body.
// POST /api/v1/scout
func (h *Handler) Scout(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	var req services.ScoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid scout body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    services.CodeInvalidRequest,
			"error":   "Invalid request body",
		})
		return
	}
	h.runScout(c, req)
}

// ScoutQuery is the same pipeline driven by query parameters.
// GET /api/v1/scout?teamId=...&hours=...
func (h *Handler) ScoutQuery(c *gin.Context) {
	if h.missingKey(c) {
		return
	}
	req := services.ScoutRequest{
		TeamID:    models.FlexID(strings.TrimSpace(c.Query("teamId"))),
		TitleID:   c.Query("titleId"),
		Direction: c.Query("direction"),
		Gte:       c.Query("gte"),
		Lte:       c.Query("lte"),
	}
	if raw := c.Query("tournamentIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.TournamentIDs = append(req.TournamentIDs, id)
			}
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"hours", &req.Hours},
		{"daysBack", &req.DaysBack},
		{"maxSeries", &req.MaxSeries},
	}
	for _, p := range ints {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"code":    services.CodeInvalidRequest,
				"error":   p.name + " must be an integer",
			})
			return
		}
		*p.dst = n
	}

	if raw := c.Query("debug"); raw != "" {
		req.Debug, _ = strconv.ParseBool(raw)
	}

	h.runScout(c, req)
}

func (h *Handler) runScout(c *gin.Context, req services.ScoutRequest) {
	res := h.scout.Scout(c.Request.Context(), req)
	if res.RequestID != "" {
		c.Header(requestIDHeader, res.RequestID)
	}
	c.JSON(res.Status, res.Response)
}
