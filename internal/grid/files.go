package grid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/yourusername/esports-scout-api/internal/models"
)

// ListFiles fetches the file-download manifest for a series. A 404 or an
// empty body means no files and is not an error.
func (c *Client) ListFiles(ctx context.Context, seriesID string) ([]models.FileEntry, error) {
	listURL := fmt.Sprintf("%s/list/%s", c.fileDownloadURL, url.PathEscape(seriesID))

	body, err := c.get(ctx, "file-download list", listURL)
	if err != nil {
		if KindOf(err) == KindNotFound || crerr.Is(err, ErrEmptyBody) {
			return []models.FileEntry{}, nil
		}
		return nil, err
	}

	files, err := decodeManifest(body)
	if err != nil {
		return nil, classify("file-download list", crerr.Wrapf(err, "decoding response"))
	}
	return files, nil
}

// The endpoint returns a bare array; older deployments wrapped it in {"files": [...]}.
func decodeManifest(body []byte) ([]models.FileEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var files []models.FileEntry
		if err := sonic.Unmarshal(trimmed, &files); err != nil {
			return nil, err
		}
		return files, nil
	}

	var wrapped struct {
		Files []models.FileEntry `json:"files"`
	}
	if err := sonic.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Files == nil {
		return []models.FileEntry{}, nil
	}
	return wrapped.Files, nil
}

// DownloadFile fetches a manifest URL and decodes it as a JSON object.
func (c *Client) DownloadFile(ctx context.Context, fullURL string) (map[string]any, error) {
	body, err := c.get(ctx, "file-download", fullURL)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, classify("file-download", crerr.Mark(crerr.Wrapf(err, "JSON_PARSE_FAILED"), ErrInvalidJSON))
	}
	if data == nil {
		return nil, classify("file-download", crerr.Mark(crerr.New("JSON_PARSE_FAILED: top-level value is not an object"), ErrInvalidJSON))
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, op, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, crerr.Wrapf(err, "failed to create %s request", op)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(op, err)
	}
	return body, nil
}

// PickMatchFile returns the first manifest entry that looks like a match
// state or end-state JSON file, in manifest order.
func PickMatchFile(files []models.FileEntry) (models.FileEntry, bool) {
	for _, f := range files {
		name := strings.ToLower(f.FileName)
		if name == "" {
			name = strings.ToLower(f.ID)
		}
		if strings.Contains(name, "state-grid") || strings.Contains(name, "end-state") || strings.HasSuffix(name, ".json") {
			return f, true
		}
	}
	return models.FileEntry{}, false
}

// FileTypes lists each entry's id, falling back to its file name.
func FileTypes(files []models.FileEntry) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f.ID != "" {
			out = append(out, f.ID)
		} else {
			out = append(out, f.FileName)
		}
	}
	return out
}

// ParseEndState pulls per-team totals out of a match file. Files carry either
// a top-level teams array or a games array with teams per game.
func ParseEndState(seriesID string, data map[string]any) (map[string]*models.SeriesStats, error) {
	if state, ok := data["seriesState"].(map[string]any); ok {
		data = state
	}

	teams, ok := data["teams"].([]any)
	if !ok {
		if games, ok := data["games"].([]any); ok {
			return parseFromGames(seriesID, games)
		}
		return nil, crerr.New("unexpected end-state format: no teams or games array")
	}

	teamStats := make(map[string]*models.SeriesStats)
	for _, t := range teams {
		teamData, ok := t.(map[string]any)
		if !ok {
			continue
		}

		teamID := getString(teamData, "id")
		if teamID == "" {
			continue
		}

		stats := &models.SeriesStats{
			SeriesID: seriesID,
			TeamID:   teamID,
			TeamName: getString(teamData, "name"),
		}

		if won, ok := teamData["won"].(bool); ok {
			stats.Won = won
		} else if outcome, ok := teamData["outcome"].(string); ok {
			stats.Won = outcome == "win"
		}
		if score, ok := teamData["score"].(float64); ok {
			stats.Wins = int(score)
		}

		if players, ok := teamData["players"].([]any); ok {
			for _, p := range players {
				playerData, ok := p.(map[string]any)
				if !ok {
					continue
				}
				stats.Kills += getInt(playerData, "kills")
				stats.Deaths += getInt(playerData, "deaths")
				stats.Assists += getInt(playerData, "killAssistsGiven") + getInt(playerData, "assists")
			}
		} else {
			stats.Kills = getInt(teamData, "kills")
			stats.Deaths = getInt(teamData, "deaths")
		}

		if games, ok := data["games"].([]any); ok {
			stats.GamesPlayed = len(games)
		}
		if stats.GamesPlayed == 0 {
			stats.GamesPlayed = 1
		}
		finishRatio(stats)
		teamStats[teamID] = stats
	}

	if len(teamStats) == 0 {
		return nil, crerr.New("no team stats found in end-state file")
	}
	return teamStats, nil
}

func parseFromGames(seriesID string, games []any) (map[string]*models.SeriesStats, error) {
	teamStats := make(map[string]*models.SeriesStats)

	for _, g := range games {
		gameData, ok := g.(map[string]any)
		if !ok {
			continue
		}
		teams, ok := gameData["teams"].([]any)
		if !ok {
			continue
		}

		for _, t := range teams {
			teamData, ok := t.(map[string]any)
			if !ok {
				continue
			}
			teamID := getString(teamData, "id")
			if teamID == "" {
				continue
			}

			stats, exists := teamStats[teamID]
			if !exists {
				stats = &models.SeriesStats{SeriesID: seriesID, TeamID: teamID, TeamName: getString(teamData, "name")}
				teamStats[teamID] = stats
			}
			stats.GamesPlayed++

			if won, ok := teamData["won"].(bool); ok && won {
				stats.Wins++
			}
			stats.Kills += getInt(teamData, "kills")
			stats.Deaths += getInt(teamData, "deaths")
		}
	}

	if len(teamStats) == 0 {
		return nil, crerr.New("no team stats found in games array")
	}
	for _, stats := range teamStats {
		stats.Won = stats.Wins*2 > stats.GamesPlayed
		finishRatio(stats)
	}
	return teamStats, nil
}

func finishRatio(stats *models.SeriesStats) {
	if stats.Deaths > 0 {
		stats.KDRatio = float64(stats.Kills) / float64(stats.Deaths)
	} else {
		stats.KDRatio = float64(stats.Kills)
	}
}

// getString tolerates ids sent as numbers.
func getString(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

func getInt(data map[string]any, key string) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return 0
}
