package services

import (
	"context"
	"strings"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
)

// Upstream is the subset of grid.Client the scouting pipeline depends on.
type Upstream interface {
	GetTeam(ctx context.Context, teamID string) (models.Team, error)
	ListTournaments(ctx context.Context, titleID string) (grid.TournamentList, error)
	ListSeriesPage(ctx context.Context, pr grid.SeriesPageRequest) (grid.SeriesPage, error)
	ListFiles(ctx context.Context, seriesID string) ([]models.FileEntry, error)
	GetSeriesState(ctx context.Context, seriesID string) (*grid.SeriesState, error)
	DownloadFile(ctx context.Context, fullURL string) (map[string]any, error)
}

var _ Upstream = (*grid.Client)(nil)

// ResolveTeam maps a team id to its GRID record. Errors are returned as the
// client produced them: *grid.TeamNotFoundError for a null record, a
// *grid.UpstreamError for anything else.
func ResolveTeam(ctx context.Context, up Upstream, teamID string) (models.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return models.Team{}, &ValidationError{Field: "teamId", Message: "teamId is required"}
	}

	team, err := up.GetTeam(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if team.Name == "" {
		team.Name = teamID
	}
	return team, nil
}
