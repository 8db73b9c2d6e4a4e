package services

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
)

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) GetTeam(ctx context.Context, teamID string) (models.Team, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(models.Team), args.Error(1)
}

func (m *mockUpstream) ListTournaments(ctx context.Context, titleID string) (grid.TournamentList, error) {
	args := m.Called(ctx, titleID)
	return args.Get(0).(grid.TournamentList), args.Error(1)
}

func (m *mockUpstream) ListSeriesPage(ctx context.Context, pr grid.SeriesPageRequest) (grid.SeriesPage, error) {
	args := m.Called(ctx, pr)
	return args.Get(0).(grid.SeriesPage), args.Error(1)
}

func (m *mockUpstream) ListFiles(ctx context.Context, seriesID string) ([]models.FileEntry, error) {
	args := m.Called(ctx, seriesID)
	files, _ := args.Get(0).([]models.FileEntry)
	return files, args.Error(1)
}

func (m *mockUpstream) GetSeriesState(ctx context.Context, seriesID string) (*grid.SeriesState, error) {
	args := m.Called(ctx, seriesID)
	state, _ := args.Get(0).(*grid.SeriesState)
	return state, args.Error(1)
}

func (m *mockUpstream) DownloadFile(ctx context.Context, fullURL string) (map[string]any, error) {
	args := m.Called(ctx, fullURL)
	data, _ := args.Get(0).(map[string]any)
	return data, args.Error(1)
}

// series builds a candidate whose teams use the baseInfo shape.
func series(id, start string, teamIDs ...string) models.SeriesCandidate {
	c := models.SeriesCandidate{ID: id, StartTimeScheduled: start}
	for _, tid := range teamIDs {
		c.Teams = append(c.Teams, models.TeamRef{BaseInfo: &models.TeamBase{ID: models.FlexID(tid), Name: "Team " + tid}})
	}
	return c
}

// seriesRun builds n candidates for team on consecutive days of January 2025.
func seriesRun(n int, team string) []models.SeriesCandidate {
	out := make([]models.SeriesCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, series(fmt.Sprintf("s%d", i+1), fmt.Sprintf("2025-01-%02dT12:00:00Z", i+1), team, "999"))
	}
	return out
}

func upstreamErr(kind grid.Kind, status int) error {
	return &grid.UpstreamError{Op: "test", Kind: kind, StatusCode: status, Err: fmt.Errorf("HTTP_%d", status)}
}
