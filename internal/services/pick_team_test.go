package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
)

func TestPickTeamReturnsNewestSeriesWithEvidence(t *testing.T) {
	up := new(mockUpstream)
	d := NewDiscoverer(up, DiscoveryConfig{}, nil)
	p := NewEvidenceProber(up, 2, nil)

	up.On("ListSeriesPage", mock.Anything, mock.Anything).Return(grid.SeriesPage{Series: []models.SeriesCandidate{
		series("old", "2025-01-01T00:00:00Z", "10", "11"),
		series("new", "2025-01-03T00:00:00Z", "20", "21"),
		series("mid", "2025-01-02T00:00:00Z", "30", "31"),
	}}, nil).Once()

	up.On("ListFiles", mock.Anything, "new").Return([]models.FileEntry{}, nil)
	up.On("GetSeriesState", mock.Anything, "new").Return(nil, nil)
	up.On("ListFiles", mock.Anything, "mid").Return([]models.FileEntry{{ID: "state-grid"}}, nil)
	up.On("GetSeriesState", mock.Anything, "mid").Return(&grid.SeriesState{ID: "mid"}, nil)
	up.On("ListFiles", mock.Anything, "old").Return([]models.FileEntry{}, nil)
	up.On("GetSeriesState", mock.Anything, "old").Return(&grid.SeriesState{ID: "old"}, nil)

	res, err := PickTeam(context.Background(), d, p, testWindow, Narrowing{Kind: ByWindowOnly}, 0)
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "mid", res.SeriesID)
	assert.Equal(t, models.Team{ID: "30", Name: "Team 30"}, res.Team)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, res.Probed)
	assert.Equal(t, map[string]int{ProbeNone: 1, ProbeBoth: 1, ProbeStateOnly: 1}, res.Distribution)
}

func TestPickTeamNothingFound(t *testing.T) {
	up := new(mockUpstream)
	d := NewDiscoverer(up, DiscoveryConfig{}, nil)
	p := NewEvidenceProber(up, 1, nil)

	up.On("ListSeriesPage", mock.Anything, mock.Anything).Return(grid.SeriesPage{Series: []models.SeriesCandidate{
		series("a", "2025-01-01T00:00:00Z", "1"),
	}}, nil).Once()
	up.On("ListFiles", mock.Anything, "a").Return(nil, upstreamErr(grid.KindForbidden, 403))
	up.On("GetSeriesState", mock.Anything, "a").Return(nil, upstreamErr(grid.KindForbidden, 403))

	res, err := PickTeam(context.Background(), d, p, testWindow, Narrowing{Kind: ByWindowOnly}, 0)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, map[string]int{ProbeNone: 1}, res.Distribution)
}
