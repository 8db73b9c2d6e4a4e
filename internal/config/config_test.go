package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DefaultCentralURL, cfg.GridCentralURL)
	assert.Equal(t, DefaultFileDownloadURL, cfg.GridFileDownloadURL)
	assert.Equal(t, 30*time.Second, cfg.ScoutTimeout)
	assert.Equal(t, 50, cfg.SeriesPageSize)
	assert.Equal(t, 200, cfg.SeriesMaxItems)
	assert.Equal(t, 730, cfg.DefaultDaysBack)
	assert.False(t, cfg.TitleFanout)
	assert.False(t, cfg.HasAPIKey())
	assert.Equal(t, []string{DefaultSeriesStateURL}, cfg.SeriesStateURLs())
}

func TestHasAPIKeyTreatsPlaceholderAsMissing(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"GRID_API_KEY": "YOUR_GRID_API_KEY"}))
	require.NoError(t, err)
	assert.False(t, cfg.HasAPIKey())

	cfg, err = FromEnv(envOf(map[string]string{"GRID_API_KEY": "real"}))
	require.NoError(t, err)
	assert.True(t, cfg.HasAPIKey())
}

func TestSeriesStateModes(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"SERIES_STATE_COMMERCIAL_URL": "https://api.grid.gg/live-data-feed/series-state/graphql",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultSeriesStateURL, "https://api.grid.gg/live-data-feed/series-state/graphql"}, cfg.SeriesStateURLs())

	cfg, err = FromEnv(envOf(map[string]string{
		"SERIES_STATE_MODE":           "op",
		"SERIES_STATE_COMMERCIAL_URL": "https://x",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultSeriesStateURL}, cfg.SeriesStateURLs())

	cfg, err = FromEnv(envOf(map[string]string{
		"SERIES_STATE_MODE":           "commercial",
		"SERIES_STATE_COMMERCIAL_URL": "https://x",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x"}, cfg.SeriesStateURLs())

	_, err = FromEnv(envOf(map[string]string{"SERIES_STATE_MODE": "commercial"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"SERIES_STATE_MODE": "bogus"}))
	assert.Error(t, err)
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"SERIES_PAGE_SIZE": "many"}))
	assert.ErrorContains(t, err, "SERIES_PAGE_SIZE")

	_, err = FromEnv(envOf(map[string]string{"SCOUT_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "SCOUT_TIMEOUT")

	_, err = FromEnv(envOf(map[string]string{"PROBE_CONCURRENCY": "0"}))
	assert.Error(t, err)
}

func TestListParsing(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"TOURNAMENT_IDS":  " 758024, ,774794 ",
		"TRUSTED_PROXIES": "10.0.0.1",
		"TITLE_FANOUT":    "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"758024", "774794"}, cfg.TournamentIDs)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
	assert.True(t, cfg.TitleFanout)
}
