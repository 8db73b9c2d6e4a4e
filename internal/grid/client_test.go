package grid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/esports-scout-api/internal/models"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlServer decodes each request and hands it to fn, which writes the reply.
func graphqlServer(t *testing.T, fn func(w http.ResponseWriter, req gqlRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		fn(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(centralURL string, stateURLs []string, fileURL string) *Client {
	return NewClient(ClientConfig{
		APIKey:          "test-key",
		CentralURL:      centralURL,
		SeriesStateURLs: stateURLs,
		FileDownloadURL: fileURL,
		Timeout:         2 * time.Second,
	})
}

func TestGetTeam(t *testing.T) {
	srv := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Equal(t, "47351", req.Variables["id"])
		_, _ = w.Write([]byte(`{"data":{"team":{"id":47351,"name":"Cloud9"}}}`))
	})

	team, err := newTestClient(srv.URL, nil, "").GetTeam(context.Background(), "47351")
	require.NoError(t, err)
	assert.Equal(t, models.Team{ID: "47351", Name: "Cloud9"}, team)
}

func TestGetTeamNull(t *testing.T) {
	srv := graphqlServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		_, _ = w.Write([]byte(`{"data":{"team":null}}`))
	})

	_, err := newTestClient(srv.URL, nil, "").GetTeam(context.Background(), "999")
	var notFound *TeamNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "999", notFound.TeamID)
}

func TestCentralErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, "Unauthorized", KindUnauthorized, 401},
		{"forbidden", http.StatusForbidden, "Forbidden", KindForbidden, 403},
		{"server error", http.StatusBadGateway, "bad gateway", KindUnavailable, 502},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"Cannot query field"}]}`, KindQuery, 0},
		{"empty body", http.StatusOK, "", KindUnavailable, 0},
		{"not json", http.StatusOK, "<html>", KindUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, nil, "").GetTeam(context.Background(), "1")
			require.Error(t, err)

			var ue *UpstreamError
			require.True(t, errors.As(err, &ue), "got %T: %v", err, err)
			assert.Equal(t, tt.wantKind, ue.Kind)
			assert.Equal(t, tt.wantStatus, ue.StatusCode)
			assert.Equal(t, "team", ue.Op)
		})
	}
}

func TestCentralTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL, nil, "").GetTeam(ctx, "1")
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestListSeriesPage(t *testing.T) {
	srv := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Contains(t, req.Query, "includeChildren")
		assert.Equal(t, []any{"758024"}, req.Variables["tournamentIds"])
		assert.Equal(t, "cursor-1", req.Variables["after"])
		assert.EqualValues(t, 50, req.Variables["first"])
		assert.Equal(t, "2025-01-01T00:00:00.000Z", req.Variables["gte"])
		_, _ = w.Write([]byte(`{"data":{"allSeries":{
			"totalCount": 2,
			"edges": [
				{"node":{"id":"s1","startTimeScheduled":"2025-01-02T10:00:00Z","tournament":{"id":"758024","name":"LCK"},
					"teams":[{"baseInfo":{"id":123,"name":"A"}},{"baseInfo":{"id":"456","name":"B"}}]}},
				{"node":{"id":"s2","startTimeScheduled":"2025-01-03T10:00:00Z","tournament":{"id":"758024","name":"LCK"},"teams":[]}}
			],
			"pageInfo":{"endCursor":"cursor-2","hasNextPage":true}
		}}}`))
	})

	page, err := newTestClient(srv.URL, nil, "").ListSeriesPage(context.Background(), SeriesPageRequest{
		Filter: SeriesFilter{Gte: "2025-01-01T00:00:00.000Z", Lte: "2025-02-01T00:00:00.000Z", TournamentIDs: []string{"758024"}},
		First:  50,
		After:  "cursor-1",
	})
	require.NoError(t, err)
	require.Len(t, page.Series, 2)
	assert.Equal(t, "123", page.Series[0].Teams[0].ExtractID())
	assert.Equal(t, "cursor-2", page.EndCursor)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, 2, page.TotalCount)
}

func TestListSeriesPageByTitleOmitsTournaments(t *testing.T) {
	srv := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Contains(t, req.Query, "titleId: $titleId")
		assert.Equal(t, "3", req.Variables["titleId"])
		_, hasTournaments := req.Variables["tournamentIds"]
		assert.False(t, hasTournaments)
		_, hasAfter := req.Variables["after"]
		assert.False(t, hasAfter)
		_, _ = w.Write([]byte(`{"data":{"allSeries":{"edges":[],"pageInfo":{"hasNextPage":false}}}}`))
	})

	page, err := newTestClient(srv.URL, nil, "").ListSeriesPage(context.Background(), SeriesPageRequest{
		Filter: SeriesFilter{Gte: "a", Lte: "b", TitleID: "3"},
		First:  10,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Series)
}

func TestGetSeriesStateFallsThroughAuthFailures(t *testing.T) {
	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer denied.Close()

	ok := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Equal(t, "s1", req.Variables["seriesId"])
		_, _ = w.Write([]byte(`{"data":{"seriesState":{"id":"s1","started":true,"finished":true,"teams":[{"id":1,"name":"A","won":true}]}}}`))
	})

	state, err := newTestClient("", []string{denied.URL, ok.URL}, "").GetSeriesState(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.Finished)
	assert.Equal(t, models.FlexID("1"), state.Teams[0].ID)
}

func TestGetSeriesStateNotFound(t *testing.T) {
	for name, reply := range map[string]func(w http.ResponseWriter){
		"null": func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":{"seriesState":null}}`)) },
		"404":  func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) },
		"gql":  func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"errors":[{"message":"Series not found"}]}`)) },
		"not exists": func(w http.ResponseWriter) {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Series does not exist"}]}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { reply(w) }))
			defer srv.Close()

			state, err := newTestClient("", []string{srv.URL}, "").GetSeriesState(context.Background(), "s1")
			require.NoError(t, err)
			assert.Nil(t, state)
		})
	}
}

func TestGetSeriesStateAllEndpointsDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient("", []string{srv.URL, srv.URL}, "").GetSeriesState(context.Background(), "s1")
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestGetSeriesStateQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Cannot query field \"foo\""}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient("", []string{srv.URL}, "").GetSeriesState(context.Background(), "s1")
	assert.Equal(t, KindQuery, KindOf(err))
}

func TestListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		switch r.URL.Path {
		case "/list/s1":
			_, _ = w.Write([]byte(`[
				{"id":"events-grid","status":"ready","fileName":"events-grid.jsonl","fullURL":"x"},
				{"id":"state-grid","status":"ready","fileName":"end-state-grid.json","fullURL":"y"}
			]`))
		case "/list/s2":
			_, _ = w.Write([]byte(`{"files":[{"id":"state-grid","fileName":"state.json"}]}`))
		case "/list/s3":
			w.WriteHeader(http.StatusNotFound)
		case "/list/s4":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newTestClient("", nil, srv.URL+"/")
	ctx := context.Background()

	files, err := c.ListFiles(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, []string{"events-grid", "state-grid"}, FileTypes(files))

	files, err = c.ListFiles(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	files, err = c.ListFiles(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = c.ListFiles(ctx, "s4")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = c.ListFiles(ctx, "s5")
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`{"teams":[{"id":"1","name":"A"}]}`))
		case "/array.json":
			_, _ = w.Write([]byte(`[1,2]`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	c := newTestClient("", nil, "")
	data, err := c.DownloadFile(context.Background(), srv.URL+"/ok.json")
	require.NoError(t, err)
	assert.Contains(t, data, "teams")

	_, err = c.DownloadFile(context.Background(), srv.URL+"/array.json")
	assert.True(t, crerr.Is(err, ErrInvalidJSON))

	_, err = c.DownloadFile(context.Background(), srv.URL+"/denied.json")
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestPickMatchFile(t *testing.T) {
	_, ok := PickMatchFile([]models.FileEntry{{ID: "events", FileName: "events.jsonl"}})
	assert.False(t, ok)

	f, ok := PickMatchFile([]models.FileEntry{
		{ID: "events", FileName: "events.jsonl"},
		{ID: "summary", FileName: "summary.JSON"},
		{ID: "state", FileName: "series-state-grid.json"},
	})
	require.True(t, ok)
	assert.Equal(t, "summary", f.ID, "first match in manifest order wins")

	f, ok = PickMatchFile([]models.FileEntry{{ID: "end-state-riot"}})
	require.True(t, ok)
	assert.Equal(t, "end-state-riot", f.ID)
}

func TestIntrospectTypeIsCached(t *testing.T) {
	var calls atomic.Int32
	srv := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		calls.Add(1)
		assert.Contains(t, req.Query, `__type(name: "SeriesFilter")`)
		_, _ = w.Write([]byte(`{"data":{"__type":{"name":"SeriesFilter","inputFields":[
			{"name":"startTimeScheduled","type":{"kind":"INPUT_OBJECT","name":"DateFilter"}},
			{"name":"titleId","type":{"kind":"NON_NULL","ofType":{"kind":"SCALAR","name":"ID"}}}
		]}}}`))
	})

	c := newTestClient(srv.URL, nil, "")
	ctx := context.Background()

	first, err := c.IntrospectType(ctx, "SeriesFilter", ShapeInputFields)
	require.NoError(t, err)
	second, err := c.IntrospectType(ctx, "SeriesFilter", ShapeInputFields)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "ID", first.InputFields[1].Type.NamedType())

	require.NoError(t, c.ClearIntrospectionCache(ctx))
	_, err = c.IntrospectType(ctx, "SeriesFilter", ShapeInputFields)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestIntrospectSeriesTypesReportsWhich(t *testing.T) {
	srv := graphqlServer(t, func(w http.ResponseWriter, req gqlRequest) {
		switch {
		case strings.Contains(req.Query, `"SeriesOrderBy"`):
			w.WriteHeader(http.StatusForbidden)
		case strings.Contains(req.Query, `"SeriesFilter"`):
			_, _ = w.Write([]byte(`{"data":{"__type":{"name":"SeriesFilter","inputFields":[]}}}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"__type":{"name":"Series","fields":[{"name":"startTimeScheduled","type":{"kind":"SCALAR","name":"String"}}]}}}`))
		}
	})

	_, err := newTestClient(srv.URL, nil, "").IntrospectSeriesTypes(context.Background())
	var ie *IntrospectionError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "SeriesOrderBy", ie.Which)
	assert.Equal(t, 403, ie.StatusCode())
}

func TestExtractSchemaFields(t *testing.T) {
	fields := ExtractSchemaFields(SeriesTypes{
		SeriesFilter:  TypeInfo{InputFields: []FieldInfo{{Name: "StartDate"}}},
		SeriesOrderBy: TypeInfo{EnumValues: []EnumValue{{Name: "StartTimeScheduled"}}},
	})
	assert.Equal(t, "StartDate", fields.FilterStartField)
	assert.Equal(t, "StartTimeScheduled", fields.OrderByStart)
	assert.Equal(t, DefaultSchemaFields().FilterTitleField, fields.FilterTitleField)
}

func TestParseEndState(t *testing.T) {
	stats, err := ParseEndState("s1", map[string]any{
		"seriesState": map[string]any{
			"games": []any{map[string]any{}, map[string]any{}},
			"teams": []any{
				map[string]any{"id": "1", "name": "A", "won": true, "players": []any{
					map[string]any{"kills": float64(10), "deaths": float64(4)},
					map[string]any{"kills": float64(5), "deaths": float64(6)},
				}},
				map[string]any{"id": float64(2), "name": "B", "won": false, "kills": float64(3), "deaths": float64(15)},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 15, stats["1"].Kills)
	assert.Equal(t, 10, stats["1"].Deaths)
	assert.Equal(t, 2, stats["1"].GamesPlayed)
	assert.True(t, stats["1"].Won)
	assert.InDelta(t, 1.5, stats["1"].KDRatio, 0.001)
	assert.Equal(t, 3, stats["2"].Kills)

	stats, err = ParseEndState("s2", map[string]any{"games": []any{
		map[string]any{"teams": []any{map[string]any{"id": "1", "won": true, "kills": float64(7)}}},
		map[string]any{"teams": []any{map[string]any{"id": "1", "won": true, "kills": float64(3)}}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 10, stats["1"].Kills)
	assert.Equal(t, 2, stats["1"].Wins)
	assert.True(t, stats["1"].Won)

	_, err = ParseEndState("s3", map[string]any{"foo": "bar"})
	assert.Error(t, err)
}
