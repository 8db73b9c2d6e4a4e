package grid

import (
	"context"
	"fmt"

	"github.com/yourusername/esports-scout-api/internal/models"
)

// allSeries cannot filter by participant team. Callers filter client-side.
const seriesNodeFields = `
	totalCount
	edges {
		node {
			id
			startTimeScheduled
			teams {
				baseInfo {
					id
					name
				}
			}
			tournament {
				id
				name
			}
		}
	}
	pageInfo {
		endCursor
		hasNextPage
	}
`

var (
	seriesByTournamentsQuery = fmt.Sprintf(`
	query GetSeriesByTournaments($tournamentIds: [ID!]!, $gte: String!, $lte: String!, $first: Int, $after: String) {
		allSeries(
			filter: {
				tournament: { id: { in: $tournamentIds }, includeChildren: { equals: true } }
				startTimeScheduled: { gte: $gte, lte: $lte }
			}
			orderBy: StartTimeScheduled
			first: $first
			after: $after
		) {%s}
	}
`, seriesNodeFields)

	seriesByTitleQuery = fmt.Sprintf(`
	query GetSeriesByTitle($titleId: String!, $gte: String!, $lte: String!, $first: Int, $after: String) {
		allSeries(
			filter: {
				titleId: $titleId
				startTimeScheduled: { gte: $gte, lte: $lte }
			}
			orderBy: StartTimeScheduled
			first: $first
			after: $after
		) {%s}
	}
`, seriesNodeFields)

	seriesByWindowQuery = fmt.Sprintf(`
	query GetSeries($gte: String!, $lte: String!, $first: Int, $after: String) {
		allSeries(
			filter: {
				startTimeScheduled: { gte: $gte, lte: $lte }
			}
			orderBy: StartTimeScheduled
			first: $first
			after: $after
		) {%s}
	}
`, seriesNodeFields)
)

// SeriesFilter is the upstream-expressible part of a discovery query. Gte and
// Lte must already carry a timezone.
type SeriesFilter struct {
	Gte           string
	Lte           string
	TournamentIDs []string
	TitleID       string
}

type SeriesPageRequest struct {
	Filter SeriesFilter
	First  int
	After  string
}

type SeriesPage struct {
	Series      []models.SeriesCandidate
	TotalCount  int
	EndCursor   string
	HasNextPage bool
}

// ListSeriesPage fetches one page of allSeries, ordered by scheduled start
// ascending.
func (c *Client) ListSeriesPage(ctx context.Context, pr SeriesPageRequest) (SeriesPage, error) {
	var query string
	switch {
	case len(pr.Filter.TournamentIDs) > 0:
		query = seriesByTournamentsQuery
	case pr.Filter.TitleID != "":
		query = seriesByTitleQuery
	default:
		query = seriesByWindowQuery
	}

	req := c.newRequest(query)
	req.Var("gte", pr.Filter.Gte)
	req.Var("lte", pr.Filter.Lte)
	req.Var("first", pr.First)
	if pr.After != "" {
		req.Var("after", pr.After)
	}
	if len(pr.Filter.TournamentIDs) > 0 {
		req.Var("tournamentIds", pr.Filter.TournamentIDs)
	} else if pr.Filter.TitleID != "" {
		req.Var("titleId", pr.Filter.TitleID)
	}

	var resp struct {
		AllSeries struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node models.SeriesCandidate `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"allSeries"`
	}

	if err := c.runCentral(ctx, "allSeries", req, &resp); err != nil {
		return SeriesPage{}, err
	}

	page := SeriesPage{
		Series:      make([]models.SeriesCandidate, 0, len(resp.AllSeries.Edges)),
		TotalCount:  resp.AllSeries.TotalCount,
		EndCursor:   resp.AllSeries.PageInfo.EndCursor,
		HasNextPage: resp.AllSeries.PageInfo.HasNextPage,
	}
	for _, edge := range resp.AllSeries.Edges {
		page.Series = append(page.Series, edge.Node)
	}
	return page, nil
}
