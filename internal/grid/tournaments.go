package grid

import (
	"context"

	"github.com/yourusername/esports-scout-api/internal/models"
)

const titlesQuery = `
	query GetTitles {
		titles {
			id
			name
		}
	}
`

const tournamentsQuery = `
	query GetTournaments($titleId: String!) {
		tournaments(filter: { title: { id: { in: [$titleId] } } }) {
			totalCount
			edges {
				node {
					id
					name
				}
			}
		}
	}
`

type TournamentList struct {
	Tournaments []models.Tournament
	TotalCount  int
}

func (c *Client) ListTitles(ctx context.Context) ([]models.Title, error) {
	var resp struct {
		Titles []struct {
			ID   models.FlexID `json:"id"`
			Name string        `json:"name"`
		} `json:"titles"`
	}

	if err := c.runCentral(ctx, "titles", c.newRequest(titlesQuery), &resp); err != nil {
		return nil, err
	}

	titles := make([]models.Title, 0, len(resp.Titles))
	for _, t := range resp.Titles {
		titles = append(titles, models.Title{ID: t.ID.String(), Name: t.Name})
	}
	return titles, nil
}

// ListTournaments returns every tournament GRID files under titleID.
func (c *Client) ListTournaments(ctx context.Context, titleID string) (TournamentList, error) {
	req := c.newRequest(tournamentsQuery)
	req.Var("titleId", titleID)

	var resp struct {
		Tournaments struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node struct {
					ID   models.FlexID `json:"id"`
					Name string        `json:"name"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"tournaments"`
	}

	if err := c.runCentral(ctx, "tournaments", req, &resp); err != nil {
		return TournamentList{}, err
	}

	out := TournamentList{
		Tournaments: make([]models.Tournament, 0, len(resp.Tournaments.Edges)),
		TotalCount:  resp.Tournaments.TotalCount,
	}
	for _, edge := range resp.Tournaments.Edges {
		out.Tournaments = append(out.Tournaments, models.Tournament{ID: edge.Node.ID.String(), Name: edge.Node.Name})
	}
	return out, nil
}
