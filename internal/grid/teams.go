package grid

import (
	"context"
	"strings"

	"github.com/yourusername/esports-scout-api/internal/models"
)

const teamQuery = `
	query GetTeam($id: ID!) {
		team(id: $id) {
			id
			name
		}
	}
`

const teamSearchQuery = `
	query TeamSearch($search: String!, $first: Int!) {
		teams(filter: { name: { contains: $search } }, first: $first) {
			edges {
				node {
					id
					name
				}
			}
		}
	}
`

// GetTeam looks a team up by id. A null record is a TeamNotFoundError.
func (c *Client) GetTeam(ctx context.Context, teamID string) (models.Team, error) {
	req := c.newRequest(teamQuery)
	req.Var("id", teamID)

	var resp struct {
		Team *struct {
			ID   models.FlexID `json:"id"`
			Name string        `json:"name"`
		} `json:"team"`
	}

	if err := c.runCentral(ctx, "team", req, &resp); err != nil {
		return models.Team{}, err
	}
	if resp.Team == nil {
		return models.Team{}, &TeamNotFoundError{TeamID: teamID}
	}

	id := resp.Team.ID.String()
	if id == "" {
		id = teamID
	}
	return models.Team{ID: id, Name: resp.Team.Name}, nil
}

// SearchTeams returns up to limit teams whose name contains q.
func (c *Client) SearchTeams(ctx context.Context, q string, limit int) ([]models.Team, error) {
	if limit <= 0 {
		limit = 10
	}

	req := c.newRequest(teamSearchQuery)
	req.Var("search", strings.TrimSpace(q))
	req.Var("first", limit)

	var resp struct {
		Teams struct {
			Edges []struct {
				Node struct {
					ID   models.FlexID `json:"id"`
					Name string        `json:"name"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"teams"`
	}

	if err := c.runCentral(ctx, "teams", req, &resp); err != nil {
		return nil, err
	}

	teams := make([]models.Team, 0, len(resp.Teams.Edges))
	for _, edge := range resp.Teams.Edges {
		teams = append(teams, models.Team{ID: edge.Node.ID.String(), Name: edge.Node.Name})
	}
	return teams, nil
}
