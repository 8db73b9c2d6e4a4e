package grid

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/models"
)

const seriesStateQuery = `
	query GetSeriesState($seriesId: ID!) {
		seriesState(id: $seriesId) {
			id
			started
			finished
			teams {
				id
				name
				won
			}
		}
	}
`

type SeriesStateTeam struct {
	ID   models.FlexID `json:"id"`
	Name string        `json:"name"`
	Won  bool          `json:"won"`
}

type SeriesState struct {
	ID       models.FlexID     `json:"id"`
	Started  bool              `json:"started"`
	Finished bool              `json:"finished"`
	Teams    []SeriesStateTeam `json:"teams"`
}

// GetSeriesState queries each configured series-state endpoint in order.
// (nil, nil) means the series has no state: a null record, an HTTP 404 or a
// "not found" GraphQL error. Auth and transport failures move on to the next
// endpoint; the last such error is returned when none answers.
func (c *Client) GetSeriesState(ctx context.Context, seriesID string) (*SeriesState, error) {
	var lastErr error

	for _, ep := range c.states {
		req := c.newRequest(seriesStateQuery)
		req.Var("seriesId", seriesID)

		var resp struct {
			SeriesState *SeriesState `json:"seriesState"`
		}

		err := ep.gql.Run(ctx, req, &resp)
		if err == nil {
			return resp.SeriesState, nil
		}

		err = classify("seriesState", err)
		switch KindOf(err) {
		case KindNotFound:
			return nil, nil
		case KindQuery:
			if isNotFoundMessage(graphqlMessage(err)) {
				return nil, nil
			}
			return nil, err
		case KindTimeout:
			return nil, err
		}

		c.logger.Debug("series-state endpoint failed",
			zap.String("endpoint", ep.url),
			zap.String("seriesId", seriesID),
			zap.Error(err))
		lastErr = err
	}

	return nil, lastErr
}
