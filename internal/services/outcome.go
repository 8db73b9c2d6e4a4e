package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/isotime"
)

// Response codes returned by the scout pipeline.
const (
	CodeTeamIDRequired   = "TEAM_ID_REQUIRED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidTimestamp = "INVALID_TIMESTAMP"
	CodeMissingAPIKey    = "MISSING_API_KEY"
	CodeTeamNotFound     = "TEAM_NOT_FOUND"
	CodeNoSeriesFound    = "NO_SERIES_FOUND"
	CodeNoInGameData     = "NO_IN_GAME_DATA"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeGraphQLError     = "GRAPHQL_ERROR"
	CodeGridFetchFailed  = "GRID_FETCH_FAILED"
	CodeTimeout          = "TIMEOUT"
	CodeCancelled        = "REQUEST_CANCELLED"
)

// statusClientClosedRequest is the nginx convention for a caller that went
// away before the response was ready.
const statusClientClosedRequest = 499

// NO_SERIES_FOUND is reached two ways; Reason tells them apart.
const (
	ReasonNoCandidates   = "NO_CANDIDATES"
	ReasonDownloadFailed = "DOWNLOAD_FAILED"
)

// ValidationError is bad caller input, caught before any upstream call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Outcome is the classified result of a scout run: the response code and
// how it is delivered over HTTP.
type Outcome struct {
	Code    string
	Reason  string
	Status  int
	Success bool
	Message string
}

// Facts are the pipeline observations the decision table reads.
type Facts struct {
	TeamResolved    bool
	Candidates      int
	SeriesWithFiles int
	SeriesWithState int
	FilesParsed     int
}

// Classify applies the outcome table in order; the first matching row wins.
func Classify(f Facts) Outcome {
	switch {
	case !f.TeamResolved:
		return Outcome{
			Code:    CodeTeamNotFound,
			Status:  http.StatusOK,
			Message: "Team not found in GRID",
		}
	case f.Candidates == 0:
		return Outcome{
			Code:    CodeNoSeriesFound,
			Reason:  ReasonNoCandidates,
			Status:  http.StatusOK,
			Success: true,
			Message: "No series found for this team in the selected window",
		}
	case f.SeriesWithFiles == 0 && f.SeriesWithState == 0:
		return Outcome{
			Code:    CodeNoInGameData,
			Status:  http.StatusOK,
			Success: true,
			Message: "Series were found but GRID has no files or state published for them",
		}
	case f.FilesParsed > 0:
		return Outcome{Status: http.StatusOK, Success: true}
	default:
		return Outcome{
			Code:    CodeNoSeriesFound,
			Reason:  ReasonDownloadFailed,
			Status:  http.StatusOK,
			Success: true,
			Message: "Series data exists but no match file could be downloaded and parsed",
		}
	}
}

// ClassifyError maps a failure that ended the run early to its outcome.
func ClassifyError(err error) Outcome {
	var (
		validation *ValidationError
		notFound   *grid.TeamNotFoundError
	)

	switch {
	case errors.As(err, &validation):
		code := CodeInvalidRequest
		if validation.Field == "teamId" {
			code = CodeTeamIDRequired
		}
		return Outcome{Code: code, Status: http.StatusBadRequest, Message: validation.Error()}
	case errors.Is(err, grid.ErrMissingCredentials):
		return Outcome{
			Code:    CodeMissingAPIKey,
			Status:  http.StatusServiceUnavailable,
			Message: "GRID API key is not configured",
		}
	case errors.Is(err, isotime.ErrMalformedTimestamp):
		return Outcome{Code: CodeInvalidTimestamp, Status: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &notFound):
		return Classify(Facts{TeamResolved: false})
	case errors.Is(err, context.Canceled):
		return Outcome{Code: CodeCancelled, Status: statusClientClosedRequest, Message: "Request cancelled before the report was ready"}
	case errors.Is(err, context.DeadlineExceeded), grid.KindOf(err) == grid.KindTimeout:
		return Outcome{Code: CodeTimeout, Status: http.StatusGatewayTimeout, Message: "Timed out waiting for GRID"}
	}

	switch grid.KindOf(err) {
	case grid.KindUnauthorized:
		return Outcome{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: "GRID rejected the API key"}
	case grid.KindForbidden:
		return Outcome{Code: CodeForbidden, Status: http.StatusForbidden, Message: "API key is not entitled to this GRID data"}
	case grid.KindQuery:
		return Outcome{Code: CodeGraphQLError, Status: http.StatusBadGateway, Message: err.Error()}
	default:
		return Outcome{Code: CodeGridFetchFailed, Status: http.StatusBadGateway, Message: err.Error()}
	}
}
