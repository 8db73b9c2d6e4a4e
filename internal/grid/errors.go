package grid

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// ErrMissingCredentials is returned before any network call when no usable
// API key is configured.
var ErrMissingCredentials = crerr.New("GRID API key is missing or a placeholder")

// ErrEmptyBody marks a 2xx response that carried no payload.
var ErrEmptyBody = crerr.New("EMPTY_BODY")

// ErrInvalidJSON marks a downloaded file that arrived but did not decode to a
// JSON object.
var ErrInvalidJSON = crerr.New("JSON_PARSE_FAILED")

type Kind string

const (
	KindUnavailable  Kind = "unavailable"
	KindQuery        Kind = "query"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindTimeout      Kind = "timeout"
)

// UpstreamError is every failure coming back from a GRID call, tagged with
// the operation and a coarse kind callers can switch on.
type UpstreamError struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("grid %s: %s (HTTP_%d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("grid %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusError is produced by the transport for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 100 {
		body = body[:100]
	}
	if body == "" {
		return fmt.Sprintf("HTTP_%d", e.Code)
	}
	return fmt.Sprintf("HTTP_%d: %s", e.Code, body)
}

// TeamNotFoundError indicates the team lookup returned null.
type TeamNotFoundError struct {
	TeamID string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team '%s' not found in GRID", e.TeamID)
}

// IntrospectionError names the schema type whose __type query failed.
type IntrospectionError struct {
	Which string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspect %s: %v", e.Which, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// StatusCode returns the upstream HTTP status behind the failure, if any.
func (e *IntrospectionError) StatusCode() int {
	var ue *UpstreamError
	if stderrors.As(e.Err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// KindOf returns the kind of an upstream error, or "" for anything else.
func KindOf(err error) Kind {
	var ue *UpstreamError
	if stderrors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// graphql errors from machinebox/graphql are unexported and stringify with
// this prefix.
const graphqlErrPrefix = "graphql: "

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ue *UpstreamError
	if stderrors.As(err, &ue) {
		return err
	}

	out := &UpstreamError{Op: op, Kind: KindUnavailable, Err: err}

	var se *StatusError
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		out.Kind = KindTimeout
	case stderrors.As(err, &se):
		out.StatusCode = se.Code
		switch se.Code {
		case 401:
			out.Kind = KindUnauthorized
		case 403:
			out.Kind = KindForbidden
		case 404:
			out.Kind = KindNotFound
		}
	case stderrors.As(err, &netErr) && netErr.Timeout():
		out.Kind = KindTimeout
	case strings.HasPrefix(err.Error(), graphqlErrPrefix):
		out.Kind = KindQuery
	}
	return out
}

// graphqlMessage strips the client prefix from a query error.
func graphqlMessage(err error) string {
	var ue *UpstreamError
	if stderrors.As(err, &ue) && ue.Err != nil {
		err = ue.Err
	}
	return strings.TrimPrefix(err.Error(), graphqlErrPrefix)
}

// isNotFoundMessage matches GraphQL error text GRID uses for missing entities.
func isNotFoundMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")
}
