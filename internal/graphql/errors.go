package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned when the backend answers HTTP 401.
var ErrUnauthorized = errors.New("graphql: authentication failed (HTTP 401)")

// ErrAuthentication is returned when a token cannot be obtained from the
// configured credentials.
var ErrAuthentication = errors.New("graphql: could not obtain access token")

// ResponseError is returned for a non-2xx HTTP status or a response whose
// "errors" list is populated. Data holds any partial result the backend
// returned alongside the errors.
type ResponseError struct {
	StatusCode int
	Errors     []GraphQLError
	Body       string
	Data       json.RawMessage
}

func (e *ResponseError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("graphql: %s", formatErrors(e.Errors))
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("graphql: unexpected HTTP status %d", e.StatusCode)
	}
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("graphql: unexpected HTTP status %d: %s", e.StatusCode, body)
}

// formatErrors joins error messages, appending the path when one is present.
func formatErrors(errs []GraphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}
