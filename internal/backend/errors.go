package backend

import (
	"fmt"
	"net/http"

	"github.com/juju/errors"
)

// APIError is a non-2xx response from the API. It unwraps to the matching
// juju/errors kind so callers can test with errors.Is(err, errors.NotFound).
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return errors.NotFound
	case http.StatusUnauthorized:
		return errors.Unauthorized
	case http.StatusForbidden:
		return errors.Forbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.BadRequest
	case http.StatusConflict:
		return errors.AlreadyExists
	}
	return nil
}

// ServerMessage returns the message the server attached to err, or fallback
// when there is none.
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
