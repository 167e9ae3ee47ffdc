package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated, log in first")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBaseURLRequired  = errors.New("base url is required")
)

// ResponseError is returned for every non-2xx answer that is not handled by
// the authentication interceptor.
type ResponseError struct {
	StatusCode int
	Detail     string
}

func (e *ResponseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}
