package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrEmptyCampaignID is returned before any request when a campaign id is
// empty or blank.
var ErrEmptyCampaignID = errors.New("campaign id is required")

// Kind classifies an APIError by HTTP status.
type Kind string

const (
	KindBadRequest  Kind = "bad_request"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindClient      Kind = "client_error"
	KindServer      Kind = "server_error"
	KindOther       Kind = "other"
)

// APIError is a non-2xx response that was not retried away.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration // set for 429 when the server advised a wait
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Kind returns the category for the status code.
func (e *APIError) Kind() Kind {
	switch {
	case e.Status == http.StatusBadRequest:
		return KindBadRequest
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case e.Status >= 500 && e.Status <= 599:
		return KindServer
	case e.Status >= 400 && e.Status <= 499:
		return KindClient
	default:
		return KindOther
	}
}

// NetworkError is a transport failure that persisted through every allowed
// attempt.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error after %d attempts for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RetryExhaustedError is returned when every attempt was rate limited.
type RetryExhaustedError struct {
	URL        string
	Attempts   int
	RetryAfter time.Duration // the last wait the server advised
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts for %s (retry after %s)", e.Attempts, e.URL, e.RetryAfter)
}

// Message returns the text a page-level error panel should show.
func Message(err error) string {
	var apiErr *APIError
	var netErr *NetworkError
	var rlErr *RetryExhaustedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		switch apiErr.Kind() {
		case KindNotFound:
			return "Not found: " + apiErr.Message
		case KindServer:
			return fmt.Sprintf("Server error (%d): %s", apiErr.Status, apiErr.Message)
		case KindRateLimited:
			return "Too many requests, try again shortly"
		default:
			return apiErr.Message
		}
	case errors.As(err, &rlErr):
		return fmt.Sprintf("Too many requests, try again in %s", rlErr.RetryAfter.Round(time.Second))
	case errors.As(err, &netErr):
		return "Could not reach the campaign API"
	default:
		return err.Error()
	}
}
