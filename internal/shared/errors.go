package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Sync errors
	ErrFetchFailed = fmt.Errorf("fetching saved tracks failed")
	ErrSnapshot    = fmt.Errorf("snapshot unreadable")

	// Posting errors
	ErrRateLimited = fmt.Errorf("rate limited")
	ErrForbidden   = fmt.Errorf("post forbidden")
	ErrAbandoned   = fmt.Errorf("retries exhausted")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
