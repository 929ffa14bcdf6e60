package bsky

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned for 401 responses and rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for missing posts, profiles, and records.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoSession is returned when an authenticated call is made before login.
	ErrNoSession = errors.New("no active session")
	// ErrMissingCredentials is returned when login is attempted without a handle or password.
	ErrMissingCredentials = errors.New("identifier and password are required")
)

// APIError is a non-2xx XRPC response.
type APIError struct {
	Method     string
	StatusCode int
	Name       string `json:"error"`
	Message    string `json:"message"`
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{fmt.Sprintf("%s: status %d", e.Method, e.StatusCode)}
	if e.Name != "" {
		parts = append(parts, e.Name)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, ": ")
}

// Unwrap maps the status onto the package sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.Name == "AuthenticationRequired":
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound || e.Name == "NotFound" || e.Name == "RecordNotFound":
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests || e.Name == "RateLimitExceeded":
		return ErrRateLimited
	default:
		return nil
	}
}

// Expired reports whether the access token has expired.
func (e *APIError) Expired() bool {
	return e != nil && e.Name == "ExpiredToken"
}

func retryAfterHeader(resp *http.Response, now time.Time) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	if retry := resp.Header.Get("Retry-After"); retry != "" {
		if seconds, err := strconv.Atoi(retry); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if parsed, err := http.ParseTime(retry); err == nil {
			return parsed.Sub(now)
		}
	}

	if reset := resp.Header.Get("RateLimit-Reset"); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if wait := time.Unix(epoch, 0).Sub(now); wait > 0 {
				return wait
			}
		}
	}

	return 0
}
