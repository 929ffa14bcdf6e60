package bsky

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// LoginPolicy bounds login retries.
type LoginPolicy struct {
	InitialInterval time.Duration
	MaxRetries      int
}

// DefaultLoginPolicy retries a failed login three times starting at two seconds.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{InitialInterval: 2 * time.Second, MaxRetries: 3}
}

func (p LoginPolicy) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	eb.MaxElapsedTime = 0
	var bf backoff.BackOff = eb
	if p.MaxRetries > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.MaxRetries))
	}
	bf.Reset()
	return bf
}

// Login creates a session, retrying transient failures with exponential
// backoff. Rejected credentials are not retried. notify, when set, is called
// before each retry.
func (c *Client) Login(ctx context.Context, identifier, password string, policy LoginPolicy, notify func(err error, wait time.Duration)) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var session *Session
	op := func() error {
		var err error
		session, err = c.CreateSession(ctx, identifier, password)
		if err != nil && !isRetryableLogin(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notifyFn backoff.Notify
	if notify != nil {
		notifyFn = func(err error, wait time.Duration) { notify(err, wait) }
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy.newBackOff(), ctx), notifyFn); err != nil {
		return nil, err
	}
	return session, nil
}

func isRetryableLogin(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrMissingCredentials) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}
	return !errors.Is(err, context.Canceled)
}
