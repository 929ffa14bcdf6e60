package bsky

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginRetriesTransientFailures(t *testing.T) {
	var calls int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "UpstreamFailure"})
			return
		}
		writeJSON(w, http.StatusOK, Session{DID: "did:plc:bot", AccessJwt: "access"})
	})

	var notified int
	session, err := client.Login(context.Background(), "bot", "pass", LoginPolicy{InitialInterval: time.Millisecond, MaxRetries: 5}, func(err error, wait time.Duration) {
		notified++
	})
	require.NoError(t, err)
	require.Equal(t, "did:plc:bot", session.DID)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, 2, notified)
}

func TestLoginDoesNotRetryBadCredentials(t *testing.T) {
	var calls int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "AuthenticationRequired"})
	})

	_, err := client.Login(context.Background(), "bot", "wrong", LoginPolicy{InitialInterval: time.Millisecond, MaxRetries: 5}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = client.Login(context.Background(), "", "", DefaultLoginPolicy(), nil)
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoginGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Unavailable"})
	})

	_, err := client.Login(context.Background(), "bot", "pass", LoginPolicy{InitialInterval: time.Millisecond, MaxRetries: 2}, nil)
	require.Error(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
