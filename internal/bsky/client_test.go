package bsky

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, server.Client())
	client.Clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func loginTestClient(t *testing.T, client *Client) {
	t.Helper()
	_, err := client.CreateSession(context.Background(), "bot.bsky.social", "app-pass")
	require.NoError(t, err)
}

func sessionHandler(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Path != "/xrpc/com.atproto.server.createSession" {
		return false
	}
	writeJSON(w, http.StatusOK, Session{DID: "did:plc:bot", Handle: "bot.bsky.social", AccessJwt: "access", RefreshJwt: "refresh"})
	return true
}

func TestCreateSession(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/xrpc/com.atproto.server.createSession", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "bot.bsky.social", body["identifier"])
		require.Equal(t, "app-pass", body["password"])

		writeJSON(w, http.StatusOK, Session{DID: "did:plc:bot", Handle: "bot.bsky.social", AccessJwt: "access", RefreshJwt: "refresh"})
	})

	session, err := client.CreateSession(context.Background(), " bot.bsky.social ", "app-pass")
	require.NoError(t, err)
	require.Equal(t, "did:plc:bot", session.DID)
	require.Equal(t, "access", client.Session().AccessJwt)
}

func TestCreateSessionRejected(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "AuthenticationRequired", "message": "Invalid identifier or password"})
	})

	_, err := client.CreateSession(context.Background(), "bot", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Invalid identifier or password", apiErr.Message)
	require.Nil(t, client.Session())
}

func TestAuthenticatedCallsRequireSession(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", nil)
	_, err := client.ListNotifications(context.Background(), 10)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestListNotifications(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		require.Equal(t, "/xrpc/app.bsky.notification.listNotifications", r.URL.Path)
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		require.Equal(t, "Bearer access", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"notifications":[{"uri":"at://did:plc:alice/app.bsky.feed.post/1","cid":"c1","author":{"did":"did:plc:alice","handle":"alice.bsky.social"},"reason":"mention","record":{"$type":"app.bsky.feed.post","text":"@bot check @carol","createdAt":"2025-03-01T11:59:00.000Z","reply":{"root":{"uri":"at://did:plc:carol/app.bsky.feed.post/0","cid":"c0"},"parent":{"uri":"at://did:plc:carol/app.bsky.feed.post/0","cid":"c0"}}},"isRead":false,"indexedAt":"2025-03-01T11:59:01.000Z"}]}`))
	})
	loginTestClient(t, client)

	list, err := client.ListNotifications(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)

	notification := list.Notifications[0]
	require.Equal(t, ReasonMention, notification.Reason)
	require.Equal(t, time.Date(2025, 3, 1, 11, 59, 1, 0, time.UTC), notification.IndexedTime())

	record, err := notification.Post()
	require.NoError(t, err)
	require.NotNil(t, record.Reply)
	require.Equal(t, "at://did:plc:carol/app.bsky.feed.post/0", record.Reply.Parent.URI)
}

func TestGetAuthorFeed(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		require.Equal(t, "/xrpc/app.bsky.feed.getAuthorFeed", r.URL.Path)
		require.Equal(t, "alice.bsky.social", r.URL.Query().Get("actor"))
		require.Equal(t, "abc", r.URL.Query().Get("cursor"))

		_, _ = w.Write([]byte(`{"cursor":"def","feed":[{"post":{"uri":"at://a/app.bsky.feed.post/1","cid":"c","author":{"did":"did:plc:a","handle":"alice.bsky.social"},"record":{"text":"hello","createdAt":"2025-02-28T10:00:00Z"},"embed":{"$type":"app.bsky.embed.video#view"}}}]}`))
	})
	loginTestClient(t, client)

	feed, err := client.GetAuthorFeed(context.Background(), "alice.bsky.social", 20, "abc")
	require.NoError(t, err)
	require.Equal(t, "def", feed.Cursor)
	require.Len(t, feed.Feed, 1)
	require.True(t, feed.Feed[0].Post.HasVideo())

	record, err := feed.Feed[0].Post.Post()
	require.NoError(t, err)
	require.Equal(t, "hello", record.Text)
	require.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), record.CreatedTime())
}

func TestGetPostThreadNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "NotFound", "message": "Post not found"})
	})
	loginTestClient(t, client)

	_, err := client.GetPostThread(context.Background(), "at://did:plc:a/app.bsky.feed.post/gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostThreadExists(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		_, _ = w.Write([]byte(`{"thread":{"$type":"app.bsky.feed.defs#threadViewPost","post":{"uri":"at://a/app.bsky.feed.post/1","cid":"c","author":{"did":"did:plc:a","handle":"alice.bsky.social"},"record":{"text":"hi"}}}}`))
	})
	loginTestClient(t, client)

	thread, err := client.GetPostThread(context.Background(), "at://a/app.bsky.feed.post/1")
	require.NoError(t, err)
	require.True(t, thread.Exists())
	require.Equal(t, "alice.bsky.social", thread.Post.Author.Handle)

	require.False(t, (&ThreadView{Type: ThreadNotFoundType, NotFound: true}).Exists())
}

func TestCreateReply(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		require.Equal(t, "/xrpc/com.atproto.repo.createRecord", r.URL.Path)

		var body struct {
			Repo       string     `json:"repo"`
			Collection string     `json:"collection"`
			Record     PostRecord `json:"record"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "did:plc:bot", body.Repo)
		require.Equal(t, CollectionPost, body.Collection)
		require.Equal(t, "Should you follow?", body.Record.Text)
		require.Equal(t, "2025-03-01T12:00:00.000Z", body.Record.CreatedAt)
		require.Equal(t, "at://root", body.Record.Reply.Root.URI)
		require.Equal(t, "at://parent", body.Record.Reply.Parent.URI)

		writeJSON(w, http.StatusOK, StrongRef{URI: "at://did:plc:bot/app.bsky.feed.post/new", CID: "newcid"})
	})
	loginTestClient(t, client)

	ref, err := client.CreateReply(context.Background(), "Should you follow?", StrongRef{URI: "at://root", CID: "r"}, StrongRef{URI: "at://parent", CID: "p"})
	require.NoError(t, err)
	require.Equal(t, "newcid", ref.CID)

	_, err = client.CreateReply(context.Background(), "x", StrongRef{}, StrongRef{})
	require.Error(t, err)
}

func TestUpdateSeenAndRateLimit(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler(w, r) {
			return
		}
		w.Header().Set("Retry-After", "7")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "RateLimitExceeded"})
	})
	loginTestClient(t, client)

	err := client.UpdateSeen(context.Background(), time.Time{})
	require.ErrorIs(t, err, ErrRateLimited)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	var profileCalls int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			writeJSON(w, http.StatusOK, Session{DID: "did:plc:bot", AccessJwt: "stale", RefreshJwt: "refresh"})
		case "/xrpc/com.atproto.server.refreshSession":
			require.Equal(t, "Bearer refresh", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, Session{DID: "did:plc:bot", AccessJwt: "fresh", RefreshJwt: "refresh2"})
		case "/xrpc/app.bsky.actor.getProfile":
			atomic.AddInt32(&profileCalls, 1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ExpiredToken"})
				return
			}
			writeJSON(w, http.StatusOK, Profile{Actor: Actor{DID: "did:plc:carol", Handle: "carol.bsky.social"}})
		}
	})
	loginTestClient(t, client)

	profile, err := client.GetProfile(context.Background(), "did:plc:carol")
	require.NoError(t, err)
	require.Equal(t, "carol.bsky.social", profile.Handle)
	require.Equal(t, int32(2), atomic.LoadInt32(&profileCalls))
	require.Equal(t, "fresh", client.Session().AccessJwt)
}
