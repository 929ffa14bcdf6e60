package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/core"
)

type stubNetwork struct {
	mu      sync.Mutex
	calls   []string
	threads int32
}

func (s *stubNetwork) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubNetwork) ListNotifications(ctx context.Context, limit int) (*bsky.NotificationList, error) {
	s.record("notifications")
	return &bsky.NotificationList{Notifications: []bsky.Notification{{URI: "at://did:plc:a/app.bsky.feed.post/1"}}}, nil
}

func (s *stubNetwork) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bsky.AuthorFeed, error) {
	s.record("feed:" + actor)
	return &bsky.AuthorFeed{Cursor: "next"}, nil
}

func (s *stubNetwork) GetPostThread(ctx context.Context, uri string) (*bsky.ThreadView, error) {
	atomic.AddInt32(&s.threads, 1)
	s.record("thread")
	return nil, fmt.Errorf("lookup %s: %w", uri, bsky.ErrNotFound)
}

func (s *stubNetwork) GetProfile(ctx context.Context, actor string) (*bsky.Profile, error) {
	s.record("profile")
	return &bsky.Profile{Actor: bsky.Actor{DID: actor, Handle: "someone.bsky.social"}}, nil
}

func (s *stubNetwork) CreateReply(ctx context.Context, text string, root, parent bsky.StrongRef) (*bsky.StrongRef, error) {
	s.record("reply")
	return &bsky.StrongRef{URI: parent.URI + "/reply", CID: "cid"}, nil
}

func (s *stubNetwork) UpdateSeen(ctx context.Context, seenAt time.Time) error {
	s.record("seen")
	return nil
}

func TestGatewayRoutesThroughQueue(t *testing.T) {
	network := &stubNetwork{}
	gateway := NewGateway(network, newTestQueue(nil, 3))
	ctx := context.Background()

	list, err := gateway.ListNotifications(ctx, 20)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)

	feed, err := gateway.GetAuthorFeed(ctx, "alice.bsky.social", 20, "")
	require.NoError(t, err)
	require.Equal(t, "next", feed.Cursor)

	profile, err := gateway.GetProfile(ctx, "did:plc:abc")
	require.NoError(t, err)
	require.Equal(t, "someone.bsky.social", profile.Handle)

	ref, err := gateway.CreateReply(ctx, "hi", bsky.StrongRef{}, bsky.StrongRef{URI: "at://x", CID: "c"})
	require.NoError(t, err)
	require.Equal(t, "at://x/reply", ref.URI)

	require.NoError(t, gateway.UpdateSeen(ctx, time.Now()))

	stats := gateway.Stats()
	require.Equal(t, int64(5), stats.TotalRequests)
	require.Equal(t, int64(5), stats.SuccessfulRequests)
	require.Equal(t, []string{"notifications", "feed:alice.bsky.social", "profile", "reply", "seen"}, network.calls)
}

func TestGatewayMissingPostIsNotRetried(t *testing.T) {
	network := &stubNetwork{}
	gateway := NewGateway(network, newTestQueue(nil, 3))

	_, err := gateway.GetPostThread(context.Background(), "at://did:plc:a/app.bsky.feed.post/gone")
	require.ErrorIs(t, err, bsky.ErrNotFound)
	require.Equal(t, int32(1), atomic.LoadInt32(&network.threads))
}

func TestGatewayRepliesJumpPolling(t *testing.T) {
	network := &stubNetwork{}
	queue := newTestQueue(nil, 0)
	gateway := NewGateway(network, queue)
	release, blocked := blockQueue(t, queue)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := gateway.ListNotifications(context.Background(), 10)
		assert.NoError(t, err)
	}()
	waitForQueueLength(t, queue, 1)
	go func() {
		defer wg.Done()
		_, err := gateway.CreateReply(context.Background(), "hi", bsky.StrongRef{}, bsky.StrongRef{URI: "at://x", CID: "c"})
		assert.NoError(t, err)
	}()
	waitForQueueLength(t, queue, 2)

	release()
	require.NoError(t, <-blocked)
	wg.Wait()

	require.Equal(t, []string{"reply", "notifications"}, network.calls)
}

func TestGatewayRequiresConfiguration(t *testing.T) {
	var gateway *Gateway
	_, err := gateway.ListNotifications(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, core.QueueStats{}, gateway.Stats())
}
