package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/bsky"
)

func TestCollectStopsAtLookbackCutoff(t *testing.T) {
	gw := newFakeGateway()
	day := 24 * time.Hour
	gw.feeds["alice.test"] = []bsky.AuthorFeed{
		{Feed: []bsky.FeedItem{
			feedItem("alice.test", "newest post", testNow.Add(-time.Hour)),
			videoItem("alice.test", "a video", testNow.Add(-2*time.Hour)),
			feedItem("alice.test", "yesterday", testNow.Add(-day)),
		}, Cursor: "1"},
		{Feed: []bsky.FeedItem{
			feedItem("alice.test", "last week", testNow.Add(-7*day)),
			feedItem("alice.test", "too old", testNow.Add(-40*day)),
			feedItem("alice.test", "older still", testNow.Add(-41*day)),
		}, Cursor: "2"},
		{Feed: []bsky.FeedItem{
			feedItem("alice.test", "never fetched", testNow.Add(-50*day)),
		}},
	}

	c := &Collector{Source: gw, Clock: clockwork.NewFakeClockAt(testNow), PageSize: 3, LookbackDays: 30}
	in, err := c.Collect(context.Background(), "@alice.test")
	require.NoError(t, err)

	assert.Equal(t, "alice.test", in.Handle)
	assert.Equal(t, []string{"newest post", "yesterday", "last week"}, in.Posts)
	assert.Len(t, in.Timestamps, 3)
	assert.Equal(t, []string{"alice.test#", "alice.test#1"}, gw.feedRequests)
}

func TestCollectHonoursMaxPosts(t *testing.T) {
	gw := newFakeGateway()
	gw.feeds["bob.test"] = []bsky.AuthorFeed{
		{Feed: []bsky.FeedItem{
			feedItem("bob.test", "one", testNow.Add(-time.Hour)),
			feedItem("bob.test", "two", testNow.Add(-2*time.Hour)),
		}, Cursor: "1"},
		{Feed: []bsky.FeedItem{
			feedItem("bob.test", "three", testNow.Add(-3*time.Hour)),
			feedItem("bob.test", "four", testNow.Add(-4*time.Hour)),
		}, Cursor: "2"},
		{Feed: []bsky.FeedItem{
			feedItem("bob.test", "five", testNow.Add(-5*time.Hour)),
		}},
	}

	c := &Collector{Source: gw, Clock: clockwork.NewFakeClockAt(testNow), PageSize: 2, MaxPosts: 4}
	in, err := c.Collect(context.Background(), "bob.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, in.Posts)
}

func TestCollectErrors(t *testing.T) {
	t.Run("first page failure is returned", func(t *testing.T) {
		c := &Collector{Source: newFakeGateway(), Clock: clockwork.NewFakeClockAt(testNow)}
		_, err := c.Collect(context.Background(), "ghost.test")
		require.Error(t, err)
		assert.True(t, errors.Is(err, bsky.ErrNotFound))
	})

	t.Run("empty actor", func(t *testing.T) {
		c := &Collector{Source: newFakeGateway()}
		_, err := c.Collect(context.Background(), " @ ")
		require.Error(t, err)
	})

	t.Run("unconfigured", func(t *testing.T) {
		var c *Collector
		_, err := c.Collect(context.Background(), "alice.test")
		require.Error(t, err)
	})
}
