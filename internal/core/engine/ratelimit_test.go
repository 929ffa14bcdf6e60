package engine

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/core"
)

const testCategory core.RequestCategory = "test_category"

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(map[core.RequestCategory]core.RateWindow{
		testCategory: {RequestsPerWindow: limit, WindowDuration: window},
	}, clock)
	return limiter, clock
}

func TestRateLimiterWindow(t *testing.T) {
	limiter, clock := newTestLimiter(2, time.Minute)

	require.True(t, limiter.CanProceed(testCategory))
	require.Zero(t, limiter.WaitTime(testCategory))

	limiter.Record(testCategory)
	limiter.Record(testCategory)

	require.False(t, limiter.CanProceed(testCategory))
	require.Equal(t, time.Minute, limiter.WaitTime(testCategory))

	clock.Advance(45 * time.Second)
	require.False(t, limiter.CanProceed(testCategory))
	require.Equal(t, 15*time.Second, limiter.WaitTime(testCategory))

	clock.Advance(15 * time.Second)
	require.True(t, limiter.CanProceed(testCategory))
	require.Zero(t, limiter.WaitTime(testCategory))
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter, clock := newTestLimiter(2, time.Minute)

	limiter.Record(testCategory)
	clock.Advance(40 * time.Second)
	limiter.Record(testCategory)

	require.False(t, limiter.CanProceed(testCategory))
	require.Equal(t, 20*time.Second, limiter.WaitTime(testCategory))

	clock.Advance(20 * time.Second)
	require.True(t, limiter.CanProceed(testCategory))

	limiter.Record(testCategory)
	require.False(t, limiter.CanProceed(testCategory))
	require.Equal(t, 40*time.Second, limiter.WaitTime(testCategory))
}

func TestRateLimiterUnconfiguredCategory(t *testing.T) {
	limiter, _ := newTestLimiter(1, time.Minute)

	for i := 0; i < 100; i++ {
		limiter.Record("other")
	}
	require.True(t, limiter.CanProceed("other"))
	require.Zero(t, limiter.WaitTime("other"))
}

func TestRateLimiterQueriesAreReadOnly(t *testing.T) {
	limiter, clock := newTestLimiter(3, time.Minute)

	limiter.Record(testCategory)
	clock.Advance(10 * time.Second)
	limiter.Record(testCategory)
	limiter.Record(testCategory)

	first := limiter.CanProceed(testCategory)
	firstWait := limiter.WaitTime(testCategory)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, limiter.CanProceed(testCategory))
		require.Equal(t, firstWait, limiter.WaitTime(testCategory))
	}
	require.False(t, first)
	require.Equal(t, 50*time.Second, firstWait)
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(nil, clockwork.NewFakeClock())

	require.Equal(t, 10, limiter.Limits[core.CategoryPostReply].RequestsPerWindow)
	require.Equal(t, 30, limiter.Limits[core.CategoryGetNotifications].RequestsPerWindow)
	require.Equal(t, 20, limiter.Limits[core.CategoryGetAuthorPosts].RequestsPerWindow)
	require.Equal(t, 30, limiter.Limits[core.CategoryGetPostThread].RequestsPerWindow)
	require.Equal(t, 50, limiter.Limits[core.CategoryMarkNotificationRead].RequestsPerWindow)
	require.Equal(t, time.Minute, limiter.Limits[core.CategoryPostReply].WindowDuration)

	limiter.Limits[core.CategoryPostReply] = core.RateWindow{RequestsPerWindow: 1, WindowDuration: time.Second}
	require.Equal(t, 10, DefaultLimits[core.CategoryPostReply].RequestsPerWindow)
}

func TestRateLimiterMargin(t *testing.T) {
	limiter, _ := newTestLimiter(10, time.Minute)
	base := map[core.RequestCategory]core.RateWindow{testCategory: {RequestsPerWindow: 10, WindowDuration: time.Minute}}

	limiter.Reconfigure(base, nil, 0.9)
	limit, ok := limiter.getLimit(testCategory)
	require.True(t, ok)
	require.Equal(t, 9, limit.RequestsPerWindow)

	limiter.Reconfigure(base, nil, 0.01)
	limit, _ = limiter.getLimit(testCategory)
	require.Equal(t, 1, limit.RequestsPerWindow)

	limiter.Reconfigure(base, nil, 0)
	limit, _ = limiter.getLimit(testCategory)
	require.Equal(t, 10, limit.RequestsPerWindow)
	require.Zero(t, limiter.Margin)
}

func TestRateLimiterOverrides(t *testing.T) {
	limiter, _ := newTestLimiter(10, time.Second)
	base := map[core.RequestCategory]core.RateWindow{testCategory: {RequestsPerWindow: 10, WindowDuration: time.Second}}

	limiter.Reconfigure(base, map[string]int{
		string(testCategory): 5,
		"post_reply":         3,
		" ":                  9,
		"get_profile":        0,
	}, 0)

	require.Equal(t, core.RateWindow{RequestsPerWindow: 5, WindowDuration: time.Minute}, limiter.Limits[testCategory])
	require.Equal(t, 3, limiter.Limits[core.CategoryPostReply].RequestsPerWindow)
	_, ok := limiter.Limits[core.CategoryGetProfile]
	require.False(t, ok)
}

func TestRateLimiterReconfigureDropsRemovedOverrides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(nil, clock)

	limiter.Reconfigure(nil, map[string]int{"post_reply": 2, "custom": 4}, 0.5)
	require.Equal(t, 2, limiter.Limits[core.CategoryPostReply].RequestsPerWindow)
	require.Contains(t, limiter.Limits, core.RequestCategory("custom"))
	require.Equal(t, 0.5, limiter.Margin)

	limiter.Record(core.CategoryPostReply)
	limiter.Reconfigure(nil, nil, 0)
	require.Equal(t, DefaultLimits[core.CategoryPostReply], limiter.Limits[core.CategoryPostReply])
	require.NotContains(t, limiter.Limits, core.RequestCategory("custom"))
	require.Zero(t, limiter.Margin)
	require.Equal(t, 1, limiter.Status()[0].Used)
	require.Equal(t, 10, DefaultLimits[core.CategoryPostReply].RequestsPerWindow)
}

func TestRateLimiterStatus(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(map[core.RequestCategory]core.RateWindow{
		core.CategoryPostReply:    {RequestsPerWindow: 1, WindowDuration: time.Minute},
		core.CategoryGetProfile:   {RequestsPerWindow: 5, WindowDuration: time.Minute},
		core.RequestCategory("z"): {RequestsPerWindow: 5, WindowDuration: time.Minute},
	}, clock)
	limiter.Record(core.CategoryPostReply)

	statuses := limiter.Status()
	require.Len(t, statuses, 3)
	require.Equal(t, core.CategoryPostReply, statuses[0].Category)
	require.Equal(t, 1, statuses[0].Used)
	require.Equal(t, time.Minute, statuses[0].Wait)
	require.Equal(t, core.CategoryGetProfile, statuses[1].Category)
	require.Zero(t, statuses[1].Used)
	require.Equal(t, core.RequestCategory("z"), statuses[2].Category)
}

func TestRateLimiterNil(t *testing.T) {
	var limiter *RateLimiter
	require.True(t, limiter.CanProceed(testCategory))
	require.Zero(t, limiter.WaitTime(testCategory))
	limiter.Record(testCategory)
	require.Nil(t, limiter.Status())
}
