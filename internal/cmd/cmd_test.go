package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/analysis"
	"github.com/reputebot/reputebot/internal/bot"
	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/core/engine"
	"github.com/reputebot/reputebot/internal/output"
	"github.com/reputebot/reputebot/internal/server/handlers"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func TestParseBefore(t *testing.T) {
	ts, err := parseBefore("", testNow)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	ts, err = parseBefore("2025-06-01T00:00:00Z", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), ts)

	ts, err = parseBefore("72h", testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(-72*time.Hour), ts)

	_, err = parseBefore("yesterday", testNow)
	require.Error(t, err)
	_, err = parseBefore("-1h", testNow)
	require.Error(t, err)
}

func TestBuildProcessedQuery(t *testing.T) {
	q, err := buildProcessedQuery(false, " at://x ", "", "", 10, testNow)
	require.NoError(t, err)
	assert.Equal(t, "at://x", q.URI)
	assert.Equal(t, 10, q.Limit)
	require.NoError(t, q.Validate())

	q, err = buildProcessedQuery(false, "", "", "", 0, testNow)
	require.NoError(t, err)
	require.Error(t, q.Validate())
}

func TestFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	cmd.Flags().Int("probe-port", 8080, "")
	cmd.Flags().Bool("probe-server", true, "")
	require.NoError(t, viper.BindPFlag("probe.server.port", cmd.Flags().Lookup("probe-port")))
	require.NoError(t, viper.BindPFlag("probe.server.enabled", cmd.Flags().Lookup("probe-server")))
	require.NoError(t, cmd.Flags().Set("probe-port", "9999"))

	overrides := flagOverrides(cmd, map[string]string{
		"probe-port":   "probe.server.port",
		"probe-server": "probe.server.enabled",
	})

	probe, ok := overrides["probe"].(map[string]any)
	require.True(t, ok)
	server, ok := probe["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 9999, server["port"])
	_, set := server["enabled"]
	assert.False(t, set, "unchanged flags must not override config")

	assert.Nil(t, flagOverrides(cmd, nil))
}

func TestNewLimiterAppliesConfig(t *testing.T) {
	cfg := &config.Config{
		RateLimits:      map[string]int{"post_reply": 10},
		RateLimitMargin: 0.5,
	}
	statuses := newLimiter(cfg, clockwork.NewFakeClockAt(testNow)).Status()

	var found bool
	for _, status := range statuses {
		if status.Category == core.CategoryPostReply {
			found = true
			assert.Equal(t, 5, status.Window.RequestsPerWindow)
			assert.Equal(t, time.Minute, status.Window.WindowDuration)
		}
	}
	assert.True(t, found)
}

func TestFetchQueueStatsFromStatusServer(t *testing.T) {
	limiter := engine.NewRateLimiter(nil, clockwork.NewFakeClockAt(testNow))
	limiter.Record(core.CategoryGetNotifications)
	queue := engine.NewRequestQueue(limiter, engine.DefaultQueueConfig(), clockwork.NewRealClock(), nil)
	t.Cleanup(func() { _ = queue.Close(context.Background()) })

	srv := httptest.NewServer(handlers.QueueStatsHandler(queue))
	t.Cleanup(srv.Close)

	snapshot, err := fetchQueueStats(context.Background(), srv.URL)
	require.NoError(t, err)

	statuses := statusesFromView(snapshot.RateLimits)
	require.NotEmpty(t, statuses)
	for _, status := range statuses {
		if status.Category == core.CategoryGetNotifications {
			assert.Equal(t, 1, status.Used)
			assert.Greater(t, status.Window.WindowDuration, time.Duration(0))
		}
	}
}

func TestFetchQueueStatsRejectsErrors(t *testing.T) {
	srv := httptest.NewServer(handlers.QueueStatsHandler(nil))
	t.Cleanup(srv.Close)

	_, err := fetchQueueStats(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), http.StatusText(http.StatusServiceUnavailable))
}

func TestRenderStateListing(t *testing.T) {
	last := testNow
	rendered := renderStateListing(stateListing{
		LastProcessed: &last,
		Total:         3,
		Entries: []core.ProcessedNotification{
			{URI: "at://did:plc:a/app.bsky.feed.post/1", ProcessedAt: testNow, Target: "alice.bsky.social"},
			{URI: "at://did:plc:b/app.bsky.feed.post/2", ProcessedAt: testNow},
		},
	})
	assert.Contains(t, rendered, "Processed Notifications")
	assert.Contains(t, rendered, "2025-06-30T12:00:00Z")
	assert.Contains(t, rendered, "Matching: 3 (showing 2)")
	assert.Contains(t, rendered, "@alice.bsky.social")

	empty := renderStateListing(stateListing{})
	assert.Contains(t, empty, "Last processed: never")
	assert.Contains(t, empty, "(no processed notifications)")
}

func TestWriteStateResetResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStateResetResult(output.FormatTable, &buf, 4, 0, true))
	assert.Equal(t, "Would forget 4 processed notification(s)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeStateResetResult(output.FormatJSON, &buf, 4, 4, false))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(4), decoded["deleted"])
	assert.Equal(t, false, decoded["dry_run"])
}

type staticFeed map[string][]bsky.AuthorFeed

func (s staticFeed) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bsky.AuthorFeed, error) {
	pages := s[actor]
	if len(pages) == 0 {
		return &bsky.AuthorFeed{}, nil
	}
	page := pages[0]
	return &page, nil
}

func postItem(t *testing.T, text string, created time.Time) bsky.FeedItem {
	t.Helper()
	record, err := json.Marshal(bsky.PostRecord{Type: bsky.CollectionPost, Text: text, CreatedAt: bsky.FormatTimestamp(created)})
	require.NoError(t, err)
	return bsky.FeedItem{Post: bsky.PostView{URI: "at://x/app.bsky.feed.post/1", Record: record}}
}

func TestReportBuilder(t *testing.T) {
	source := staticFeed{
		"alice.bsky.social": {{Feed: []bsky.FeedItem{
			postItem(t, "Shipped a new golang release today, love this code!", testNow.Add(-time.Hour)),
			postItem(t, "Writing more code and debugging the api", testNow.Add(-48*time.Hour)),
		}}},
	}
	responder := analysis.NewResponder()
	responder.Pick = analysis.FirstPicker
	responder.Clock = clockwork.NewFakeClockAt(testNow)

	builder := &reportBuilder{
		collector: &bot.Collector{Source: source, Clock: clockwork.NewFakeClockAt(testNow), LookbackDays: 30},
		responder: responder,
		terms:     map[string][]string{"Dev": {"code"}, "Art": {"painting"}},
	}

	report, err := builder.build(context.Background(), "@alice.bsky.social")
	require.NoError(t, err)
	assert.Equal(t, "alice.bsky.social", report.Handle)
	assert.Equal(t, 2, report.Assessment.PostsAnalyzed)
	require.Len(t, report.Feeds, 1)
	assert.Equal(t, "Dev", report.Feeds[0].Name)
	assert.Contains(t, report.Reply, "@alice.bsky.social")

	_, err = builder.build(context.Background(), "ghost.bsky.social")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no posts")
}

func TestWriteReportsToDirectory(t *testing.T) {
	dir := t.TempDir()
	reports := []*output.Report{
		{Handle: "alice.bsky.social", Assessment: analysis.Assessment{Recommendation: analysis.RecommendYes}},
		{Handle: "Bob Example", Assessment: analysis.Assessment{Recommendation: analysis.RecommendNo}},
	}

	require.NoError(t, writeReports(output.FormatJSON, reports, outputTarget{Dir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, "alice.bsky.social.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"handle\": \"alice.bsky.social\"")
	_, err = os.Stat(filepath.Join(dir, "bob-example.json"))
	require.NoError(t, err)

	single := filepath.Join(dir, "all.md")
	require.NoError(t, writeReports(output.FormatMarkdown, reports, outputTarget{Path: single}))
	data, err = os.ReadFile(single)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## @alice.bsky.social reputation")
	assert.Contains(t, string(data), "## @Bob Example reputation")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "alice.bsky.social", sanitizeFilename("alice.bsky.social"))
	assert.Equal(t, "bob-example", sanitizeFilename(" Bob Example "))
	assert.Equal(t, "output", sanitizeFilename("..."))
}

func TestOutputTarget(t *testing.T) {
	_, err := newOutputTarget("a.json", "dir")
	require.Error(t, err)

	var buf bytes.Buffer
	original := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = original })

	target, err := newOutputTarget(" ", "")
	require.NoError(t, err)
	require.NoError(t, target.write("ignored", output.FormatTable, "hello"))
	assert.Equal(t, "hello\n", buf.String())

	dir := t.TempDir()
	target, err = newOutputTarget("", filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.NoError(t, target.write("state.list", output.FormatJSON, "{}"))
	data, err := os.ReadFile(filepath.Join(dir, "nested", "state.list.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}
