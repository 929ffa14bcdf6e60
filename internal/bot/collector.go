package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/analysis"
	"github.com/reputebot/reputebot/internal/bsky"
)

// FeedSource pages through an author's posts.
type FeedSource interface {
	GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bsky.AuthorFeed, error)
}

// Collector gathers an account's recent post texts and timestamps.
type Collector struct {
	Source       FeedSource
	Clock        clockwork.Clock
	Logger       *logging.Logger
	PageSize     int
	LookbackDays int
	MaxPosts     int
}

// Collect walks the author feed newest first until it reaches a post older
// than the lookback window, runs out of pages, or has fetched MaxPosts items.
// Video posts are skipped. A page error after the first page ends the walk
// with what was gathered so far.
func (c *Collector) Collect(ctx context.Context, actor string) (analysis.Input, error) {
	in := analysis.Input{Handle: actor}
	if c == nil || c.Source == nil {
		return in, errors.New("collector is not configured")
	}
	actor = strings.TrimPrefix(strings.TrimSpace(actor), "@")
	if actor == "" {
		return in, errors.New("actor is required")
	}
	in.Handle = actor
	if ctx == nil {
		ctx = context.Background()
	}

	pageSize := c.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	lookback := c.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	cutoff := c.now().Add(-time.Duration(lookback) * 24 * time.Hour)

	fetched := 0
	cursor := ""
	for {
		page, err := c.Source.GetAuthorFeed(ctx, actor, pageSize, cursor)
		if err != nil {
			if fetched == 0 {
				return in, fmt.Errorf("fetch posts for %s: %w", actor, err)
			}
			c.logWarn("author feed page failed, keeping partial results",
				zap.String("actor", actor),
				zap.Int("fetched", fetched),
				zap.Error(err))
			break
		}
		if page == nil || len(page.Feed) == 0 {
			break
		}
		fetched += len(page.Feed)

		reachedCutoff := false
		for _, item := range page.Feed {
			if item.Post.HasVideo() {
				continue
			}
			record, err := item.Post.Post()
			if err != nil {
				c.logDebug("skipping undecodable post", zap.String("uri", item.Post.URI), zap.Error(err))
				continue
			}
			created := record.CreatedTime()
			if !created.IsZero() && created.Before(cutoff) {
				reachedCutoff = true
				break
			}
			if text := strings.TrimSpace(record.Text); text != "" {
				in.Posts = append(in.Posts, text)
			}
			if !created.IsZero() {
				in.Timestamps = append(in.Timestamps, created)
			}
		}

		if reachedCutoff || page.Cursor == "" {
			break
		}
		if c.MaxPosts > 0 && fetched >= c.MaxPosts {
			c.logWarn("post fetch limit reached", zap.String("actor", actor), zap.Int("limit", c.MaxPosts))
			break
		}
		cursor = page.Cursor
	}

	c.logDebug("collected posts",
		zap.String("actor", actor),
		zap.Int("fetched", fetched),
		zap.Int("posts", len(in.Posts)),
		zap.Int("lookback_days", lookback))
	return in, nil
}

func (c *Collector) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c *Collector) logDebug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}

func (c *Collector) logWarn(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Warn(msg, fields...)
	}
}
