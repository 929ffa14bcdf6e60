package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/analysis"
	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/metrics"
)

// Mention outcomes reported to metrics and cycle reports.
const (
	OutcomeReplied   = "replied"
	OutcomeProcessed = "already_processed"
	OutcomeStale     = "stale"
	OutcomeDeleted   = "deleted"
	OutcomeNoPosts   = "no_posts"
	OutcomeFailed    = "failed"
)

// Gateway is the queued social network surface the monitor drives.
type Gateway interface {
	FeedSource
	ListNotifications(ctx context.Context, limit int) (*bsky.NotificationList, error)
	GetPostThread(ctx context.Context, uri string) (*bsky.ThreadView, error)
	GetProfile(ctx context.Context, actor string) (*bsky.Profile, error)
	CreateReply(ctx context.Context, text string, root, parent bsky.StrongRef) (*bsky.StrongRef, error)
	UpdateSeen(ctx context.Context, seenAt time.Time) error
	Stats() core.QueueStats
}

// StateStore persists which mentions were answered.
type StateStore interface {
	IsProcessed(ctx context.Context, uri string) (bool, error)
	MarkProcessed(ctx context.Context, entry core.ProcessedNotification) error
	GetLastProcessedTimestamp(ctx context.Context) (time.Time, error)
	SetLastProcessedTimestamp(ctx context.Context, ts time.Time) error
	ResetState(ctx context.Context) error
}

// Options configures a Monitor.
type Options struct {
	Gateway   Gateway
	Store     StateStore
	Responder *analysis.Responder
	Clock     clockwork.Clock
	Logger    *logging.Logger
	Config    config.BotConfig

	// Login authenticates before the first poll. Optional.
	Login func(ctx context.Context) error
	// Reset clears persisted state on startup when true.
	Reset bool
}

// CycleReport summarizes one polling cycle.
type CycleReport struct {
	Notifications int            `json:"notifications"`
	Mentions      int            `json:"mentions"`
	Outcomes      map[string]int `json:"outcomes"`
}

// Monitor polls mention notifications and answers each one with a
// reputation reply for the account in question.
type Monitor struct {
	gateway   Gateway
	store     StateStore
	responder *analysis.Responder
	collector *Collector
	clock     clockwork.Clock
	logger    *logging.Logger
	cfg       config.BotConfig
	login     func(ctx context.Context) error
	reset     bool

	startedAt     time.Time
	lastProcessed time.Time
}

// New validates opts and builds a Monitor.
func New(opts Options) (*Monitor, error) {
	if opts.Gateway == nil {
		return nil, errors.New("bot: gateway is required")
	}
	if opts.Store == nil {
		return nil, errors.New("bot: state store is required")
	}
	responder := opts.Responder
	if responder == nil {
		responder = analysis.NewResponder()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg := withBotDefaults(opts.Config)

	return &Monitor{
		gateway:   opts.Gateway,
		store:     opts.Store,
		responder: responder,
		collector: &Collector{
			Source:       opts.Gateway,
			Clock:        clock,
			Logger:       opts.Logger,
			PageSize:     cfg.PageSize,
			LookbackDays: cfg.LookbackDays,
			MaxPosts:     cfg.MaxPosts,
		},
		clock:  clock,
		logger: opts.Logger,
		cfg:    cfg,
		login:  opts.Login,
		reset:  opts.Reset,
	}, nil
}

func withBotDefaults(cfg config.BotConfig) config.BotConfig {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 60 * time.Second
	}
	if cfg.NotificationMaxAge <= 0 {
		cfg.NotificationMaxAge = 2 * time.Hour
	}
	if cfg.NotificationLimit <= 0 {
		cfg.NotificationLimit = 50
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = 1000
	}
	if cfg.StartupSkew < 0 {
		cfg.StartupSkew = 0
	}
	return cfg
}

// StartedAt returns the recorded start time, which is the moment Start ran
// minus the configured startup skew.
func (m *Monitor) StartedAt() time.Time {
	return m.startedAt
}

// Start logs in, applies any requested reset, and loads persisted state.
func (m *Monitor) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.login != nil {
		if err := m.login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	reset, err := m.resetRequested()
	if err != nil {
		return err
	}
	if reset {
		if err := m.store.ResetState(ctx); err != nil {
			return fmt.Errorf("reset bot state: %w", err)
		}
		m.logInfo("bot state reset, all recent mentions are eligible again")
	}

	last, err := m.store.GetLastProcessedTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("load last processed timestamp: %w", err)
	}
	m.lastProcessed = last
	m.startedAt = m.clock.Now().UTC().Add(-m.cfg.StartupSkew)

	fields := []zap.Field{zap.Time("started_at", m.startedAt)}
	if !last.IsZero() {
		fields = append(fields, zap.Time("last_processed", last))
	}
	m.logInfo("mention monitor started", fields...)
	return nil
}

// Run starts the monitor and polls until ctx is cancelled. Failed cycles
// wait ErrorBackoff before the next attempt instead of PollInterval.
func (m *Monitor) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.Start(ctx); err != nil {
		return err
	}

	for {
		wait := m.cfg.PollInterval
		if _, err := m.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.logError("poll cycle failed", zap.Error(err), zap.Duration("retry_in", m.cfg.ErrorBackoff))
			wait = m.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			m.logInfo("mention monitor stopped")
			return nil
		case <-m.clock.After(wait):
		}
	}
}

// PollOnce fetches notifications, answers every new mention and marks the
// notifications seen. Per-mention failures are logged and counted; only a
// failed notification fetch fails the cycle.
func (m *Monitor) PollOnce(ctx context.Context) (CycleReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := CycleReport{Outcomes: map[string]int{}}

	list, err := m.gateway.ListNotifications(ctx, m.cfg.NotificationLimit)
	if err != nil {
		metrics.RecordPollCycle(false)
		return report, fmt.Errorf("list notifications: %w", err)
	}

	var notifications []bsky.Notification
	if list != nil {
		notifications = list.Notifications
	}
	report.Notifications = len(notifications)
	m.logDebug("notifications fetched", zap.Int("count", len(notifications)))

	cutoff := m.clock.Now().UTC().Add(-m.cfg.NotificationMaxAge)
	for _, n := range notifications {
		if n.Reason != bsky.ReasonMention {
			continue
		}
		report.Mentions++
		outcome := m.handle(ctx, n, cutoff)
		report.Outcomes[outcome]++
		metrics.RecordMention(outcome)
		if ctx.Err() != nil {
			metrics.RecordPollCycle(false)
			return report, ctx.Err()
		}
	}

	if err := m.gateway.UpdateSeen(ctx, m.clock.Now()); err != nil {
		m.logWarn("could not mark notifications seen", zap.Error(err))
	}

	if stats := m.gateway.Stats(); stats.QueueLength > 0 || stats.Processing {
		m.logInfo("request queue busy",
			zap.Int("queue_length", stats.QueueLength),
			zap.Int64("total", stats.TotalRequests),
			zap.Int64("successful", stats.SuccessfulRequests),
			zap.Int64("failed", stats.FailedRequests))
	}

	metrics.RecordPollCycle(true)
	return report, nil
}

func (m *Monitor) handle(ctx context.Context, n bsky.Notification, cutoff time.Time) string {
	done, err := m.store.IsProcessed(ctx, n.URI)
	if err != nil {
		m.logError("could not check processed state", zap.String("uri", n.URI), zap.Error(err))
		return OutcomeFailed
	}
	if done {
		return OutcomeProcessed
	}

	indexed := n.IndexedTime()
	if indexed.IsZero() || indexed.Before(cutoff) {
		m.logDebug("skipping stale mention", zap.String("uri", n.URI), zap.String("indexed_at", n.IndexedAt))
		return OutcomeStale
	}

	outcome, err := m.processMention(ctx, n)
	if err != nil {
		m.logError("mention processing failed",
			zap.String("uri", n.URI),
			zap.String("author", n.Author.Handle),
			zap.Error(err))
		return OutcomeFailed
	}
	return outcome
}

// processMention answers one mention. The mention is recorded as processed
// only after a reply was posted or the mention turned out to be unanswerable.
func (m *Monitor) processMention(ctx context.Context, n bsky.Notification) (string, error) {
	m.logInfo("processing mention", zap.String("uri", n.URI), zap.String("author", n.Author.Handle))

	thread, err := m.gateway.GetPostThread(ctx, n.URI)
	switch {
	case errors.Is(err, bsky.ErrNotFound):
		thread = nil
	case err != nil:
		return "", fmt.Errorf("fetch mention thread: %w", err)
	}
	if !thread.Exists() {
		m.logWarn("mention no longer exists, skipping reply", zap.String("uri", n.URI))
		return OutcomeDeleted, m.markProcessed(ctx, n, "", "")
	}

	record, err := n.Post()
	if err != nil || record.Reply == nil {
		if fromThread, threadErr := thread.Post.Post(); threadErr == nil {
			record = fromThread
		}
	}

	target := m.resolveTarget(ctx, n, record)
	in, err := m.collector.Collect(ctx, target)
	if err != nil {
		return "", err
	}
	if len(in.Posts) == 0 {
		m.logWarn("no recent posts to analyze", zap.String("target", target))
		return OutcomeNoPosts, m.markProcessed(ctx, n, target, "")
	}

	assessment := m.responder.Assess(in)
	text := m.responder.Reply(assessment)

	parent := bsky.StrongRef{URI: n.URI, CID: n.CID}
	root := parent
	if record.Reply != nil && record.Reply.Root.URI != "" {
		root = record.Reply.Root
	}

	ref, err := m.gateway.CreateReply(ctx, text, root, parent)
	if err != nil {
		return "", fmt.Errorf("post reply: %w", err)
	}
	metrics.RecordReply(assessment.Recommendation)

	replyURI := ""
	if ref != nil {
		replyURI = ref.URI
	}
	m.logInfo("replied to mention",
		zap.String("uri", n.URI),
		zap.String("target", target),
		zap.String("recommendation", assessment.Recommendation),
		zap.Int("posts_analyzed", assessment.PostsAnalyzed))

	return OutcomeReplied, m.markProcessed(ctx, n, target, replyURI)
}

// resolveTarget picks the account to assess: the author of the post being
// replied to when the mention is a reply, otherwise the mention's author.
func (m *Monitor) resolveTarget(ctx context.Context, n bsky.Notification, record bsky.PostRecord) string {
	if record.Reply == nil || record.Reply.Parent.URI == "" {
		return n.Author.Handle
	}
	parentURI := record.Reply.Parent.URI

	parent, err := m.gateway.GetPostThread(ctx, parentURI)
	if err == nil && parent.Exists() && parent.Post.Author.Handle != "" {
		return parent.Post.Author.Handle
	}
	if err != nil {
		m.logDebug("parent thread lookup failed", zap.String("parent", parentURI), zap.Error(err))
	}

	if uri, parseErr := bsky.ParseATURI(parentURI); parseErr == nil {
		if !uri.IsDID() {
			return uri.Authority
		}
		profile, err := m.gateway.GetProfile(ctx, uri.Authority)
		if err == nil && profile != nil && profile.Handle != "" {
			return profile.Handle
		}
		if err != nil {
			m.logDebug("parent author lookup failed", zap.String("did", uri.Authority), zap.Error(err))
		}
	}

	m.logWarn("could not resolve parent author, assessing mention author",
		zap.String("parent", parentURI),
		zap.String("author", n.Author.Handle))
	return n.Author.Handle
}

func (m *Monitor) markProcessed(ctx context.Context, n bsky.Notification, target, replyURI string) error {
	entry := core.ProcessedNotification{
		URI:         n.URI,
		ProcessedAt: m.clock.Now().UTC(),
		Target:      target,
		ReplyURI:    replyURI,
	}
	if err := m.store.MarkProcessed(ctx, entry); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	indexed := n.IndexedTime()
	if indexed.IsZero() || !indexed.After(m.lastProcessed) {
		return nil
	}
	if err := m.store.SetLastProcessedTimestamp(ctx, indexed); err != nil {
		return fmt.Errorf("save last processed timestamp: %w", err)
	}
	m.lastProcessed = indexed
	return nil
}

func (m *Monitor) logDebug(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Debug(msg, fields...)
	}
}

func (m *Monitor) logInfo(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Info(msg, fields...)
	}
}

func (m *Monitor) logWarn(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Warn(msg, fields...)
	}
}

func (m *Monitor) logError(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Error(msg, fields...)
	}
}
