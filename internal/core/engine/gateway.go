package engine

import (
	"context"
	"errors"
	"time"

	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/core"
)

// Network is the set of social network calls the bot makes.
type Network interface {
	ListNotifications(ctx context.Context, limit int) (*bsky.NotificationList, error)
	GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bsky.AuthorFeed, error)
	GetPostThread(ctx context.Context, uri string) (*bsky.ThreadView, error)
	GetProfile(ctx context.Context, actor string) (*bsky.Profile, error)
	CreateReply(ctx context.Context, text string, root, parent bsky.StrongRef) (*bsky.StrongRef, error)
	UpdateSeen(ctx context.Context, seenAt time.Time) error
}

// Gateway routes every Network call through a RequestQueue. Replies are
// served ahead of polling and lookups.
type Gateway struct {
	Network Network
	Queue   *RequestQueue
}

// NewGateway binds network to queue.
func NewGateway(network Network, queue *RequestQueue) *Gateway {
	return &Gateway{Network: network, Queue: queue}
}

// ListNotifications fetches recent notifications at normal priority.
func (g *Gateway) ListNotifications(ctx context.Context, limit int) (*bsky.NotificationList, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return Do(ctx, g.Queue, core.CategoryGetNotifications, core.PriorityNormal, func(ctx context.Context) (*bsky.NotificationList, error) {
		return g.Network.ListNotifications(ctx, limit)
	})
}

// GetAuthorFeed fetches one page of an author's posts at normal priority.
func (g *Gateway) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bsky.AuthorFeed, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return Do(ctx, g.Queue, core.CategoryGetAuthorPosts, core.PriorityNormal, func(ctx context.Context) (*bsky.AuthorFeed, error) {
		return g.Network.GetAuthorFeed(ctx, actor, limit, cursor)
	})
}

// GetPostThread fetches a post thread at normal priority. Missing posts fail
// without retries.
func (g *Gateway) GetPostThread(ctx context.Context, uri string) (*bsky.ThreadView, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return Do(ctx, g.Queue, core.CategoryGetPostThread, core.PriorityNormal, func(ctx context.Context) (*bsky.ThreadView, error) {
		thread, err := g.Network.GetPostThread(ctx, uri)
		return thread, permanentIfFinal(err)
	})
}

// GetProfile resolves an actor at low priority.
func (g *Gateway) GetProfile(ctx context.Context, actor string) (*bsky.Profile, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return Do(ctx, g.Queue, core.CategoryGetProfile, core.PriorityLow, func(ctx context.Context) (*bsky.Profile, error) {
		profile, err := g.Network.GetProfile(ctx, actor)
		return profile, permanentIfFinal(err)
	})
}

// CreateReply posts a reply at high priority.
func (g *Gateway) CreateReply(ctx context.Context, text string, root, parent bsky.StrongRef) (*bsky.StrongRef, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return Do(ctx, g.Queue, core.CategoryPostReply, core.PriorityHigh, func(ctx context.Context) (*bsky.StrongRef, error) {
		ref, err := g.Network.CreateReply(ctx, text, root, parent)
		return ref, permanentIfFinal(err)
	})
}

// UpdateSeen marks notifications read at normal priority.
func (g *Gateway) UpdateSeen(ctx context.Context, seenAt time.Time) error {
	if err := g.validate(); err != nil {
		return err
	}
	_, err := g.Queue.Submit(ctx, core.CategoryMarkNotificationRead, core.PriorityNormal, func(ctx context.Context) (any, error) {
		return nil, g.Network.UpdateSeen(ctx, seenAt)
	})
	return err
}

// Stats exposes the underlying queue counters.
func (g *Gateway) Stats() core.QueueStats {
	if g == nil {
		return core.QueueStats{}
	}
	return g.Queue.Stats()
}

func (g *Gateway) validate() error {
	if g == nil || g.Network == nil || g.Queue == nil {
		return errors.New("gateway is not configured")
	}
	return nil
}

// permanentIfFinal stops retries for answers that cannot change on retry.
func permanentIfFinal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bsky.ErrNotFound) || errors.Is(err, bsky.ErrUnauthorized) || errors.Is(err, bsky.ErrNoSession) {
		return Permanent(err)
	}
	return err
}
