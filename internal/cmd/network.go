package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/core/engine"
)

// network bundles the XRPC client with the rate limited queue in front of it.
type network struct {
	client  *bsky.Client
	limiter *engine.RateLimiter
	queue   *engine.RequestQueue
	gateway *engine.Gateway
	logger  *logging.Logger
	policy  bsky.LoginPolicy
}

func newNetwork(cfg *config.Config, logger *logging.Logger) *network {
	client := bsky.NewClient(cfg.Network.BaseURL, &http.Client{Timeout: cfg.Network.Timeout})
	client.UserAgent = cfg.Network.UserAgent

	clock := clockwork.NewRealClock()
	limiter := newLimiter(cfg, clock)
	queue := engine.NewRequestQueue(limiter, engine.QueueConfig{
		MaxRetries:  cfg.Queue.MaxRetries,
		BackoffBase: cfg.Queue.BackoffBase,
		BackoffUnit: cfg.Queue.BackoffUnit,
	}, clock, logger)

	return &network{
		client:  client,
		limiter: limiter,
		queue:   queue,
		gateway: engine.NewGateway(client, queue),
		logger:  logger,
		policy: bsky.LoginPolicy{
			InitialInterval: cfg.Network.LoginRetryWait,
			MaxRetries:      cfg.Network.LoginRetries,
		},
	}
}

// newLimiter builds the default category windows with config overrides and
// the safety margin applied.
func newLimiter(cfg *config.Config, clock clockwork.Clock) *engine.RateLimiter {
	limiter := engine.NewRateLimiter(nil, clock)
	limiter.Reconfigure(nil, cfg.RateLimits, cfg.RateLimitMargin)
	return limiter
}

func (n *network) login(ctx context.Context, creds config.Credentials) error {
	session, err := n.client.Login(ctx, creds.Handle, creds.Password, n.policy, func(err error, wait time.Duration) {
		if n.logger != nil {
			n.logger.Warn("Login failed, retrying",
				zap.String("handle", creds.Handle),
				zap.Duration("wait", wait),
				zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	if n.logger != nil {
		n.logger.Info("Logged in", zap.String("handle", session.Handle), zap.String("did", session.DID))
	}
	return nil
}

func (n *network) stats() core.QueueStats {
	return n.queue.Stats()
}

func (n *network) close(ctx context.Context) error {
	return n.queue.Close(ctx)
}
