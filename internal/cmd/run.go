package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/analysis"
	"github.com/reputebot/reputebot/internal/bot"
	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core/store"
	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/metrics"
	"github.com/reputebot/reputebot/internal/observability"
	"github.com/reputebot/reputebot/internal/server"
	"github.com/reputebot/reputebot/internal/server/handlers"
)

var runReset bool

var runFlagBindings = map[string]string{
	"host":   "server.host",
	"port":   "server.port",
	"server": "server.enabled",
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mention bot",
	Long: `Log in, then poll mention notifications and reply to each one with a
reputation summary of the account in question.

The status server (health probes, /version, /queue/stats, /metrics) runs
alongside the bot unless --server=false.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload rate limit settings from config`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd, runFlagBindings)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load configuration")
		}
		creds, err := config.LoadCredentials(envFiles...)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load credentials")
		}
		if err := creds.Validate(); err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "missing credentials")
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		logLevel := cfg.Logging.Level
		if verbose {
			logLevel = "debug"
		}
		observability.InitServerLogger(identity.BinaryName, logLevel, cfg.Logging.Profile, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
		}
		startedAt := time.Now()
		metrics.SetServerStartTime(startedAt.Unix())

		db, err := openStore(ctx, cfg)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to open store")
		}

		net := newNetwork(cfg, logger)
		monitor, err := bot.New(bot.Options{
			Gateway:   net.gateway,
			Store:     db,
			Responder: analysis.NewResponder(),
			Logger:    logger,
			Config:    cfg.Bot,
			Login: func(ctx context.Context) error {
				return net.login(ctx, creds)
			},
			Reset: creds.ResetRequested() || runReset,
		})
		if err != nil {
			_ = db.Close()
			return errwrap.WrapInternal(ctx, err, "failed to build monitor")
		}

		logger.Info("Starting reputebot",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("handle", creds.Handle),
			zap.Duration("poll_interval", cfg.Bot.PollInterval),
			zap.Bool("server", cfg.Server.Enabled),
			zap.Bool("metrics", cfg.Metrics.Enabled))

		var srv *server.Server
		if cfg.Server.Enabled {
			srv = newStatusServer(cfg, db, net)
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan struct{})

		signals.OnShutdown(func(shutdownCtx context.Context) error {
			logger.Info("Shutdown requested")
			cancel()
			select {
			case <-done:
			case <-shutdownCtx.Done():
			}
			return nil
		})
		signals.OnReload(func(reloadCtx context.Context) error {
			return reloadLimits(cmd, net, logger)
		})
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		if srv != nil {
			go func() {
				logger.Info("Starting status server", zap.String("addr", srv.Addr()))
				if err := srv.Start(); err != nil {
					errChan <- err
				}
			}()
		}
		go func() {
			if err := signals.Listen(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()
		go reportUptime(runCtx, startedAt)

		monitorDone := make(chan error, 1)
		go func() {
			monitorDone <- monitor.Run(runCtx)
		}()

		var runErr error
		select {
		case runErr = <-monitorDone:
		case runErr = <-errChan:
			cancel()
			<-monitorDone
		}

		shutdown(cfg, srv, net, db, logger)
		close(done)

		if runErr != nil {
			return errwrap.FromNetwork(ctx, runErr, "bot stopped")
		}
		return nil
	},
}

func newStatusServer(cfg *config.Config, db *store.Store, net *network) *server.Server {
	identity := GetAppIdentity()

	handlers.InitHealthManager(versionInfo.Version)
	hm := handlers.GetHealthManager()
	hm.RegisterChecker("store", handlers.CheckerFunc(db.Ping))
	hm.RegisterChecker("session", handlers.CheckerFunc(func(ctx context.Context) error {
		if net.client.Session() == nil {
			return errwrap.NewUnauthorizedError("not logged in")
		}
		return nil
	}))
	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	hm.RegisterChecker("app_identity", identityHealthChecker{
		binaryName: identity.BinaryName,
		envPrefix:  identity.EnvPrefix,
		configName: identity.ConfigName,
	})

	handlers.SetAppIdentity(identity)
	return server.New(cfg.Server, server.WithQueue(net.queue))
}

// shutdown stops components in reverse start order: status server, request
// queue, store, then the logger.
func shutdown(cfg *config.Config, srv *server.Server, net *network, db *store.Store, logger *logging.Logger) {
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Status server shutdown failed", zap.Error(err))
		} else {
			logger.Info("Status server stopped")
		}
	}

	stats := net.stats()
	if err := net.close(ctx); err != nil {
		logger.Warn("Request queue did not drain", zap.Error(err), zap.Int("pending", stats.QueueLength))
	}
	logger.Info("Request queue closed",
		zap.Int64("total", stats.TotalRequests),
		zap.Int64("successful", stats.SuccessfulRequests),
		zap.Int64("failed", stats.FailedRequests))

	if err := db.Close(); err != nil {
		logger.Warn("Store close failed", zap.Error(err))
	}
	if err := observability.ShutdownMetrics(); err != nil {
		logger.Warn("Metrics exporter stop failed", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		// Sync errors are often benign (stdout/stderr already closed)
		logger.Debug("Logger sync returned error", zap.Error(err))
	}
}

// reloadLimits re-reads configuration and applies rate limit changes to the
// live limiter. Other settings need a restart.
func reloadLimits(cmd *cobra.Command, net *network, logger *logging.Logger) error {
	logger.Info("Received SIGHUP: reloading rate limits")
	cfg, err := loadConfig(cmd, runFlagBindings)
	if err != nil {
		logger.Error("Failed to reload config", zap.Error(err))
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "config reload failed")
	}
	net.limiter.Reconfigure(nil, cfg.RateLimits, cfg.RateLimitMargin)
	logger.Info("Rate limits reloaded",
		zap.Int("overrides", len(cfg.RateLimits)),
		zap.Float64("margin", cfg.RateLimitMargin))
	return nil
}

func reportUptime(ctx context.Context, startedAt time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			metrics.SetServerUptime(int64(now.Sub(startedAt).Seconds()))
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("host", "localhost", "status server host")
	runCmd.Flags().IntP("port", "p", 8080, "status server port")
	runCmd.Flags().Bool("server", true, "run the status server")
	runCmd.Flags().BoolVar(&runReset, "reset", false, "forget processed notifications before the first poll")

	for flagName, key := range runFlagBindings {
		_ = viper.BindPFlag(key, runCmd.Flags().Lookup(flagName))
	}
}
