package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime, and effective bot configuration. Secrets are never printed.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		logger.Info("=== reputebot Environment Information ===")
		logger.Info("")
		logger.Info("Application:")
		logger.Info("  Name:       " + identity.BinaryName)
		logger.Info("  Version:    " + versionInfo.Version)
		logger.Info("  Commit:     " + versionInfo.Commit)
		logger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		logger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		logger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		logger.Info("")

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return
		}

		logger.Info("Bot:")
		logger.Info("  Poll Interval:  " + cfg.Bot.PollInterval.String())
		logger.Info("  Error Backoff:  " + cfg.Bot.ErrorBackoff.String())
		logger.Info("  Max Age:        " + cfg.Bot.NotificationMaxAge.String())
		logger.Info(fmt.Sprintf("  Lookback Days:  %d", cfg.Bot.LookbackDays))
		logger.Info(fmt.Sprintf("  Max Posts:      %d", cfg.Bot.MaxPosts))
		logger.Info("  Reset File:     " + cfg.Bot.ResetFile)
		logger.Info("")

		logger.Info("Network:")
		logger.Info("  PDS:            "+cfg.Network.BaseURL, zap.String("base_url", cfg.Network.BaseURL))
		logger.Info(fmt.Sprintf("  Queue Retries:  %d (base %.1f x %s)", cfg.Queue.MaxRetries, cfg.Queue.BackoffBase, cfg.Queue.BackoffUnit))
		logger.Info(fmt.Sprintf("  Rate Margin:    %.2f", cfg.RateLimitMargin))
		for category, limit := range cfg.RateLimits {
			logger.Info(fmt.Sprintf("  Override:       %s=%d/min", category, limit))
		}
		logger.Info("")

		logger.Info("Storage:")
		logger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			logger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			logger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		logger.Info("  Feeds File:     " + cfg.Feeds.Path)
		logger.Info("  Config File:    " + config.DefaultConfigPath())
		logger.Info("")

		logger.Info("Status Server:")
		logger.Info(fmt.Sprintf("  Enabled:        %t", cfg.Server.Enabled))
		logger.Info(fmt.Sprintf("  Address:        %s:%d", cfg.Server.Host, cfg.Server.Port))
		logger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port))
		logger.Info("  Log Level:      " + cfg.Logging.Level)

		if err := checkCredentials(); err != nil {
			logger.Warn("  Credentials:    missing", zap.Error(err))
		} else {
			logger.Info("  Credentials:    present")
		}
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
