package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that configuration loads, credentials are present, and the store opens and migrates.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		logger.Info("✅ Version information available")

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		logger.Info("✅ Configuration loaded")

		if err := checkCredentials(); err != nil {
			logger.Warn("⚠️  Credentials missing; run will refuse to start", zap.Error(err))
		} else {
			logger.Info("✅ Credentials present")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		db, err := openStore(ctx, cfg)
		if err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Store unavailable", errwrap.WrapDatabaseError(ctx, err, "store unavailable"))
			return
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
		if err := db.Ping(ctx); err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Store unavailable", errwrap.WrapDatabaseError(ctx, err, "store ping failed"))
			return
		}
		logger.Info("✅ Store reachable", zap.String("driver", db.Driver()))

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
