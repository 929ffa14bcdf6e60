package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reputebot/reputebot/internal/appid"
	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/observability"
)

var (
	cfgFile  string
	envFiles []string
	verbose  bool

	// App identity loaded from .fulmen/app.yaml
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Bluesky bot that replies to mentions with an account reputation summary",
	Long: `reputebot watches its Bluesky mentions and answers each one with a short
reputation summary (vibe, persona, posting rate, follow recommendation) of the
account being asked about.

Use the subcommands to run the bot or inspect its state.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Config loading must not emit metrics to stdout; run initializes the
	// real telemetry system later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Load app identity early for help text (before cobra processes --help)
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files holding BLUESKY_HANDLE and BLUESKY_PASSWORD")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func applyIdentity(identity *appidentity.Identity) {
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig resolves app identity and the CLI logger, and prepares viper for
// the flags commands bind. Typed settings come from loadConfig.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity from .fulmen/app.yaml", err)
	}
	applyIdentity(identity)

	observability.InitCLILogger(appIdentity.BinaryName, verbose)

	viper.SetEnvPrefix(appid.EnvPrefix(appIdentity, "REPUTEBOT_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())
}

// loadConfig loads typed configuration from --config (or the discovered user
// config), environment, and the flags cmd has explicitly set.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	overrides := flagOverrides(cmd, bindings)
	return config.LoadFile(cmd.Context(), cfgFile, overrides)
}

// flagOverrides maps changed flags to config keys. Unchanged flags keep the
// file and environment values.
func flagOverrides(cmd *cobra.Command, bindings map[string]string) map[string]any {
	if cmd == nil || len(bindings) == 0 {
		return nil
	}
	overrides := make(map[string]any)
	for flagName, key := range bindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil || !flag.Changed {
			continue
		}
		setNested(overrides, key, viper.Get(key))
	}
	return overrides
}

func setNested(target map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	current := target
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
