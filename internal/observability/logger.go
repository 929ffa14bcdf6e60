package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used by one-shot commands (SIMPLE profile).
	CLILogger *logging.Logger

	// ServerLogger is used by the run daemon: monitor, queue and status server.
	ServerLogger *logging.Logger
)

// InitCLILogger sets CLILogger for one-shot commands such as analyze and
// state. verbose lowers the level to DEBUG.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
}

// InitServerLogger initializes the daemon logger. The SIMPLE profile writes
// human-readable console lines; anything else writes JSON.
func InitServerLogger(serviceName string, logLevel string, profile string, namespace ...string) {
	level := parseLogLevel(logLevel)
	staticFields := make(map[string]any)
	if len(namespace) > 0 && namespace[0] != "" {
		staticFields["namespace"] = namespace[0]
	}

	logProfile := logging.ProfileStructured
	format := "json"
	middleware := []logging.MiddlewareConfig{
		{Name: "correlation", Enabled: true, Order: 100, Config: make(map[string]any)},
	}
	if strings.EqualFold(profile, "simple") {
		logProfile = logging.ProfileSimple
		format = "console"
		middleware = nil
	}

	config := &logging.LoggerConfig{
		Profile:      logProfile,
		DefaultLevel: level,
		Service:      serviceName,
		Environment:  "production",
		StaticFields: staticFields,
		Middleware:   middleware,
		Sinks: []logging.SinkConfig{
			{
				Type:   "console",
				Format: format,
				Console: &logging.ConsoleSinkConfig{
					Stream:   "stderr",
					Colorize: false,
				},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	}

	logger, err := logging.New(config)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}

	ServerLogger = logger
}

var logLevels = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// parseLogLevel maps a config level name to a gofulmen severity; unknown
// names mean INFO.
func parseLogLevel(levelStr string) string {
	if level, ok := logLevels[strings.ToLower(strings.TrimSpace(levelStr))]; ok {
		return level
	}
	return "INFO"
}

// exitWithCodeStderr reports a logger setup failure on stderr and exits.
// No logger exists yet at this point.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	}
	os.Exit(int(exitCode))
}
