package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/analysis"
	"github.com/reputebot/reputebot/internal/bot"
	"github.com/reputebot/reputebot/internal/config"
	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/feeds"
	"github.com/reputebot/reputebot/internal/observability"
	"github.com/reputebot/reputebot/internal/output"
)

var analyzeDeterministic bool

var analyzeFlagBindings = map[string]string{
	"lookback-days": "bot.lookback_days",
	"max-posts":     "bot.max_posts",
	"feeds":         "feeds.path",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <handle> [handle...]",
	Short: "Analyze accounts and show the reply the bot would post",
	Long: `Fetch each account's recent posts, score them, and print the reputation
report together with the reply text. Nothing is posted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, target, err := outputFlags(cmd)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "invalid output options")
		}

		cfg, err := loadConfig(cmd, analyzeFlagBindings)
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

		feedList, err := feeds.Load(cfg.Feeds.Path)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load feeds")
		}

		logger := observability.CLILogger
		net := newNetwork(cfg, logger)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = net.close(closeCtx)
		}()

		if err := net.login(ctx, creds); err != nil {
			return errwrap.FromNetwork(ctx, err, "login failed")
		}

		responder := analysis.NewResponder()
		if analyzeDeterministic {
			responder.Pick = analysis.FirstPicker
		}
		analyzer := &reportBuilder{
			collector: &bot.Collector{
				Source:       net.gateway,
				Clock:        clockwork.NewRealClock(),
				Logger:       logger,
				PageSize:     cfg.Bot.PageSize,
				LookbackDays: cfg.Bot.LookbackDays,
				MaxPosts:     cfg.Bot.MaxPosts,
			},
			responder: responder,
			terms:     feeds.Terms(feedList),
		}

		reports := make([]*output.Report, 0, len(args))
		for _, handle := range args {
			report, err := analyzer.build(ctx, handle)
			if err != nil {
				logger.Warn("Analysis failed", zap.String("handle", handle), zap.Error(err))
				if len(args) == 1 {
					return errwrap.FromNetwork(ctx, err, fmt.Sprintf("failed to analyze %s", handle))
				}
				continue
			}
			reports = append(reports, report)
		}
		if len(reports) == 0 {
			return errwrap.NewNotFoundError("no account could be analyzed")
		}

		return writeReports(format, reports, target)
	},
}

// reportBuilder runs the collector and responder for one account.
type reportBuilder struct {
	collector *bot.Collector
	responder *analysis.Responder
	terms     map[string][]string
}

func (b *reportBuilder) build(ctx context.Context, handle string) (*output.Report, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	in, err := b.collector.Collect(ctx, handle)
	if err != nil {
		return nil, err
	}
	if len(in.Posts) == 0 {
		return nil, fmt.Errorf("no posts from @%s in the last %d days", handle, b.collector.LookbackDays)
	}

	assessment := b.responder.Assess(in)
	return &output.Report{
		Handle:      handle,
		GeneratedAt: time.Now().UTC(),
		Assessment:  assessment,
		Feeds:       analysis.ScoreFeeds(in.Posts, b.terms),
		Reply:       b.responder.Reply(assessment),
	}, nil
}

// writeReports writes all reports to one destination, or one file per
// handle when target has a directory.
func writeReports(format output.Format, reports []*output.Report, target outputTarget) error {
	if target.Dir == "" {
		rendered, err := output.FormatReports(format, reports)
		if err != nil {
			return err
		}
		return writeOutput(target.Path, rendered)
	}

	formatter := output.NewFormatter(format)
	for _, report := range reports {
		if report == nil {
			continue
		}
		rendered, err := formatter.FormatReport(report)
		if err != nil {
			return err
		}
		if err := target.write(report.Handle, format, rendered); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	analyzeCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	analyzeCmd.Flags().String("out-dir", "", "Write one file per account to a directory")
	analyzeCmd.Flags().Int("lookback-days", 30, "Days of posts to analyze")
	analyzeCmd.Flags().Int("max-posts", 1000, "Maximum posts to fetch per account")
	analyzeCmd.Flags().String("feeds", "feeds.json", "Suggested feeds file (JSON or YAML)")
	analyzeCmd.Flags().BoolVar(&analyzeDeterministic, "deterministic", false, "Pick the first persona and vibe word instead of a random one")

	for flagName, key := range analyzeFlagBindings {
		_ = viper.BindPFlag(key, analyzeCmd.Flags().Lookup(flagName))
	}
}
