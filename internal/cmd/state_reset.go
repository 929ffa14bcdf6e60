package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/output"
)

var (
	stateResetAll    bool
	stateResetURI    string
	stateResetPrefix string
	stateResetBefore string
	stateResetYes    bool
	stateResetDryRun bool
	stateResetOutput string
)

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget processed notifications so the bot may answer them again",
	Long: `Delete processed notification records.

--all also clears the last processed timestamp, which is what the
RESET_PERSISTENCE and FORCE_RESET switches do at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := output.ParseFormat(stateResetOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query, err := buildProcessedQuery(stateResetAll, stateResetURI, stateResetPrefix, stateResetBefore, 0, time.Now())
		if err != nil {
			return err
		}
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !stateResetYes && !stateResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load configuration")
		}
		db, err := openStore(ctx, cfg)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to open store")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountProcessed(ctx, query)
		if err != nil {
			return err
		}
		if stateResetDryRun {
			return writeStateResetResult(format, os.Stdout, matched, 0, true)
		}

		var deleted int64
		if query.All {
			if err := db.ResetState(ctx); err != nil {
				return errwrap.WrapDatabaseError(ctx, err, "failed to reset state")
			}
			deleted = int64(matched)
		} else if deleted, err = db.ResetProcessed(ctx, query); err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to reset processed notifications")
		}

		return writeStateResetResult(format, os.Stdout, matched, deleted, false)
	},
}

func writeStateResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"matched": matched,
		"deleted": deleted,
		"dry_run": dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	if dryRun {
		_, err := fmt.Fprintf(w, "Would forget %d processed notification(s)\n", matched)
		return err
	}
	_, err := fmt.Fprintf(w, "Forgot %d/%d processed notification(s)\n", deleted, matched)
	return err
}

func init() {
	stateResetCmd.Flags().BoolVar(&stateResetAll, "all", false, "Reset every notification and the last processed timestamp")
	stateResetCmd.Flags().StringVar(&stateResetURI, "uri", "", "Reset a single notification URI (exact match)")
	stateResetCmd.Flags().StringVar(&stateResetPrefix, "prefix", "", "Reset notification URIs with matching prefix")
	stateResetCmd.Flags().StringVar(&stateResetBefore, "before", "", "Reset notifications processed before an RFC3339 time or duration ago")
	stateResetCmd.Flags().BoolVar(&stateResetYes, "yes", false, "Confirm destructive reset")
	stateResetCmd.Flags().BoolVar(&stateResetDryRun, "dry-run", false, "Show what would be deleted")
	stateResetCmd.Flags().StringVar(&stateResetOutput, "output-format", string(output.FormatTable), "Output format: table|json")
}
