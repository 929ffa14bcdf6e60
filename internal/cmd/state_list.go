package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/reputebot/reputebot/internal/core"
	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/output"
)

var (
	stateListOutput string
	stateListOut    string
	stateListOutDir string
	stateListPrefix string
	stateListBefore string
	stateListLimit  int
)

type stateListing struct {
	LastProcessed *time.Time                   `json:"last_processed,omitempty"`
	Total         int                          `json:"total"`
	Entries       []core.ProcessedNotification `json:"entries"`
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := output.ParseFormat(stateListOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query, err := buildProcessedQuery(false, "", stateListPrefix, stateListBefore, stateListLimit, time.Now())
		if err != nil {
			return err
		}
		if query.Prefix == "" && query.Before.IsZero() {
			query.All = true
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

		listing := stateListing{}
		if listing.Entries, err = db.ListProcessed(ctx, query); err != nil {
			return err
		}
		if listing.Total, err = db.CountProcessed(ctx, query); err != nil {
			return err
		}
		last, err := db.GetLastProcessedTimestamp(ctx)
		if err != nil {
			return err
		}
		if !last.IsZero() {
			listing.LastProcessed = &last
		}

		target, err := newOutputTarget(stateListOut, stateListOutDir)
		if err != nil {
			return err
		}
		rendered := renderStateListing(listing)
		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(listing, "", "  ")
			if err != nil {
				return err
			}
			rendered = string(payload)
		}
		return target.write("state.list", format, rendered)
	},
}

func renderStateListing(listing stateListing) string {
	lines := []string{"Processed Notifications", ""}
	if listing.LastProcessed != nil {
		lines = append(lines, "Last processed: "+listing.LastProcessed.UTC().Format(time.RFC3339))
	} else {
		lines = append(lines, "Last processed: never")
	}
	lines = append(lines, fmt.Sprintf("Matching: %d (showing %d)", listing.Total, len(listing.Entries)), "")

	if len(listing.Entries) == 0 {
		lines = append(lines, "(no processed notifications)")
		return ascii.DrawBox(strings.Join(lines, "\n"), 0)
	}

	for _, entry := range listing.Entries {
		target := entry.Target
		if target == "" {
			target = "-"
		} else {
			target = "@" + target
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			entry.ProcessedAt.UTC().Format(time.RFC3339), target, entry.URI))
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0)
}

func init() {
	stateListCmd.Flags().StringVar(&stateListOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	stateListCmd.Flags().StringVar(&stateListOut, "out", "", "Write output to a file (default stdout)")
	stateListCmd.Flags().StringVar(&stateListOutDir, "out-dir", "", "Write output to a directory")
	stateListCmd.Flags().StringVar(&stateListPrefix, "prefix", "", "List notification URIs with matching prefix")
	stateListCmd.Flags().StringVar(&stateListBefore, "before", "", "List notifications processed before an RFC3339 time or duration ago")
	stateListCmd.Flags().IntVar(&stateListLimit, "limit", 50, "Maximum entries to show (0 for all)")
}
