package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reputebot/reputebot/internal/core/store"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset processed notification state",
}

// parseBefore accepts an RFC3339 timestamp or a duration meaning "that long
// ago" (e.g. 72h).
func parseBefore(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return time.Time{}, fmt.Errorf("invalid --before %q: use RFC3339 or a positive duration", value)
	}
	return now.Add(-d).UTC(), nil
}

func buildProcessedQuery(all bool, uri, prefix, before string, limit int, now time.Time) (store.ProcessedQuery, error) {
	cutoff, err := parseBefore(before, now)
	if err != nil {
		return store.ProcessedQuery{}, err
	}
	return store.ProcessedQuery{
		All:    all,
		URI:    strings.TrimSpace(uri),
		Prefix: strings.TrimSpace(prefix),
		Before: cutoff,
		Limit:  limit,
	}, nil
}

func init() {
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}
