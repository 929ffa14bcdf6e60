package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/reputebot/reputebot/internal/core"
	errwrap "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/output"
	"github.com/reputebot/reputebot/internal/server/handlers"
)

var (
	limitsOutput string
	limitsLive   bool
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show effective rate limit windows",
	Long: `Show the per-category rate windows after config overrides and the safety
margin. With --live, read current usage and queue counters from a running
bot's status server instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := output.ParseFormat(limitsOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to load configuration")
		}

		var (
			statuses []core.RateLimitStatus
			stats    *core.QueueStats
		)
		if limitsLive {
			url := fmt.Sprintf("http://%s:%d/queue/stats", cfg.Server.Host, cfg.Server.Port)
			snapshot, err := fetchQueueStats(ctx, url)
			if err != nil {
				return errwrap.FromNetwork(ctx, err, "status server unavailable")
			}
			statuses = statusesFromView(snapshot.RateLimits)
			stats = &snapshot.Queue
		} else {
			statuses = newLimiter(cfg, clockwork.NewRealClock()).Status()
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(map[string]any{
				"rate_limits": statuses,
				"queue":       stats,
			}, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput("", string(payload))
		}
		return writeOutput("", output.RateLimitTable(statuses, stats))
	},
}

func fetchQueueStats(ctx context.Context, url string) (*handlers.QueueStatsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	var snapshot handlers.QueueStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode queue stats: %w", err)
	}
	return &snapshot, nil
}

func statusesFromView(views []handlers.RateWindowView) []core.RateLimitStatus {
	statuses := make([]core.RateLimitStatus, 0, len(views))
	for _, view := range views {
		statuses = append(statuses, core.RateLimitStatus{
			Category: core.RequestCategory(view.Category),
			Window: core.RateWindow{
				RequestsPerWindow: view.Limit,
				WindowDuration:    time.Duration(view.WindowSeconds * float64(time.Second)),
			},
			Used: view.Used,
			Wait: time.Duration(view.WaitSeconds * float64(time.Second)),
		})
	}
	return statuses
}

func init() {
	rootCmd.AddCommand(limitsCmd)
	limitsCmd.Flags().StringVar(&limitsOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	limitsCmd.Flags().BoolVar(&limitsLive, "live", false, "Read live usage from the running bot's status server")
}
