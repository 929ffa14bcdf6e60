package handlers

import (
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/core/engine"
)

// QueueSource exposes request queue counters and the limiter behind it.
type QueueSource interface {
	Stats() core.QueueStats
	Limiter() *engine.RateLimiter
}

// RateWindowView is one rate window as served over HTTP.
type RateWindowView struct {
	Category      string  `json:"category"`
	Limit         int     `json:"limit"`
	WindowSeconds float64 `json:"window_seconds"`
	Used          int     `json:"used"`
	WaitSeconds   float64 `json:"wait_seconds"`
}

// QueueStatsResponse is the /queue/stats body.
type QueueStatsResponse struct {
	Queue      core.QueueStats  `json:"queue"`
	RateLimits []RateWindowView `json:"rate_limits"`
	Timestamp  string           `json:"timestamp"`
}

// QueueStatsHandler serves a snapshot of source.
func QueueStatsHandler(source QueueSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			respondWithError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "request queue not running"))
			return
		}

		statuses := source.Limiter().Status()
		windows := make([]RateWindowView, 0, len(statuses))
		for _, status := range statuses {
			windows = append(windows, RateWindowView{
				Category:      status.Category.String(),
				Limit:         status.Window.RequestsPerWindow,
				WindowSeconds: status.Window.WindowDuration.Seconds(),
				Used:          status.Used,
				WaitSeconds:   status.Wait.Seconds(),
			})
		}

		writeJSON(w, http.StatusOK, QueueStatsResponse{
			Queue:      source.Stats(),
			RateLimits: windows,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
