package core

import "time"

// RateWindow caps a category at RequestsPerWindow executions in any trailing
// WindowDuration.
type RateWindow struct {
	RequestsPerWindow int           `json:"requests_per_window"`
	WindowDuration    time.Duration `json:"window_duration"`
}

// RateLimitStatus reports the live usage of one category window.
type RateLimitStatus struct {
	Category RequestCategory `json:"category"`
	Window   RateWindow      `json:"window"`
	Used     int             `json:"used"`
	Wait     time.Duration   `json:"wait"`
}
