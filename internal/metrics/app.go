package metrics

import (
	"time"

	"github.com/reputebot/reputebot/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Request queue metrics
	QueueRequestsTotal    = "queue_requests_total"
	QueueRetriesTotal     = "queue_retries_total"
	QueueRateLimitedTotal = "queue_rate_limited_waits_total"
	QueueLength           = "queue_length"
	QueueRequestDuration  = "queue_request_duration_ms"

	// Bot metrics
	MentionsTotal = "bot_mentions_total"
	RepliesTotal  = "bot_replies_total"
	PollCycles    = "bot_poll_cycles_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordQueueRequest records one executed attempt for a request category.
func RecordQueueRequest(category string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QueueRequestsTotal,
			1,
			map[string]string{
				"category": category,
				"status":   status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			QueueRequestDuration,
			duration,
			map[string]string{
				"category": category,
			},
		)
	}
}

// RecordQueueRetry records a failed attempt that was rescheduled.
func RecordQueueRetry(category string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QueueRetriesTotal,
			1,
			map[string]string{"category": category},
		)
	}
}

// RecordRateLimitedWait records the drain loop pausing for a full window.
func RecordRateLimitedWait(category string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QueueRateLimitedTotal,
			1,
			map[string]string{"category": category},
		)
	}
}

// SetQueueLength sets the current number of pending requests.
func SetQueueLength(length int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			QueueLength,
			float64(length),
			nil,
		)
	}
}

// RecordMention records a mention notification by outcome.
func RecordMention(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			MentionsTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordReply records a posted reply by recommendation.
func RecordReply(recommendation string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RepliesTotal,
			1,
			map[string]string{"recommendation": recommendation},
		)
	}
}

// RecordPollCycle records one notification polling cycle.
func RecordPollCycle(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			PollCycles,
			1,
			map[string]string{"status": status},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
