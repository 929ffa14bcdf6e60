package metrics

import (
	"strconv"

	"github.com/reputebot/reputebot/internal/observability"
)

const (
	ErrorsTotal      = "errors_total"
	ErrorsByEndpoint = "errors_by_endpoint"
	PanicsTotal      = "panics_total"
)

// Components that recover panics.
const (
	ComponentHTTP  = "http"
	ComponentQueue = "queue"
)

// RecordHTTPError counts an error response by code and status, and by
// endpoint when one is known.
func RecordHTTPError(endpoint, code string, status int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ErrorsTotal, 1, map[string]string{
		"error_code":  code,
		"http_status": strconv.Itoa(status),
	})
	if endpoint != "" {
		_ = sys.Counter(ErrorsByEndpoint, 1, map[string]string{
			"endpoint":   endpoint,
			"error_code": code,
		})
	}
}

// RecordPanic counts a recovered panic in component.
func RecordPanic(component string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, map[string]string{"component": component})
	}
}
