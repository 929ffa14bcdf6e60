package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/core/engine"
	"github.com/reputebot/reputebot/internal/metrics"
	"github.com/reputebot/reputebot/internal/observability"
	"github.com/reputebot/reputebot/internal/server/middleware"
)

// Error codes beyond the shared catalog.
const (
	CodeRateLimited = "RATE_LIMITED"
	CodeQueueClosed = "QUEUE_UNAVAILABLE"
)

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("INVALID_INPUT", message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("NOT_FOUND", message)
}

func NewUnauthorizedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("UNAUTHORIZED", message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("METHOD_NOT_ALLOWED", message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("INTERNAL_ERROR", message)
}

func NewDatabaseError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope("DATABASE_ERROR", message).WithSeverity(errors.SeverityHigh)
	return env
}

func NewExternalServiceError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope("EXTERNAL_SERVICE_ERROR", message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope("CONFIG_INVALID", message).WithSeverity(errors.SeverityHigh)
	return env
}

// WrapInternal wraps err as an INTERNAL_ERROR envelope.
func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return EnsureCorrelationID(withWrappedError(NewInternalError(message), err), ctx)
}

// WrapDatabaseError wraps a store failure.
func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return EnsureCorrelationID(withWrappedError(NewDatabaseError(message), err), ctx)
}

// WrapConfigInvalid wraps a configuration or credentials failure.
func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return EnsureCorrelationID(withWrappedError(NewConfigInvalidError(message), err), ctx)
}

// FromNetwork classifies an error from a social network call (direct or
// through the request queue) into an envelope tagged with the request ID
// carried by ctx.
func FromNetwork(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	if err == nil {
		return nil
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		return envelope
	}

	var env *errors.ErrorEnvelope
	switch {
	case stderrors.Is(err, bsky.ErrUnauthorized), stderrors.Is(err, bsky.ErrNoSession), stderrors.Is(err, bsky.ErrMissingCredentials):
		env = NewUnauthorizedError(message)
	case stderrors.Is(err, bsky.ErrNotFound):
		env = NewNotFoundError(message)
	case stderrors.Is(err, bsky.ErrRateLimited):
		env = errors.NewErrorEnvelope(CodeRateLimited, message)
	case stderrors.Is(err, engine.ErrQueueCleared), stderrors.Is(err, engine.ErrQueueClosed):
		env = errors.NewErrorEnvelope(CodeQueueClosed, message)
	case stderrors.Is(err, context.DeadlineExceeded):
		env = errors.NewErrorEnvelope("TIMEOUT", message)
	default:
		env = NewExternalServiceError(message)
	}

	var apiErr *bsky.APIError
	if stderrors.As(err, &apiErr) {
		env, _ = env.WithContext(map[string]interface{}{
			"xrpc_method": apiErr.Method,
			"http_status": apiErr.StatusCode,
			"xrpc_error":  apiErr.Name,
		})
	}

	env = withWrappedError(env, err)
	return EnsureCorrelationID(env, ctx)
}

// ExitCodeFor maps an envelope code to a process exit code.
func ExitCodeFor(envelope *errors.ErrorEnvelope) foundry.ExitCode {
	if envelope == nil {
		return foundry.ExitFailure
	}
	switch envelope.Code {
	case "CONFIG_INVALID", "INVALID_INPUT", "UNAUTHORIZED":
		return foundry.ExitConfigInvalid
	case "NOT_FOUND":
		return foundry.ExitFileNotFound
	case "EXTERNAL_SERVICE_ERROR", "TIMEOUT", CodeRateLimited, CodeQueueClosed:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope("INTERNAL_ERROR", "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	env := errors.NewErrorEnvelope("INTERNAL_ERROR", "unexpected error")
	env = withWrappedError(env, err)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID attaches the request ID from ctx, or a generated one.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil || envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case "INVALID_INPUT", "VALIDATION_FAILED":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "METHOD_NOT_ALLOWED":
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	case "EXTERNAL_SERVICE_ERROR":
		return http.StatusBadGateway
	case "SERVICE_UNAVAILABLE", CodeQueueClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

// ResponseDetails merges envelope details and context; details win.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	if envelope == nil {
		return nil
	}

	details := make(map[string]interface{})
	for key, value := range envelope.Details {
		details[key] = value
	}
	for key, value := range envelope.Context {
		if _, exists := details[key]; !exists {
			details[key] = value
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope logs the envelope, emits error metrics and writes it.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	envelope = EnsureCorrelationID(envelope, ctx)
	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   ResponseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	endpoint := ""
	if r != nil && r.URL != nil {
		endpoint = r.URL.Path
	}
	metrics.RecordHTTPError(endpoint, envelope.Code, statusCode)
}
