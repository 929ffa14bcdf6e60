package engine

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/core"
	"github.com/reputebot/reputebot/internal/metrics"
)

var (
	// ErrQueueCleared is returned to submitters whose pending request was
	// dropped by Clear.
	ErrQueueCleared = errors.New("request queue cleared")

	// ErrQueueClosed is returned by Submit after Close.
	ErrQueueClosed = errors.New("request queue closed")
)

// Operation is the unit of work the queue executes on a caller's behalf.
type Operation func(ctx context.Context) (any, error)

// Permanent marks err as not worth retrying. The queue delivers the wrapped
// error to the submitter after the first failed attempt.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// QueueConfig tunes retry behaviour.
type QueueConfig struct {
	// MaxRetries is the retry ceiling; an operation runs at most MaxRetries+1 times.
	MaxRetries int
	// BackoffBase is the exponent base; the wait after the n-th failure is BackoffBase^n units.
	BackoffBase float64
	// BackoffUnit is the length of one backoff unit.
	BackoffUnit time.Duration
}

// DefaultQueueConfig returns the production retry policy (3 retries, 2s/4s/8s).
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{MaxRetries: 3, BackoffBase: 2, BackoffUnit: time.Second}
}

type queueResult struct {
	value any
	err   error
}

// QueuedRequest is one pending or in-flight unit of work.
//
// ID, Category, Priority and the operation are fixed at submission. The
// scheduling fields (createdAt, attempt, seq, backOff) are only touched by
// the queue while holding its lock.
type QueuedRequest struct {
	ID         string
	Category   core.RequestCategory
	Priority   core.Priority
	MaxRetries int

	op   Operation
	ctx  context.Context
	done chan queueResult

	createdAt time.Time
	attempt   int
	seq       uint64
	index     int
	backOff   *backoff.ExponentialBackOff
}

func (r *QueuedRequest) resolve(value any, err error) {
	select {
	case r.done <- queueResult{value: value, err: err}:
	default:
	}
}

// RequestQueue serializes calls to the social network through a single drain
// loop. Requests run one at a time, highest priority first, subject to the
// RateLimiter, and are retried with exponential backoff.
type RequestQueue struct {
	limiter *RateLimiter
	clock   clockwork.Clock
	logger  *logging.Logger
	cfg     QueueConfig

	mu       sync.Mutex
	pending  requestHeap
	seq      uint64
	draining bool
	closed   bool
	stats    core.QueueStats
	stop     chan struct{}
	idle     chan struct{}
}

// NewRequestQueue creates a queue bound to limiter. A nil clock selects the
// real clock; a nil logger disables queue logging.
func NewRequestQueue(limiter *RateLimiter, cfg QueueConfig, clock clockwork.Clock, logger *logging.Logger) *RequestQueue {
	if limiter == nil {
		limiter = NewRateLimiter(nil, clock)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 1 {
		cfg.BackoffBase = 2
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}

	idle := make(chan struct{})
	close(idle)

	return &RequestQueue{
		limiter: limiter,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
		stop:    make(chan struct{}),
		idle:    idle,
	}
}

// Limiter returns the rate limiter the queue consults.
func (q *RequestQueue) Limiter() *RateLimiter {
	if q == nil {
		return nil
	}
	return q.limiter
}

// Submit enqueues op and blocks until it completes, exhausts its retries, is
// cleared, or ctx is done. When ctx ends first a still-pending request is
// withdrawn; one already executing runs to completion unobserved.
func (q *RequestQueue) Submit(ctx context.Context, category core.RequestCategory, priority core.Priority, op Operation) (any, error) {
	if q == nil {
		return nil, errors.New("request queue is not initialized")
	}
	if op == nil {
		return nil, errors.New("operation is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := &QueuedRequest{
		ID:         uuid.NewString(),
		Category:   category,
		Priority:   priority,
		MaxRetries: q.cfg.MaxRetries,
		op:         op,
		ctx:        ctx,
		done:       make(chan queueResult, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	req.createdAt = q.clock.Now()
	q.seq++
	req.seq = q.seq
	heap.Push(&q.pending, req)
	length := q.pending.Len()
	q.startLocked()
	q.mu.Unlock()

	metrics.SetQueueLength(length)
	q.logDebug("request queued",
		zap.String("request_id", req.ID),
		zap.String("category", category.String()),
		zap.String("priority", priority.String()),
		zap.Int("queue_length", length),
	)

	select {
	case res := <-req.done:
		return res.value, res.err
	case <-ctx.Done():
		q.withdraw(req)
		return nil, ctx.Err()
	}
}

// Do submits a typed operation and converts the result back to T.
func Do[T any](ctx context.Context, q *RequestQueue, category core.RequestCategory, priority core.Priority, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, errors.New("operation is required")
	}

	value, err := q.Submit(ctx, category, priority, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type %T for %s", value, category)
	}
	return typed, nil
}

// Stats returns a snapshot of the queue counters.
func (q *RequestQueue) Stats() core.QueueStats {
	if q == nil {
		return core.QueueStats{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.QueueLength = q.pending.Len()
	stats.Processing = q.draining
	return stats
}

// Clear drops every pending request. Each dropped submitter receives
// ErrQueueCleared. An operation already executing is not interrupted.
func (q *RequestQueue) Clear() int {
	if q == nil {
		return 0
	}

	q.mu.Lock()
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, req := range dropped {
		req.resolve(nil, ErrQueueCleared)
	}
	metrics.SetQueueLength(0)
	if len(dropped) > 0 {
		q.logInfo("request queue cleared", zap.Int("dropped", len(dropped)))
	}
	return len(dropped)
}

// Close rejects new submissions, fails pending requests with ErrQueueClosed,
// and waits for the drain loop to exit or ctx to end.
func (q *RequestQueue) Close(ctx context.Context) error {
	if q == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.Lock()
	if q.closed {
		idle := q.idle
		q.mu.Unlock()
		return waitIdle(ctx, idle)
	}
	q.closed = true
	dropped := q.pending
	q.pending = nil
	close(q.stop)
	idle := q.idle
	q.mu.Unlock()

	for _, req := range dropped {
		req.resolve(nil, ErrQueueClosed)
	}
	return waitIdle(ctx, idle)
}

func waitIdle(ctx context.Context, idle <-chan struct{}) error {
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startLocked launches the drain loop unless one is already running.
// Callers hold q.mu.
func (q *RequestQueue) startLocked() {
	if q.draining {
		return
	}
	q.draining = true
	q.idle = make(chan struct{})
	go q.drain(q.idle)
}

func (q *RequestQueue) drain(idle chan struct{}) {
	defer close(idle)

	for {
		q.mu.Lock()
		if q.pending.Len() == 0 || q.closed {
			q.draining = false
			q.mu.Unlock()
			return
		}

		head := q.pending[0]
		if !q.limiter.CanProceed(head.Category) {
			wait := q.limiter.WaitTime(head.Category)
			q.stats.RateLimitedWaits++
			q.mu.Unlock()

			metrics.RecordRateLimitedWait(head.Category.String())
			q.logInfo("rate limited, waiting",
				zap.String("category", head.Category.String()),
				zap.Duration("wait", wait),
			)
			if !q.sleep(wait) {
				q.finish()
				return
			}
			continue
		}

		heap.Pop(&q.pending)
		q.stats.TotalRequests++
		q.limiter.Record(head.Category)
		length := q.pending.Len()
		q.mu.Unlock()

		metrics.SetQueueLength(length)
		started := q.clock.Now()
		value, err := q.invoke(head)
		elapsed := q.clock.Since(started)
		metrics.RecordQueueRequest(head.Category.String(), err == nil, elapsed)

		if err == nil {
			q.mu.Lock()
			q.stats.SuccessfulRequests++
			q.mu.Unlock()

			q.logInfo("request executed",
				zap.String("request_id", head.ID),
				zap.String("category", head.Category.String()),
				zap.Int("attempt", head.attempt),
				zap.Duration("duration", elapsed),
			)
			head.resolve(value, nil)
			continue
		}

		permanent := false
		var permErr *backoff.PermanentError
		if errors.As(err, &permErr) {
			permanent = true
			err = permErr.Err
		}

		q.mu.Lock()
		q.stats.FailedRequests++
		retry := !permanent && head.attempt < head.MaxRetries && head.ctx.Err() == nil && !q.closed
		var delay time.Duration
		if retry {
			head.attempt++
			head.createdAt = q.clock.Now()
			q.seq++
			head.seq = q.seq
			if head.backOff == nil {
				head.backOff = q.newBackOff()
			}
			delay = head.backOff.NextBackOff()
			heap.Push(&q.pending, head)
			q.stats.Retries++
		}
		q.mu.Unlock()

		if !retry {
			q.logError("request failed",
				zap.String("request_id", head.ID),
				zap.String("category", head.Category.String()),
				zap.Int("attempts", head.attempt+1),
				zap.Error(err),
			)
			head.resolve(nil, err)
			continue
		}

		metrics.RecordQueueRetry(head.Category.String())
		q.logWarn("request failed, retrying",
			zap.String("request_id", head.ID),
			zap.String("category", head.Category.String()),
			zap.Int("retry", head.attempt),
			zap.Int("max_retries", head.MaxRetries),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if !q.sleep(delay) {
			q.finish()
			return
		}
	}
}

func (q *RequestQueue) finish() {
	q.mu.Lock()
	q.draining = false
	q.mu.Unlock()
}

// invoke runs the operation, converting a panic into an error.
func (q *RequestQueue) invoke(req *QueuedRequest) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			metrics.RecordPanic(metrics.ComponentQueue)
			err = fmt.Errorf("operation panicked: %v", recovered)
		}
	}()
	return req.op(req.ctx)
}

// sleep waits for d or until the queue is closed. It reports false on close.
func (q *RequestQueue) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-q.stop:
			return false
		default:
			return true
		}
	}
	select {
	case <-q.clock.After(d):
		return true
	case <-q.stop:
		return false
	}
}

func (q *RequestQueue) withdraw(req *QueuedRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if req.index >= 0 && req.index < q.pending.Len() && q.pending[req.index] == req {
		heap.Remove(&q.pending, req.index)
	}
}

// newBackOff yields BackoffBase^n units on the n-th call with no jitter.
func (q *RequestQueue) newBackOff() *backoff.ExponentialBackOff {
	initial := time.Duration(float64(q.cfg.BackoffUnit) * q.cfg.BackoffBase)
	ceiling := time.Duration(float64(q.cfg.BackoffUnit) * math.Pow(q.cfg.BackoffBase, float64(max(q.cfg.MaxRetries, 1))))

	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          q.cfg.BackoffBase,
		MaxInterval:         ceiling,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               q.clock,
	}
	b.Reset()
	return b
}

func (q *RequestQueue) logDebug(msg string, fields ...zap.Field) {
	if q.logger != nil {
		q.logger.Debug(msg, fields...)
	}
}

func (q *RequestQueue) logInfo(msg string, fields ...zap.Field) {
	if q.logger != nil {
		q.logger.Info(msg, fields...)
	}
}

func (q *RequestQueue) logWarn(msg string, fields ...zap.Field) {
	if q.logger != nil {
		q.logger.Warn(msg, fields...)
	}
}

func (q *RequestQueue) logError(msg string, fields ...zap.Field) {
	if q.logger != nil {
		q.logger.Error(msg, fields...)
	}
}

// requestHeap orders by priority desc, then creation time asc, then
// submission sequence asc.
type requestHeap []*QueuedRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	if !h[i].createdAt.Equal(h[j].createdAt) {
		return h[i].createdAt.Before(h[j].createdAt)
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	req := x.(*QueuedRequest)
	req.index = len(*h)
	*h = append(*h, req)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	req := old[n-1]
	old[n-1] = nil
	req.index = -1
	*h = old[:n-1]
	return req
}
