package engine

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reputebot/reputebot/internal/core"
)

// RateLimiter enforces per-category sliding-window limits.
//
// History is kept in memory and pruned lazily on every query, so a category
// only holds timestamps that still fall inside its window.
type RateLimiter struct {
	Limits map[core.RequestCategory]core.RateWindow
	Clock  clockwork.Clock
	Margin float64

	mu      sync.Mutex
	history map[core.RequestCategory][]time.Time
}

// DefaultLimits mirrors the published per-minute budgets of the social network API.
var DefaultLimits = map[core.RequestCategory]core.RateWindow{
	core.CategoryPostReply:            {RequestsPerWindow: 10, WindowDuration: time.Minute},
	core.CategoryGetNotifications:     {RequestsPerWindow: 30, WindowDuration: time.Minute},
	core.CategoryGetAuthorPosts:       {RequestsPerWindow: 20, WindowDuration: time.Minute},
	core.CategoryGetPostThread:        {RequestsPerWindow: 30, WindowDuration: time.Minute},
	core.CategoryMarkNotificationRead: {RequestsPerWindow: 50, WindowDuration: time.Minute},
	core.CategoryGetProfile:           {RequestsPerWindow: 30, WindowDuration: time.Minute},
}

// NewRateLimiter builds a limiter over a copy of limits. A nil map selects
// DefaultLimits; an empty map leaves every category unlimited.
func NewRateLimiter(limits map[core.RequestCategory]core.RateWindow, clock clockwork.Clock) *RateLimiter {
	if limits == nil {
		limits = DefaultLimits
	}
	copied := make(map[core.RequestCategory]core.RateWindow, len(limits))
	for key, limit := range limits {
		copied[key] = limit
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		Limits:  copied,
		Clock:   clock,
		history: make(map[core.RequestCategory][]time.Time),
	}
}

// CanProceed reports whether one more request in category fits its window.
func (r *RateLimiter) CanProceed(category core.RequestCategory) bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	limit, ok := r.getLimit(category)
	if !ok {
		return true
	}
	return len(r.prune(category, limit)) < limit.RequestsPerWindow
}

// Record notes an executed request. It is called once per attempt, retries included.
func (r *RateLimiter) Record(category core.RequestCategory) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.history == nil {
		r.history = make(map[core.RequestCategory][]time.Time)
	}
	r.history[category] = append(r.history[category], r.now())
}

// WaitTime returns how long until category frees a slot. Zero means a request
// may proceed now.
func (r *RateLimiter) WaitTime(category core.RequestCategory) time.Duration {
	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	limit, ok := r.getLimit(category)
	if !ok {
		return 0
	}
	entries := r.prune(category, limit)
	if len(entries) < limit.RequestsPerWindow {
		return 0
	}

	wait := entries[0].Add(limit.WindowDuration).Sub(r.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// Status reports the live usage for every configured category.
func (r *RateLimiter) Status() []core.RateLimitStatus {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	limits := make(map[core.RequestCategory]core.RateWindow, len(r.Limits))
	used := make(map[core.RequestCategory]int, len(r.Limits))
	for category := range r.Limits {
		limit, _ := r.getLimit(category)
		limits[category] = limit
		used[category] = len(r.prune(category, limit))
	}
	r.mu.Unlock()

	statuses := make([]core.RateLimitStatus, 0, len(limits))
	for _, category := range orderedCategories(limits) {
		statuses = append(statuses, core.RateLimitStatus{
			Category: category,
			Window:   limits[category],
			Used:     used[category],
			Wait:     r.WaitTime(category),
		})
	}
	return statuses
}

// Reconfigure replaces the limits with base plus per-minute overrides and
// sets the safety margin. A nil base selects DefaultLimits. Overrides with a
// blank category or a non-positive value are ignored. A margin outside (0, 1]
// clears the margin. Recorded history is kept.
func (r *RateLimiter) Reconfigure(base map[core.RequestCategory]core.RateWindow, overrides map[string]int, margin float64) {
	if r == nil {
		return
	}
	if base == nil {
		base = DefaultLimits
	}

	limits := make(map[core.RequestCategory]core.RateWindow, len(base)+len(overrides))
	for key, limit := range base {
		limits[key] = limit
	}
	for category, value := range overrides {
		category = strings.TrimSpace(category)
		if category == "" || value <= 0 {
			continue
		}
		limits[core.RequestCategory(category)] = core.RateWindow{
			RequestsPerWindow: value,
			WindowDuration:    time.Minute,
		}
	}
	if margin <= 0 || margin > 1 {
		margin = 0
	}

	r.mu.Lock()
	r.Limits = limits
	r.Margin = margin
	r.mu.Unlock()
}

// prune drops timestamps that have left the window and returns what remains.
// Callers hold r.mu.
func (r *RateLimiter) prune(category core.RequestCategory, limit core.RateWindow) []time.Time {
	entries := r.history[category]
	if len(entries) == 0 {
		return nil
	}

	now := r.now()
	cut := 0
	for cut < len(entries) && now.Sub(entries[cut]) >= limit.WindowDuration {
		cut++
	}
	if cut > 0 {
		entries = append(entries[:0:0], entries[cut:]...)
		r.history[category] = entries
	}
	return entries
}

func (r *RateLimiter) getLimit(category core.RequestCategory) (core.RateWindow, bool) {
	limit, ok := r.Limits[category]
	if !ok || limit.RequestsPerWindow <= 0 || limit.WindowDuration <= 0 {
		return core.RateWindow{}, false
	}
	return r.applyMargin(limit), true
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now()
}

func (r *RateLimiter) applyMargin(limit core.RateWindow) core.RateWindow {
	if r == nil || r.Margin <= 0 || r.Margin > 1 {
		return limit
	}
	adjusted := int(math.Floor(float64(limit.RequestsPerWindow) * r.Margin))
	if adjusted < 1 {
		adjusted = 1
	}
	limit.RequestsPerWindow = adjusted
	return limit
}

func orderedCategories(limits map[core.RequestCategory]core.RateWindow) []core.RequestCategory {
	ordered := make([]core.RequestCategory, 0, len(limits))
	seen := make(map[core.RequestCategory]bool, len(limits))
	for _, category := range core.Categories {
		if _, ok := limits[category]; ok {
			ordered = append(ordered, category)
			seen[category] = true
		}
	}
	extra := make([]string, 0)
	for category := range limits {
		if !seen[category] {
			extra = append(extra, string(category))
		}
	}
	sort.Strings(extra)
	for _, category := range extra {
		ordered = append(ordered, core.RequestCategory(category))
	}
	return ordered
}
