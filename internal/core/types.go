package core

import "time"

// RequestCategory identifies the class of outbound call a rate window applies to.
type RequestCategory string

const (
	CategoryPostReply            RequestCategory = "post_reply"
	CategoryGetNotifications     RequestCategory = "get_notifications"
	CategoryGetAuthorPosts       RequestCategory = "get_author_posts"
	CategoryGetPostThread        RequestCategory = "get_post_thread"
	CategoryMarkNotificationRead RequestCategory = "mark_notification_read"
	CategoryGetProfile           RequestCategory = "get_profile"
)

// Categories lists every known request category in display order.
var Categories = []RequestCategory{
	CategoryPostReply,
	CategoryGetNotifications,
	CategoryGetAuthorPosts,
	CategoryGetPostThread,
	CategoryMarkNotificationRead,
	CategoryGetProfile,
}

func (c RequestCategory) String() string {
	return string(c)
}

// Priority orders pending requests; higher values are served first.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "custom"
	}
}

// QueueStats is a point-in-time snapshot of request queue counters.
type QueueStats struct {
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`
	QueueLength        int   `json:"queue_length"`
	Processing         bool  `json:"processing"`
	RateLimitedWaits   int64 `json:"rate_limited_waits"`
	Retries            int64 `json:"retries"`
}

// ProcessedNotification records a mention the bot has already answered.
type ProcessedNotification struct {
	URI         string    `json:"uri"`
	ProcessedAt time.Time `json:"processed_at"`
	Target      string    `json:"target,omitempty"`
	ReplyURI    string    `json:"reply_uri,omitempty"`
}
