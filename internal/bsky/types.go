package bsky

import (
	"encoding/json"
	"time"
)

// Collection and embed identifiers used by the bot.
const (
	CollectionPost     = "app.bsky.feed.post"
	EmbedVideoView     = "app.bsky.embed.video#view"
	ThreadNotFoundType = "app.bsky.feed.defs#notFoundPost"
	ThreadBlockedType  = "app.bsky.feed.defs#blockedPost"

	ReasonMention = "mention"
	ReasonReply   = "reply"
)

// Session holds the tokens returned by createSession.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// Actor is the minimal author/profile view.
type Actor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}

// Profile is the detailed profile view returned by getProfile.
type Profile struct {
	Actor
	Description    string `json:"description,omitempty"`
	FollowersCount int    `json:"followersCount,omitempty"`
	FollowsCount   int    `json:"followsCount,omitempty"`
	PostsCount     int    `json:"postsCount,omitempty"`
}

// StrongRef points at a specific version of a record.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef links a post into a thread.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// PostRecord is the app.bsky.feed.post record body.
type PostRecord struct {
	Type      string    `json:"$type,omitempty"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	Langs     []string  `json:"langs,omitempty"`
}

// CreatedTime parses CreatedAt; the zero time is returned when it is missing or malformed.
func (r PostRecord) CreatedTime() time.Time {
	return parseTimestamp(r.CreatedAt)
}

// Embed carries only the embed type; the bot never renders embeds.
type Embed struct {
	Type string `json:"$type"`
}

// PostView is a hydrated post.
type PostView struct {
	URI       string          `json:"uri"`
	CID       string          `json:"cid"`
	Author    Actor           `json:"author"`
	Record    json.RawMessage `json:"record"`
	Embed     *Embed          `json:"embed,omitempty"`
	IndexedAt string          `json:"indexedAt"`
}

// Post decodes the embedded record.
func (p PostView) Post() (PostRecord, error) {
	var record PostRecord
	if len(p.Record) == 0 {
		return record, nil
	}
	err := json.Unmarshal(p.Record, &record)
	return record, err
}

// HasVideo reports whether the post carries a video embed.
func (p PostView) HasVideo() bool {
	return p.Embed != nil && p.Embed.Type == EmbedVideoView
}

// FeedItem is one entry of an author feed.
type FeedItem struct {
	Post PostView `json:"post"`
}

// AuthorFeed is one page of getAuthorFeed.
type AuthorFeed struct {
	Feed   []FeedItem `json:"feed"`
	Cursor string     `json:"cursor,omitempty"`
}

// ThreadView is the root node returned by getPostThread.
type ThreadView struct {
	Type     string      `json:"$type"`
	Post     *PostView   `json:"post,omitempty"`
	Parent   *ThreadView `json:"parent,omitempty"`
	NotFound bool        `json:"notFound,omitempty"`
	Blocked  bool        `json:"blocked,omitempty"`
}

// Exists reports whether the thread resolved to a visible post.
func (t *ThreadView) Exists() bool {
	if t == nil || t.Post == nil || t.NotFound || t.Blocked {
		return false
	}
	return t.Type != ThreadNotFoundType && t.Type != ThreadBlockedType
}

// Notification is one entry of listNotifications.
type Notification struct {
	URI           string          `json:"uri"`
	CID           string          `json:"cid"`
	Author        Actor           `json:"author"`
	Reason        string          `json:"reason"`
	ReasonSubject string          `json:"reasonSubject,omitempty"`
	Record        json.RawMessage `json:"record"`
	IsRead        bool            `json:"isRead"`
	IndexedAt     string          `json:"indexedAt"`
}

// Post decodes the notification record as a post.
func (n Notification) Post() (PostRecord, error) {
	var record PostRecord
	if len(n.Record) == 0 {
		return record, nil
	}
	err := json.Unmarshal(n.Record, &record)
	return record, err
}

// IndexedTime parses IndexedAt; the zero time is returned when it is missing or malformed.
func (n Notification) IndexedTime() time.Time {
	return parseTimestamp(n.IndexedAt)
}

// NotificationList is one page of listNotifications.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Cursor        string         `json:"cursor,omitempty"`
	SeenAt        string         `json:"seenAt,omitempty"`
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// FormatTimestamp renders t in the datetime format records use.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
