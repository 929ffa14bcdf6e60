package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/reputebot/reputebot/internal/bsky"
	"github.com/reputebot/reputebot/internal/core"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type sentReply struct {
	Text   string
	Root   bsky.StrongRef
	Parent bsky.StrongRef
}

type fakeGateway struct {
	mu sync.Mutex

	notifications []bsky.Notification
	listErr       error
	feeds         map[string][]bsky.AuthorFeed
	threads       map[string]*bsky.ThreadView
	profiles      map[string]*bsky.Profile
	replyErr      error

	listCalls    int
	feedRequests []string
	replies      []sentReply
	seen         []time.Time
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		feeds:    map[string][]bsky.AuthorFeed{},
		threads:  map[string]*bsky.ThreadView{},
		profiles: map[string]*bsky.Profile{},
	}
}

func (g *fakeGateway) ListNotifications(_ context.Context, _ int) (*bsky.NotificationList, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return &bsky.NotificationList{Notifications: g.notifications}, nil
}

// GetAuthorFeed serves pages in order; the cursor is the page index.
func (g *fakeGateway) GetAuthorFeed(_ context.Context, actor string, _ int, cursor string) (*bsky.AuthorFeed, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.feedRequests = append(g.feedRequests, actor+"#"+cursor)
	pages, ok := g.feeds[actor]
	if !ok {
		return nil, fmt.Errorf("getAuthorFeed %s: %w", actor, bsky.ErrNotFound)
	}
	index := 0
	if cursor != "" {
		_, _ = fmt.Sscanf(cursor, "%d", &index)
	}
	if index >= len(pages) {
		return &bsky.AuthorFeed{}, nil
	}
	page := pages[index]
	return &page, nil
}

func (g *fakeGateway) GetPostThread(_ context.Context, uri string) (*bsky.ThreadView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	thread, ok := g.threads[uri]
	if !ok {
		return nil, fmt.Errorf("getPostThread %s: %w", uri, bsky.ErrNotFound)
	}
	return thread, nil
}

func (g *fakeGateway) GetProfile(_ context.Context, actor string) (*bsky.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	profile, ok := g.profiles[actor]
	if !ok {
		return nil, fmt.Errorf("getProfile %s: %w", actor, bsky.ErrNotFound)
	}
	return profile, nil
}

func (g *fakeGateway) CreateReply(_ context.Context, text string, root, parent bsky.StrongRef) (*bsky.StrongRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replyErr != nil {
		return nil, g.replyErr
	}
	g.replies = append(g.replies, sentReply{Text: text, Root: root, Parent: parent})
	return &bsky.StrongRef{URI: fmt.Sprintf("at://did:plc:bot/app.bsky.feed.post/reply%d", len(g.replies)), CID: "bafyreply"}, nil
}

func (g *fakeGateway) UpdateSeen(_ context.Context, seenAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, seenAt)
	return nil
}

func (g *fakeGateway) Stats() core.QueueStats {
	return core.QueueStats{}
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

type memStore struct {
	mu        sync.Mutex
	processed map[string]core.ProcessedNotification
	last      time.Time
	resets    int
}

func newMemStore() *memStore {
	return &memStore{processed: map[string]core.ProcessedNotification{}}
}

func (s *memStore) IsProcessed(_ context.Context, uri string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[uri]
	return ok, nil
}

func (s *memStore) MarkProcessed(_ context.Context, entry core.ProcessedNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[entry.URI] = entry
	return nil
}

func (s *memStore) GetLastProcessedTimestamp(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

func (s *memStore) SetLastProcessedTimestamp(_ context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts.After(s.last) {
		s.last = ts
	}
	return nil
}

func (s *memStore) ResetState(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = map[string]core.ProcessedNotification{}
	s.last = time.Time{}
	s.resets++
	return nil
}

func postRecord(text string, created time.Time, reply *bsky.ReplyRef) json.RawMessage {
	record := bsky.PostRecord{
		Type:      bsky.CollectionPost,
		Text:      text,
		CreatedAt: bsky.FormatTimestamp(created),
		Reply:     reply,
	}
	data, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	return data
}

func feedItem(handle, text string, created time.Time) bsky.FeedItem {
	return bsky.FeedItem{Post: bsky.PostView{
		URI:    fmt.Sprintf("at://%s/app.bsky.feed.post/%d", handle, created.Unix()),
		CID:    "bafypost",
		Author: bsky.Actor{Handle: handle},
		Record: postRecord(text, created, nil),
	}}
}

func videoItem(handle, text string, created time.Time) bsky.FeedItem {
	item := feedItem(handle, text, created)
	item.Post.Embed = &bsky.Embed{Type: bsky.EmbedVideoView}
	return item
}

func mention(uri, author string, indexed time.Time, reply *bsky.ReplyRef) bsky.Notification {
	return bsky.Notification{
		URI:       uri,
		CID:       "bafymention",
		Author:    bsky.Actor{DID: "did:plc:" + author, Handle: author},
		Reason:    bsky.ReasonMention,
		Record:    postRecord("@reputebot.bsky.social what do you think?", indexed, reply),
		IndexedAt: bsky.FormatTimestamp(indexed),
	}
}

func existingThread(uri, handle string) *bsky.ThreadView {
	return &bsky.ThreadView{Post: &bsky.PostView{URI: uri, CID: "bafythread", Author: bsky.Actor{Handle: handle}}}
}
