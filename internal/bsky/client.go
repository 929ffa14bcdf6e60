package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the public entryway PDS.
const DefaultBaseURL = "https://bsky.social"

const maxErrorBody = 64 << 10

// Client is a minimal XRPC client for the calls the bot makes.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Clock      clockwork.Clock

	mu      sync.RWMutex
	session *Session
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Clock:      clockwork.NewRealClock(),
	}
}

// Session returns the active session, or nil before login.
func (c *Client) Session() *Session {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

// CreateSession logs in with a handle (or email) and app password.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	if c == nil {
		return nil, errors.New("client is not initialized")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var session Session
	body := map[string]string{"identifier": identifier, "password": password}
	if err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil, body, &session, ""); err != nil {
		return nil, err
	}
	if session.AccessJwt == "" {
		return nil, errors.New("createSession returned no access token")
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	return &session, nil
}

// RefreshSession exchanges the refresh token for a new access token.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	current := c.Session()
	if current == nil || current.RefreshJwt == "" {
		return nil, ErrNoSession
	}

	var session Session
	if err := c.call(ctx, http.MethodPost, "com.atproto.server.refreshSession", nil, nil, &session, current.RefreshJwt); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	return &session, nil
}

// ListNotifications fetches the most recent notifications.
func (c *Client) ListNotifications(ctx context.Context, limit int) (*NotificationList, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out NotificationList
	if err := c.authed(ctx, http.MethodGet, "app.bsky.notification.listNotifications", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAuthorFeed fetches one page of an actor's posts.
func (c *Client) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*AuthorFeed, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, errors.New("actor is required")
	}
	params := url.Values{"actor": {actor}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	var out AuthorFeed
	if err := c.authed(ctx, http.MethodGet, "app.bsky.feed.getAuthorFeed", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPostThread fetches a post with its parent chain.
func (c *Client) GetPostThread(ctx context.Context, uri string) (*ThreadView, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("uri is required")
	}
	params := url.Values{"uri": {uri}, "depth": {"0"}, "parentHeight": {"1"}}
	var out struct {
		Thread ThreadView `json:"thread"`
	}
	if err := c.authed(ctx, http.MethodGet, "app.bsky.feed.getPostThread", params, nil, &out); err != nil {
		return nil, err
	}
	return &out.Thread, nil
}

// GetProfile resolves a handle or DID to a profile.
func (c *Client) GetProfile(ctx context.Context, actor string) (*Profile, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, errors.New("actor is required")
	}
	var out Profile
	if err := c.authed(ctx, http.MethodGet, "app.bsky.actor.getProfile", url.Values{"actor": {actor}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReply posts text as a reply to parent within the thread rooted at root.
func (c *Client) CreateReply(ctx context.Context, text string, root, parent StrongRef) (*StrongRef, error) {
	session := c.Session()
	if session == nil {
		return nil, ErrNoSession
	}
	if parent.URI == "" || parent.CID == "" {
		return nil, errors.New("parent uri and cid are required")
	}
	if root.URI == "" || root.CID == "" {
		root = parent
	}

	record := PostRecord{
		Type:      CollectionPost,
		Text:      text,
		CreatedAt: FormatTimestamp(c.now()),
		Reply:     &ReplyRef{Root: root, Parent: parent},
	}
	body := map[string]any{
		"repo":       session.DID,
		"collection": CollectionPost,
		"record":     record,
	}

	var out StrongRef
	if err := c.authed(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSeen marks notifications up to seenAt as read.
func (c *Client) UpdateSeen(ctx context.Context, seenAt time.Time) error {
	if seenAt.IsZero() {
		seenAt = c.now()
	}
	body := map[string]string{"seenAt": FormatTimestamp(seenAt)}
	return c.authed(ctx, http.MethodPost, "app.bsky.notification.updateSeen", nil, body, nil)
}

// authed performs an authenticated call, refreshing an expired access token once.
func (c *Client) authed(ctx context.Context, method, nsid string, params url.Values, body any, out any) error {
	session := c.Session()
	if session == nil {
		return ErrNoSession
	}

	err := c.call(ctx, method, nsid, params, body, out, session.AccessJwt)
	var apiErr *APIError
	if err == nil || !errors.As(err, &apiErr) || !apiErr.Expired() {
		return err
	}

	refreshed, refreshErr := c.RefreshSession(ctx)
	if refreshErr != nil {
		return fmt.Errorf("%s: refresh session: %w", nsid, refreshErr)
	}
	return c.call(ctx, method, nsid, params, body, out, refreshed.AccessJwt)
}

func (c *Client) call(ctx context.Context, method, nsid string, params url.Values, body any, out any, token string) error {
	if c == nil {
		return errors.New("client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := c.BaseURL + "/xrpc/" + nsid
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", nsid, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: nsid, StatusCode: resp.StatusCode, RetryAfter: retryAfterHeader(resp, c.now())}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", nsid, err)
	}
	return nil
}

func (c *Client) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock.Now()
	}
	return time.Now().UTC()
}
