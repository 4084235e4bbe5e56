// Package subscriber maintains a live client-side view of a user's
// notifications: one websocket session for pushes plus the REST surface
// for seeding and mutations.
package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	eventJoin            = "join"
	eventNewNotification = "newNotification"

	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrNotFound = errors.New("notification not found")

// Sender is the client-facing summary of who caused a notification.
type Sender struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Notification is the client-side view of one notification record.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Sender    *Sender         `json:"sender,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	ActionURL string          `json:"actionUrl,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type listResponse struct {
	Success       bool           `json:"success"`
	Notifications []Notification `json:"notifications"`
	Pagination    struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int64 `json:"pages"`
	} `json:"pagination"`
	UnreadCount int64 `json:"unreadCount"`
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithPageSize sets how many notifications the initial fetch seeds.
func WithPageSize(size int) Option {
	return func(s *Subscriber) { s.pageSize = size }
}

// WithHandler registers a callback invoked for every pushed notification,
// after it has been merged into local state.
func WithHandler(fn func(Notification)) Option {
	return func(s *Subscriber) { s.handler = fn }
}

// Subscriber keeps an in-memory notification list and unread counter in
// sync with the server. Mutating calls update local state optimistically;
// a failed call may leave it stale until the next Refresh.
type Subscriber struct {
	userID   string
	token    string
	wsURL    string
	pageSize int
	handler  func(Notification)

	http *resty.Client

	mu            sync.RWMutex
	notifications []Notification
	unreadCount   int64

	connMu sync.Mutex
	conn   *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

// New builds a Subscriber for the given API base URL (e.g.
// "http://localhost:4000"). Start must be called before state is live.
func New(baseURL, userID, token string, opts ...Option) (*Subscriber, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	wsURL := *u
	switch u.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	wsURL.RawQuery = url.Values{"token": {token}}.Encode()

	s := &Subscriber{
		userID:   userID,
		token:    token,
		wsURL:    wsURL.String(),
		pageSize: 20,
		done:     make(chan struct{}),
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetAuthToken(token).
			SetTimeout(15 * time.Second),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start seeds local state with one list fetch, then keeps a websocket
// session alive in the background, re-announcing identity on every
// (re)connect. It returns once the seed fetch completes.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

// Close tears down the websocket session.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.connMu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.connMu.Unlock()
	})
}

// Refresh replaces local state with the server's first page.
func (s *Subscriber) Refresh(ctx context.Context) error {
	var result listResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("page", "1").
		SetQueryParam("limit", fmt.Sprintf("%d", s.pageSize)).
		SetResult(&result).
		Get("/api/notifications")
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification list request failed with status %d", resp.StatusCode())
	}

	s.mu.Lock()
	s.notifications = result.Notifications
	s.unreadCount = result.UnreadCount
	s.mu.Unlock()
	return nil
}

// Notifications returns a snapshot of the local list, newest first.
func (s *Subscriber) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the local unread counter.
func (s *Subscriber) UnreadCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

// MarkAsRead marks one notification read, updating local state first.
func (s *Subscriber) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			if s.unreadCount > 0 {
				s.unreadCount--
			}
			break
		}
	}
	s.mu.Unlock()

	resp, err := s.http.R().
		SetContext(ctx).
		Put(fmt.Sprintf("/api/notifications/%s/read", id))
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("mark read request failed with status %d", resp.StatusCode())
	}
	return nil
}

// MarkAllAsRead marks every notification read, updating local state first.
func (s *Subscriber) MarkAllAsRead(ctx context.Context) error {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.unreadCount = 0
	s.mu.Unlock()

	resp, err := s.http.R().
		SetContext(ctx).
		Put("/api/notifications/read-all")
	if err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mark all read request failed with status %d", resp.StatusCode())
	}
	return nil
}

// Delete removes one notification, updating local state first.
func (s *Subscriber) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].Read && s.unreadCount > 0 {
				s.unreadCount--
			}
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	resp, err := s.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/notifications/%s", id))
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("delete request failed with status %d", resp.StatusCode())
	}
	return nil
}

func (s *Subscriber) run(ctx context.Context) {
	backoff := initialBackoff
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
		if err != nil {
			logrus.WithError(err).Debug("notification channel dial failed")
			select {
			case <-time.After(backoff):
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		s.connMu.Lock()
		s.conn = conn
		s.connMu.Unlock()

		// The directory only holds an entry after an explicit join, so
		// it has to be re-announced on every reconnect
		join, _ := json.Marshal(wsMessage{Type: eventJoin, Data: json.RawMessage(fmt.Sprintf("%q", s.userID))})
		if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
			conn.Close()
			continue
		}

		backoff = initialBackoff
		s.readLoop(conn)
		conn.Close()
	}
}

func (s *Subscriber) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			logrus.WithError(err).Debug("notification channel closed")
			return
		}

		// The server may coalesce queued pushes into one frame,
		// newline separated
		for _, raw := range bytes.Split(frame, []byte{'\n'}) {
			if len(raw) == 0 {
				continue
			}

			var msg wsMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				logrus.WithError(err).Debug("malformed push message")
				continue
			}
			if msg.Type != eventNewNotification {
				continue
			}

			var notification Notification
			if err := json.Unmarshal(msg.Data, &notification); err != nil {
				logrus.WithError(err).Debug("malformed push payload")
				continue
			}

			s.mu.Lock()
			s.notifications = append([]Notification{notification}, s.notifications...)
			s.unreadCount++
			s.mu.Unlock()

			if s.handler != nil {
				s.handler(notification)
			}
		}
	}
}
