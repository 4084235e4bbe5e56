package subscriber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type testBackend struct {
	*httptest.Server

	list        listResponse
	markedRead  atomic.Int32
	markedAll   atomic.Int32
	deleted     atomic.Int32
	joinedUsers chan string
	pushes      chan wsMessage
}

func newTestBackend(t *testing.T) *testBackend {
	b := &testBackend{
		joinedUsers: make(chan string, 4),
		pushes:      make(chan wsMessage, 4),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(b.list)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/notifications/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/notifications/read-all":
			b.markedAll.Add(1)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "All notifications marked as read"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/notifications/missing/read":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			b.markedRead.Add(1)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Notification marked as read"})
		case r.Method == http.MethodDelete:
			b.deleted.Add(1)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Notification deleted"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var join wsMessage
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		if join.Type == eventJoin {
			var userID string
			json.Unmarshal(join.Data, &userID)
			b.joinedUsers <- userID
		}

		for msg := range b.pushes {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		// Unblock the ws handler before closing the server
		close(b.pushes)
		b.Server.Close()
	})
	return b
}

func seedNotification(id, title string, read bool) Notification {
	return Notification{
		ID:        id,
		Type:      "job_posted",
		Title:     title,
		Message:   "New Backend Intern position at Acme",
		Read:      read,
		CreatedAt: time.Now(),
	}
}

func TestStartSeedsFromInitialFetch(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{
		Success: true,
		Notifications: []Notification{
			seedNotification("n2", "New Job Posted", false),
			seedNotification("n1", "New Follower", true),
		},
		UnreadCount: 1,
	}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, sub.Start(context.Background()))

	notifications := sub.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "n2", notifications[0].ID)
	assert.Equal(t, int64(1), sub.UnreadCount())

	select {
	case userID := <-backend.joinedUsers:
		assert.Equal(t, "student-1", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("join was never announced")
	}
}

func TestPushIsPrependedAndCounted(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{
		Success:       true,
		Notifications: []Notification{seedNotification("n1", "New Follower", false)},
		UnreadCount:   1,
	}

	received := make(chan Notification, 1)
	sub, err := New(backend.URL, "student-1", "test-token", WithHandler(func(n Notification) {
		received <- n
	}))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, sub.Start(context.Background()))

	select {
	case <-backend.joinedUsers:
	case <-time.After(2 * time.Second):
		t.Fatal("join was never announced")
	}

	payload, _ := json.Marshal(seedNotification("n2", "New Job Posted", false))
	backend.pushes <- wsMessage{Type: eventNewNotification, Data: payload}

	select {
	case n := <-received:
		assert.Equal(t, "n2", n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("push was never delivered")
	}

	notifications := sub.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "n2", notifications[0].ID)
	assert.Equal(t, int64(2), sub.UnreadCount())
}

func TestUnknownEventsAreIgnored(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{Success: true}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, sub.Start(context.Background()))

	select {
	case <-backend.joinedUsers:
	case <-time.After(2 * time.Second):
		t.Fatal("join was never announced")
	}

	backend.pushes <- wsMessage{Type: "pong"}
	payload, _ := json.Marshal(seedNotification("n1", "New Job Posted", false))
	backend.pushes <- wsMessage{Type: eventNewNotification, Data: payload}

	assert.Eventually(t, func() bool {
		return len(sub.Notifications()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), sub.UnreadCount())
}

func TestMarkAsReadReconcilesLocally(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{
		Success: true,
		Notifications: []Notification{
			seedNotification("n2", "New Job Posted", false),
			seedNotification("n1", "New Follower", false),
		},
		UnreadCount: 2,
	}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Refresh(context.Background()))

	require.NoError(t, sub.MarkAsRead(context.Background(), "n2"))
	assert.Equal(t, int32(1), backend.markedRead.Load())
	assert.True(t, sub.Notifications()[0].Read)
	assert.Equal(t, int64(1), sub.UnreadCount())

	// Second call still hits the backend but cannot go below reality
	require.NoError(t, sub.MarkAsRead(context.Background(), "n2"))
	assert.Equal(t, int64(1), sub.UnreadCount())
}

func TestMarkAsReadNotFound(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{Success: true}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Refresh(context.Background()))

	err = sub.MarkAsRead(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAllAsRead(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{
		Success: true,
		Notifications: []Notification{
			seedNotification("n2", "New Job Posted", false),
			seedNotification("n1", "New Follower", false),
		},
		UnreadCount: 2,
	}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Refresh(context.Background()))

	require.NoError(t, sub.MarkAllAsRead(context.Background()))
	assert.Equal(t, int32(1), backend.markedAll.Load())
	assert.Equal(t, int64(0), sub.UnreadCount())
	for _, n := range sub.Notifications() {
		assert.True(t, n.Read)
	}
}

func TestDeleteRemovesLocally(t *testing.T) {
	backend := newTestBackend(t)
	backend.list = listResponse{
		Success: true,
		Notifications: []Notification{
			seedNotification("n2", "New Job Posted", false),
			seedNotification("n1", "New Follower", true),
		},
		UnreadCount: 1,
	}

	sub, err := New(backend.URL, "student-1", "test-token")
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Refresh(context.Background()))

	require.NoError(t, sub.Delete(context.Background(), "n2"))
	assert.Equal(t, int32(1), backend.deleted.Load())

	notifications := sub.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "n1", notifications[0].ID)
	assert.Equal(t, int64(0), sub.UnreadCount())
}
