package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"elevatr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore records created notifications in memory and mirrors the
// ownership and idempotency semantics of the Mongo store.
type fakeStore struct {
	mu        sync.Mutex
	created   []*models.Notification
	createErr error
	batchErr  error
}

func (s *fakeStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = primitive.NewObjectID()
	s.created = append(s.created, n)
	return n, nil
}

func (s *fakeStore) CreateMany(ctx context.Context, ns []*models.Notification) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range ns {
		n.ID = primitive.NewObjectID()
		s.created = append(s.created, n)
	}
	return nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID primitive.ObjectID, page, limit int, unreadOnly bool) ([]models.Notification, int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.Notification
	var unread int64
	for i := len(s.created) - 1; i >= 0; i-- { // newest first
		n := s.created[i]
		if n.Recipient != userID {
			continue
		}
		if !n.Read {
			unread++
		}
		if unreadOnly && n.Read {
			continue
		}
		items = append(items, *n)
	}
	return items, int64(len(items)), unread, nil
}

func (s *fakeStore) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	_, _, unread, err := s.ListForUser(ctx, userID, 1, 100, false)
	return unread, err
}

func (s *fakeStore) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.created {
		if n.ID == id && n.Recipient == userID {
			n.Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *fakeStore) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for _, n := range s.created {
		if n.Recipient == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *fakeStore) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.created {
		if n.ID == id && n.Recipient == userID {
			s.created = append(s.created[:i], s.created[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

// fakePusher simulates the connected-peer directory plus delivery channel:
// pushes to connected users are recorded, everyone else misses.
type fakePusher struct {
	mu        sync.Mutex
	connected map[string]bool
	pushes    map[string][]interface{}
}

func newFakePusher(connected ...string) *fakePusher {
	p := &fakePusher{
		connected: make(map[string]bool),
		pushes:    make(map[string][]interface{}),
	}
	for _, userID := range connected {
		p.connected[userID] = true
	}
	return p
}

func (p *fakePusher) Push(userID, event string, payload interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected[userID] {
		return false
	}
	p.pushes[userID] = append(p.pushes[userID], payload)
	return true
}

func (p *fakePusher) pushCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes[userID])
}

func validEvent(recipient, sender primitive.ObjectID) Event {
	return Event{
		Recipient:  recipient,
		Sender:     sender,
		SenderName: "Jordan",
		Type:       models.NotificationTypeProfileFollow,
		Title:      "New Follower",
		Message:    "Jordan started following you",
	}
}

func TestDispatchPersistsAndPushesToConnectedRecipient(t *testing.T) {
	recipient := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	store := &fakeStore{}
	pusher := newFakePusher(recipient.Hex())
	svc := NewNotificationService(store, pusher, nil)

	stored, err := svc.Dispatch(context.Background(), validEvent(recipient, sender))
	require.NoError(t, err)
	require.False(t, stored.ID.IsZero())

	// Durable record exists and is unread
	items, _, unread, err := store.ListForUser(context.Background(), recipient, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Read)
	assert.Equal(t, int64(1), unread)

	// Exactly one live push
	assert.Equal(t, 1, pusher.pushCount(recipient.Hex()))

	payload, ok := pusher.pushes[recipient.Hex()][0].(models.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, stored.ID, payload.ID)
	assert.Equal(t, "New Follower", payload.Title)
	assert.False(t, payload.Read)
	require.NotNil(t, payload.Sender)
	assert.Equal(t, "Jordan", payload.Sender.Name)
}

func TestDispatchOfflineRecipientStillPersists(t *testing.T) {
	recipient := primitive.NewObjectID()
	store := &fakeStore{}
	pusher := newFakePusher() // nobody connected
	svc := NewNotificationService(store, pusher, nil)

	_, err := svc.Dispatch(context.Background(), validEvent(recipient, primitive.NewObjectID()))
	require.NoError(t, err)

	items, _, _, err := store.ListForUser(context.Background(), recipient, 1, 20, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 0, pusher.pushCount(recipient.Hex()))
}

func TestDispatchStoreFailurePropagatesAndSkipsPush(t *testing.T) {
	recipient := primitive.NewObjectID()
	store := &fakeStore{createErr: errors.New("db unavailable")}
	pusher := newFakePusher(recipient.Hex())
	svc := NewNotificationService(store, pusher, nil)

	_, err := svc.Dispatch(context.Background(), validEvent(recipient, primitive.NewObjectID()))
	require.Error(t, err)
	assert.Equal(t, 0, pusher.pushCount(recipient.Hex()))
}

func TestDispatchValidation(t *testing.T) {
	store := &fakeStore{}
	svc := NewNotificationService(store, newFakePusher(), nil)

	tests := []struct {
		name   string
		mutate func(*Event)
	}{
		{"missing recipient", func(e *Event) { e.Recipient = primitive.ObjectID{} }},
		{"missing sender", func(e *Event) { e.Sender = primitive.ObjectID{} }},
		{"missing title", func(e *Event) { e.Title = "" }},
		{"missing message", func(e *Event) { e.Message = "" }},
		{"unknown type", func(e *Event) { e.Type = "carrier_pigeon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent(primitive.NewObjectID(), primitive.NewObjectID())
			tt.mutate(&event)

			_, err := svc.Dispatch(context.Background(), event)
			assert.ErrorIs(t, err, ErrInvalidNotification)
			assert.Empty(t, store.created)
		})
	}
}

func TestDispatchBroadcastFanOut(t *testing.T) {
	// Three students, two connected: three records, two pushes
	students := []primitive.ObjectID{
		primitive.NewObjectID(),
		primitive.NewObjectID(),
		primitive.NewObjectID(),
	}
	store := &fakeStore{}
	pusher := newFakePusher(students[0].Hex(), students[1].Hex())
	svc := NewNotificationService(store, pusher, nil)

	recruiter := primitive.NewObjectID()
	jobID := primitive.NewObjectID()
	err := svc.DispatchBroadcast(context.Background(), students, Event{
		Sender:    recruiter,
		Type:      models.NotificationTypeJobPosted,
		Title:     "New Job Posted",
		Message:   "New Backend Intern position at Acme",
		Data:      &models.NotificationData{JobID: &jobID},
		ActionURL: "/jobs/" + jobID.Hex(),
	})
	require.NoError(t, err)

	require.Len(t, store.created, 3)
	seen := make(map[primitive.ObjectID]bool)
	for _, n := range store.created {
		assert.Equal(t, models.NotificationTypeJobPosted, n.Type)
		assert.Contains(t, n.Message, "Backend Intern")
		assert.Contains(t, n.Message, "Acme")
		seen[n.Recipient] = true
	}
	assert.Len(t, seen, 3, "one record per distinct recipient")

	assert.Equal(t, 1, pusher.pushCount(students[0].Hex()))
	assert.Equal(t, 1, pusher.pushCount(students[1].Hex()))
	assert.Equal(t, 0, pusher.pushCount(students[2].Hex()))

	// The offline student still finds the record on next fetch
	items, _, unread, err := store.ListForUser(context.Background(), students[2], 1, 20, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Read)
	assert.Equal(t, int64(1), unread)
}

func TestDispatchBroadcastBatchFailureSkipsAllPushes(t *testing.T) {
	students := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	store := &fakeStore{batchErr: errors.New("bulk write failed")}
	pusher := newFakePusher(students[0].Hex(), students[1].Hex())
	svc := NewNotificationService(store, pusher, nil)

	err := svc.DispatchBroadcast(context.Background(), students, Event{
		Sender:  primitive.NewObjectID(),
		Type:    models.NotificationTypeJobPosted,
		Title:   "New Job Posted",
		Message: "New Backend Intern position at Acme",
	})
	require.Error(t, err)
	assert.Equal(t, 0, pusher.pushCount(students[0].Hex()))
	assert.Equal(t, 0, pusher.pushCount(students[1].Hex()))
}

func TestDispatchBroadcastEmptyRecipients(t *testing.T) {
	store := &fakeStore{}
	svc := NewNotificationService(store, newFakePusher(), nil)

	err := svc.DispatchBroadcast(context.Background(), nil, Event{
		Sender:  primitive.NewObjectID(),
		Type:    models.NotificationTypeJobPosted,
		Title:   "New Job Posted",
		Message: "New Backend Intern position at Acme",
	})
	require.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestNotifyHelpersBuildWellFormedEvents(t *testing.T) {
	store := &fakeStore{}
	pusher := newFakePusher()
	svc := NewNotificationService(store, pusher, nil)
	ctx := context.Background()

	recruiter := primitive.NewObjectID()
	applicant := primitive.NewObjectID()
	jobID := primitive.NewObjectID()
	applicationID := primitive.NewObjectID()

	n, err := svc.NotifyJobApplication(ctx, recruiter, applicant, "Ana", "Backend Intern", jobID, applicationID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeJobApplication, n.Type)
	assert.Equal(t, recruiter, n.Recipient)
	assert.Equal(t, "Ana applied for Backend Intern", n.Message)
	require.NotNil(t, n.Data)
	assert.Equal(t, jobID, *n.Data.JobID)
	assert.Equal(t, applicationID, *n.Data.ApplicationID)
	assert.Equal(t, "/jobs/"+jobID.Hex()+"/applicants", n.ActionURL)

	n, err = svc.NotifyProfileFollow(ctx, applicant, recruiter, "Sam")
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeProfileFollow, n.Type)
	require.NotNil(t, n.Data)
	assert.Equal(t, recruiter, *n.Data.ProfileID)

	n, err = svc.NotifyApplicationStatus(ctx, applicant, recruiter, "Sam", "Backend Intern", "shortlisted", jobID, applicationID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeStatusUpdate, n.Type)
	assert.Contains(t, n.Message, "shortlisted")

	n, err = svc.NotifyInterviewScheduled(ctx, applicant, recruiter, "Sam", "Backend Intern", applicationID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeInterview, n.Type)

	projectID := primitive.NewObjectID()
	n, err = svc.NotifyProjectLike(ctx, applicant, recruiter, "Sam", "Portfolio Site", projectID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeProjectLike, n.Type)

	n, err = svc.NotifyProjectComment(ctx, applicant, recruiter, "Sam", "Portfolio Site", projectID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeProjectComment, n.Type)
}
