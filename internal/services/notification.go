package services

import (
	"context"
	"errors"
	"fmt"

	"elevatr/internal/models"
	"elevatr/internal/realtime"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidNotification  = errors.New("notification event missing required fields")
	ErrNotificationNotFound = errors.New("notification not found")
)

// LivePusher delivers a payload to a user's active channel if one exists.
// Push reports delivery; false means the recipient is offline (or its
// buffer was full), which is the normal path, never an error.
type LivePusher interface {
	Push(userID, event string, payload interface{}) bool
}

// Event describes one domain occurrence to fan out: who it is for, who
// caused it, and what the recipient should see.
type Event struct {
	Recipient     primitive.ObjectID
	Sender        primitive.ObjectID
	SenderName    string
	SenderPicture string
	Type          string
	Title         string
	Message       string
	Data          *models.NotificationData
	ActionURL     string
}

// NotificationService is the fan-out dispatcher: it turns a domain event
// into a durable notification record plus a best-effort live push.
// Persistence always happens first; a failed push never touches the
// stored record and is never retried.
type NotificationService struct {
	store          NotificationStore
	pusher         LivePusher
	userCollection *mongo.Collection
}

func NewNotificationService(store NotificationStore, pusher LivePusher, userCollection *mongo.Collection) *NotificationService {
	return &NotificationService{
		store:          store,
		pusher:         pusher,
		userCollection: userCollection,
	}
}

func (ns *NotificationService) validate(event Event) error {
	if event.Recipient.IsZero() || event.Sender.IsZero() {
		return ErrInvalidNotification
	}
	if event.Title == "" || event.Message == "" {
		return ErrInvalidNotification
	}
	if !models.ValidNotificationType(event.Type) {
		return ErrInvalidNotification
	}
	return nil
}

func payloadFor(n *models.Notification, event Event) models.NotificationPayload {
	return models.NotificationPayload{
		ID:      n.ID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Sender: &models.SenderSummary{
			ID:             event.Sender,
			Name:           event.SenderName,
			ProfilePicture: event.SenderPicture,
		},
		Data:      n.Data,
		ActionURL: n.ActionURL,
		Read:      false,
		CreatedAt: n.CreatedAt,
	}
}

// Dispatch persists one notification and attempts live delivery to its
// recipient. A store failure propagates to the caller; callers treat
// notifications as an auxiliary effect and must not fail the primary
// action because of one.
func (ns *NotificationService) Dispatch(ctx context.Context, event Event) (*models.Notification, error) {
	if err := ns.validate(event); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		Recipient: event.Recipient,
		Sender:    event.Sender,
		Type:      event.Type,
		Title:     event.Title,
		Message:   event.Message,
		Data:      event.Data,
		ActionURL: event.ActionURL,
	}

	stored, err := ns.store.Create(ctx, notification)
	if err != nil {
		return nil, err
	}

	if delivered := ns.pusher.Push(event.Recipient.Hex(), realtime.EventNewNotification, payloadFor(stored, event)); !delivered {
		logrus.WithFields(logrus.Fields{
			"recipient": event.Recipient.Hex(),
			"type":      event.Type,
		}).Debug("recipient offline, notification stored only")
	}

	return stored, nil
}

// DispatchBroadcast fans one event out to many recipients: one record per
// recipient, written in a single batch (all-or-nothing at the store
// boundary), then one best-effort push per connected recipient. A failed
// push to one recipient never blocks the others.
func (ns *NotificationService) DispatchBroadcast(ctx context.Context, recipients []primitive.ObjectID, event Event) error {
	if event.Sender.IsZero() || event.Title == "" || event.Message == "" || !models.ValidNotificationType(event.Type) {
		return ErrInvalidNotification
	}
	if len(recipients) == 0 {
		return nil
	}

	notifications := make([]*models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, &models.Notification{
			Recipient: recipient,
			Sender:    event.Sender,
			Type:      event.Type,
			Title:     event.Title,
			Message:   event.Message,
			Data:      event.Data,
			ActionURL: event.ActionURL,
		})
	}

	if err := ns.store.CreateMany(ctx, notifications); err != nil {
		return err
	}

	delivered := 0
	for _, n := range notifications {
		if ns.pusher.Push(n.Recipient.Hex(), realtime.EventNewNotification, payloadFor(n, event)) {
			delivered++
		}
	}

	logrus.WithFields(logrus.Fields{
		"type":       event.Type,
		"recipients": len(recipients),
		"delivered":  delivered,
	}).Info("broadcast notification dispatched")

	return nil
}

// studentIDs resolves the broadcast recipient set for job postings.
func (ns *NotificationService) studentIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := ns.userCollection.Find(ctx, bson.M{
		"role":       models.RoleStudent,
		"is_blocked": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var user struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&user); err != nil {
			continue
		}
		ids = append(ids, user.ID)
	}

	return ids, nil
}

// Typed helpers for the domain events

func (ns *NotificationService) NotifyJobApplication(ctx context.Context, recruiterID, applicantID primitive.ObjectID, applicantName, jobTitle string, jobID, applicationID primitive.ObjectID) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  recruiterID,
		Sender:     applicantID,
		SenderName: applicantName,
		Type:       models.NotificationTypeJobApplication,
		Title:      "New Job Application",
		Message:    fmt.Sprintf("%s applied for %s", applicantName, jobTitle),
		Data:       &models.NotificationData{JobID: &jobID, ApplicationID: &applicationID},
		ActionURL:  fmt.Sprintf("/jobs/%s/applicants", jobID.Hex()),
	})
}

func (ns *NotificationService) NotifyJobPosted(ctx context.Context, recruiterID, jobID primitive.ObjectID, jobTitle, companyName string) error {
	students, err := ns.studentIDs(ctx)
	if err != nil {
		return err
	}

	return ns.DispatchBroadcast(ctx, students, Event{
		Sender:    recruiterID,
		Type:      models.NotificationTypeJobPosted,
		Title:     "New Job Posted",
		Message:   fmt.Sprintf("New %s position at %s", jobTitle, companyName),
		Data:      &models.NotificationData{JobID: &jobID},
		ActionURL: fmt.Sprintf("/jobs/%s", jobID.Hex()),
	})
}

func (ns *NotificationService) NotifyApplicationStatus(ctx context.Context, applicantID, recruiterID primitive.ObjectID, recruiterName, jobTitle, status string, jobID, applicationID primitive.ObjectID) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  applicantID,
		Sender:     recruiterID,
		SenderName: recruiterName,
		Type:       models.NotificationTypeStatusUpdate,
		Title:      "Application Status Updated",
		Message:    fmt.Sprintf("Your application for %s is now %s", jobTitle, status),
		Data:       &models.NotificationData{ApplicationID: &applicationID},
		ActionURL:  "/applications",
	})
}

func (ns *NotificationService) NotifyInterviewScheduled(ctx context.Context, applicantID, recruiterID primitive.ObjectID, recruiterName, jobTitle string, applicationID primitive.ObjectID) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  applicantID,
		Sender:     recruiterID,
		SenderName: recruiterName,
		Type:       models.NotificationTypeInterview,
		Title:      "Interview Scheduled",
		Message:    fmt.Sprintf("An interview has been scheduled for your %s application", jobTitle),
		Data:       &models.NotificationData{ApplicationID: &applicationID},
		ActionURL:  "/applications",
	})
}

func (ns *NotificationService) NotifyProfileFollow(ctx context.Context, followedID, followerID primitive.ObjectID, followerName string) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  followedID,
		Sender:     followerID,
		SenderName: followerName,
		Type:       models.NotificationTypeProfileFollow,
		Title:      "New Follower",
		Message:    fmt.Sprintf("%s started following you", followerName),
		Data:       &models.NotificationData{ProfileID: &followerID},
		ActionURL:  fmt.Sprintf("/profile/%s", followerID.Hex()),
	})
}

func (ns *NotificationService) NotifyProjectLike(ctx context.Context, ownerID, likerID primitive.ObjectID, likerName, projectTitle string, projectID primitive.ObjectID) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  ownerID,
		Sender:     likerID,
		SenderName: likerName,
		Type:       models.NotificationTypeProjectLike,
		Title:      "Project Liked",
		Message:    fmt.Sprintf("%s liked your project %s", likerName, projectTitle),
		Data:       &models.NotificationData{ProjectID: &projectID},
		ActionURL:  fmt.Sprintf("/projects/%s", projectID.Hex()),
	})
}

func (ns *NotificationService) NotifyProjectComment(ctx context.Context, ownerID, commenterID primitive.ObjectID, commenterName, projectTitle string, projectID primitive.ObjectID) (*models.Notification, error) {
	return ns.Dispatch(ctx, Event{
		Recipient:  ownerID,
		Sender:     commenterID,
		SenderName: commenterName,
		Type:       models.NotificationTypeProjectComment,
		Title:      "New Comment",
		Message:    fmt.Sprintf("%s commented on your project %s", commenterName, projectTitle),
		Data:       &models.NotificationData{ProjectID: &projectID},
		ActionURL:  fmt.Sprintf("/projects/%s", projectID.Hex()),
	})
}
