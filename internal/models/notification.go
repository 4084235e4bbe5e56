package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeJobApplication  = "job_application"
	NotificationTypeJobPosted       = "job_posted"
	NotificationTypeStatusUpdate    = "application_status_update"
	NotificationTypeProfileFollow   = "profile_follow"
	NotificationTypeProjectLike     = "project_like"
	NotificationTypeProjectComment  = "project_comment"
	NotificationTypeInterview       = "interview_scheduled"
	NotificationTypeMessageReceived = "message_received"
)

// NotificationData references the entity a notification points at.
// At most one field is populated, depending on the notification type.
type NotificationData struct {
	JobID         *primitive.ObjectID `bson:"job_id,omitempty" json:"jobId,omitempty"`
	ApplicationID *primitive.ObjectID `bson:"application_id,omitempty" json:"applicationId,omitempty"`
	ProjectID     *primitive.ObjectID `bson:"project_id,omitempty" json:"projectId,omitempty"`
	ProfileID     *primitive.ObjectID `bson:"profile_id,omitempty" json:"profileId,omitempty"`
}

// Notification is immutable after insert except for Read/ReadAt.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Data      *NotificationData  `bson:"data,omitempty" json:"data,omitempty"`
	ActionURL string             `bson:"action_url,omitempty" json:"actionUrl,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	ReadAt    *time.Time         `bson:"read_at,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// SenderSummary is the short sender block embedded in real-time payloads
// and list responses.
type SenderSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	ProfilePicture string             `json:"profilePicture,omitempty"`
}

// NotificationPayload is the client-facing shape pushed over the delivery
// channel and returned by the list endpoint.
type NotificationPayload struct {
	ID        primitive.ObjectID `json:"id"`
	Type      string             `json:"type"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Sender    *SenderSummary     `json:"sender,omitempty"`
	Data      *NotificationData  `json:"data,omitempty"`
	ActionURL string             `json:"actionUrl,omitempty"`
	Read      bool               `json:"read"`
	CreatedAt time.Time          `json:"createdAt"`
}

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeJobApplication,
		NotificationTypeJobPosted,
		NotificationTypeStatusUpdate,
		NotificationTypeProfileFollow,
		NotificationTypeProjectLike,
		NotificationTypeProjectComment,
		NotificationTypeInterview,
		NotificationTypeMessageReceived:
		return true
	}
	return false
}
