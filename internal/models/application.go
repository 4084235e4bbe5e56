package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses, in rough workflow order
const (
	ApplicationStatusApplied     = "applied"
	ApplicationStatusViewed      = "viewed"
	ApplicationStatusShortlisted = "shortlisted"
	ApplicationStatusInterview   = "interview"
	ApplicationStatusOffered     = "offered"
	ApplicationStatusRejected    = "rejected"
	ApplicationStatusWithdrawn   = "withdrawn"
)

type StatusChange struct {
	Status    string             `bson:"status" json:"status"`
	ChangedBy primitive.ObjectID `bson:"changed_by" json:"changed_by"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ChangedAt time.Time          `bson:"changed_at" json:"changed_at"`
}

type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	JobID       primitive.ObjectID `bson:"job_id" json:"job_id"`
	ApplicantID primitive.ObjectID `bson:"applicant_id" json:"applicant_id"`
	RecruiterID primitive.ObjectID `bson:"recruiter_id" json:"recruiter_id"`

	CoverLetter string `bson:"cover_letter,omitempty" json:"cover_letter,omitempty"`
	ResumeURL   string `bson:"resume_url,omitempty" json:"resume_url,omitempty"`

	Status        string         `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"status_history" json:"status_history"`

	InterviewAt *time.Time `bson:"interview_at,omitempty" json:"interview_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidApplicationStatus reports whether s is a known status value
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusViewed, ApplicationStatusShortlisted,
		ApplicationStatusInterview, ApplicationStatusOffered, ApplicationStatusRejected,
		ApplicationStatusWithdrawn:
		return true
	}
	return false
}

// CanTransitionTo enforces the status workflow: forward movement only,
// terminal states never change, withdrawn is reachable from any
// non-terminal state by the applicant.
func (a *Application) CanTransitionTo(next string) bool {
	if !ValidApplicationStatus(next) || next == a.Status {
		return false
	}

	switch a.Status {
	case ApplicationStatusOffered, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return false
	}

	if next == ApplicationStatusWithdrawn {
		return true
	}

	order := map[string]int{
		ApplicationStatusApplied:     0,
		ApplicationStatusViewed:      1,
		ApplicationStatusShortlisted: 2,
		ApplicationStatusInterview:   3,
		ApplicationStatusOffered:     4,
		ApplicationStatusRejected:    4,
	}

	cur, ok1 := order[a.Status]
	nxt, ok2 := order[next]
	if !ok1 || !ok2 {
		return false
	}
	return nxt > cur
}
