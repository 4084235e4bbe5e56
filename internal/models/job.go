package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job statuses
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
	JobStatusDraft  = "draft"
)

// Job types
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeInternship = "internship"
	JobTypeContract   = "contract"
)

type SalaryRange struct {
	Min      int    `bson:"min" json:"min"`
	Max      int    `bson:"max" json:"max"`
	Currency string `bson:"currency" json:"currency"`
}

type Job struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title" validate:"required,min=3,max=150"`
	CompanyName string             `bson:"company_name" json:"company_name" validate:"required"`
	Description string             `bson:"description" json:"description" validate:"required"`
	Location    string             `bson:"location" json:"location"`
	Type        string             `bson:"type" json:"type"` // full-time, part-time, internship, contract
	Remote      bool               `bson:"remote" json:"remote"`
	Skills      []string           `bson:"skills" json:"skills"`
	Salary      *SalaryRange       `bson:"salary,omitempty" json:"salary,omitempty"`
	Status      string             `bson:"status" json:"status"`

	RecruiterID primitive.ObjectID `bson:"recruiter_id" json:"recruiter_id"`

	ApplicantCount int `bson:"applicant_count" json:"applicant_count"`

	Deadline  *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
