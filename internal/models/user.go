package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Skill struct {
	Name  string `bson:"name" json:"name"`
	Level string `bson:"level" json:"level"` // Beginner, Intermediate, Advanced, Expert
}

type Experience struct {
	Title       string     `bson:"title" json:"title"`
	Company     string     `bson:"company" json:"company"`
	Description string     `bson:"description" json:"description"`
	StartDate   *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Current     bool       `bson:"current" json:"current"`
}

type Education struct {
	Degree      string `bson:"degree" json:"degree"`
	Institution string `bson:"institution" json:"institution"`
	Year        string `bson:"year" json:"year"`
	Grade       string `bson:"grade" json:"grade"`
}

type SocialLinks struct {
	LinkedIn  string `bson:"linkedin" json:"linkedin"`
	GitHub    string `bson:"github" json:"github"`
	Portfolio string `bson:"portfolio" json:"portfolio"`
}

type Profile struct {
	Headline       string               `bson:"headline" json:"headline"`
	Location       string               `bson:"location" json:"location"`
	Bio            string               `bson:"bio" json:"bio"`
	ProfilePicture string               `bson:"profile_picture" json:"profile_picture"`
	Skills         []Skill              `bson:"skills" json:"skills"`
	Experience     []Experience         `bson:"experience" json:"experience"`
	Education      []Education          `bson:"education" json:"education"`
	SocialLinks    SocialLinks          `bson:"social_links" json:"social_links"`
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         UserRole           `bson:"role" json:"role"`

	// Company info for recruiters
	CompanyName string `bson:"company_name,omitempty" json:"company_name,omitempty"`

	Profile Profile `bson:"profile" json:"profile"`

	IsBlocked bool `bson:"is_blocked" json:"is_blocked"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}
