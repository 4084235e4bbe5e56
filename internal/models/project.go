package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectComment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title" validate:"required,min=3,max=150"`
	Description string             `bson:"description" json:"description"`
	Tags        []string           `bson:"tags" json:"tags"`
	RepoURL     string             `bson:"repo_url,omitempty" json:"repo_url,omitempty"`
	LiveURL     string             `bson:"live_url,omitempty" json:"live_url,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`

	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments []ProjectComment     `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
