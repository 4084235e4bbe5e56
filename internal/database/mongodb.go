// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"time"

	"elevatr/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.DatabaseName)

	logrus.WithField("database", cfg.DatabaseName).Info("Connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: database,
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	logrus.Info("Disconnected from MongoDB")
	return nil
}

// CreateIndexes creates the indexes for all collections.
// NOTE: bson.D is used instead of a map to preserve key order.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	// User indexes
	userCollection := m.Database.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := userCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	// Job indexes
	jobCollection := m.Database.Collection("jobs")
	jobIndexes := []mongo.IndexModel{
		{
			// Compound index for board filtering
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "recruiter_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "skills", Value: 1}},
		},
	}

	if _, err := jobCollection.Indexes().CreateMany(ctx, jobIndexes); err != nil {
		return fmt.Errorf("failed to create job indexes: %w", err)
	}

	// Application indexes
	applicationCollection := m.Database.Collection("applications")
	applicationIndexes := []mongo.IndexModel{
		{
			// One application per (job, applicant)
			Keys: bson.D{
				{Key: "job_id", Value: 1},
				{Key: "applicant_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "applicant_id", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "recruiter_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	if _, err := applicationCollection.Indexes().CreateMany(ctx, applicationIndexes); err != nil {
		return fmt.Errorf("failed to create application indexes: %w", err)
	}

	// Project indexes
	projectCollection := m.Database.Collection("projects")
	projectIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "tags", Value: 1}},
		},
	}

	if _, err := projectCollection.Indexes().CreateMany(ctx, projectIndexes); err != nil {
		return fmt.Errorf("failed to create project indexes: %w", err)
	}

	// Notification indexes: (recipient, created_at) serves the feed query,
	// (recipient, read) serves the unread counter
	notificationCollection := m.Database.Collection("notifications")
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "read", Value: 1},
			},
		},
	}

	if _, err := notificationCollection.Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	logrus.Info("Indexes created for all collections")
	return nil
}
