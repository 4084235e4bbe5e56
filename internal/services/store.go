package services

import (
	"context"
	"fmt"
	"time"

	"elevatr/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationStore is the durable side of the notification path. The
// dispatcher writes through it before any live delivery is attempted.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	CreateMany(ctx context.Context, ns []*models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, page, limit int, unreadOnly bool) ([]models.Notification, int64, int64, error)
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// MongoNotificationStore persists notifications in the notifications
// collection. Ownership checks are folded into the query filters, so a
// non-owner operating on someone else's notification surfaces as NotFound.
type MongoNotificationStore struct {
	collection *mongo.Collection
}

func NewMongoNotificationStore(collection *mongo.Collection) *MongoNotificationStore {
	return &MongoNotificationStore{collection: collection}
}

func (s *MongoNotificationStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	now := time.Now()
	n.Read = false
	n.ReadAt = nil
	n.CreatedAt = now
	n.UpdatedAt = now

	result, err := s.collection.InsertOne(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	n.ID = result.InsertedID.(primitive.ObjectID)
	return n, nil
}

func (s *MongoNotificationStore) CreateMany(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(ns))
	for _, n := range ns {
		n.Read = false
		n.ReadAt = nil
		n.CreatedAt = now
		n.UpdatedAt = now
		docs = append(docs, n)
	}

	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to save notification batch: %w", err)
	}

	for i, insertedID := range result.InsertedIDs {
		ns[i].ID = insertedID.(primitive.ObjectID)
	}
	return nil
}

func (s *MongoNotificationStore) ListForUser(ctx context.Context, userID primitive.ObjectID, page, limit int, unreadOnly bool) ([]models.Notification, int64, int64, error) {
	filter := bson.M{"recipient": userID}
	if unreadOnly {
		filter["read"] = false
	}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	unreadCount, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	skip := (page - 1) * limit
	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(skip)).
		// Newest first; _id breaks ties between same-millisecond inserts
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, total, unreadCount, nil
}

func (s *MongoNotificationStore) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"recipient": userID,
		"read":      false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read, once. Re-marking an already-read
// notification is a no-op, not an error; read_at is never overwritten.
func (s *MongoNotificationStore) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now()
	result, err := s.collection.UpdateOne(ctx, bson.M{
		"_id":       id,
		"recipient": userID,
		"read":      false,
	}, bson.M{
		"$set": bson.M{
			"read":       true,
			"read_at":    now,
			"updated_at": now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either already read (idempotent success) or not owned / missing
		count, err := s.collection.CountDocuments(ctx, bson.M{
			"_id":       id,
			"recipient": userID,
		})
		if err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}

	return nil
}

func (s *MongoNotificationStore) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	now := time.Now()
	result, err := s.collection.UpdateMany(ctx, bson.M{
		"recipient": userID,
		"read":      false,
	}, bson.M{
		"$set": bson.M{
			"read":       true,
			"read_at":    now,
			"updated_at": now,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *MongoNotificationStore) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{
		"_id":       id,
		"recipient": userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
