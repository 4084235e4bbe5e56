// internal/handlers/notification.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"elevatr/internal/models"
	"elevatr/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type NotificationHandler struct {
	store          services.NotificationStore
	userCollection *mongo.Collection
}

func NewNotificationHandler(store services.NotificationStore, userCollection *mongo.Collection) *NotificationHandler {
	return &NotificationHandler{
		store:          store,
		userCollection: userCollection,
	}
}

// GetNotifications returns the user's feed, newest first.
// Method: GET /api/notifications?page=&limit=&unread_only=
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unreadOnly := c.DefaultQuery("unread_only", "false") == "true"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifications, total, unreadCount, err := h.store.ListForUser(ctx, userIDObj, page, limit, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error fetching notifications",
			"details": err.Error(),
		})
		return
	}

	senders := h.senderSummaries(ctx, notifications)

	payloads := make([]models.NotificationPayload, 0, len(notifications))
	for _, n := range notifications {
		payloads = append(payloads, models.NotificationPayload{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Sender:    senders[n.Sender],
			Data:      n.Data,
			ActionURL: n.ActionURL,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": payloads,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
		"unreadCount": unreadCount,
	})
}

// senderSummaries resolves the distinct senders of a page of notifications
// into short {id, name, picture} blocks.
func (h *NotificationHandler) senderSummaries(ctx context.Context, notifications []models.Notification) map[primitive.ObjectID]*models.SenderSummary {
	summaries := make(map[primitive.ObjectID]*models.SenderSummary)
	if len(notifications) == 0 {
		return summaries
	}

	ids := make([]primitive.ObjectID, 0, len(notifications))
	for _, n := range notifications {
		if _, seen := summaries[n.Sender]; !seen {
			summaries[n.Sender] = &models.SenderSummary{ID: n.Sender}
			ids = append(ids, n.Sender)
		}
	}

	cursor, err := h.userCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return summaries
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			continue
		}
		summaries[user.ID] = &models.SenderSummary{
			ID:             user.ID,
			Name:           user.Name,
			ProfilePicture: user.Profile.ProfilePicture,
		}
	}

	return summaries
}

// GetUnreadCount returns only the unread counter, for badge polling.
// Method: GET /api/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := h.store.UnreadCount(ctx, userIDObj)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error counting notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"unreadCount": count,
	})
}

// MarkAsRead marks one notification as read. Only the owning recipient
// may do so; anyone else gets NotFound.
// Method: PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid notification ID",
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.store.MarkRead(ctx, notificationID, userIDObj); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error marking notification as read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}

// MarkAllAsRead marks every unread notification of the user as read.
// Method: PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.store.MarkAllRead(ctx, userIDObj); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error marking notifications as read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All notifications marked as read",
	})
}

// DeleteNotification removes one notification, owner only.
// Method: DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid notification ID",
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, notificationID, userIDObj); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting notification",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification deleted",
	})
}
