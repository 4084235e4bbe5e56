// internal/handlers/users.go

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"elevatr/internal/models"
	"elevatr/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersHandler struct {
	userCollection      *mongo.Collection
	notificationService *services.NotificationService
}

// MemberSummary is the public card shown on the members page
type MemberSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Role           models.UserRole    `json:"role"`
	Headline       string             `json:"headline"`
	Location       string             `json:"location"`
	ProfilePicture string             `json:"profile_picture"`
	FollowersCount int                `json:"followers_count"`
	FollowingCount int                `json:"following_count"`
}

// UpdateProfileRequest - partial profile update
type UpdateProfileRequest struct {
	Headline    *string             `json:"headline,omitempty"`
	Location    *string             `json:"location,omitempty"`
	Bio         *string             `json:"bio,omitempty"`
	Skills      []models.Skill      `json:"skills,omitempty"`
	Experience  []models.Experience `json:"experience,omitempty"`
	Education   []models.Education  `json:"education,omitempty"`
	SocialLinks *models.SocialLinks `json:"social_links,omitempty"`
}

func NewUsersHandler(userCollection *mongo.Collection, notificationService *services.NotificationService) *UsersHandler {
	return &UsersHandler{
		userCollection:      userCollection,
		notificationService: notificationService,
	}
}

// GetMembers lists platform members with pagination and role filtering.
// Method: GET /api/users
func (h *UsersHandler) GetMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	role := c.Query("role")
	search := c.Query("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := bson.M{"is_blocked": false}
	if role != "" {
		filter["role"] = role
	}
	if search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := h.userCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error counting members",
		})
		return
	}

	skip := (page - 1) * limit
	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := h.userCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching members",
		})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding members",
		})
		return
	}

	members := make([]MemberSummary, 0, len(users))
	for _, user := range users {
		members = append(members, MemberSummary{
			ID:             user.ID,
			Name:           user.Name,
			Role:           user.Role,
			Headline:       user.Profile.Headline,
			Location:       user.Profile.Location,
			ProfilePicture: user.Profile.ProfilePicture,
			FollowersCount: len(user.Profile.Followers),
			FollowingCount: len(user.Profile.Following),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"members": members,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetProfile returns one user's public profile.
// Method: GET /api/users/:id
func (h *UsersHandler) GetProfile(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = h.userCollection.FindOne(ctx, bson.M{"_id": targetID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	isFollowing := false
	if requesterID, exists := c.Get("user_id"); exists {
		if requesterObj, err := primitive.ObjectIDFromHex(requesterID.(string)); err == nil {
			for _, follower := range user.Profile.Followers {
				if follower == requesterObj {
					isFollowing = true
					break
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"user":            user,
		"followers_count": len(user.Profile.Followers),
		"following_count": len(user.Profile.Following),
		"is_following":    isFollowing,
	})
}

// UpdateProfile updates the authenticated user's own profile fields.
// Method: PUT /api/users/me
func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	update := bson.M{}
	if req.Headline != nil {
		update["profile.headline"] = *req.Headline
	}
	if req.Location != nil {
		update["profile.location"] = *req.Location
	}
	if req.Bio != nil {
		update["profile.bio"] = *req.Bio
	}
	if req.Skills != nil {
		update["profile.skills"] = req.Skills
	}
	if req.Experience != nil {
		update["profile.experience"] = req.Experience
	}
	if req.Education != nil {
		update["profile.education"] = req.Education
	}
	if req.SocialLinks != nil {
		update["profile.social_links"] = *req.SocialLinks
	}

	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No profile fields to update",
		})
		return
	}

	update["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = h.userCollection.UpdateOne(ctx, bson.M{"_id": userIDObj}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating profile",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
	})
}

// ToggleFollow follows an unfollowed user or unfollows a followed one.
// Following dispatches a profile_follow notification; a notification
// failure never fails the follow itself.
// Method: POST /api/users/:id/follow
func (h *UsersHandler) ToggleFollow(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	if targetID == userIDObj {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cannot follow yourself",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": userIDObj}).Decode(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching user",
		})
		return
	}

	var target models.User
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	isFollowing := false
	for _, followed := range user.Profile.Following {
		if followed == targetID {
			isFollowing = true
			break
		}
	}

	if isFollowing {
		// Unfollow
		if _, err := h.userCollection.UpdateOne(ctx, bson.M{"_id": userIDObj},
			bson.M{"$pull": bson.M{"profile.following": targetID}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error updating follow status",
			})
			return
		}
		if _, err := h.userCollection.UpdateOne(ctx, bson.M{"_id": targetID},
			bson.M{"$pull": bson.M{"profile.followers": userIDObj}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error updating follow status",
			})
			return
		}
	} else {
		// Follow
		if _, err := h.userCollection.UpdateOne(ctx, bson.M{"_id": userIDObj},
			bson.M{"$addToSet": bson.M{"profile.following": targetID}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error updating follow status",
			})
			return
		}
		if _, err := h.userCollection.UpdateOne(ctx, bson.M{"_id": targetID},
			bson.M{"$addToSet": bson.M{"profile.followers": userIDObj}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error updating follow status",
			})
			return
		}

		if _, err := h.notificationService.NotifyProfileFollow(ctx, targetID, userIDObj, user.Name); err != nil {
			logrus.WithError(err).Error("error sending follow notification")
		}
	}

	message := "Followed successfully"
	if isFollowing {
		message = "Unfollowed successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      message,
		"is_following": !isFollowing,
	})
}
