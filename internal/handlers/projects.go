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

type ProjectsHandler struct {
	projectCollection   *mongo.Collection
	userCollection      *mongo.Collection
	notificationService *services.NotificationService
}

type CreateProjectRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=150"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	RepoURL     string   `json:"repo_url"`
	LiveURL     string   `json:"live_url"`
	ImageURL    string   `json:"image_url"`
}

type UpdateProjectRequest struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,min=3,max=150"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	RepoURL     *string  `json:"repo_url,omitempty"`
	LiveURL     *string  `json:"live_url,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

func NewProjectsHandler(projectCollection, userCollection *mongo.Collection, notificationService *services.NotificationService) *ProjectsHandler {
	return &ProjectsHandler{
		projectCollection:   projectCollection,
		userCollection:      userCollection,
		notificationService: notificationService,
	}
}

// GetProjects lists showcase projects, newest first.
// Method: GET /api/projects
func (h *ProjectsHandler) GetProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	tag := c.Query("tag")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := bson.M{}
	if tag != "" {
		filter["tags"] = tag
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := h.projectCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error counting projects",
		})
		return
	}

	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64((page - 1) * limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := h.projectCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching projects",
		})
		return
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding projects",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"projects": projects,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetProject returns a single project.
// Method: GET /api/projects/:id
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid project ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var project models.Project
	err = h.projectCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"project": project,
	})
}

// CreateProject adds a project to the owner's showcase.
// Method: POST /api/projects
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	ownerID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	now := time.Now()
	project := models.Project{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		RepoURL:     req.RepoURL,
		LiveURL:     req.LiveURL,
		ImageURL:    req.ImageURL,
		Likes:       []primitive.ObjectID{},
		Comments:    []models.ProjectComment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.projectCollection.InsertOne(ctx, project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating project",
		})
		return
	}

	project.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Project created successfully",
		"project": project,
	})
}

// GetMyProjects lists the authenticated user's own projects, newest first.
// Method: GET /api/projects/mine
func (h *ProjectsHandler) GetMyProjects(c *gin.Context) {
	userID, _ := c.Get("user_id")
	ownerID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := h.projectCollection.Find(ctx, bson.M{"owner_id": ownerID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching projects",
		})
		return
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding projects",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"projects": projects,
		"count":    len(projects),
	})
}

// UpdateProject applies a partial update; only the owner may edit.
// Method: PUT /api/projects/:id
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid project ID",
		})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	ownerID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	update := bson.M{}
	if req.Title != nil {
		update["title"] = *req.Title
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Tags != nil {
		update["tags"] = req.Tags
	}
	if req.RepoURL != nil {
		update["repo_url"] = *req.RepoURL
	}
	if req.LiveURL != nil {
		update["live_url"] = *req.LiveURL
	}
	if req.ImageURL != nil {
		update["image_url"] = *req.ImageURL
	}

	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No project fields to update",
		})
		return
	}

	update["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ownership enforced by the filter, same as delete
	result, err := h.projectCollection.UpdateOne(ctx,
		bson.M{"_id": projectID, "owner_id": ownerID},
		bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating project",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found or access denied",
		})
		return
	}

	var project models.Project
	if err := h.projectCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching project",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project updated successfully",
		"project": project,
	})
}

// DeleteProject removes a project; only its owner may do so.
// Method: DELETE /api/projects/:id
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid project ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	ownerID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.projectCollection.DeleteOne(ctx, bson.M{
		"_id":      projectID,
		"owner_id": ownerID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting project",
		})
		return
	}

	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found or access denied",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project deleted successfully",
	})
}

// ToggleLike likes or unlikes a project. A new like notifies the owner;
// the notification path never fails the like itself.
// Method: POST /api/projects/:id/like
func (h *ProjectsHandler) ToggleLike(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid project ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	likerID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var project models.Project
	err = h.projectCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found",
		})
		return
	}

	liked := false
	for _, id := range project.Likes {
		if id == likerID {
			liked = true
			break
		}
	}

	operation := "$addToSet"
	if liked {
		operation = "$pull"
	}

	_, err = h.projectCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{
		operation: bson.M{"likes": likerID},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating project",
		})
		return
	}

	message := "Project liked"
	if liked {
		message = "Like removed"
	}

	// Only a fresh like by someone else produces a notification
	if !liked && project.OwnerID != likerID {
		var liker models.User
		likerName := "Someone"
		if err := h.userCollection.FindOne(ctx, bson.M{"_id": likerID}).Decode(&liker); err == nil {
			likerName = liker.Name
		}
		if _, err := h.notificationService.NotifyProjectLike(ctx, project.OwnerID, likerID, likerName, project.Title, projectID); err != nil {
			logrus.WithError(err).Error("error sending like notification")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"liked":   !liked,
	})
}

// AddComment appends a comment and notifies the project owner.
// Method: POST /api/projects/:id/comments
func (h *ProjectsHandler) AddComment(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid project ID",
		})
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	authorID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var project models.Project
	err = h.projectCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found",
		})
		return
	}

	comment := models.ProjectComment{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	_, err = h.projectCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error adding comment",
		})
		return
	}

	if project.OwnerID != authorID {
		var author models.User
		authorName := "Someone"
		if err := h.userCollection.FindOne(ctx, bson.M{"_id": authorID}).Decode(&author); err == nil {
			authorName = author.Name
		}
		if _, err := h.notificationService.NotifyProjectComment(ctx, project.OwnerID, authorID, authorName, project.Title, projectID); err != nil {
			logrus.WithError(err).Error("error sending comment notification")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment added",
		"comment": comment,
	})
}
