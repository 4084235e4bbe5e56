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

type JobsHandler struct {
	jobCollection       *mongo.Collection
	notificationService *services.NotificationService
}

type CreateJobRequest struct {
	Title       string              `json:"title" binding:"required,min=3,max=150"`
	CompanyName string              `json:"company_name" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Location    string              `json:"location"`
	Type        string              `json:"type" binding:"omitempty,oneof=full-time part-time internship contract"`
	Remote      bool                `json:"remote"`
	Skills      []string            `json:"skills"`
	Salary      *models.SalaryRange `json:"salary,omitempty"`
	Deadline    *time.Time          `json:"deadline,omitempty"`
}

type UpdateJobRequest struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Location    *string             `json:"location,omitempty"`
	Type        *string             `json:"type,omitempty"`
	Remote      *bool               `json:"remote,omitempty"`
	Skills      []string            `json:"skills,omitempty"`
	Salary      *models.SalaryRange `json:"salary,omitempty"`
	Status      *string             `json:"status,omitempty"`
	Deadline    *time.Time          `json:"deadline,omitempty"`
}

func NewJobsHandler(jobCollection *mongo.Collection, notificationService *services.NotificationService) *JobsHandler {
	return &JobsHandler{
		jobCollection:       jobCollection,
		notificationService: notificationService,
	}
}

// GetJobs lists active jobs for the board with pagination and filters.
// Method: GET /api/jobs
func (h *JobsHandler) GetJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobType := c.Query("type")
	search := c.Query("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := bson.M{"status": models.JobStatusActive}
	if jobType != "" {
		filter["type"] = jobType
	}
	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"company_name": bson.M{"$regex": search, "$options": "i"}},
			{"skills": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := h.jobCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error counting jobs",
		})
		return
	}

	skip := (page - 1) * limit
	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := h.jobCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching jobs",
		})
		return
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding jobs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    jobs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetJob returns one job posting.
// Method: GET /api/jobs/:id
func (h *JobsHandler) GetJob(c *gin.Context) {
	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var job models.Job
	err = h.jobCollection.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     job,
	})
}

// CreateJob publishes a job posting and broadcasts a job_posted
// notification to every student. The notification path is best-effort:
// its failure is logged and the posting succeeds regardless.
// Method: POST /api/jobs (recruiter only)
func (h *JobsHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	recruiterID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	jobType := req.Type
	if jobType == "" {
		jobType = models.JobTypeFullTime
	}

	now := time.Now()
	job := models.Job{
		Title:       req.Title,
		CompanyName: req.CompanyName,
		Description: req.Description,
		Location:    req.Location,
		Type:        jobType,
		Remote:      req.Remote,
		Skills:      req.Skills,
		Salary:      req.Salary,
		Status:      models.JobStatusActive,
		RecruiterID: recruiterID,
		Deadline:    req.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.jobCollection.InsertOne(ctx, job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating job",
		})
		return
	}

	job.ID = result.InsertedID.(primitive.ObjectID)

	// Notify all students about the new posting; never fail the posting
	// because of the notification path
	if err := h.notificationService.NotifyJobPosted(ctx, recruiterID, job.ID, job.Title, job.CompanyName); err != nil {
		logrus.WithError(err).Error("error sending job posted notifications")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Job created successfully",
		"job":     job,
	})
}

// UpdateJob edits a posting; only its recruiter may do so.
// Method: PUT /api/jobs/:id
func (h *JobsHandler) UpdateJob(c *gin.Context) {
	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	recruiterID, err := primitive.ObjectIDFromHex(userID.(string))
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
	if req.Location != nil {
		update["location"] = *req.Location
	}
	if req.Type != nil {
		update["type"] = *req.Type
	}
	if req.Remote != nil {
		update["remote"] = *req.Remote
	}
	if req.Skills != nil {
		update["skills"] = req.Skills
	}
	if req.Salary != nil {
		update["salary"] = req.Salary
	}
	if req.Status != nil {
		update["status"] = *req.Status
	}
	if req.Deadline != nil {
		update["deadline"] = req.Deadline
	}

	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No fields to update",
		})
		return
	}

	update["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.jobCollection.UpdateOne(ctx, bson.M{
		"_id":          jobID,
		"recruiter_id": recruiterID,
	}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating job",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found or access denied",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job updated successfully",
	})
}

// DeleteJob removes a posting; only its recruiter may do so.
// Method: DELETE /api/jobs/:id
func (h *JobsHandler) DeleteJob(c *gin.Context) {
	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	recruiterID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.jobCollection.DeleteOne(ctx, bson.M{
		"_id":          jobID,
		"recruiter_id": recruiterID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting job",
		})
		return
	}

	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found or access denied",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job deleted successfully",
	})
}

// GetMyJobs lists the recruiter's own postings including drafts/closed.
// Method: GET /api/jobs/mine
func (h *JobsHandler) GetMyJobs(c *gin.Context) {
	userID, _ := c.Get("user_id")
	recruiterID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := h.jobCollection.Find(ctx, bson.M{"recruiter_id": recruiterID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching jobs",
		})
		return
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding jobs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    jobs,
	})
}
