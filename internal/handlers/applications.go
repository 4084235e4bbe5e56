package handlers

import (
	"context"
	"net/http"
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

type ApplicationsHandler struct {
	applicationCollection *mongo.Collection
	jobCollection         *mongo.Collection
	userCollection        *mongo.Collection
	notificationService   *services.NotificationService
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url"`
}

type UpdateStatusRequest struct {
	Status      string     `json:"status" binding:"required"`
	Notes       string     `json:"notes"`
	InterviewAt *time.Time `json:"interview_at,omitempty"`
}

func NewApplicationsHandler(applicationCollection, jobCollection, userCollection *mongo.Collection, notificationService *services.NotificationService) *ApplicationsHandler {
	return &ApplicationsHandler{
		applicationCollection: applicationCollection,
		jobCollection:         jobCollection,
		userCollection:        userCollection,
		notificationService:   notificationService,
	}
}

// Apply submits an application for a job and notifies the recruiter.
// Method: POST /api/jobs/:id/apply (student only)
func (h *ApplicationsHandler) Apply(c *gin.Context) {
	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	applicantID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
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

	if job.Status != models.JobStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Job is no longer accepting applications",
		})
		return
	}
	if job.Deadline != nil && job.Deadline.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Application deadline has passed",
		})
		return
	}

	now := time.Now()
	application := models.Application{
		JobID:       jobID,
		ApplicantID: applicantID,
		RecruiterID: job.RecruiterID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
		Status:      models.ApplicationStatusApplied,
		StatusHistory: []models.StatusChange{
			{
				Status:    models.ApplicationStatusApplied,
				ChangedBy: applicantID,
				ChangedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := h.applicationCollection.InsertOne(ctx, application)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "You have already applied for this job",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error submitting application",
		})
		return
	}

	application.ID = result.InsertedID.(primitive.ObjectID)

	if _, err := h.jobCollection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{
		"$inc": bson.M{"applicant_count": 1},
	}); err != nil {
		logrus.WithError(err).Error("error updating applicant count")
	}

	var applicant models.User
	applicantName := "A candidate"
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": applicantID}).Decode(&applicant); err == nil {
		applicantName = applicant.Name
	}

	if _, err := h.notificationService.NotifyJobApplication(ctx, job.RecruiterID, applicantID, applicantName, job.Title, jobID, application.ID); err != nil {
		logrus.WithError(err).Error("error sending application notification")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Application submitted successfully",
		"application": application,
	})
}

// GetMyApplications lists the authenticated student's applications.
// Method: GET /api/applications/mine
func (h *ApplicationsHandler) GetMyApplications(c *gin.Context) {
	userID, _ := c.Get("user_id")
	applicantID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := h.applicationCollection.Find(ctx, bson.M{"applicant_id": applicantID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching applications",
		})
		return
	}
	defer cursor.Close(ctx)

	var applications []models.Application
	if err := cursor.All(ctx, &applications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding applications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": applications,
	})
}

// GetApplication returns one application to its applicant or recruiter.
// A recruiter opening a freshly submitted application moves it to viewed,
// so the applicant can see it was looked at. The implicit transition is
// recorded in the history but does not notify.
// Method: GET /api/applications/:id
func (h *ApplicationsHandler) GetApplication(c *gin.Context) {
	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid application ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	requesterID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var application models.Application
	err = h.applicationCollection.FindOne(ctx, bson.M{
		"_id": applicationID,
		"$or": []bson.M{
			{"applicant_id": requesterID},
			{"recruiter_id": requesterID},
		},
	}).Decode(&application)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found or access denied",
		})
		return
	}

	if requesterID == application.RecruiterID && application.Status == models.ApplicationStatusApplied {
		now := time.Now()
		change := models.StatusChange{
			Status:    models.ApplicationStatusViewed,
			ChangedBy: requesterID,
			ChangedAt: now,
		}
		_, err = h.applicationCollection.UpdateOne(ctx, bson.M{"_id": applicationID}, bson.M{
			"$set": bson.M{
				"status":     models.ApplicationStatusViewed,
				"updated_at": now,
			},
			"$push": bson.M{"status_history": change},
		})
		if err != nil {
			logrus.WithError(err).Error("error marking application viewed")
		} else {
			application.Status = models.ApplicationStatusViewed
			application.StatusHistory = append(application.StatusHistory, change)
			application.UpdatedAt = now
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"application": application,
	})
}

// GetJobApplications lists applications for one of the recruiter's jobs.
// Method: GET /api/jobs/:id/applications (recruiter only)
func (h *ApplicationsHandler) GetJobApplications(c *gin.Context) {
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

	count, err := h.jobCollection.CountDocuments(ctx, bson.M{
		"_id":          jobID,
		"recruiter_id": recruiterID,
	})
	if err != nil || count == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found or access denied",
		})
		return
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := h.applicationCollection.Find(ctx, bson.M{"job_id": jobID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching applications",
		})
		return
	}
	defer cursor.Close(ctx)

	var applications []models.Application
	if err := cursor.All(ctx, &applications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding applications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": applications,
	})
}

// UpdateStatus moves an application through the workflow and notifies
// the applicant. Interview status additionally records interview_at and
// sends an interview_scheduled notification.
// Method: PUT /api/applications/:id/status (recruiter only)
func (h *ApplicationsHandler) UpdateStatus(c *gin.Context) {
	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid application ID",
		})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !models.ValidApplicationStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status value",
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

	var application models.Application
	err = h.applicationCollection.FindOne(ctx, bson.M{
		"_id":          applicationID,
		"recruiter_id": recruiterID,
	}).Decode(&application)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found or access denied",
		})
		return
	}

	if !application.CanTransitionTo(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status transition",
		})
		return
	}

	now := time.Now()
	update := bson.M{
		"status":     req.Status,
		"updated_at": now,
	}
	if req.Status == models.ApplicationStatusInterview && req.InterviewAt != nil {
		update["interview_at"] = req.InterviewAt
	}

	_, err = h.applicationCollection.UpdateOne(ctx, bson.M{"_id": applicationID}, bson.M{
		"$set": update,
		"$push": bson.M{"status_history": models.StatusChange{
			Status:    req.Status,
			ChangedBy: recruiterID,
			Notes:     req.Notes,
			ChangedAt: now,
		}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating application",
		})
		return
	}

	var job models.Job
	jobTitle := "a job"
	if err := h.jobCollection.FindOne(ctx, bson.M{"_id": application.JobID}).Decode(&job); err == nil {
		jobTitle = job.Title
	}

	var recruiter models.User
	recruiterName := "The recruiter"
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": recruiterID}).Decode(&recruiter); err == nil {
		recruiterName = recruiter.Name
	}

	if req.Status == models.ApplicationStatusInterview {
		if _, err := h.notificationService.NotifyInterviewScheduled(ctx, application.ApplicantID, recruiterID, recruiterName, jobTitle, applicationID); err != nil {
			logrus.WithError(err).Error("error sending interview notification")
		}
	} else {
		if _, err := h.notificationService.NotifyApplicationStatus(ctx, application.ApplicantID, recruiterID, recruiterName, jobTitle, req.Status, application.JobID, applicationID); err != nil {
			logrus.WithError(err).Error("error sending status notification")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Application status updated",
	})
}

// Withdraw lets the applicant pull back a pending application.
// Method: POST /api/applications/:id/withdraw (student only)
func (h *ApplicationsHandler) Withdraw(c *gin.Context) {
	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid application ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	applicantID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var application models.Application
	err = h.applicationCollection.FindOne(ctx, bson.M{
		"_id":          applicationID,
		"applicant_id": applicantID,
	}).Decode(&application)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found",
		})
		return
	}

	if !application.CanTransitionTo(models.ApplicationStatusWithdrawn) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Application can no longer be withdrawn",
		})
		return
	}

	now := time.Now()
	_, err = h.applicationCollection.UpdateOne(ctx, bson.M{"_id": applicationID}, bson.M{
		"$set": bson.M{
			"status":     models.ApplicationStatusWithdrawn,
			"updated_at": now,
		},
		"$push": bson.M{"status_history": models.StatusChange{
			Status:    models.ApplicationStatusWithdrawn,
			ChangedBy: applicantID,
			ChangedAt: now,
		}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error withdrawing application",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Application withdrawn",
	})
}
