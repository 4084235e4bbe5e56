package handlers

import (
	"errors"
	"net/http"

	"elevatr/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AIHandler struct {
	aiService *services.AIService
}

type AnalyzeResumeRequest struct {
	ResumeText     string `json:"resume_text" binding:"required"`
	JobDescription string `json:"job_description" binding:"required"`
}

type InterviewQuestionsRequest struct {
	Role   string   `json:"role" binding:"required"`
	Skills []string `json:"skills"`
}

func NewAIHandler(aiService *services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// AnalyzeResume runs an ATS-style comparison of a resume and a job
// description.
// Method: POST /api/ai/analyze-resume
func (h *AIHandler) AnalyzeResume(c *gin.Context) {
	var req AnalyzeResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	analysis, err := h.aiService.AnalyzeResume(c.Request.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		if errors.Is(err, services.ErrAINotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "AI features are not available",
			})
			return
		}
		logrus.WithError(err).Error("resume analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error analyzing resume",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": analysis,
	})
}

// InterviewQuestions generates practice interview questions.
// Method: POST /api/ai/interview-questions
func (h *AIHandler) InterviewQuestions(c *gin.Context) {
	var req InterviewQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	questions, err := h.aiService.InterviewQuestions(c.Request.Context(), req.Role, req.Skills)
	if err != nil {
		if errors.Is(err, services.ErrAINotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "AI features are not available",
			})
			return
		}
		logrus.WithError(err).Error("interview question generation failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error generating questions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"questions": questions,
	})
}
