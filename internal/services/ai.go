package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"elevatr/internal/config"

	"github.com/go-resty/resty/v2"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var ErrAINotConfigured = errors.New("Gemini API key is not configured")

// AIService wraps the Gemini generateContent API for the resume and
// interview helpers. It is a plain external collaborator: failures here
// never affect anything else in the system.
type AIService struct {
	config *config.Config
	client *resty.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAIService(cfg *config.Config) *AIService {
	client := resty.New().
		SetBaseURL(geminiBaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &AIService{
		config: cfg,
		client: client,
	}
}

func (s *AIService) generate(ctx context.Context, prompt string) (string, error) {
	if s.config.GeminiKey == "" {
		return "", ErrAINotConfigured
	}

	var result geminiResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", s.config.GeminiKey).
		SetBody(geminiRequest{
			Contents: []geminiContent{
				{Parts: []geminiPart{{Text: prompt}}},
			},
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", s.config.GeminiModel))
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("Gemini API error %d: %s", result.Error.Code, result.Error.Message)
		}
		return "", fmt.Errorf("Gemini API request failed with status: %d", resp.StatusCode())
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("Gemini API returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// AnalyzeResume scores a resume against a job description, ATS-style.
func (s *AIService) AnalyzeResume(ctx context.Context, resumeText, jobDescription string) (string, error) {
	prompt := fmt.Sprintf(`You are an ATS (Applicant Tracking System) analyzer.
Compare the following resume against the job description.
Return a match score out of 100, the top matching skills, the missing keywords,
and three concrete suggestions to improve the resume.

Job description:
%s

Resume:
%s`, jobDescription, resumeText)

	return s.generate(ctx, prompt)
}

// InterviewQuestions produces practice questions for a role and skill set.
func (s *AIService) InterviewQuestions(ctx context.Context, role string, skills []string) (string, error) {
	prompt := fmt.Sprintf(`Generate 8 interview questions for a %s position.
Focus on these skills: %s.
Mix technical and behavioral questions, hardest last.`, role, strings.Join(skills, ", "))

	return s.generate(ctx, prompt)
}
