package dto

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/google/uuid"
)

// CreateSubmissionRequest carries only client-controlled fields. Owner, status
// and points are never read from the body.
type CreateSubmissionRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls"`
}

type CreateSubmissionResponse struct {
	Message    string             `json:"message"`
	Submission *models.Submission `json:"submission"`
}

type Pagination struct {
	Current int   `json:"current"`
	Size    int   `json:"size"`
	Total   int64 `json:"total"`
}

type SubmissionListResponse struct {
	Submissions []models.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// AccountSummary is the public view of an account referenced by a submission.
type AccountSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SubmissionDetailResponse struct {
	models.Submission
	Student  AccountSummary  `json:"student"`
	Reviewer *AccountSummary `json:"reviewer"`
}
