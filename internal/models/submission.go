package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a review may move s to next. Reviews only
// ever leave pending.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// Submission is a student's claim for points, waiting on a parent review.
type Submission struct {
	ID            uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StudentID     uuid.UUID                   `gorm:"type:uuid;not null;index:idx_submissions_student_created,priority:1" json:"studentId"`
	Title         string                      `gorm:"type:text;not null" json:"title"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	ImageURLs     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"imageUrls"`
	Points        int                         `gorm:"not null;default:0" json:"points"`
	Status        SubmissionStatus            `gorm:"size:20;not null;default:'pending';index:idx_submissions_status_created,priority:1" json:"status"`
	ReviewerID    *uuid.UUID                  `gorm:"type:uuid;index" json:"reviewerId"`
	ReviewComment *string                     `gorm:"size:1000" json:"reviewComment"`
	ReviewedAt    *time.Time                  `json:"reviewedAt"`
	CreatedAt     time.Time                   `gorm:"not null;index:idx_submissions_student_created,priority:2,sort:desc;index:idx_submissions_status_created,priority:2,sort:desc" json:"createdAt"`
}
