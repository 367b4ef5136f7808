package repository

import (
	"context"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if submission.ImageURLs == nil {
		submission.ImageURLs = datatypes.JSONSlice[string]{}
	}
	return mapError(r.db.WithContext(ctx).Create(submission).Error)
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &submission, nil
}

// ListByStudent returns one page of a student's submissions, newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	submissions := make([]models.Submission, 0, limit)
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error
	if err != nil {
		return nil, mapError(err)
	}
	return submissions, nil
}

func (r *SubmissionRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ?", studentID).
		Count(&total).Error
	return total, mapError(err)
}
