package services

import (
	"context"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/google/uuid"
)

// AccountDirectory is the persistent account store. Implementations return
// repository.ErrNotFound for missing rows and an error matching
// repository.ErrDuplicateKey when an openid is already taken.
type AccountDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByOpenID(ctx context.Context, openID string) (*models.Account, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// SubmissionStore is the persistent submission store.
type SubmissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]models.Submission, error)
	CountByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)
}
