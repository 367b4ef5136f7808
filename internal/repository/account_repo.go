package repository

import (
	"context"
	"fmt"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByOpenID(ctx context.Context, openID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("open_id = ?", openID).First(&account).Error; err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// FindByIDs returns the accounts that exist among ids, keyed by id.
func (r *AccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Account, error) {
	result := make(map[uuid.UUID]models.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var accounts []models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, a := range accounts {
		result[a.ID] = a
	}
	return result, nil
}

// Create inserts account. A concurrent insert of the same openid yields an
// error matching ErrDuplicateKey.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return mapError(r.db.WithContext(ctx).Create(account).Error)
}
