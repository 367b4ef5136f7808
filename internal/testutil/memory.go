// Package testutil provides in-memory stores that behave like the Postgres
// repositories, including the unique openid constraint.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AccountStore struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]models.Account
	byOpenID map[string]uuid.UUID

	// Err, when set, is returned by every call.
	Err error
	// BeforeCreate runs inside Create before the uniqueness check, outside the lock.
	BeforeCreate func(account *models.Account)
	// Creates counts successful inserts.
	Creates int
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:     make(map[uuid.UUID]models.Account),
		byOpenID: make(map[string]uuid.UUID),
	}
}

// Seed inserts account directly and returns the stored copy.
func (s *AccountStore) Seed(account models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.byID[account.ID] = account
	s.byOpenID[account.OpenID] = account.ID
	return &account
}

func (s *AccountStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) FindByOpenID(_ context.Context, openID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byOpenID[openID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := s.byID[id]
	return &a, nil
}

func (s *AccountStore) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make(map[uuid.UUID]models.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			result[id] = a
		}
	}
	return result, nil
}

func (s *AccountStore) Create(_ context.Context, account *models.Account) error {
	if s.BeforeCreate != nil {
		s.BeforeCreate(account)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, taken := s.byOpenID[account.OpenID]; taken {
		return errors.Join(repository.ErrDuplicateKey, errors.New("open_id already exists"))
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	s.byID[account.ID] = *account
	s.byOpenID[account.OpenID] = account.ID
	s.Creates++
	return nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type SubmissionStore struct {
	mu   sync.Mutex
	rows []models.Submission

	Err error
	// Now stamps CreatedAt on insert; defaults to time.Now.
	Now func() time.Time
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{}
}

func (s *SubmissionStore) Create(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if submission.ImageURLs == nil {
		submission.ImageURLs = datatypes.JSONSlice[string]{}
	}
	if submission.Status == "" {
		submission.Status = models.StatusPending
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	submission.CreatedAt = now().UTC()
	s.rows = append(s.rows, *submission)
	return nil
}

// Seed inserts submission as-is, keeping its CreatedAt.
func (s *SubmissionStore) Seed(submission models.Submission) *models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if submission.Status == "" {
		submission.Status = models.StatusPending
	}
	s.rows = append(s.rows, submission)
	return &submission
}

func (s *SubmissionStore) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, row := range s.rows {
		if row.ID == id {
			found := row
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *SubmissionStore) ListByStudent(_ context.Context, studentID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var mine []models.Submission
	for _, row := range s.rows {
		if row.StudentID == studentID {
			mine = append(mine, row)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(mine) {
		return []models.Submission{}, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], nil
}

func (s *SubmissionStore) CountByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var total int64
	for _, row := range s.rows {
		if row.StudentID == studentID {
			total++
		}
	}
	return total, nil
}
