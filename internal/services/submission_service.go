package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	submissionCreatedMessage = "submission received, pending review"
)

var (
	ErrTitleContentRequired = apperr.BadRequest("title and content are required")
	ErrSubmissionNotFound   = apperr.NotFound("submission not found")
	ErrSubmissionForbidden  = apperr.Forbidden("no permission to view this record")
)

type SubmissionService struct {
	submissions SubmissionStore
	accounts    AccountDirectory
	maxPageSize int
}

func NewSubmissionService(submissions SubmissionStore, accounts AccountDirectory, maxPageSize int) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		accounts:    accounts,
		maxPageSize: maxPageSize,
	}
}

func (s *SubmissionService) Create(ctx context.Context, caller *models.Account, req *dto.CreateSubmissionRequest) (*dto.CreateSubmissionResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, ErrTitleContentRequired
	}

	images := make(datatypes.JSONSlice[string], 0, len(req.ImageURLs))
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}

	submission := &models.Submission{
		StudentID: caller.ID,
		Title:     title,
		Content:   content,
		ImageURLs: images,
		Points:    0,
		Status:    models.StatusPending,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, apperr.Internal("failed to create submission", err)
	}

	return &dto.CreateSubmissionResponse{
		Message:    submissionCreatedMessage,
		Submission: submission,
	}, nil
}

// NormalizePage applies defaults to page and size values below 1, caps size
// at the configured maximum and caps page so (page-1)*size cannot overflow.
func (s *SubmissionService) NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if s.maxPageSize > 0 && size > s.maxPageSize {
		size = s.maxPageSize
	}
	if maxPage := math.MaxInt/size + 1; page > maxPage {
		page = maxPage
	}
	return page, size
}

// ListMine returns the caller's own submissions, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, caller *models.Account, page, size int) (*dto.SubmissionListResponse, error) {
	page, size = s.NormalizePage(page, size)
	offset := (page - 1) * size

	var (
		submissions []models.Submission
		total       int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		submissions, err = s.submissions.ListByStudent(gctx, caller.ID, size, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.submissions.CountByStudent(gctx, caller.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("failed to list submissions", err)
	}

	if submissions == nil {
		submissions = []models.Submission{}
	}
	return &dto.SubmissionListResponse{
		Submissions: submissions,
		Pagination: dto.Pagination{
			Current: page,
			Size:    size,
			Total:   total,
		},
	}, nil
}

// Detail returns one submission with its student and reviewer expanded. Only
// the owning student or a parent may read it.
func (s *SubmissionService) Detail(ctx context.Context, caller *models.Account, rawID string) (*dto.SubmissionDetailResponse, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrSubmissionNotFound
	}

	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, apperr.Internal("failed to load submission", err)
	}

	if submission.StudentID != caller.ID && !caller.HasRole(models.RoleParent) {
		return nil, ErrSubmissionForbidden
	}

	ids := []uuid.UUID{submission.StudentID}
	if submission.ReviewerID != nil {
		ids = append(ids, *submission.ReviewerID)
	}
	people, err := s.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load submission accounts", err)
	}

	resp := &dto.SubmissionDetailResponse{
		Submission: *submission,
		Student:    summarize(submission.StudentID, people),
	}
	if submission.ReviewerID != nil {
		reviewer := summarize(*submission.ReviewerID, people)
		resp.Reviewer = &reviewer
	}
	return resp, nil
}

func summarize(id uuid.UUID, people map[uuid.UUID]models.Account) dto.AccountSummary {
	summary := dto.AccountSummary{ID: id}
	if a, ok := people[id]; ok {
		summary.Name = a.Name
	}
	return summary
}
