package routes_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/handlers"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/models"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/routes"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/services"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-secret"

type server struct {
	app         *fiber.App
	accounts    *testutil.AccountStore
	submissions *testutil.SubmissionStore
	issuer      *services.TokenIssuer
}

func newServer(t *testing.T, production bool) *server {
	t.Helper()
	accounts := testutil.NewAccountStore()
	submissions := testutil.NewSubmissionStore()
	issuer := services.NewTokenIssuer(testSecret, 30*24*time.Hour)

	authService := services.NewAuthService(accounts, services.MockIdentityProvider{}, issuer)
	submissionService := services.NewSubmissionService(submissions, accounts, 100)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(production)})
	app.Use(requestid.New())
	routes.Setup(app, testSecret, accounts,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(func() error { return nil }, "test"),
		handlers.NewSubmissionHandler(submissionService),
	)

	return &server{app: app, accounts: accounts, submissions: submissions, issuer: issuer}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *server) login(t *testing.T, code string) dto.LoginResponse {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Code: code})
	require.Equal(t, fiber.StatusOK, status, string(raw))

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func (s *server) tokenFor(t *testing.T, account *models.Account) string {
	t.Helper()
	token, _, err := s.issuer.Issue(account.ID)
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func seedRole(s *server, openID, name string, role models.Role) *models.Account {
	return s.accounts.Seed(models.Account{OpenID: openID, Name: name, Role: &role})
}

func TestLogin_SameIdentityResolvesToSameAccount(t *testing.T) {
	s := newServer(t, false)

	first := s.login(t, "abc")
	second := s.login(t, "abc")

	require.NotNil(t, first.User)
	require.NotNil(t, second.User)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEmpty(t, first.Token)
	assert.NotEmpty(t, second.Token)
	assert.True(t, first.ExpiresAt.After(time.Now().Add(29*24*time.Hour)))
	assert.Equal(t, 1, s.accounts.Count())
	assert.Nil(t, first.User.Role)
	assert.Zero(t, first.User.Points)

	// Both tokens resolve to the account through the guard.
	for _, token := range []string{first.Token, second.Token} {
		status, _ := s.do(t, http.MethodGet, "/api/submissions/"+uuid.NewString(), token, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	}
}

func TestLogin_DoesNotExposeOpenID(t *testing.T) {
	s := newServer(t, false)
	status, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Code: "secret-code"})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(raw), "mock-secret-code")
}

func TestLogin_PreservesExistingAccount(t *testing.T) {
	s := newServer(t, false)
	parent := s.accounts.Seed(models.Account{OpenID: "mock-dad", Name: "Dad", Role: rolePtr(models.RoleParent), Points: 30})

	resp := s.login(t, "dad")
	require.NotNil(t, resp.User)
	assert.Equal(t, parent.ID, resp.User.ID)
	assert.Equal(t, 30, resp.User.Points)
	require.NotNil(t, resp.User.Role)
	assert.Equal(t, models.RoleParent, *resp.User.Role)
}

func TestLogin_BadRequests(t *testing.T) {
	s := newServer(t, false)

	status, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	body := decodeError(t, raw)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "code is required", body.Message)

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", "{not json")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", decodeError(t, raw).Message)
}

func TestSubmissions_CreateThenList(t *testing.T) {
	s := newServer(t, false)
	student := seedRole(s, "mock-kid", "Xiaoming", models.RoleStudent)
	token := s.login(t, "kid").Token

	status, raw := s.do(t, http.MethodPost, "/api/submissions", token, map[string]any{
		"title":     "Read",
		"content":   "Read 10 pages",
		"status":    "approved",
		"points":    99,
		"studentId": uuid.NewString(),
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	var created dto.CreateSubmissionResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "submission received, pending review", created.Message)
	require.NotNil(t, created.Submission)
	assert.Equal(t, student.ID, created.Submission.StudentID)
	assert.Equal(t, models.StatusPending, created.Submission.Status)
	assert.Zero(t, created.Submission.Points)

	status, raw = s.do(t, http.MethodGet, "/api/submissions/my", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var list dto.SubmissionListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Submissions, 1)
	assert.Equal(t, "Read", list.Submissions[0].Title)
	assert.Equal(t, models.StatusPending, list.Submissions[0].Status)
	assert.Zero(t, list.Submissions[0].Points)
	assert.Equal(t, dto.Pagination{Current: 1, Size: 10, Total: 1}, list.Pagination)
}

func TestSubmissions_CreateValidation(t *testing.T) {
	s := newServer(t, false)
	student := seedRole(s, "kid", "Xiaoming", models.RoleStudent)

	status, raw := s.do(t, http.MethodPost, "/api/submissions", s.tokenFor(t, student), map[string]any{
		"content":   "Read 10 pages",
		"imageUrls": []string{"https://img/1.png"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "title and content are required", decodeError(t, raw).Message)
}

func TestSubmissions_ListQueryParsing(t *testing.T) {
	s := newServer(t, false)
	student := seedRole(s, "kid", "Xiaoming", models.RoleStudent)
	other := seedRole(s, "kid2", "Xiaohong", models.RoleStudent)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s.submissions.Seed(models.Submission{StudentID: student.ID, Title: "mine", Content: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	s.submissions.Seed(models.Submission{StudentID: other.ID, Title: "theirs", Content: "c", CreatedAt: time.Now()})

	tests := []struct {
		query     string
		wantPage  int
		wantSize  int
		wantCount int
	}{
		{"", 1, 10, 3},
		{"?page=abc&limit=xyz", 1, 10, 3},
		{"?page=0&limit=-5", 1, 10, 3},
		{"?page=2&limit=2", 2, 2, 1},
		{"?limit=1000", 1, 100, 3},
		{"?page=9223372036854775807", math.MaxInt/10 + 1, 10, 0},
	}

	token := s.tokenFor(t, student)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, raw := s.do(t, http.MethodGet, "/api/submissions/my"+tt.query, token, nil)
			require.Equal(t, fiber.StatusOK, status)

			var list dto.SubmissionListResponse
			require.NoError(t, json.Unmarshal(raw, &list))
			assert.Equal(t, tt.wantPage, list.Pagination.Current)
			assert.Equal(t, tt.wantSize, list.Pagination.Size)
			assert.Equal(t, int64(3), list.Pagination.Total)
			assert.Len(t, list.Submissions, tt.wantCount)
			for _, sub := range list.Submissions {
				assert.Equal(t, student.ID, sub.StudentID)
			}
		})
	}
}

func TestSubmissions_StudentOnlyRoutes(t *testing.T) {
	s := newServer(t, false)
	parent := seedRole(s, "dad", "Dad", models.RoleParent)
	token := s.tokenFor(t, parent)

	status, raw := s.do(t, http.MethodGet, "/api/submissions/my", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "no permission to perform this operation", decodeError(t, raw).Message)

	status, _ = s.do(t, http.MethodPost, "/api/submissions", token, map[string]any{"title": "a", "content": "b"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestSubmissions_Detail(t *testing.T) {
	s := newServer(t, false)
	owner := seedRole(s, "kid", "Xiaoming", models.RoleStudent)
	other := seedRole(s, "kid2", "Xiaohong", models.RoleStudent)
	parent := seedRole(s, "dad", "Dad", models.RoleParent)
	sub := s.submissions.Seed(models.Submission{StudentID: owner.ID, Title: "Read", Content: "Read 10 pages", CreatedAt: time.Now()})

	status, raw := s.do(t, http.MethodGet, "/api/submissions/"+sub.ID.String(), s.tokenFor(t, other), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	body := decodeError(t, raw)
	assert.Equal(t, "Forbidden", body.Error)
	assert.Equal(t, "no permission to view this record", body.Message)

	status, raw = s.do(t, http.MethodGet, "/api/submissions/"+sub.ID.String(), s.tokenFor(t, parent), nil)
	require.Equal(t, fiber.StatusOK, status)
	var detail struct {
		ID       uuid.UUID           `json:"id"`
		Title    string              `json:"title"`
		Student  dto.AccountSummary  `json:"student"`
		Reviewer *dto.AccountSummary `json:"reviewer"`
	}
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, sub.ID, detail.ID)
	assert.Equal(t, "Read", detail.Title)
	assert.Equal(t, dto.AccountSummary{ID: owner.ID, Name: "Xiaoming"}, detail.Student)
	assert.Nil(t, detail.Reviewer)

	status, _ = s.do(t, http.MethodGet, "/api/submissions/"+sub.ID.String(), s.tokenFor(t, owner), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, raw = s.do(t, http.MethodGet, "/api/submissions/not-a-uuid", s.tokenFor(t, parent), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "submission not found", decodeError(t, raw).Message)
}

func TestSessionErrors(t *testing.T) {
	s := newServer(t, false)
	student := seedRole(s, "kid", "Xiaoming", models.RoleStudent)
	expired, _, err := s.issuer.WithClock(func() time.Time {
		return time.Now().Add(-31 * 24 * time.Hour)
	}).Issue(student.ID)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		wantMessage string
	}{
		{"no token", "", "please log in"},
		{"garbage token", "garbage", "invalid login state"},
		{"expired token", expired, "login expired, please log in again"},
		{"deleted account", s.tokenFor(t, &models.Account{ID: uuid.New()}), "user does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.do(t, http.MethodGet, "/api/submissions/my", tt.token, nil)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			body := decodeError(t, raw)
			assert.Equal(t, "Unauthorized", body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestNotFound(t *testing.T) {
	s := newServer(t, false)
	status, raw := s.do(t, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, dto.ErrorResponse{
		Error:   "Not Found",
		Message: "Cannot GET /api/nothing",
		Path:    "/api/nothing",
		Method:  "GET",
	}, decodeError(t, raw))
}

func TestServerErrors(t *testing.T) {
	for _, production := range []bool{false, true} {
		s := newServer(t, production)
		student := seedRole(s, "kid", "Xiaoming", models.RoleStudent)
		s.submissions.Err = errors.New("relation submissions does not exist")

		status, raw := s.do(t, http.MethodGet, "/api/submissions/my", s.tokenFor(t, student), nil)
		assert.Equal(t, fiber.StatusInternalServerError, status)
		body := decodeError(t, raw)
		assert.Equal(t, "Internal Server Error", body.Error)
		assert.Equal(t, "/api/submissions/my", body.Path)
		if production {
			assert.Equal(t, "Something went wrong", body.Message)
		} else {
			assert.Contains(t, body.Message, "relation submissions does not exist")
		}
	}
}

func TestIndexAndHealth(t *testing.T) {
	s := newServer(t, false)

	status, raw := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, "test", health.Environment)
	_, err := time.Parse(time.RFC3339, health.Timestamp)
	assert.NoError(t, err)

	status, raw = s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var index dto.IndexResponse
	require.NoError(t, json.Unmarshal(raw, &index))
	assert.Equal(t, "Student Points API", index.Name)
	assert.Equal(t, "/api/auth/login", index.Endpoints["auth"])
}

func rolePtr(r models.Role) *models.Role {
	return &r
}
