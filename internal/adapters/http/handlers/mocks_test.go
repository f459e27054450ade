package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const (
	testManagerID = "5b0f3c1e-2d4a-4c55-9a4e-7d8f7a1c2b01"
	testAuditorID = "8c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e02"
	testCallID    = "1f2e3d4c-5b6a-4978-8a6b-5c4d3e2f1a03"
	testAuditID   = "2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c04"
	testCounsID   = "3b4c5d6e-7f8a-4b9c-8d0e-1f2a3b4c5d05"
)

var (
	testManager = &domain.CurrentUser{ID: testManagerID, Name: "Meera", Email: "meera@example.com", Role: domain.RoleManager}
	testAuditor = &domain.CurrentUser{
		ID: testAuditorID, Name: "Arjun", Email: "arjun@example.com", Role: domain.RoleAuditor,
		ManagerID: testManagerID, ManagerName: "Meera",
	}
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, creds app.Credentials) (*app.Session, error) {
	args := m.Called(ctx, creds)
	s, _ := args.Get(0).(*app.Session)

	return s, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, claims *ports.AccessClaims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*app.Session, error) {
	args := m.Called(ctx, refreshToken)
	s, _ := args.Get(0).(*app.Session)

	return s, args.Error(1)
}

type mockManagerService struct{ mock.Mock }

func (m *mockManagerService) Dashboard(ctx context.Context, managerID string) (*domain.ManagerDashboard, error) {
	args := m.Called(ctx, managerID)
	d, _ := args.Get(0).(*domain.ManagerDashboard)

	return d, args.Error(1)
}

func (m *mockManagerService) FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error) {
	args := m.Called(ctx, managerID)
	a, _ := args.Get(0).([]domain.FlaggedAudit)

	return a, args.Error(1)
}

func (m *mockManagerService) Auditors(ctx context.Context, managerID string) (*domain.AuditorOverview, error) {
	args := m.Called(ctx, managerID)
	o, _ := args.Get(0).(*domain.AuditorOverview)

	return o, args.Error(1)
}

func (m *mockManagerService) Counsellors(ctx context.Context, managerID string) (*domain.CounsellorOverview, error) {
	args := m.Called(ctx, managerID)
	o, _ := args.Get(0).(*domain.CounsellorOverview)

	return o, args.Error(1)
}

func (m *mockManagerService) AddStaff(ctx context.Context, managerID string, req app.StaffRequest) (*app.AddedStaff, error) {
	args := m.Called(ctx, managerID, req)
	a, _ := args.Get(0).(*app.AddedStaff)

	return a, args.Error(1)
}

func (m *mockManagerService) SetActive(ctx context.Context, req app.ActivationRequest, active bool) (domain.Role, string, error) {
	args := m.Called(ctx, req, active)
	role, _ := args.Get(0).(domain.Role)

	return role, args.String(1), args.Error(2)
}

func (m *mockManagerService) Unflag(ctx context.Context, auditID string) error {
	return m.Called(ctx, auditID).Error(0)
}

func (m *mockManagerService) CreateManager(ctx context.Context, staff domain.NewStaff) (*domain.Manager, error) {
	args := m.Called(ctx, staff)
	mg, _ := args.Get(0).(*domain.Manager)

	return mg, args.Error(1)
}

type mockAuditorService struct{ mock.Mock }

func (m *mockAuditorService) Dashboard(ctx context.Context, auditorID string) (*domain.AuditorDashboard, error) {
	args := m.Called(ctx, auditorID)
	d, _ := args.Get(0).(*domain.AuditorDashboard)

	return d, args.Error(1)
}

func (m *mockAuditorService) ReviewQueue(ctx context.Context, auditorID string) (*domain.ReviewQueue, error) {
	args := m.Called(ctx, auditorID)
	q, _ := args.Get(0).(*domain.ReviewQueue)

	return q, args.Error(1)
}

func (m *mockAuditorService) ApproveAudit(ctx context.Context, auditorID string, req app.ApprovalRequest) (*domain.AuditReport, error) {
	args := m.Called(ctx, auditorID, req)
	r, _ := args.Get(0).(*domain.AuditReport)

	return r, args.Error(1)
}

func (m *mockAuditorService) Unflag(ctx context.Context, auditorID, auditID string) error {
	return m.Called(ctx, auditorID, auditID).Error(0)
}

func (m *mockAuditorService) FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error) {
	args := m.Called(ctx, auditorID)
	a, _ := args.Get(0).([]domain.FlaggedAudit)

	return a, args.Error(1)
}

func (m *mockAuditorService) CreateAuditor(ctx context.Context, managerID string, staff domain.NewStaff) (*domain.Auditor, error) {
	args := m.Called(ctx, managerID, staff)
	a, _ := args.Get(0).(*domain.Auditor)

	return a, args.Error(1)
}

type mockCounsellorService struct{ mock.Mock }

func (m *mockCounsellorService) UploadRecording(ctx context.Context, rec app.Recording) (*domain.Call, error) {
	args := m.Called(ctx, rec)
	c, _ := args.Get(0).(*domain.Call)

	return c, args.Error(1)
}

func (m *mockCounsellorService) CreateCounsellor(ctx context.Context, req app.NewCounsellor) (*domain.Counsellor, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*domain.Counsellor)

	return c, args.Error(1)
}

// asUser stands in for RequireAuth, authenticating every request as user.
func asUser(user *domain.CurrentUser) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, user)
		c.Set(middleware.ContextKeyClaims, &ports.AccessClaims{UserID: user.ID, Email: user.Email, Role: user.Role})
		c.Next()
	}
}

func newTestRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	router := gin.New()
	register(router.Group("/api/v1"))

	return router
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}
