package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

var (
	_ ports.AuthRepository       = (*MockAuthRepository)(nil)
	_ ports.ManagerRepository    = (*MockManagerRepository)(nil)
	_ ports.AuditorRepository    = (*MockAuditorRepository)(nil)
	_ ports.CounsellorRepository = (*MockCounsellorRepository)(nil)
)

// MockAuthRepository mocks ports.AuthRepository.
type MockAuthRepository struct{ mock.Mock }

// NewMockAuthRepository creates a MockAuthRepository bound to t.
func NewMockAuthRepository(t *testing.T) *MockAuthRepository {
	m := &MockAuthRepository{}
	register(t, &m.Mock)

	return m
}

func (m *MockAuthRepository) ManagerByEmail(ctx context.Context, email string) (*domain.Manager, error) {
	args := m.Called(ctx, email)

	return ret[*domain.Manager](args, 0), args.Error(1)
}

func (m *MockAuthRepository) ManagerByID(ctx context.Context, id string) (*domain.Manager, error) {
	args := m.Called(ctx, id)

	return ret[*domain.Manager](args, 0), args.Error(1)
}

func (m *MockAuthRepository) AuditorByEmail(ctx context.Context, email string) (*domain.Auditor, error) {
	args := m.Called(ctx, email)

	return ret[*domain.Auditor](args, 0), args.Error(1)
}

func (m *MockAuthRepository) AuditorByID(ctx context.Context, id string) (*domain.Auditor, error) {
	args := m.Called(ctx, id)

	return ret[*domain.Auditor](args, 0), args.Error(1)
}

// MockStaffWriter mocks ports.StaffWriter. It is embedded by the feature
// repository mocks.
type MockStaffWriter struct{ mock.Mock }

func (m *MockStaffWriter) CreateManager(ctx context.Context, mgr *domain.Manager) error {
	return m.Called(ctx, mgr).Error(0)
}

func (m *MockStaffWriter) CreateAuditor(ctx context.Context, a *domain.Auditor) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStaffWriter) CreateCounsellor(ctx context.Context, c *domain.Counsellor) error {
	return m.Called(ctx, c).Error(0)
}

// MockManagerRepository mocks ports.ManagerRepository.
type MockManagerRepository struct{ MockStaffWriter }

// NewMockManagerRepository creates a MockManagerRepository bound to t.
func NewMockManagerRepository(t *testing.T) *MockManagerRepository {
	m := &MockManagerRepository{}
	register(t, &m.Mock)

	return m
}

func (m *MockManagerRepository) AuditorOfManager(ctx context.Context, managerID, auditorID string) (*domain.Auditor, error) {
	args := m.Called(ctx, managerID, auditorID)

	return ret[*domain.Auditor](args, 0), args.Error(1)
}

func (m *MockManagerRepository) SetAuditorActive(ctx context.Context, auditorID string, active bool) error {
	return m.Called(ctx, auditorID, active).Error(0)
}

func (m *MockManagerRepository) SetCounsellorActive(ctx context.Context, counsellorID string, active bool) error {
	return m.Called(ctx, counsellorID, active).Error(0)
}

func (m *MockManagerRepository) CountCalls(ctx context.Context, managerID string) (int, error) {
	args := m.Called(ctx, managerID)

	return args.Int(0), args.Error(1)
}

func (m *MockManagerRepository) CountAuditReports(ctx context.Context, managerID string) (int, error) {
	args := m.Called(ctx, managerID)

	return args.Int(0), args.Error(1)
}

func (m *MockManagerRepository) CountFlaggedCalls(ctx context.Context, managerID string) (int, error) {
	args := m.Called(ctx, managerID)

	return args.Int(0), args.Error(1)
}

func (m *MockManagerRepository) AuditedCallsByDay(ctx context.Context, managerID string, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, managerID, since)

	return ret[map[string]int](args, 0), args.Error(1)
}

func (m *MockManagerRepository) AuditorStats(ctx context.Context, managerID string) ([]domain.AuditorStats, error) {
	args := m.Called(ctx, managerID)

	return ret[[]domain.AuditorStats](args, 0), args.Error(1)
}

func (m *MockManagerRepository) CountAuditedCallsOfAuditors(ctx context.Context, managerID string) (int, error) {
	args := m.Called(ctx, managerID)

	return args.Int(0), args.Error(1)
}

func (m *MockManagerRepository) CounsellorStats(ctx context.Context, managerID string) ([]domain.CounsellorStats, error) {
	args := m.Called(ctx, managerID)

	return ret[[]domain.CounsellorStats](args, 0), args.Error(1)
}

func (m *MockManagerRepository) FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error) {
	args := m.Called(ctx, managerID)

	return ret[[]domain.FlaggedAudit](args, 0), args.Error(1)
}

func (m *MockManagerRepository) UnflagAudit(ctx context.Context, auditID string) error {
	return m.Called(ctx, auditID).Error(0)
}

// MockAuditorRepository mocks ports.AuditorRepository.
type MockAuditorRepository struct{ MockStaffWriter }

// NewMockAuditorRepository creates a MockAuditorRepository bound to t.
func NewMockAuditorRepository(t *testing.T) *MockAuditorRepository {
	m := &MockAuditorRepository{}
	register(t, &m.Mock)

	return m
}

func (m *MockAuditorRepository) CallStats(ctx context.Context, auditorID string) (domain.CallStats, error) {
	args := m.Called(ctx, auditorID)

	return ret[domain.CallStats](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) LatestAuditedCalls(ctx context.Context, auditorID string) ([]domain.RecentCall, error) {
	args := m.Called(ctx, auditorID)

	return ret[[]domain.RecentCall](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) ReportsByDay(ctx context.Context, auditorID string, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, auditorID, since)

	return ret[map[string]int](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) ReviewCalls(ctx context.Context, auditorID string) ([]domain.ReviewCall, error) {
	args := m.Called(ctx, auditorID)

	return ret[[]domain.ReviewCall](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) ApproveAudit(ctx context.Context, approval domain.AuditApproval) (*domain.AuditReport, error) {
	args := m.Called(ctx, approval)

	return ret[*domain.AuditReport](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error) {
	args := m.Called(ctx, auditorID)

	return ret[[]domain.FlaggedAudit](args, 0), args.Error(1)
}

func (m *MockAuditorRepository) UnflagAudit(ctx context.Context, auditorID, auditID string) error {
	return m.Called(ctx, auditorID, auditID).Error(0)
}

// MockCounsellorRepository mocks ports.CounsellorRepository.
type MockCounsellorRepository struct{ MockStaffWriter }

// NewMockCounsellorRepository creates a MockCounsellorRepository bound to t.
func NewMockCounsellorRepository(t *testing.T) *MockCounsellorRepository {
	m := &MockCounsellorRepository{}
	register(t, &m.Mock)

	return m
}

func (m *MockCounsellorRepository) CreateCall(ctx context.Context, call domain.NewCall) (*domain.Call, error) {
	args := m.Called(ctx, call)

	return ret[*domain.Call](args, 0), args.Error(1)
}

func (m *MockCounsellorRepository) CallByID(ctx context.Context, id string) (*domain.Call, error) {
	args := m.Called(ctx, id)

	return ret[*domain.Call](args, 0), args.Error(1)
}

func (m *MockCounsellorRepository) SetRecordingURL(ctx context.Context, callID, url string) error {
	return m.Called(ctx, callID, url).Error(0)
}

func (m *MockCounsellorRepository) SaveAnalysis(ctx context.Context, analysis *domain.CallAnalysis) error {
	return m.Called(ctx, analysis).Error(0)
}
