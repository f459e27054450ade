package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const managerComponent = "app.manager"

// StaffRequest asks a manager to add an auditor or a counsellor.
type StaffRequest struct {
	Role string
	domain.NewStaff

	// AuditorID is required for counsellors.
	AuditorID string
}

// AddedStaff is the outcome of StaffRequest. Password is the generated
// plaintext for auditors and empty for counsellors.
type AddedStaff struct {
	ID       string
	Role     domain.Role
	Password string
}

// ActivationRequest names the staff member to (de)activate.
type ActivationRequest struct {
	Role         string
	AuditorID    string
	CounsellorID string
}

// ManagerService implements the manager's use cases.
type ManagerService struct {
	repo      ports.ManagerRepository
	hasher    ports.PasswordHasher
	passwords ports.PasswordGenerator
	now       func() time.Time
}

// NewManagerService creates the manager service.
func NewManagerService(
	repo ports.ManagerRepository,
	hasher ports.PasswordHasher,
	passwords ports.PasswordGenerator,
	cfg *ServiceConfig,
) *ManagerService {
	return &ManagerService{
		repo:      repo,
		hasher:    hasher,
		passwords: passwords,
		now:       cfg.clock(),
	}
}

// Dashboard gathers the manager's counters, flagged audits and seven-day
// history concurrently.
func (s *ManagerService) Dashboard(ctx context.Context, managerID string) (*domain.ManagerDashboard, error) {
	now := s.now()

	counts, flagged, byDay, err := Parallel3(ctx,
		func(ctx context.Context) ([]int, error) {
			return Parallel(ctx,
				func(ctx context.Context) (int, error) { return s.repo.CountCalls(ctx, managerID) },
				func(ctx context.Context) (int, error) { return s.repo.CountAuditReports(ctx, managerID) },
				func(ctx context.Context) (int, error) { return s.repo.CountFlaggedCalls(ctx, managerID) },
			)
		},
		func(ctx context.Context) ([]domain.FlaggedAudit, error) {
			return s.repo.FlaggedAudits(ctx, managerID)
		},
		func(ctx context.Context) (map[string]int, error) {
			return s.repo.AuditedCallsByDay(ctx, managerID, domain.WindowStart(now, domain.DashboardWindow))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("building manager dashboard: %w", err)
	}

	return &domain.ManagerDashboard{
		TotalAssignedLeads: counts[0],
		TotalAuditedCalls:  counts[1],
		FlaggedCalls:       counts[2],
		LatestFlagged:      flagged,
		LastDays:           domain.LastNDays(now, domain.DashboardWindow, byDay),
	}, nil
}

// FlaggedAudits lists the manager's flagged audit reports.
func (s *ManagerService) FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error) {
	audits, err := s.repo.FlaggedAudits(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("listing flagged audits: %w", err)
	}

	return audits, nil
}

// Auditors lists the manager's auditors with their workload.
func (s *ManagerService) Auditors(ctx context.Context, managerID string) (*domain.AuditorOverview, error) {
	stats, audited, err := Parallel2(ctx,
		func(ctx context.Context) ([]domain.AuditorStats, error) { return s.repo.AuditorStats(ctx, managerID) },
		func(ctx context.Context) (int, error) { return s.repo.CountAuditedCallsOfAuditors(ctx, managerID) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing auditors: %w", err)
	}

	return &domain.AuditorOverview{Auditors: stats, TotalAuditedCalls: audited}, nil
}

// Counsellors lists the manager's counsellors with their call counts.
func (s *ManagerService) Counsellors(ctx context.Context, managerID string) (*domain.CounsellorOverview, error) {
	stats, calls, err := Parallel2(ctx,
		func(ctx context.Context) ([]domain.CounsellorStats, error) { return s.repo.CounsellorStats(ctx, managerID) },
		func(ctx context.Context) (int, error) { return s.repo.CountCalls(ctx, managerID) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing counsellors: %w", err)
	}

	return &domain.CounsellorOverview{Counsellors: stats, TotalCallsMade: calls}, nil
}

// AddStaff creates an auditor with a generated password, or a counsellor
// under one of the manager's auditors.
func (s *ManagerService) AddStaff(ctx context.Context, managerID string, req StaffRequest) (*AddedStaff, error) {
	logger := requestLogger(ctx, managerComponent)

	role, ok := domain.ParseRole(req.Role)
	if !ok || role == domain.RoleManager {
		return nil, domain.NewValidationErrorWithValue("", "Invalid role, must be auditor or counsellor", req.Role)
	}

	if err := req.NewStaff.Validate(); err != nil {
		return nil, err
	}

	var (
		added *AddedStaff
		err   error
	)

	if role == domain.RoleAuditor {
		added, err = s.addAuditor(ctx, managerID, req.NewStaff)
	} else {
		added, err = s.addCounsellor(ctx, managerID, req)
	}

	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "staff member added",
		slog.String("role", string(added.Role)),
		slog.String("id", added.ID),
		slog.String("manager_id", managerID),
	)

	return added, nil
}

func (s *ManagerService) addAuditor(ctx context.Context, managerID string, staff domain.NewStaff) (*AddedStaff, error) {
	password, err := s.passwords.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating password: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	a := &domain.Auditor{
		ManagerID:    managerID,
		Name:         strings.TrimSpace(staff.Name),
		Email:        strings.TrimSpace(staff.Email),
		Phone:        staff.Phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateAuditor(ctx, a); err != nil {
		return nil, err
	}

	return &AddedStaff{ID: a.ID, Role: domain.RoleAuditor, Password: password}, nil
}

func (s *ManagerService) addCounsellor(ctx context.Context, managerID string, req StaffRequest) (*AddedStaff, error) {
	if strings.TrimSpace(req.AuditorID) == "" {
		return nil, domain.NewValidationError("auditor_id", "is required for counsellors")
	}

	if _, err := s.repo.AuditorOfManager(ctx, managerID, req.AuditorID); err != nil {
		return nil, err
	}

	c := &domain.Counsellor{
		AuditorID: req.AuditorID,
		ManagerID: managerID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		IsActive:  true,
	}
	if err := s.repo.CreateCounsellor(ctx, c); err != nil {
		return nil, err
	}

	return &AddedStaff{ID: c.ID, Role: domain.RoleCounsellor}, nil
}

// SetActive activates or deactivates an auditor or counsellor and returns
// the id it changed.
func (s *ManagerService) SetActive(ctx context.Context, req ActivationRequest, active bool) (domain.Role, string, error) {
	role, ok := domain.ParseRole(req.Role)
	if !ok || role == domain.RoleManager {
		return "", "", domain.NewValidationErrorWithValue("", "Invalid role, must be auditor or counsellor", req.Role)
	}

	var (
		id  string
		err error
	)

	switch role {
	case domain.RoleAuditor:
		id = strings.TrimSpace(req.AuditorID)
		if id == "" {
			return "", "", domain.NewValidationError("auditor_id", "is required")
		}

		err = s.repo.SetAuditorActive(ctx, id, active)
	default:
		id = strings.TrimSpace(req.CounsellorID)
		if id == "" {
			return "", "", domain.NewValidationError("counsellor_id", "is required")
		}

		err = s.repo.SetCounsellorActive(ctx, id, active)
	}

	if err != nil {
		return "", "", err
	}

	requestLogger(ctx, managerComponent).InfoContext(ctx, "staff activation changed",
		slog.String("role", string(role)),
		slog.String("id", id),
		slog.Bool("active", active),
	)

	return role, id, nil
}

// Unflag clears the flag of an audit report and its call.
func (s *ManagerService) Unflag(ctx context.Context, auditID string) error {
	if strings.TrimSpace(auditID) == "" {
		return domain.NewValidationError("audit_id", "is required")
	}

	if err := s.repo.UnflagAudit(ctx, auditID); err != nil {
		return err
	}

	requestLogger(ctx, managerComponent).InfoContext(ctx, "audit unflagged", slog.String("audit_id", auditID))

	return nil
}

// CreateManager registers a new manager account.
func (s *ManagerService) CreateManager(ctx context.Context, staff domain.NewStaff) (*domain.Manager, error) {
	if err := staff.Validate(); err != nil {
		return nil, err
	}

	if staff.Password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}

	hash, err := s.hasher.Hash(staff.Password)
	if err != nil {
		return nil, err
	}

	m := &domain.Manager{
		Name:         strings.TrimSpace(staff.Name),
		Email:        strings.TrimSpace(staff.Email),
		Phone:        staff.Phone,
		PasswordHash: hash,
	}
	if err := s.repo.CreateManager(ctx, m); err != nil {
		return nil, err
	}

	requestLogger(ctx, managerComponent).InfoContext(ctx, "manager created", slog.String("manager_id", m.ID))

	return m, nil
}
