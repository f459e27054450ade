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

const auditorComponent = "app.auditor"

// ApprovalRequest is an auditor's verdict as submitted. Empty comments and
// reasons leave an existing report untouched.
type ApprovalRequest struct {
	CallID      string
	Comments    string
	Flag        string
	FlagReasons string
}

// AuditorService implements the auditor's use cases.
type AuditorService struct {
	repo   ports.AuditorRepository
	hasher ports.PasswordHasher
	now    func() time.Time
}

// NewAuditorService creates the auditor service.
func NewAuditorService(repo ports.AuditorRepository, hasher ports.PasswordHasher, cfg *ServiceConfig) *AuditorService {
	return &AuditorService{repo: repo, hasher: hasher, now: cfg.clock()}
}

// Dashboard gathers the auditor's call counters, latest audits and
// seven-day history concurrently.
func (s *AuditorService) Dashboard(ctx context.Context, auditorID string) (*domain.AuditorDashboard, error) {
	now := s.now()

	stats, latest, byDay, err := Parallel3(ctx,
		func(ctx context.Context) (domain.CallStats, error) { return s.repo.CallStats(ctx, auditorID) },
		func(ctx context.Context) ([]domain.RecentCall, error) { return s.repo.LatestAuditedCalls(ctx, auditorID) },
		func(ctx context.Context) (map[string]int, error) {
			return s.repo.ReportsByDay(ctx, auditorID, domain.WindowStart(now, domain.DashboardWindow))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("building auditor dashboard: %w", err)
	}

	return &domain.AuditorDashboard{
		Stats:       stats,
		LatestCalls: latest,
		LastDays:    domain.LastNDays(now, domain.DashboardWindow, byDay),
	}, nil
}

// ReviewQueue lists the auditor's calls, least confident analysis first.
func (s *AuditorService) ReviewQueue(ctx context.Context, auditorID string) (*domain.ReviewQueue, error) {
	calls, stats, err := Parallel2(ctx,
		func(ctx context.Context) ([]domain.ReviewCall, error) { return s.repo.ReviewCalls(ctx, auditorID) },
		func(ctx context.Context) (domain.CallStats, error) { return s.repo.CallStats(ctx, auditorID) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing calls for review: %w", err)
	}

	return &domain.ReviewQueue{Calls: calls, Stats: stats}, nil
}

// ApproveAudit marks a call audited and records the auditor's report.
func (s *AuditorService) ApproveAudit(ctx context.Context, auditorID string, req ApprovalRequest) (*domain.AuditReport, error) {
	flag, err := domain.ParseCallFlag(req.Flag)
	if err != nil {
		return nil, err
	}

	approval := domain.AuditApproval{
		CallID:     strings.TrimSpace(req.CallID),
		AuditorID:  auditorID,
		Comments:   nonEmpty(req.Comments),
		Flag:       flag,
		FlagReason: nonEmpty(req.FlagReasons),
	}

	if err := approval.Validate(); err != nil {
		return nil, err
	}

	report, err := s.repo.ApproveAudit(ctx, approval)
	if err != nil {
		return nil, err
	}

	requestLogger(ctx, auditorComponent).InfoContext(ctx, "audit approved",
		slog.String("call_id", approval.CallID),
		slog.String("audit_id", report.ID),
		slog.String("flag", string(report.Flag)),
	)

	return report, nil
}

// Unflag clears the flag of one of the auditor's reports and its call.
func (s *AuditorService) Unflag(ctx context.Context, auditorID, auditID string) error {
	if strings.TrimSpace(auditID) == "" {
		return domain.NewValidationError("audit_id", "is required")
	}

	if err := s.repo.UnflagAudit(ctx, auditorID, auditID); err != nil {
		return err
	}

	requestLogger(ctx, auditorComponent).InfoContext(ctx, "audit unflagged", slog.String("audit_id", auditID))

	return nil
}

// FlaggedAudits lists the auditor's flagged reports.
func (s *AuditorService) FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error) {
	audits, err := s.repo.FlaggedAudits(ctx, auditorID)
	if err != nil {
		return nil, fmt.Errorf("listing flagged audits: %w", err)
	}

	return audits, nil
}

// CreateAuditor registers an auditor under an existing manager.
func (s *AuditorService) CreateAuditor(ctx context.Context, managerID string, staff domain.NewStaff) (*domain.Auditor, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, domain.NewValidationError("manager_id", "is required")
	}

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

	a := &domain.Auditor{
		ManagerID:    strings.TrimSpace(managerID),
		Name:         strings.TrimSpace(staff.Name),
		Email:        strings.TrimSpace(staff.Email),
		Phone:        staff.Phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateAuditor(ctx, a); err != nil {
		return nil, err
	}

	requestLogger(ctx, auditorComponent).InfoContext(ctx, "auditor created",
		slog.String("auditor_id", a.ID),
		slog.String("manager_id", a.ManagerID),
	)

	return a, nil
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return &s
}
