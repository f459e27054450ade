package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// AuthRepository resolves staff members for authentication.
// Lookups return a domain.NotFoundError when no row matches.
type AuthRepository interface {
	ManagerByEmail(ctx context.Context, email string) (*domain.Manager, error)
	ManagerByID(ctx context.Context, id string) (*domain.Manager, error)
	AuditorByEmail(ctx context.Context, email string) (*domain.Auditor, error)
	AuditorByID(ctx context.Context, id string) (*domain.Auditor, error)
}

// StaffWriter creates staff rows. A duplicate email yields a domain.ConflictError.
type StaffWriter interface {
	CreateManager(ctx context.Context, m *domain.Manager) error
	CreateAuditor(ctx context.Context, a *domain.Auditor) error
	CreateCounsellor(ctx context.Context, c *domain.Counsellor) error
}

// ManagerRepository holds the queries behind the manager feature.
type ManagerRepository interface {
	StaffWriter

	// AuditorOfManager returns the auditor only if it reports to managerID.
	AuditorOfManager(ctx context.Context, managerID, auditorID string) (*domain.Auditor, error)

	SetAuditorActive(ctx context.Context, auditorID string, active bool) error
	SetCounsellorActive(ctx context.Context, counsellorID string, active bool) error

	CountCalls(ctx context.Context, managerID string) (int, error)
	CountAuditReports(ctx context.Context, managerID string) (int, error)
	CountFlaggedCalls(ctx context.Context, managerID string) (int, error)

	// AuditedCallsByDay counts audited calls per call_start date (YYYY-MM-DD) from since onwards.
	AuditedCallsByDay(ctx context.Context, managerID string, since time.Time) (map[string]int, error)

	AuditorStats(ctx context.Context, managerID string) ([]domain.AuditorStats, error)
	CountAuditedCallsOfAuditors(ctx context.Context, managerID string) (int, error)
	CounsellorStats(ctx context.Context, managerID string) ([]domain.CounsellorStats, error)

	// FlaggedAudits lists the manager's flagged reports, newest update first.
	FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error)

	// UnflagAudit resets a report and its call to NORMAL in one transaction.
	UnflagAudit(ctx context.Context, auditID string) error
}

// AuditorRepository holds the queries behind the auditor feature.
type AuditorRepository interface {
	CreateAuditor(ctx context.Context, a *domain.Auditor) error

	CallStats(ctx context.Context, auditorID string) (domain.CallStats, error)
	LatestAuditedCalls(ctx context.Context, auditorID string) ([]domain.RecentCall, error)

	// ReportsByDay counts audit reports per created_at date (YYYY-MM-DD) from since onwards.
	ReportsByDay(ctx context.Context, auditorID string, since time.Time) (map[string]int, error)

	// ReviewCalls lists the auditor's calls with their analysis, least confident first.
	ReviewCalls(ctx context.Context, auditorID string) ([]domain.ReviewCall, error)

	// ApproveAudit marks the call audited and upserts its report in one transaction.
	ApproveAudit(ctx context.Context, approval domain.AuditApproval) (*domain.AuditReport, error)

	FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error)

	// UnflagAudit is UnflagAudit restricted to reports owned by auditorID.
	UnflagAudit(ctx context.Context, auditorID, auditID string) error
}

// CounsellorRepository holds the queries behind the counsellor feature.
type CounsellorRepository interface {
	CreateCounsellor(ctx context.Context, c *domain.Counsellor) error

	// CreateCall stores the call attributed to the counsellor's auditor and manager.
	CreateCall(ctx context.Context, call domain.NewCall) (*domain.Call, error)

	CallByID(ctx context.Context, id string) (*domain.Call, error)
	SetRecordingURL(ctx context.Context, callID, url string) error

	// SaveAnalysis replaces any analysis already stored for the call.
	SaveAnalysis(ctx context.Context, analysis *domain.CallAnalysis) error
}
