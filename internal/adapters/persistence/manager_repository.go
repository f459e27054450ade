package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// ManagerRepository serves the manager dashboards and staff administration.
type ManagerRepository struct {
	*StaffRepository
}

var _ ports.ManagerRepository = (*ManagerRepository)(nil)

// NewManagerRepository creates a manager repository.
func NewManagerRepository(db *gorm.DB) *ManagerRepository {
	return &ManagerRepository{StaffRepository: NewStaffRepository(db)}
}

func (r *ManagerRepository) AuditorOfManager(ctx context.Context, managerID, auditorID string) (*domain.Auditor, error) {
	var a auditorModel

	err := r.db.WithContext(ctx).
		Where("id = ? AND manager_id = ?", auditorID, managerID).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, "auditor", auditorID, "Auditor not found for the current manager")
	}

	return a.toDomain(), nil
}

func (r *ManagerRepository) SetAuditorActive(ctx context.Context, auditorID string, active bool) error {
	return r.setActive(ctx, &auditorModel{}, "auditor", auditorID, active)
}

func (r *ManagerRepository) SetCounsellorActive(ctx context.Context, counsellorID string, active bool) error {
	return r.setActive(ctx, &counsellorModel{}, "counsellor", counsellorID, active)
}

func (r *ManagerRepository) setActive(ctx context.Context, model any, entity, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(model).Where("id = ?", id).
		Updates(map[string]any{"is_active": active})
	if res.Error != nil {
		return writeError(res.Error, entity, "id", id)
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError(entity, id)
	}

	return nil
}

func (r *ManagerRepository) CountCalls(ctx context.Context, managerID string) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&callModel{}).Where("manager_id = ?", managerID).Count(&n).Error; err != nil {
		return 0, notFound(err, "call", managerID, "")
	}

	return int(n), nil
}

func (r *ManagerRepository) CountAuditReports(ctx context.Context, managerID string) (int, error) {
	var n int64

	err := r.db.WithContext(ctx).Model(&auditReportModel{}).
		Where("manager_id = ?", managerID).
		Distinct("id").
		Count(&n).Error
	if err != nil {
		return 0, notFound(err, "audit report", managerID, "")
	}

	return int(n), nil
}

func (r *ManagerRepository) CountFlaggedCalls(ctx context.Context, managerID string) (int, error) {
	var n int64

	err := r.db.WithContext(ctx).Model(&callModel{}).
		Where("manager_id = ? AND flag <> ?", managerID, string(domain.FlagNormal)).
		Distinct("id").
		Count(&n).Error
	if err != nil {
		return 0, notFound(err, "call", managerID, "")
	}

	return int(n), nil
}

func (r *ManagerRepository) AuditedCallsByDay(ctx context.Context, managerID string, since time.Time) (map[string]int, error) {
	var starts []time.Time

	err := r.db.WithContext(ctx).Model(&callModel{}).
		Where("manager_id = ? AND is_audited = ? AND call_start >= ?", managerID, true, since).
		Pluck("call_start", &starts).Error
	if err != nil {
		return nil, notFound(err, "call", managerID, "")
	}

	return countByDay(starts), nil
}

type auditorStatsRow struct {
	ID                 string
	Name               string
	Email              string
	IsActive           bool
	TotalAssignedLeads int64
	TotalAuditedLeads  int64
}

func (r *ManagerRepository) AuditorStats(ctx context.Context, managerID string) ([]domain.AuditorStats, error) {
	var rows []auditorStatsRow

	err := r.db.WithContext(ctx).
		Table("auditors AS a").
		Select(`a.id, a.name, a.email, a.is_active,
			COUNT(DISTINCT l.id) AS total_assigned_leads,
			COUNT(DISTINCT r.id) AS total_audited_leads`).
		Joins("LEFT JOIN leads AS l ON l.auditor_id = a.id").
		Joins("LEFT JOIN audit_reports AS r ON r.auditor_id = a.id").
		Where("a.manager_id = ?", managerID).
		Group("a.id, a.name, a.email, a.is_active").
		Order("a.name").
		Scan(&rows).Error
	if err != nil {
		return nil, notFound(err, "auditor", managerID, "")
	}

	out := make([]domain.AuditorStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AuditorStats{
			ID:                 row.ID,
			Name:               row.Name,
			Email:              row.Email,
			IsActive:           row.IsActive,
			TotalAssignedLeads: int(row.TotalAssignedLeads),
			TotalAuditedLeads:  int(row.TotalAuditedLeads),
		})
	}

	return out, nil
}

func (r *ManagerRepository) CountAuditedCallsOfAuditors(ctx context.Context, managerID string) (int, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Table("calls AS c").
		Joins("JOIN auditors AS a ON a.id = c.auditor_id").
		Where("a.manager_id = ? AND c.is_audited = ?", managerID, true).
		Distinct("c.id").
		Count(&n).Error
	if err != nil {
		return 0, notFound(err, "call", managerID, "")
	}

	return int(n), nil
}

type counsellorStatsRow struct {
	ID         string
	Name       string
	Email      string
	IsActive   bool
	TotalCalls int64
}

func (r *ManagerRepository) CounsellorStats(ctx context.Context, managerID string) ([]domain.CounsellorStats, error) {
	var rows []counsellorStatsRow

	err := r.db.WithContext(ctx).
		Table("counsellors AS co").
		Select("co.id, co.name, co.email, co.is_active, COUNT(c.id) AS total_calls").
		Joins("LEFT JOIN calls AS c ON c.counsellor_id = co.id").
		Where("co.manager_id = ?", managerID).
		Group("co.id, co.name, co.email, co.is_active").
		Order("co.name").
		Scan(&rows).Error
	if err != nil {
		return nil, notFound(err, "counsellor", managerID, "")
	}

	out := make([]domain.CounsellorStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CounsellorStats{
			ID:         row.ID,
			Name:       row.Name,
			Email:      row.Email,
			IsActive:   row.IsActive,
			TotalCalls: int(row.TotalCalls),
		})
	}

	return out, nil
}

func (r *ManagerRepository) FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error) {
	return flaggedAudits(ctx, r.db, "manager_id", managerID)
}

// UnflagAudit clears the flag on any report, whichever manager owns it.
func (r *ManagerRepository) UnflagAudit(ctx context.Context, auditID string) error {
	return unflag(ctx, r.db, auditID, func(tx *gorm.DB) *gorm.DB { return tx })
}
