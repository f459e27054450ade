package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// AuditorRepository serves the auditor dashboard and review workflow.
type AuditorRepository struct {
	*StaffRepository
}

var _ ports.AuditorRepository = (*AuditorRepository)(nil)

// NewAuditorRepository creates an auditor repository.
func NewAuditorRepository(db *gorm.DB) *AuditorRepository {
	return &AuditorRepository{StaffRepository: NewStaffRepository(db)}
}

type callStatsRow struct {
	Audited   int64
	Unaudited int64
	Flagged   int64
}

func (r *AuditorRepository) CallStats(ctx context.Context, auditorID string) (domain.CallStats, error) {
	var row callStatsRow

	err := r.db.WithContext(ctx).Model(&callModel{}).
		Select(`COALESCE(SUM(CASE WHEN is_audited THEN 1 ELSE 0 END), 0) AS audited,
			COALESCE(SUM(CASE WHEN is_audited THEN 0 ELSE 1 END), 0) AS unaudited,
			COALESCE(SUM(CASE WHEN flag <> ? THEN 1 ELSE 0 END), 0) AS flagged`, string(domain.FlagNormal)).
		Where("auditor_id = ?", auditorID).
		Scan(&row).Error
	if err != nil {
		return domain.CallStats{}, notFound(err, "call", auditorID, "")
	}

	return domain.CallStats{
		Audited:   int(row.Audited),
		Unaudited: int(row.Unaudited),
		Flagged:   int(row.Flagged),
	}, nil
}

func (r *AuditorRepository) LatestAuditedCalls(ctx context.Context, auditorID string) ([]domain.RecentCall, error) {
	var rows []callModel

	err := r.db.WithContext(ctx).
		Select("id", "call_start", "client_number").
		Where("auditor_id = ? AND is_audited = ?", auditorID, true).
		Order("call_start DESC").
		Find(&rows).Error
	if err != nil {
		return nil, notFound(err, "call", auditorID, "")
	}

	out := make([]domain.RecentCall, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RecentCall{ID: row.ID, CallStart: row.CallStart, ClientNumber: row.ClientNumber})
	}

	return out, nil
}

func (r *AuditorRepository) ReportsByDay(ctx context.Context, auditorID string, since time.Time) (map[string]int, error) {
	var created []time.Time

	err := r.db.WithContext(ctx).Model(&auditReportModel{}).
		Where("auditor_id = ? AND created_at >= ?", auditorID, since).
		Pluck("created_at", &created).Error
	if err != nil {
		return nil, notFound(err, "audit report", auditorID, "")
	}

	return countByDay(created), nil
}

type reviewCallRow struct {
	ID             string
	ClientNumber   string
	Duration       *int
	Tags           *string
	AIConfidence   *float64 `gorm:"column:ai_confidence"`
	RecordingURL   *string
	Summary        *string
	SentimentScore *float64
	Anomalies      *string
}

func (r *AuditorRepository) ReviewCalls(ctx context.Context, auditorID string) ([]domain.ReviewCall, error) {
	var rows []reviewCallRow

	err := r.db.WithContext(ctx).
		Table("calls AS c").
		Select(`c.id, c.client_number, c.duration, c.tags, ca.ai_confidence, c.recording_url,
			ca.summary, ca.sentiment_score, ca.anomalies`).
		Joins("LEFT JOIN call_analysis AS ca ON ca.call_id = c.id").
		Where("c.auditor_id = ?", auditorID).
		Order("COALESCE(ca.ai_confidence, 0) ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, notFound(err, "call", auditorID, "")
	}

	out := make([]domain.ReviewCall, 0, len(rows))
	for _, row := range rows {
		rc := domain.ReviewCall{
			ID:           row.ID,
			ClientNumber: row.ClientNumber,
			Tags:         deref(row.Tags),
			RecordingURL: deref(row.RecordingURL),
			Summary:      orDefault(row.Summary, domain.NoSummary),
			Anomalies:    orDefault(row.Anomalies, domain.NoAnomalies),
		}
		if row.Duration != nil {
			rc.Duration = *row.Duration
		}
		if row.AIConfidence != nil {
			rc.AIConfidence = *row.AIConfidence
		}
		if row.SentimentScore != nil {
			rc.SentimentScore = int(*row.SentimentScore)
		}

		out = append(out, rc)
	}

	return out, nil
}

func (r *AuditorRepository) ApproveAudit(ctx context.Context, approval domain.AuditApproval) (*domain.AuditReport, error) {
	var out *domain.AuditReport

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var call callModel
		err := tx.Where("id = ? AND auditor_id = ?", approval.CallID, approval.AuditorID).First(&call).Error
		if err != nil {
			return notFound(err, "call", approval.CallID, "Call not found for the given auditor.")
		}

		flag := approval.Flag
		if flag == "" {
			flag = domain.FlagNormal
		}

		err = tx.Model(&call).Updates(map[string]any{"is_audited": true, "flag": string(flag)}).Error
		if err != nil {
			return writeError(err, "call", "id", call.ID)
		}

		var existing auditReportModel
		err = tx.Where("call_id = ? AND auditor_id = ?", approval.CallID, approval.AuditorID).First(&existing).Error

		switch {
		case err == nil:
			report := existing.toDomain()
			approval.Apply(report)
			existing.Comments = optional(report.Comments)
			existing.Flag = string(report.Flag)
			existing.FlagReason = optional(report.FlagReason)

			if err := tx.Save(&existing).Error; err != nil {
				return writeError(err, "audit report", "id", existing.ID)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			report := approval.NewReport(call.toDomain())
			existing = auditReportModel{
				CallID:     report.CallID,
				AuditorID:  report.AuditorID,
				ManagerID:  report.ManagerID,
				Score:      report.Score,
				Comments:   optional(report.Comments),
				Flag:       string(report.Flag),
				FlagReason: optional(report.FlagReason),
			}

			if err := tx.Create(&existing).Error; err != nil {
				return writeError(err, "audit report", "call_id", report.CallID)
			}
		default:
			return notFound(err, "audit report", approval.CallID, "")
		}

		out = existing.toDomain()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *AuditorRepository) FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error) {
	return flaggedAudits(ctx, r.db, "auditor_id", auditorID)
}

// UnflagAudit clears the flag on a report owned by auditorID.
func (r *AuditorRepository) UnflagAudit(ctx context.Context, auditorID, auditID string) error {
	return unflag(ctx, r.db, auditID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("auditor_id = ?", auditorID)
	})
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}

	return *s
}
