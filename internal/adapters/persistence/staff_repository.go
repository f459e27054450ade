package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// StaffRepository looks up and creates staff members. The feature
// repositories embed it.
type StaffRepository struct {
	db *gorm.DB
}

var (
	_ ports.AuthRepository = (*StaffRepository)(nil)
	_ ports.StaffWriter    = (*StaffRepository)(nil)
)

// NewStaffRepository creates a staff repository.
func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) ManagerByEmail(ctx context.Context, email string) (*domain.Manager, error) {
	var m managerModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, notFound(err, "manager", email, "Manager not found")
	}

	return m.toDomain(), nil
}

func (r *StaffRepository) ManagerByID(ctx context.Context, id string) (*domain.Manager, error) {
	var m managerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err, "manager", id, "Manager not found")
	}

	return m.toDomain(), nil
}

func (r *StaffRepository) AuditorByEmail(ctx context.Context, email string) (*domain.Auditor, error) {
	var a auditorModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err, "auditor", email, "Auditor not found")
	}

	return a.toDomain(), nil
}

func (r *StaffRepository) AuditorByID(ctx context.Context, id string) (*domain.Auditor, error) {
	var a auditorModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, "auditor", id, "Auditor not found")
	}

	return a.toDomain(), nil
}

// CreateManager inserts m and fills in its id and timestamps.
func (r *StaffRepository) CreateManager(ctx context.Context, m *domain.Manager) error {
	row := managerModel{
		BaseModel: BaseModel{ID: m.ID},
		Name:      m.Name,
		Email:     m.Email,
		Phone:     optional(m.Phone),
		Password:  m.PasswordHash,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return writeError(err, "manager", "email", m.Email)
	}

	*m = *row.toDomain()

	return nil
}

// CreateAuditor inserts a, which must name an existing manager.
func (r *StaffRepository) CreateAuditor(ctx context.Context, a *domain.Auditor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &managerModel{}, a.ManagerID, "manager", "Manager not found"); err != nil {
			return err
		}

		row := auditorModel{
			BaseModel: BaseModel{ID: a.ID},
			ManagerID: a.ManagerID,
			Name:      a.Name,
			Email:     a.Email,
			Phone:     optional(a.Phone),
			Password:  a.PasswordHash,
			IsActive:  true,
		}

		if err := tx.Create(&row).Error; err != nil {
			return writeError(err, "auditor", "email", a.Email)
		}

		*a = *row.toDomain()

		return nil
	})
}

// CreateCounsellor inserts c, which must name an existing auditor.
func (r *StaffRepository) CreateCounsellor(ctx context.Context, c *domain.Counsellor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &auditorModel{}, c.AuditorID, "auditor", "Auditor not found"); err != nil {
			return err
		}

		row := counsellorModel{
			BaseModel: BaseModel{ID: c.ID},
			AuditorID: c.AuditorID,
			ManagerID: c.ManagerID,
			Name:      c.Name,
			Email:     c.Email,
			Phone:     optional(c.Phone),
			IsActive:  true,
		}

		if err := tx.Create(&row).Error; err != nil {
			return writeError(err, "counsellor", "email", c.Email)
		}

		*c = *row.toDomain()

		return nil
	})
}

// exists fails with a NotFoundError unless a row of model has the id.
func exists(tx *gorm.DB, model any, id, entity, message string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return notFound(err, entity, id, message)
	}

	if n == 0 {
		return domain.NewNotFoundErrorWithMessage(entity, id, message)
	}

	return nil
}

// countByDay buckets timestamps by their UTC date.
func countByDay(times []time.Time) map[string]int {
	out := make(map[string]int, len(times))
	for _, t := range times {
		out[t.UTC().Format(time.DateOnly)]++
	}

	return out
}

type flaggedAuditRow struct {
	ID             string
	CallID         string
	AuditorID      string
	AuditorName    string
	Score          float64
	Comments       *string
	FlagReason     *string
	ClientNumber   string
	CounsellorName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// flaggedAudits lists non-NORMAL reports where ownerColumn matches ownerID.
func flaggedAudits(ctx context.Context, db *gorm.DB, ownerColumn, ownerID string) ([]domain.FlaggedAudit, error) {
	var rows []flaggedAuditRow

	err := db.WithContext(ctx).
		Table("audit_reports AS r").
		Select(`r.id, r.call_id, r.auditor_id, a.name AS auditor_name, r.score, r.comments,
			r.flag_reason, c.client_number, co.name AS counsellor_name, r.created_at, r.updated_at`).
		Joins("JOIN auditors AS a ON a.id = r.auditor_id").
		Joins("JOIN calls AS c ON c.id = r.call_id").
		Joins("JOIN counsellors AS co ON co.id = c.counsellor_id").
		Where("r."+ownerColumn+" = ? AND r.flag <> ?", ownerID, string(domain.FlagNormal)).
		Order("r.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, notFound(err, "audit report", ownerID, "")
	}

	out := make([]domain.FlaggedAudit, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.FlaggedAudit{
			ID:             row.ID,
			CallID:         row.CallID,
			AuditorID:      row.AuditorID,
			AuditorName:    row.AuditorName,
			Score:          int(row.Score),
			Comments:       deref(row.Comments),
			FlagReason:     deref(row.FlagReason),
			ClientNumber:   row.ClientNumber,
			CounsellorName: row.CounsellorName,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		})
	}

	return out, nil
}

// unflag resets a report and its call to NORMAL. scope narrows the report lookup.
func unflag(ctx context.Context, db *gorm.DB, auditID string, scope func(*gorm.DB) *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report auditReportModel
		if err := scope(tx.Where("id = ?", auditID)).First(&report).Error; err != nil {
			return notFound(err, "audit report", auditID, "No audit report found with given audit id")
		}

		err := tx.Model(&report).Updates(map[string]any{
			"flag":        string(domain.FlagNormal),
			"flag_reason": "",
		}).Error
		if err != nil {
			return writeError(err, "audit report", "id", auditID)
		}

		res := tx.Model(&callModel{}).Where("id = ?", report.CallID).
			Updates(map[string]any{"flag": string(domain.FlagNormal)})
		if res.Error != nil {
			return writeError(res.Error, "call", "id", report.CallID)
		}

		if res.RowsAffected == 0 {
			return domain.NewNotFoundErrorWithMessage("call", report.CallID, "No call found with given audit id")
		}

		return nil
	})
}
