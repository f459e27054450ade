package persistence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// BaseModel carries the columns every table shares. It is exported because
// gorm ignores unexported embedded structs.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller left ID empty.
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	return nil
}

type managerModel struct {
	BaseModel
	Name     string `gorm:"not null"`
	Email    string `gorm:"not null;uniqueIndex"`
	Phone    *string
	Password string `gorm:"not null"`
}

func (managerModel) TableName() string { return "managers" }

func (m *managerModel) toDomain() *domain.Manager {
	return &domain.Manager{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        deref(m.Phone),
		PasswordHash: m.Password,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type auditorModel struct {
	BaseModel
	ManagerID string `gorm:"type:varchar(36);not null;index"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;uniqueIndex"`
	Phone     *string
	Password  string `gorm:"not null"`
	IsActive  bool   `gorm:"not null;default:true"`

	Manager *managerModel `gorm:"foreignKey:ManagerID"`
}

func (auditorModel) TableName() string { return "auditors" }

func (m *auditorModel) toDomain() *domain.Auditor {
	return &domain.Auditor{
		ID:           m.ID,
		ManagerID:    m.ManagerID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        deref(m.Phone),
		PasswordHash: m.Password,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type counsellorModel struct {
	BaseModel
	AuditorID string `gorm:"type:varchar(36);not null;index"`
	ManagerID string `gorm:"type:varchar(36);not null;index"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;uniqueIndex"`
	Phone     *string
	IsActive  bool `gorm:"not null;default:true"`

	Auditor *auditorModel `gorm:"foreignKey:AuditorID;constraint:OnDelete:CASCADE"`
	Manager *managerModel `gorm:"foreignKey:ManagerID"`
}

func (counsellorModel) TableName() string { return "counsellors" }

func (m *counsellorModel) toDomain() *domain.Counsellor {
	return &domain.Counsellor{
		ID:        m.ID,
		AuditorID: m.AuditorID,
		ManagerID: m.ManagerID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     deref(m.Phone),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type callModel struct {
	BaseModel
	CounsellorID string    `gorm:"type:varchar(36);not null;index"`
	AuditorID    string    `gorm:"type:varchar(36);not null;index"`
	ManagerID    string    `gorm:"type:varchar(36);not null;index"`
	CallStart    time.Time `gorm:"not null"`
	CallEnd      *time.Time
	Duration     *int
	CallType     *string
	ClientNumber string `gorm:"not null"`
	RecordingURL *string
	IsAudited    bool    `gorm:"not null;default:false"`
	Flag         string  `gorm:"type:varchar(16);not null;default:'NORMAL'"`
	AuditScore   float64 `gorm:"not null;default:0"`
	Tags         string  `gorm:"default:''"`

	Counsellor *counsellorModel `gorm:"foreignKey:CounsellorID;constraint:OnDelete:CASCADE"`
	Auditor    *auditorModel    `gorm:"foreignKey:AuditorID;constraint:OnDelete:CASCADE"`
	Manager    *managerModel    `gorm:"foreignKey:ManagerID"`
}

func (callModel) TableName() string { return "calls" }

func (m *callModel) toDomain() *domain.Call {
	dur := 0
	if m.Duration != nil {
		dur = *m.Duration
	}

	return &domain.Call{
		ID:           m.ID,
		CounsellorID: m.CounsellorID,
		AuditorID:    m.AuditorID,
		ManagerID:    m.ManagerID,
		CallStart:    m.CallStart,
		CallEnd:      m.CallEnd,
		Duration:     dur,
		CallType:     deref(m.CallType),
		ClientNumber: m.ClientNumber,
		RecordingURL: deref(m.RecordingURL),
		IsAudited:    m.IsAudited,
		Flag:         domain.CallFlag(m.Flag),
		AuditScore:   m.AuditScore,
		Tags:         m.Tags,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type callAnalysisModel struct {
	BaseModel
	CallID         string  `gorm:"type:varchar(36);not null;uniqueIndex"`
	SentimentScore float64 `gorm:"default:0"`
	Transcript     *string `gorm:"type:text"`
	Summary        *string `gorm:"type:text"`
	Anomalies      *string `gorm:"type:text"`
	Keywords       string  `gorm:"default:''"`
	AIConfidence   float64 `gorm:"column:ai_confidence;default:0"`

	Call *callModel `gorm:"foreignKey:CallID"`
}

func (callAnalysisModel) TableName() string { return "call_analysis" }

type auditReportModel struct {
	BaseModel
	CallID     string  `gorm:"type:varchar(36);not null;index"`
	AuditorID  string  `gorm:"type:varchar(36);not null;index"`
	ManagerID  string  `gorm:"type:varchar(36);not null;index"`
	Score      float64 `gorm:"not null"`
	Comments   *string `gorm:"type:text"`
	Flag       string  `gorm:"type:varchar(16);not null;default:'NORMAL'"`
	FlagReason *string

	Call    *callModel    `gorm:"foreignKey:CallID"`
	Auditor *auditorModel `gorm:"foreignKey:AuditorID"`
	Manager *managerModel `gorm:"foreignKey:ManagerID"`
}

func (auditReportModel) TableName() string { return "audit_reports" }

func (m *auditReportModel) toDomain() *domain.AuditReport {
	return &domain.AuditReport{
		ID:         m.ID,
		CallID:     m.CallID,
		AuditorID:  m.AuditorID,
		ManagerID:  m.ManagerID,
		Score:      m.Score,
		Comments:   deref(m.Comments),
		Flag:       domain.CallFlag(m.Flag),
		FlagReason: deref(m.FlagReason),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type leadModel struct {
	BaseModel
	CounsellorID string `gorm:"type:varchar(36);not null;index"`
	AuditorID    string `gorm:"type:varchar(36);not null;index"`
	ManagerID    string `gorm:"type:varchar(36);not null;index"`
	ClientName   *string
	ClientNumber *string
	Status       string  `gorm:"not null"`
	Note         *string `gorm:"type:text"`

	Counsellor *counsellorModel `gorm:"foreignKey:CounsellorID;constraint:OnDelete:CASCADE"`
	Auditor    *auditorModel    `gorm:"foreignKey:AuditorID"`
	Manager    *managerModel    `gorm:"foreignKey:ManagerID"`
}

func (leadModel) TableName() string { return "leads" }

// allModels lists the tables in dependency order for AutoMigrate.
func allModels() []any {
	return []any{
		&managerModel{},
		&auditorModel{},
		&counsellorModel{},
		&callModel{},
		&callAnalysisModel{},
		&auditReportModel{},
		&leadModel{},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
