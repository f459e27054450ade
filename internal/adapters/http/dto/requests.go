package dto

import (
	"mime/multipart"
	"strings"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// timestampLayouts are the accepted call_start/call_end formats. Timestamps
// without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
	Role     string `form:"role"     validate:"required"`
}

// StaffFields are the contact fields shared by every staff form.
type StaffFields struct {
	Name  string `form:"name"  validate:"required,notempty"`
	Email string `form:"email" validate:"required,email"`
	Phone string `form:"phone" validate:"required,notempty"`
}

// ToNewStaff converts the form into a domain registration.
func (f StaffFields) ToNewStaff(password string) domain.NewStaff {
	return domain.NewStaff{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Phone:    strings.TrimSpace(f.Phone),
		Password: password,
	}
}

// AddStaffRequest is a manager adding an auditor or a counsellor.
type AddStaffRequest struct {
	Role string `form:"role" validate:"required"`
	StaffFields

	AuditorID string `form:"auditor_id" validate:"uuid"`
}

// ActivationRequest names the staff member to activate or deactivate.
type ActivationRequest struct {
	Role         string `form:"role"          validate:"required"`
	CounsellorID string `form:"counsellor_id" validate:"uuid"`
	AuditorID    string `form:"auditor_id"    validate:"uuid"`
}

// UnflagRequest identifies the audit report to unflag.
type UnflagRequest struct {
	AuditID string `form:"audit_id" validate:"required,uuid"`
}

// CreateManagerRequest registers a manager.
type CreateManagerRequest struct {
	StaffFields

	Password string `form:"password" validate:"required"`
}

// CreateAuditorRequest registers an auditor under an existing manager.
type CreateAuditorRequest struct {
	ManagerID string `form:"manager_id" validate:"required,uuid"`
	StaffFields

	Password string `form:"password" validate:"required"`
}

// CreateCounsellorRequest registers a counsellor.
type CreateCounsellorRequest struct {
	ManagerID string `form:"manager_id" validate:"required,uuid"`
	AuditorID string `form:"auditor_id" validate:"required,uuid"`
	StaffFields
}

// ApproveAuditRequest is an auditor's verdict on a call.
type ApproveAuditRequest struct {
	CallID      string `form:"call_id"      validate:"required,uuid"`
	Comments    string `form:"comments"`
	Flag        string `form:"flag"`
	FlagReasons string `form:"flag_reasons"`
}

// UploadAudioRequest is the multipart call recording upload.
type UploadAudioRequest struct {
	CallRecording *multipart.FileHeader `form:"call_recording" validate:"required"`
	CallStart     string                `form:"call_start"     validate:"required"`
	CallEnd       string                `form:"call_end"       validate:"required"`
	Duration      int                   `form:"duration"       validate:"gte=0"`
	CallType      string                `form:"call_type"      validate:"required"`
	ClientNumber  string                `form:"client_number"  validate:"required,notempty"`
	Tags          string                `form:"tags"`
	CounsellorID  string                `form:"counsellor_id"  validate:"required,uuid"`
}

// ToNewCall parses the timestamps and builds the call to store.
func (r *UploadAudioRequest) ToNewCall() (domain.NewCall, error) {
	start, err := ParseTimestamp("call_start", r.CallStart)
	if err != nil {
		return domain.NewCall{}, err
	}

	end, err := ParseTimestamp("call_end", r.CallEnd)
	if err != nil {
		return domain.NewCall{}, err
	}

	return domain.NewCall{
		CounsellorID: r.CounsellorID,
		CallStart:    start,
		CallEnd:      &end,
		Duration:     r.Duration,
		CallType:     strings.TrimSpace(r.CallType),
		ClientNumber: strings.TrimSpace(r.ClientNumber),
		Tags:         strings.TrimSpace(r.Tags),
	}, nil
}

// ParseTimestamp parses an ISO-8601 timestamp into UTC.
func ParseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, domain.NewValidationErrorWithValue(field, "must be an ISO-8601 timestamp", value)
}
