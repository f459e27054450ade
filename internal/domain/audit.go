package domain

import "time"

// AuditReport records an auditor's verdict on one call.
type AuditReport struct {
	ID         string
	CallID     string
	AuditorID  string
	ManagerID  string
	Score      float64
	Comments   string
	Flag       CallFlag
	FlagReason string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Lead is a prospective client tracked against a counsellor.
type Lead struct {
	ID           string
	CounsellorID string
	AuditorID    string
	ManagerID    string
	ClientName   string
	ClientNumber string
	Status       string
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuditApproval is an auditor's request to mark a call audited.
// Nil pointer fields leave an existing report's value untouched.
type AuditApproval struct {
	CallID     string
	AuditorID  string
	Comments   *string
	Flag       CallFlag
	FlagReason *string
}

// Validate checks the approval before any storage is touched.
func (a AuditApproval) Validate() error {
	if a.CallID == "" {
		return NewValidationError("call_id", "is required")
	}

	if a.AuditorID == "" {
		return NewValidationError("auditor_id", "is required")
	}

	if _, err := ParseCallFlag(string(a.Flag)); err != nil {
		return err
	}

	return nil
}

// Apply merges the approval into an existing report.
func (a AuditApproval) Apply(r *AuditReport) {
	if a.Comments != nil {
		r.Comments = *a.Comments
	}

	if a.Flag != "" {
		r.Flag = a.Flag
	}

	if a.FlagReason != nil {
		r.FlagReason = *a.FlagReason
	}
}

// NewReport builds the first report for a call from an approval.
func (a AuditApproval) NewReport(call *Call) *AuditReport {
	r := &AuditReport{
		CallID:    call.ID,
		AuditorID: a.AuditorID,
		ManagerID: call.ManagerID,
		Score:     call.AuditScore,
		Flag:      FlagNormal,
	}
	a.Apply(r)

	return r
}
