package dto

import (
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// Result is embedded in every successful response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK is a successful result with message.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// UserResponse describes the authenticated user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`

	// Manager is the auditor's manager name on check-auth.
	Manager *string `json:"manager,omitempty"`
}

// NewUserResponse converts the current user.
func NewUserResponse(u *domain.CurrentUser) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// UserResult is the login and check-auth response.
type UserResult struct {
	Result

	User UserResponse `json:"user"`
}

// FlaggedAuditResponse is one flagged audit report.
type FlaggedAuditResponse struct {
	ID             string    `json:"id"`
	CallID         string    `json:"call_id"`
	AuditorID      string    `json:"auditor_id"`
	AuditorName    string    `json:"auditor_name"`
	Score          int       `json:"score"`
	Comments       string    `json:"comments"`
	FlagReason     string    `json:"flag_reason"`
	ClientNumber   string    `json:"client_number"`
	CounsellorName string    `json:"counsellor_name"`
	UpdatedAt      time.Time `json:"updated_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewFlaggedAuditResponses converts flagged audits; nil becomes an empty list.
func NewFlaggedAuditResponses(audits []domain.FlaggedAudit) []FlaggedAuditResponse {
	out := make([]FlaggedAuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, FlaggedAuditResponse{
			ID:             a.ID,
			CallID:         a.CallID,
			AuditorID:      a.AuditorID,
			AuditorName:    a.AuditorName,
			Score:          a.Score,
			Comments:       a.Comments,
			FlagReason:     a.FlagReason,
			ClientNumber:   a.ClientNumber,
			CounsellorName: a.CounsellorName,
			UpdatedAt:      a.UpdatedAt,
			CreatedAt:      a.CreatedAt,
		})
	}

	return out
}

// FlaggedAuditsResult lists flagged audits.
type FlaggedAuditsResult struct {
	Result

	FlaggedAudits []FlaggedAuditResponse `json:"flagged_audits"`
}

// DailyAuditResponse is the audit count of one day.
type DailyAuditResponse struct {
	Date         string `json:"date"`
	AuditedCalls int    `json:"audited_calls"`
}

func newDailyAuditResponses(days []domain.DailyCount) []DailyAuditResponse {
	out := make([]DailyAuditResponse, 0, len(days))
	for _, d := range days {
		out = append(out, DailyAuditResponse{Date: d.Date, AuditedCalls: d.Count})
	}

	return out
}

// ManagerDashboardResult is the manager's dashboard.
type ManagerDashboardResult struct {
	Result

	TotalAssignedLeads int                    `json:"total_assigned_leads"`
	TotalAuditedCalls  int                    `json:"total_audited_calls"`
	FlaggedCalls       int                    `json:"flagged_calls"`
	LatestFlaggedAudit []FlaggedAuditResponse `json:"latest_flagged_audit"`
	Last7DaysData      []DailyAuditResponse   `json:"last_7_days_data"`
}

// NewManagerDashboardResult converts the manager dashboard.
func NewManagerDashboardResult(message string, d *domain.ManagerDashboard) ManagerDashboardResult {
	return ManagerDashboardResult{
		Result:             OK(message),
		TotalAssignedLeads: d.TotalAssignedLeads,
		TotalAuditedCalls:  d.TotalAuditedCalls,
		FlaggedCalls:       d.FlaggedCalls,
		LatestFlaggedAudit: NewFlaggedAuditResponses(d.LatestFlagged),
		Last7DaysData:      newDailyAuditResponses(d.LastDays),
	}
}

// AuditorResponse is one row of the manager's auditor listing.
type AuditorResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	IsActive           bool   `json:"is_active"`
	TotalAssignedLeads int    `json:"total_assigned_leads"`
	TotalAuditedLeads  int    `json:"total_audited_leads"`
}

// AuditorsResult is the manager's auditor listing.
type AuditorsResult struct {
	Result

	NumberOfAuditors  int               `json:"number_of_auditors"`
	TotalAuditedCalls int               `json:"total_audited_calls"`
	Auditors          []AuditorResponse `json:"auditors"`
}

// NewAuditorsResult converts the auditor overview.
func NewAuditorsResult(message string, o *domain.AuditorOverview) AuditorsResult {
	auditors := make([]AuditorResponse, 0, len(o.Auditors))
	for _, a := range o.Auditors {
		auditors = append(auditors, AuditorResponse{
			ID:                 a.ID,
			Name:               a.Name,
			Email:              a.Email,
			IsActive:           a.IsActive,
			TotalAssignedLeads: a.TotalAssignedLeads,
			TotalAuditedLeads:  a.TotalAuditedLeads,
		})
	}

	return AuditorsResult{
		Result:            OK(message),
		NumberOfAuditors:  len(auditors),
		TotalAuditedCalls: o.TotalAuditedCalls,
		Auditors:          auditors,
	}
}

// CounsellorResponse is one row of the manager's counsellor listing.
type CounsellorResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsActive   bool   `json:"is_active"`
	TotalCalls int    `json:"total_calls"`
}

// CounsellorsResult is the manager's counsellor listing.
type CounsellorsResult struct {
	Result

	TotalCounsellors int                  `json:"total_counsellors"`
	TotalCallsMade   int                  `json:"total_calls_made"`
	Counsellors      []CounsellorResponse `json:"counsellors"`
}

// NewCounsellorsResult converts the counsellor overview.
func NewCounsellorsResult(message string, o *domain.CounsellorOverview) CounsellorsResult {
	counsellors := make([]CounsellorResponse, 0, len(o.Counsellors))
	for _, c := range o.Counsellors {
		counsellors = append(counsellors, CounsellorResponse{
			ID:         c.ID,
			Name:       c.Name,
			Email:      c.Email,
			IsActive:   c.IsActive,
			TotalCalls: c.TotalCalls,
		})
	}

	return CounsellorsResult{
		Result:           OK(message),
		TotalCounsellors: len(counsellors),
		TotalCallsMade:   o.TotalCallsMade,
		Counsellors:      counsellors,
	}
}

// NewStaffResult reports a created staff member and its initial password.
type NewStaffResult struct {
	Result

	Password string `json:"password"`
}

// CallStatsResponse counts an auditor's calls.
type CallStatsResponse struct {
	Audited   int `json:"audited"`
	Unaudited int `json:"unaudited"`
	Flagged   int `json:"flagged"`
}

func newCallStatsResponse(s domain.CallStats) CallStatsResponse {
	return CallStatsResponse{Audited: s.Audited, Unaudited: s.Unaudited, Flagged: s.Flagged}
}

// LatestCallResponse is a recently audited call.
type LatestCallResponse struct {
	ID           string    `json:"id"`
	CallStart    time.Time `json:"call_start"`
	ClientNumber string    `json:"client_number"`
}

// AuditorDashboardResult is the auditor's dashboard.
type AuditorDashboardResult struct {
	Result

	CallStats          CallStatsResponse    `json:"call_stats"`
	TotalAssignedLeads int                  `json:"total_assigned_leads"`
	TotalAuditedCalls  int                  `json:"total_audited_calls"`
	FlaggedCalls       int                  `json:"flagged_calls"`
	LatestCalls        []LatestCallResponse `json:"latest_calls"`
	Last7DaysData      []DailyAuditResponse `json:"last_7_days_data"`
}

// NewAuditorDashboardResult converts the auditor dashboard.
func NewAuditorDashboardResult(message string, d *domain.AuditorDashboard) AuditorDashboardResult {
	latest := make([]LatestCallResponse, 0, len(d.LatestCalls))
	for _, c := range d.LatestCalls {
		latest = append(latest, LatestCallResponse{ID: c.ID, CallStart: c.CallStart, ClientNumber: c.ClientNumber})
	}

	return AuditorDashboardResult{
		Result:             OK(message),
		CallStats:          newCallStatsResponse(d.Stats),
		TotalAssignedLeads: d.Stats.Total(),
		TotalAuditedCalls:  d.Stats.Audited,
		FlaggedCalls:       d.Stats.Flagged,
		LatestCalls:        latest,
		Last7DaysData:      newDailyAuditResponses(d.LastDays),
	}
}

// ReviewCallResponse is a call in the auditor's review queue.
type ReviewCallResponse struct {
	ID             string  `json:"id"`
	ClientNumber   string  `json:"client_number"`
	Duration       int     `json:"duration"`
	Tags           string  `json:"tags"`
	AIConfidence   float64 `json:"ai_confidence"`
	RecordingURL   string  `json:"recording_url"`
	Summary        string  `json:"summary"`
	SentimentScore int     `json:"sentiment_score"`
	Anomalies      string  `json:"anomalies"`
}

// CallsResult is the auditor's review queue.
type CallsResult struct {
	Result

	Calls     []ReviewCallResponse `json:"calls"`
	CallStats CallStatsResponse    `json:"call_stats"`
}

// NewCallsResult converts the review queue.
func NewCallsResult(message string, q *domain.ReviewQueue) CallsResult {
	calls := make([]ReviewCallResponse, 0, len(q.Calls))
	for _, c := range q.Calls {
		calls = append(calls, ReviewCallResponse{
			ID:             c.ID,
			ClientNumber:   c.ClientNumber,
			Duration:       c.Duration,
			Tags:           c.Tags,
			AIConfidence:   c.AIConfidence,
			RecordingURL:   c.RecordingURL,
			Summary:        c.Summary,
			SentimentScore: c.SentimentScore,
			Anomalies:      c.Anomalies,
		})
	}

	return CallsResult{
		Result:    OK(message),
		Calls:     calls,
		CallStats: newCallStatsResponse(q.Stats),
	}
}

// UploadResult acknowledges a queued call recording.
type UploadResult struct {
	Result

	CallID string `json:"call_id"`
	Status string `json:"status"`
}
