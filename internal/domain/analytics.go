package domain

import "time"

// DashboardWindow is the number of days covered by dashboard histories.
const DashboardWindow = 7

// DailyCount is the number of audited items on one UTC day.
type DailyCount struct {
	Date  string
	Count int
}

// LastNDays returns n zero-filled days ending today (UTC), oldest first,
// with counts taken from byDate (keyed YYYY-MM-DD).
func LastNDays(now time.Time, n int, byDate map[string]int) []DailyCount {
	today := now.UTC().Truncate(24 * time.Hour)
	out := make([]DailyCount, 0, n)

	for i := n - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i).Format(time.DateOnly)
		out = append(out, DailyCount{Date: d, Count: byDate[d]})
	}

	return out
}

// WindowStart is the first instant counted by a window of n days ending today.
func WindowStart(now time.Time, n int) time.Time {
	return now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(n - 1))
}

// FlaggedAudit is a flagged audit report joined with its call and staff.
type FlaggedAudit struct {
	ID             string
	CallID         string
	AuditorID      string
	AuditorName    string
	Score          int
	Comments       string
	FlagReason     string
	ClientNumber   string
	CounsellorName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ManagerDashboard summarises a manager's team.
type ManagerDashboard struct {
	TotalAssignedLeads int
	TotalAuditedCalls  int
	FlaggedCalls       int
	LatestFlagged      []FlaggedAudit
	LastDays           []DailyCount
}

// AuditorStats is one row of the manager's auditor listing.
type AuditorStats struct {
	ID                 string
	Name               string
	Email              string
	IsActive           bool
	TotalAssignedLeads int
	TotalAuditedLeads  int
}

// AuditorOverview is the manager's auditor listing.
type AuditorOverview struct {
	Auditors          []AuditorStats
	TotalAuditedCalls int
}

// CounsellorStats is one row of the manager's counsellor listing.
type CounsellorStats struct {
	ID         string
	Name       string
	Email      string
	IsActive   bool
	TotalCalls int
}

// CounsellorOverview is the manager's counsellor listing.
type CounsellorOverview struct {
	Counsellors    []CounsellorStats
	TotalCallsMade int
}

// CallStats counts an auditor's calls by audit state.
type CallStats struct {
	Audited   int
	Unaudited int
	Flagged   int
}

// Total is every call assigned to the auditor.
func (s CallStats) Total() int {
	return s.Audited + s.Unaudited
}

// RecentCall is an entry of the auditor's latest audited calls.
type RecentCall struct {
	ID           string
	CallStart    time.Time
	ClientNumber string
}

// AuditorDashboard summarises an auditor's workload.
type AuditorDashboard struct {
	Stats       CallStats
	LatestCalls []RecentCall
	LastDays    []DailyCount
}

// ReviewCall is a call queued for auditor review with its analysis, if any.
type ReviewCall struct {
	ID             string
	ClientNumber   string
	Duration       int
	Tags           string
	AIConfidence   float64
	RecordingURL   string
	Summary        string
	SentimentScore int
	Anomalies      string
}

const (
	NoSummary   = "no_summary"
	NoAnomalies = "no_anomalies"
)

// ReviewQueue is the auditor's call listing.
type ReviewQueue struct {
	Calls []ReviewCall
	Stats CallStats
}
