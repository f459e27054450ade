package domain

import (
	"strings"
	"time"
)

// Role identifies the kind of staff member.
type Role string

const (
	RoleManager    Role = "manager"
	RoleAuditor    Role = "auditor"
	RoleCounsellor Role = "counsellor"
)

// ParseRole normalises a role name. Unknown names yield an empty Role and false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleManager, RoleAuditor, RoleCounsellor:
		return r, true
	default:
		return "", false
	}
}

// CanAuthenticate reports whether members of this role may log in.
func (r Role) CanAuthenticate() bool {
	return r == RoleManager || r == RoleAuditor
}

// Manager owns a team of auditors and counsellors.
type Manager struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Auditor reviews the calls of the counsellors assigned to them.
type Auditor struct {
	ID           string
	ManagerID    string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Counsellor places client calls. Counsellors never log in.
type Counsellor struct {
	ID        string
	AuditorID string
	ManagerID string
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentUser is the authenticated caller of a request.
type CurrentUser struct {
	ID    string
	Name  string
	Email string
	Role  Role

	// ManagerID and ManagerName are set for auditors only.
	ManagerID   string
	ManagerName string
}

// CurrentUserFromManager builds the current user for a logged-in manager.
func CurrentUserFromManager(m *Manager) *CurrentUser {
	return &CurrentUser{ID: m.ID, Name: m.Name, Email: m.Email, Role: RoleManager}
}

// CurrentUserFromAuditor builds the current user for a logged-in auditor.
func CurrentUserFromAuditor(a *Auditor, managerName string) *CurrentUser {
	return &CurrentUser{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Role:        RoleAuditor,
		ManagerID:   a.ManagerID,
		ManagerName: managerName,
	}
}

// NewStaff carries the fields shared by every staff creation request.
type NewStaff struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Validate checks the required staff fields.
func (n NewStaff) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return NewValidationError("name", "is required")
	}

	if strings.TrimSpace(n.Email) == "" {
		return NewValidationError("email", "is required")
	}

	if !strings.Contains(n.Email, "@") {
		return NewValidationErrorWithValue("email", "must be a valid email address", n.Email)
	}

	return nil
}
