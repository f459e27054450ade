package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/mocks"
)

type managerMocks struct {
	repo      *mocks.MockManagerRepository
	hasher    *mocks.MockPasswordHasher
	passwords *mocks.MockPasswordGenerator
}

func newManagerService(t *testing.T) (*ManagerService, managerMocks) {
	t.Helper()

	m := managerMocks{
		repo:      mocks.NewMockManagerRepository(t),
		hasher:    mocks.NewMockPasswordHasher(t),
		passwords: mocks.NewMockPasswordGenerator(t),
	}

	return NewManagerService(m.repo, m.hasher, m.passwords, testConfig()), m
}

func TestManagerService_Dashboard(t *testing.T) {
	svc, m := newManagerService(t)
	since := domain.WindowStart(fixedNow, domain.DashboardWindow)
	flagged := []domain.FlaggedAudit{{ID: "r-1", CallID: "c-1", Score: 7}}

	m.repo.On("CountCalls", mock.Anything, "m-1").Return(12, nil)
	m.repo.On("CountAuditReports", mock.Anything, "m-1").Return(5, nil)
	m.repo.On("CountFlaggedCalls", mock.Anything, "m-1").Return(2, nil)
	m.repo.On("FlaggedAudits", mock.Anything, "m-1").Return(flagged, nil)
	m.repo.On("AuditedCallsByDay", mock.Anything, "m-1", since).
		Return(map[string]int{"2024-03-04": 1, "2024-03-10": 3}, nil)

	dash, err := svc.Dashboard(testContext(), "m-1")

	require.NoError(t, err)
	assert.Equal(t, 12, dash.TotalAssignedLeads)
	assert.Equal(t, 5, dash.TotalAuditedCalls)
	assert.Equal(t, 2, dash.FlaggedCalls)
	assert.Equal(t, flagged, dash.LatestFlagged)
	require.Len(t, dash.LastDays, 7)
	assert.Equal(t, domain.DailyCount{Date: "2024-03-04", Count: 1}, dash.LastDays[0])
	assert.Equal(t, domain.DailyCount{Date: "2024-03-07", Count: 0}, dash.LastDays[3])
	assert.Equal(t, domain.DailyCount{Date: "2024-03-10", Count: 3}, dash.LastDays[6])
}

func TestManagerService_DashboardError(t *testing.T) {
	svc, m := newManagerService(t)
	boom := errors.New("db down")

	m.repo.On("CountCalls", mock.Anything, "m-1").Return(0, boom).Maybe()
	m.repo.On("CountAuditReports", mock.Anything, "m-1").Return(0, nil).Maybe()
	m.repo.On("CountFlaggedCalls", mock.Anything, "m-1").Return(0, nil).Maybe()
	m.repo.On("FlaggedAudits", mock.Anything, "m-1").Return(nil, nil).Maybe()
	m.repo.On("AuditedCallsByDay", mock.Anything, "m-1", mock.Anything).Return(nil, nil).Maybe()

	_, err := svc.Dashboard(testContext(), "m-1")

	require.ErrorIs(t, err, boom)
}

func TestManagerService_Listings(t *testing.T) {
	svc, m := newManagerService(t)

	m.repo.On("AuditorStats", mock.Anything, "m-1").Return([]domain.AuditorStats{{ID: "a-1"}}, nil)
	m.repo.On("CountAuditedCallsOfAuditors", mock.Anything, "m-1").Return(4, nil)
	m.repo.On("CounsellorStats", mock.Anything, "m-1").Return([]domain.CounsellorStats{}, nil)
	m.repo.On("CountCalls", mock.Anything, "m-1").Return(9, nil)

	auditors, err := svc.Auditors(testContext(), "m-1")
	require.NoError(t, err)
	assert.Len(t, auditors.Auditors, 1)
	assert.Equal(t, 4, auditors.TotalAuditedCalls)

	counsellors, err := svc.Counsellors(testContext(), "m-1")
	require.NoError(t, err)
	assert.Empty(t, counsellors.Counsellors)
	assert.Equal(t, 9, counsellors.TotalCallsMade)
}

func TestManagerService_AddStaff(t *testing.T) {
	staff := domain.NewStaff{Name: "Asha", Email: "asha@example.com", Phone: "99"}

	tests := []struct {
		name     string
		req      StaffRequest
		setup    func(managerMocks)
		want     *AddedStaff
		errCheck func(error) bool
	}{
		{
			name: "auditor gets generated password",
			req:  StaffRequest{Role: "auditor", NewStaff: staff},
			setup: func(m managerMocks) {
				m.passwords.On("Generate").Return("Xy7!abcdef", nil)
				m.hasher.On("Hash", "Xy7!abcdef").Return("hashed", nil)
				m.repo.On("CreateAuditor", mock.Anything, mock.MatchedBy(func(a *domain.Auditor) bool {
					return a.ManagerID == "m-1" && a.PasswordHash == "hashed" && a.IsActive
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Auditor).ID = "a-new"
				}).Return(nil)
			},
			want: &AddedStaff{ID: "a-new", Role: domain.RoleAuditor, Password: "Xy7!abcdef"},
		},
		{
			name: "counsellor under own auditor",
			req:  StaffRequest{Role: "counsellor", NewStaff: staff, AuditorID: "a-1"},
			setup: func(m managerMocks) {
				m.repo.On("AuditorOfManager", mock.Anything, "m-1", "a-1").Return(testAuditor, nil)
				m.repo.On("CreateCounsellor", mock.Anything, mock.MatchedBy(func(c *domain.Counsellor) bool {
					return c.AuditorID == "a-1" && c.ManagerID == "m-1"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Counsellor).ID = "c-new"
				}).Return(nil)
			},
			want: &AddedStaff{ID: "c-new", Role: domain.RoleCounsellor},
		},
		{
			name:     "counsellor without auditor",
			req:      StaffRequest{Role: "counsellor", NewStaff: staff},
			setup:    func(managerMocks) {},
			errCheck: domain.IsValidation,
		},
		{
			name: "counsellor under foreign auditor",
			req:  StaffRequest{Role: "counsellor", NewStaff: staff, AuditorID: "a-9"},
			setup: func(m managerMocks) {
				m.repo.On("AuditorOfManager", mock.Anything, "m-1", "a-9").Return(nil, notFound("auditor"))
			},
			errCheck: domain.IsNotFound,
		},
		{
			name: "duplicate email",
			req:  StaffRequest{Role: "auditor", NewStaff: staff},
			setup: func(m managerMocks) {
				m.passwords.On("Generate").Return("pw", nil)
				m.hasher.On("Hash", "pw").Return("hashed", nil)
				m.repo.On("CreateAuditor", mock.Anything, mock.Anything).
					Return(domain.NewConflictError("auditor", "email already registered"))
			},
			errCheck: domain.IsConflict,
		},
		{
			name:     "manager role rejected",
			req:      StaffRequest{Role: "manager", NewStaff: staff},
			setup:    func(managerMocks) {},
			errCheck: domain.IsValidation,
		},
		{
			name:     "missing email",
			req:      StaffRequest{Role: "auditor", NewStaff: domain.NewStaff{Name: "Asha"}},
			setup:    func(managerMocks) {},
			errCheck: domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newManagerService(t)
			tt.setup(m)

			added, err := svc.AddStaff(testContext(), "m-1", tt.req)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error type: %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, added)
		})
	}
}

func TestManagerService_SetActive(t *testing.T) {
	t.Run("deactivate auditor", func(t *testing.T) {
		svc, m := newManagerService(t)
		m.repo.On("SetAuditorActive", mock.Anything, "a-1", false).Return(nil)

		role, id, err := svc.SetActive(testContext(), ActivationRequest{Role: "auditor", AuditorID: "a-1"}, false)

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAuditor, role)
		assert.Equal(t, "a-1", id)
	})

	t.Run("activate counsellor", func(t *testing.T) {
		svc, m := newManagerService(t)
		m.repo.On("SetCounsellorActive", mock.Anything, "c-1", true).Return(nil)

		role, id, err := svc.SetActive(testContext(), ActivationRequest{Role: "COUNSELLOR", CounsellorID: "c-1"}, true)

		require.NoError(t, err)
		assert.Equal(t, domain.RoleCounsellor, role)
		assert.Equal(t, "c-1", id)
	})

	t.Run("missing id", func(t *testing.T) {
		svc, _ := newManagerService(t)

		_, _, err := svc.SetActive(testContext(), ActivationRequest{Role: "counsellor", AuditorID: "a-1"}, true)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newManagerService(t)
		m.repo.On("SetAuditorActive", mock.Anything, "a-x", true).Return(notFound("auditor"))

		_, _, err := svc.SetActive(testContext(), ActivationRequest{Role: "auditor", AuditorID: "a-x"}, true)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		svc, _ := newManagerService(t)

		_, _, err := svc.SetActive(testContext(), ActivationRequest{Role: "lead"}, true)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestManagerService_Unflag(t *testing.T) {
	svc, m := newManagerService(t)
	m.repo.On("UnflagAudit", mock.Anything, "r-1").Return(nil)

	require.NoError(t, svc.Unflag(testContext(), "r-1"))
	assert.True(t, domain.IsValidation(svc.Unflag(testContext(), " ")))
}

func TestManagerService_CreateManager(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, m := newManagerService(t)
		m.hasher.On("Hash", "secret").Return("hashed", nil)
		m.repo.On("CreateManager", mock.Anything, mock.MatchedBy(func(mgr *domain.Manager) bool {
			return mgr.Email == "meera@example.com" && mgr.PasswordHash == "hashed"
		})).Return(nil)

		mgr, err := svc.CreateManager(testContext(), domain.NewStaff{
			Name: "Meera", Email: "meera@example.com", Password: "secret",
		})

		require.NoError(t, err)
		assert.Equal(t, "Meera", mgr.Name)
	})

	t.Run("password required", func(t *testing.T) {
		svc, _ := newManagerService(t)

		_, err := svc.CreateManager(testContext(), domain.NewStaff{Name: "Meera", Email: "meera@example.com"})
		assert.True(t, domain.IsValidation(err))
	})
}
