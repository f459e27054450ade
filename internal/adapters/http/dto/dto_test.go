package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

const testUUID = "123e4567-e89b-12d3-a456-426614174000"

func init() {
	gin.SetMode(gin.TestMode)
}

func newFormContext(method, target string, form url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	c.Request = httptest.NewRequest(method, target, body)
	if form != nil {
		c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return c, w
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "not found with message",
			err:        domain.NewNotFoundErrorWithMessage("auditor", testUUID, "Auditor not found"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Auditor not found",
		},
		{
			name:       "conflict",
			err:        domain.NewConflictError("manager", "email already registered"),
			wantStatus: http.StatusConflict,
			wantMsg:    "manager conflict: email already registered",
		},
		{
			name:       "field validation",
			err:        domain.NewValidationError("email", "this field is required"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "validation failed for email: this field is required",
		},
		{
			name:       "sentence validation shown verbatim",
			err:        domain.NewValidationError("", "Invalid role, must be auditor or counsellor"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid role, must be auditor or counsellor",
		},
		{
			name:       "wrapped validation",
			err:        fmt.Errorf("adding staff: %w", domain.NewValidationError("", "Auditor id is required")),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Auditor id is required",
		},
		{
			name:       "forbidden",
			err:        domain.NewForbiddenError("", "Auditor is inactive"),
			wantStatus: http.StatusForbidden,
			wantMsg:    "Auditor is inactive",
		},
		{
			name:       "unauthorized",
			err:        domain.NewUnauthorizedError("Invalid credentials"),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "unavailable",
			err:        domain.NewUnavailableError("storage", "bucket unreachable"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "request deadline",
			err:        fmt.Errorf("querying call: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    MsgTimeout,
		},
		{
			name:       "unknown error hides detail",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.False(t, resp.Success)

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(http.StatusNotFound, "Manager not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Manager not found","code":404}`, string(data))

	data, err = json.Marshal(NewErrorResponse(http.StatusInternalServerError, MsgInternal).WithTraceID("abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error","code":500,"trace_id":"abc"}`, string(data))
}

func TestGetTraceID(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	t.Run("span in context", func(t *testing.T) {
		c, _ := newFormContext(http.MethodGet, "/", nil)
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
		c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), sc))

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(c))
	})

	t.Run("no span", func(t *testing.T) {
		c, _ := newFormContext(http.MethodGet, "/", nil)

		assert.Empty(t, GetTraceID(c))
	})

	t.Run("no request", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		assert.Empty(t, GetTraceID(c))
	})
}

func TestHandleError(t *testing.T) {
	c, w := newFormContext(http.MethodGet, "/", nil)

	HandleError(c, domain.NewForbiddenError("", "Auditor is inactive"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Auditor is inactive","code":403}`, w.Body.String())
	assert.False(t, c.IsAborted())
}

func TestHandleError_AfterDeadline(t *testing.T) {
	expired := func(c *gin.Context) {
		ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(-time.Second))
		t.Cleanup(cancel)
		c.Request = c.Request.WithContext(ctx)
	}

	t.Run("unexpected error becomes 504", func(t *testing.T) {
		c, w := newFormContext(http.MethodGet, "/", nil)
		expired(c)

		HandleError(c, errors.New("sqlite: interrupted"))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Request timed out","code":504}`, w.Body.String())
	})

	t.Run("domain error keeps its status", func(t *testing.T) {
		c, w := newFormContext(http.MethodGet, "/", nil)
		expired(c)

		HandleError(c, domain.NewNotFoundErrorWithMessage("call", testUUID, "Call not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Call not found","code":404}`, w.Body.String())
	})
}

func TestAbortHelpers(t *testing.T) {
	t.Run("AbortWithError", func(t *testing.T) {
		c, w := newFormContext(http.MethodGet, "/", nil)

		AbortWithError(c, errors.New("boom"))

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("AbortWithStatus", func(t *testing.T) {
		c, w := newFormContext(http.MethodGet, "/", nil)

		AbortWithStatus(c, http.StatusRequestEntityTooLarge, "too big")

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"too big","code":413}`, w.Body.String())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid login",
			input: &LoginRequest{Email: "a@b.co", Password: "pw", Role: "manager"},
		},
		{
			name:      "missing password",
			input:     &LoginRequest{Email: "a@b.co", Role: "manager"},
			wantField: "password",
			wantMsg:   "this field is required",
		},
		{
			name:      "bad email",
			input:     &CreateManagerRequest{StaffFields: StaffFields{Name: "M", Email: "nope", Phone: "1"}, Password: "pw"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "blank name",
			input:     &CreateManagerRequest{StaffFields: StaffFields{Name: "   ", Email: "m@b.co", Phone: "1"}, Password: "pw"},
			wantField: "name",
			wantMsg:   "must not be empty",
		},
		{
			name:      "bad uuid",
			input:     &UnflagRequest{AuditID: "not-a-uuid"},
			wantField: "audit_id",
			wantMsg:   "must be a valid UUID",
		},
		{
			name:  "optional uuid may be empty",
			input: &ActivationRequest{Role: "auditor"},
		},
		{
			name:  "uuid without hyphens",
			input: &UnflagRequest{AuditID: strings.ReplaceAll(testUUID, "-", "")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestValidationMessage_MinMax(t *testing.T) {
	type bounded struct {
		Code  string `validate:"min=3"`
		Count int    `validate:"max=2"`
	}

	err := Validate(&bounded{Code: "ab", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be at least 3 characters")

	err = Validate(&bounded{Code: "abc", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be at most 2")
	assert.NotContains(t, err.Error(), "characters")
}

func TestBindForm(t *testing.T) {
	t.Run("binds and validates", func(t *testing.T) {
		c, _ := newFormContext(http.MethodPost, "/", url.Values{
			"email":    {"meera@qc.io"},
			"password": {"secret"},
			"role":     {"manager"},
		})

		var req LoginRequest
		require.NoError(t, BindForm(c, &req))
		assert.Equal(t, "meera@qc.io", req.Email)
		assert.Equal(t, "manager", req.Role)
	})

	t.Run("missing field", func(t *testing.T) {
		c, _ := newFormContext(http.MethodPost, "/", url.Values{"email": {"meera@qc.io"}, "role": {"manager"}})

		var req LoginRequest
		err := BindForm(c, &req)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("malformed integer", func(t *testing.T) {
		c, _ := newFormContext(http.MethodPost, "/", url.Values{"duration": {"ten"}})

		var req struct {
			Duration int `form:"duration" validate:"gte=0"`
		}
		err := BindForm(c, &req)
		require.Error(t, err)

		status, resp := FromError(err)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.True(t, strings.HasPrefix(resp.Message, "invalid request: "))
	})
}

func TestBindQuery(t *testing.T) {
	c, _ := newFormContext(http.MethodGet, "/?audit_id="+testUUID, nil)

	var req UnflagRequest
	require.NoError(t, BindQuery(c, &req))
	assert.Equal(t, testUUID, req.AuditID)

	c, _ = newFormContext(http.MethodGet, "/", nil)
	err := BindQuery(c, &UnflagRequest{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "RFC3339 UTC", value: "2026-03-14T09:30:00Z", want: want},
		{name: "offset converted to UTC", value: "2026-03-14T15:00:00+05:30", want: want},
		{name: "zoneless taken as UTC", value: "2026-03-14T09:30:00", want: want},
		{name: "fractional seconds", value: "2026-03-14T09:30:00.250", want: want.Add(250 * time.Millisecond)},
		{name: "space separated", value: " 2026-03-14 09:30:00 ", want: want},
		{name: "date only", value: "2026-03-14", wantErr: true},
		{name: "garbage", value: "yesterday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp("call_start", tt.value)

			if tt.wantErr {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "call_start", ve.Field)

				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestUploadAudioRequest_ToNewCall(t *testing.T) {
	req := &UploadAudioRequest{
		CallStart:    "2026-03-14T09:30:00Z",
		CallEnd:      "2026-03-14T09:42:00Z",
		Duration:     720,
		CallType:     " inbound ",
		ClientNumber: " +919800000000 ",
		Tags:         "admissions ",
		CounsellorID: testUUID,
	}

	call, err := req.ToNewCall()
	require.NoError(t, err)

	assert.Equal(t, testUUID, call.CounsellorID)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), call.CallStart)
	require.NotNil(t, call.CallEnd)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 42, 0, 0, time.UTC), *call.CallEnd)
	assert.Equal(t, 720, call.Duration)
	assert.Equal(t, "inbound", call.CallType)
	assert.Equal(t, "+919800000000", call.ClientNumber)
	assert.Equal(t, "admissions", call.Tags)

	req.CallEnd = "later"
	_, err = req.ToNewCall()

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "call_end", ve.Field)
}

func TestStaffFields_ToNewStaff(t *testing.T) {
	staff := StaffFields{Name: " Arjun ", Email: " arjun@qc.io", Phone: "98000 "}.ToNewStaff("pw")

	assert.Equal(t, domain.NewStaff{Name: "Arjun", Email: "arjun@qc.io", Phone: "98000", Password: "pw"}, staff)
}

func TestResponses_EmptyListsEncodeAsArrays(t *testing.T) {
	tests := []struct {
		name string
		v    any
		keys []string
	}{
		{
			name: "manager dashboard",
			v:    NewManagerDashboardResult("ok", &domain.ManagerDashboard{}),
			keys: []string{"latest_flagged_audit", "last_7_days_data"},
		},
		{
			name: "auditors",
			v:    NewAuditorsResult("ok", &domain.AuditorOverview{}),
			keys: []string{"auditors"},
		},
		{
			name: "counsellors",
			v:    NewCounsellorsResult("ok", &domain.CounsellorOverview{}),
			keys: []string{"counsellors"},
		},
		{
			name: "auditor dashboard",
			v:    NewAuditorDashboardResult("ok", &domain.AuditorDashboard{}),
			keys: []string{"latest_calls", "last_7_days_data"},
		},
		{
			name: "review queue",
			v:    NewCallsResult("ok", &domain.ReviewQueue{}),
			keys: []string{"calls"},
		},
		{
			name: "flagged audits",
			v:    FlaggedAuditsResult{Result: OK("ok"), FlaggedAudits: NewFlaggedAuditResponses(nil)},
			keys: []string{"flagged_audits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			require.NoError(t, err)

			var body map[string]any
			require.NoError(t, json.Unmarshal(data, &body))

			assert.Equal(t, true, body["success"])

			for _, key := range tt.keys {
				assert.Equal(t, []any{}, body[key], key)
			}
		})
	}
}

func TestNewAuditorsResult(t *testing.T) {
	got := NewAuditorsResult("Auditors fetched", &domain.AuditorOverview{
		Auditors: []domain.AuditorStats{
			{ID: "a-1", Name: "Arjun", IsActive: true, TotalAssignedLeads: 4, TotalAuditedLeads: 3},
			{ID: "a-2", Name: "Divya", TotalAssignedLeads: 2},
		},
		TotalAuditedCalls: 3,
	})

	assert.Equal(t, 2, got.NumberOfAuditors)
	assert.Equal(t, 3, got.TotalAuditedCalls)
	assert.Equal(t, "Arjun", got.Auditors[0].Name)
	assert.False(t, got.Auditors[1].IsActive)
}

func TestNewCounsellorsResult(t *testing.T) {
	got := NewCounsellorsResult("Counsellors fetched", &domain.CounsellorOverview{
		Counsellors:    []domain.CounsellorStats{{ID: "c-1", Name: "Kavya", TotalCalls: 6}},
		TotalCallsMade: 6,
	})

	assert.Equal(t, 1, got.TotalCounsellors)
	assert.Equal(t, 6, got.TotalCallsMade)
	assert.Equal(t, 6, got.Counsellors[0].TotalCalls)
}

func TestNewAuditorDashboardResult(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	got := NewAuditorDashboardResult("Dashboard", &domain.AuditorDashboard{
		Stats:       domain.CallStats{Audited: 3, Unaudited: 4, Flagged: 2},
		LatestCalls: []domain.RecentCall{{ID: "call-1", CallStart: start, ClientNumber: "98000"}},
		LastDays:    []domain.DailyCount{{Date: "2026-03-14", Count: 3}},
	})

	assert.Equal(t, 7, got.TotalAssignedLeads)
	assert.Equal(t, 3, got.TotalAuditedCalls)
	assert.Equal(t, 2, got.FlaggedCalls)
	assert.Equal(t, CallStatsResponse{Audited: 3, Unaudited: 4, Flagged: 2}, got.CallStats)
	assert.Equal(t, []LatestCallResponse{{ID: "call-1", CallStart: start, ClientNumber: "98000"}}, got.LatestCalls)
	assert.Equal(t, []DailyAuditResponse{{Date: "2026-03-14", AuditedCalls: 3}}, got.Last7DaysData)
}
