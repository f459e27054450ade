package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// Manager response messages.
const (
	MsgManagerDashboard   = "Succesfully analyzed audits for manager"
	MsgManagerAuditors    = "Succesfully got the auditors data under manager"
	MsgManagerCounsellors = "Succesfully retrieved counsellors data"
	MsgFlaggedAudits      = "Successfully retrieved the flagged audits"
	MsgAuditorAdded       = "Auditor created succesfully"
	MsgCounsellorAdded    = "Counsellor created succesfully"
	MsgUnflagged          = "Successfully unflagged audit"
	MsgManagerCreated     = "Manager created successfully."

	// PasswordNotNeeded stands in for the password of a new counsellor,
	// who never logs in.
	PasswordNotNeeded = "Not needed"
)

// ManagerService is the part of app.ManagerService the manager routes use.
type ManagerService interface {
	Dashboard(ctx context.Context, managerID string) (*domain.ManagerDashboard, error)
	FlaggedAudits(ctx context.Context, managerID string) ([]domain.FlaggedAudit, error)
	Auditors(ctx context.Context, managerID string) (*domain.AuditorOverview, error)
	Counsellors(ctx context.Context, managerID string) (*domain.CounsellorOverview, error)
	AddStaff(ctx context.Context, managerID string, req app.StaffRequest) (*app.AddedStaff, error)
	SetActive(ctx context.Context, req app.ActivationRequest, active bool) (domain.Role, string, error)
	Unflag(ctx context.Context, auditID string) error
	CreateManager(ctx context.Context, staff domain.NewStaff) (*domain.Manager, error)
}

// ManagerHandler serves /api/v1/manager.
type ManagerHandler struct {
	service ManagerService
}

// NewManagerHandler creates the manager handler.
func NewManagerHandler(service ManagerService) *ManagerHandler {
	return &ManagerHandler{service: service}
}

// Dashboard handles GET /api/v1/manager/.
func (h *ManagerHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewManagerDashboardResult(MsgManagerDashboard, dashboard))
}

// FlaggedAudits handles GET /api/v1/manager/flagged-audits.
func (h *ManagerHandler) FlaggedAudits(c *gin.Context) {
	audits, err := h.service.FlaggedAudits(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FlaggedAuditsResult{
		Result:        dto.OK(MsgFlaggedAudits),
		FlaggedAudits: dto.NewFlaggedAuditResponses(audits),
	})
}

// Auditors handles GET /api/v1/manager/auditors.
func (h *ManagerHandler) Auditors(c *gin.Context) {
	overview, err := h.service.Auditors(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuditorsResult(MsgManagerAuditors, overview))
}

// Counsellors handles GET /api/v1/manager/counsellor.
func (h *ManagerHandler) Counsellors(c *gin.Context) {
	overview, err := h.service.Counsellors(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCounsellorsResult(MsgManagerCounsellors, overview))
}

// AddStaff handles POST /api/v1/manager/add.
func (h *ManagerHandler) AddStaff(c *gin.Context) {
	var req dto.AddStaffRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	added, err := h.service.AddStaff(c.Request.Context(), currentUserID(c), app.StaffRequest{
		Role:      req.Role,
		NewStaff:  req.ToNewStaff(""),
		AuditorID: req.AuditorID,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	result := dto.NewStaffResult{Result: dto.OK(MsgAuditorAdded), Password: added.Password}
	if added.Role == domain.RoleCounsellor {
		result = dto.NewStaffResult{Result: dto.OK(MsgCounsellorAdded), Password: PasswordNotNeeded}
	}

	c.JSON(http.StatusOK, result)
}

// Activate handles POST /api/v1/manager/activate.
func (h *ManagerHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST /api/v1/manager/deactivate.
func (h *ManagerHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ManagerHandler) setActive(c *gin.Context, active bool) {
	var req dto.ActivationRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	role, id, err := h.service.SetActive(c.Request.Context(), app.ActivationRequest{
		Role:         req.Role,
		AuditorID:    req.AuditorID,
		CounsellorID: req.CounsellorID,
	}, active)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	verb := "deactivated"
	if active {
		verb = "activated"
	}

	c.JSON(http.StatusOK, dto.OK(fmt.Sprintf("Succesfully %s %s with id: %s", verb, role, id)))
}

// Unflag handles GET /api/v1/manager/unflag?audit_id=.
func (h *ManagerHandler) Unflag(c *gin.Context) {
	var req dto.UnflagRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	if err := h.service.Unflag(c.Request.Context(), req.AuditID); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgUnflagged))
}

// CreateManager handles POST /api/v1/manager/. It is open so the first
// manager can be registered.
func (h *ManagerHandler) CreateManager(c *gin.Context) {
	var req dto.CreateManagerRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	if _, err := h.service.CreateManager(c.Request.Context(), req.ToNewStaff(req.Password)); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgManagerCreated))
}

// RegisterRoutes registers the manager routes on rg. Everything except
// manager registration runs behind requireAuth and the manager role check.
func (h *ManagerHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	manager := rg.Group("/manager")
	manager.POST("/", h.CreateManager)

	protected := manager.Group("", requireAuth, middleware.RequireManager())
	protected.GET("/", h.Dashboard)
	protected.GET("/flagged-audits", h.FlaggedAudits)
	protected.GET("/auditors", h.Auditors)
	protected.GET("/counsellor", h.Counsellors)
	protected.POST("/add", h.AddStaff)
	protected.POST("/activate", h.Activate)
	protected.POST("/deactivate", h.Deactivate)
	protected.GET("/unflag", h.Unflag)
}

// currentUserID is the id of the authenticated caller.
func currentUserID(c *gin.Context) string {
	if user := middleware.GetCurrentUser(c); user != nil {
		return user.ID
	}

	return ""
}
