package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// Auditor response messages.
const (
	MsgAuditorDashboard = "Successfully retrieved dashboard data"
	MsgAuditorCalls     = "Successfully retrieved calls for auditor"
	MsgAuditApproved    = "Successfully approved audit"
	MsgAuditorCreated   = "Auditor created successfully"
)

// AuditorService is the part of app.AuditorService the auditor routes use.
type AuditorService interface {
	Dashboard(ctx context.Context, auditorID string) (*domain.AuditorDashboard, error)
	ReviewQueue(ctx context.Context, auditorID string) (*domain.ReviewQueue, error)
	ApproveAudit(ctx context.Context, auditorID string, req app.ApprovalRequest) (*domain.AuditReport, error)
	Unflag(ctx context.Context, auditorID, auditID string) error
	FlaggedAudits(ctx context.Context, auditorID string) ([]domain.FlaggedAudit, error)
	CreateAuditor(ctx context.Context, managerID string, staff domain.NewStaff) (*domain.Auditor, error)
}

// AuditorHandler serves /api/v1/auditor.
type AuditorHandler struct {
	service AuditorService
}

// NewAuditorHandler creates the auditor handler.
func NewAuditorHandler(service AuditorService) *AuditorHandler {
	return &AuditorHandler{service: service}
}

// Dashboard handles GET /api/v1/auditor/.
func (h *AuditorHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuditorDashboardResult(MsgAuditorDashboard, dashboard))
}

// Calls handles GET /api/v1/auditor/calls, least confident analyses first.
func (h *AuditorHandler) Calls(c *gin.Context) {
	queue, err := h.service.ReviewQueue(c.Request.Context(), currentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCallsResult(MsgAuditorCalls, queue))
}

// ApproveAudit handles POST /api/v1/auditor/approve-audit.
func (h *AuditorHandler) ApproveAudit(c *gin.Context) {
	var req dto.ApproveAuditRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	_, err := h.service.ApproveAudit(c.Request.Context(), currentUserID(c), app.ApprovalRequest{
		CallID:      req.CallID,
		Comments:    req.Comments,
		Flag:        req.Flag,
		FlagReasons: req.FlagReasons,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgAuditApproved))
}

// Unflag handles GET /api/v1/auditor/unflag?audit_id=.
func (h *AuditorHandler) Unflag(c *gin.Context) {
	var req dto.UnflagRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	if err := h.service.Unflag(c.Request.Context(), currentUserID(c), req.AuditID); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgUnflagged))
}

// FlaggedAudits handles GET /api/v1/auditor/flagged-audits.
func (h *AuditorHandler) FlaggedAudits(c *gin.Context) {
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

// CreateAuditor handles POST /api/v1/auditor/.
func (h *AuditorHandler) CreateAuditor(c *gin.Context) {
	var req dto.CreateAuditorRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	if _, err := h.service.CreateAuditor(c.Request.Context(), req.ManagerID, req.ToNewStaff(req.Password)); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgAuditorCreated))
}

// RegisterRoutes registers the auditor routes on rg.
func (h *AuditorHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auditor := rg.Group("/auditor")
	auditor.POST("/", h.CreateAuditor)

	protected := auditor.Group("", requireAuth, middleware.RequireAuditor())
	protected.GET("/", h.Dashboard)
	protected.GET("/calls", h.Calls)
	protected.POST("/approve-audit", h.ApproveAudit)
	protected.GET("/unflag", h.Unflag)
	protected.GET("/flagged-audits", h.FlaggedAudits)
}
