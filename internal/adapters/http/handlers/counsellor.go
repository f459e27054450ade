package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// Counsellor response messages.
const (
	MsgRecordingUploaded = "Call recording uploaded successfully"
	MsgCounsellorCreated = "Counsellor created successfully"

	// StatusProcessing is reported for a recording queued for analysis.
	StatusProcessing = "processing"
)

// UploadPath is the recording upload route, which runs without a request
// deadline.
const UploadPath = "/api/v1/counsellor/upload-audio"

// CounsellorService is the part of app.CounsellorService the counsellor
// routes use.
type CounsellorService interface {
	UploadRecording(ctx context.Context, rec app.Recording) (*domain.Call, error)
	CreateCounsellor(ctx context.Context, req app.NewCounsellor) (*domain.Counsellor, error)
}

// CounsellorHandler serves /api/v1/counsellor.
type CounsellorHandler struct {
	service CounsellorService
}

// NewCounsellorHandler creates the counsellor handler.
func NewCounsellorHandler(service CounsellorService) *CounsellorHandler {
	return &CounsellorHandler{service: service}
}

// UploadAudio handles POST /api/v1/counsellor/upload-audio. The call is
// created right away and analysed in the background, hence 202.
func (h *CounsellorHandler) UploadAudio(c *gin.Context) {
	var req dto.UploadAudioRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	call, err := req.ToNewCall()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	file, err := req.CallRecording.Open()
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("call_recording", "could not be read"))
		return
	}
	defer file.Close()

	created, err := h.service.UploadRecording(c.Request.Context(), app.Recording{
		Call:     call,
		Filename: req.CallRecording.Filename,
		Content:  file,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.UploadResult{
		Result: dto.OK(MsgRecordingUploaded),
		CallID: created.ID,
		Status: StatusProcessing,
	})
}

// CreateCounsellor handles POST /api/v1/counsellor/.
func (h *CounsellorHandler) CreateCounsellor(c *gin.Context) {
	var req dto.CreateCounsellorRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	_, err := h.service.CreateCounsellor(c.Request.Context(), app.NewCounsellor{
		NewStaff:  req.ToNewStaff(""),
		ManagerID: req.ManagerID,
		AuditorID: req.AuditorID,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(MsgCounsellorCreated))
}

// RegisterRoutes registers the counsellor routes on rg. Counsellors never
// log in, so none of them require a session.
func (h *CounsellorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	counsellor := rg.Group("/counsellor")
	counsellor.POST("/", h.CreateCounsellor)
	counsellor.POST("/upload-audio", h.UploadAudio)
}
