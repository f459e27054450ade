package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jsamuelsen/qc-audit-service/internal/app/staging"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const counsellorComponent = "app.counsellor"

// Recording is an uploaded call recording and the call it belongs to.
type Recording struct {
	Call     domain.NewCall
	Filename string
	Content  io.Reader
}

// NewCounsellor is a counsellor registration.
type NewCounsellor struct {
	domain.NewStaff
	ManagerID string
	AuditorID string
}

// UploadConfig bounds recording uploads.
type UploadConfig struct {
	TempDir string
	MaxSize int64
}

// CounsellorService stores uploaded calls and queues them for analysis.
type CounsellorService struct {
	repo      ports.CounsellorRepository
	publisher ports.CallEventPublisher
	upload    UploadConfig
}

// NewCounsellorService creates the counsellor service.
func NewCounsellorService(repo ports.CounsellorRepository, publisher ports.CallEventPublisher, upload UploadConfig) *CounsellorService {
	return &CounsellorService{repo: repo, publisher: publisher, upload: upload}
}

// UploadRecording saves the recording to the temp directory, creates the
// call and publishes it for background processing. When a step fails, the
// saved file is removed again.
func (s *CounsellorService) UploadRecording(ctx context.Context, rec Recording) (*domain.Call, error) {
	logger := requestLogger(ctx, counsellorComponent)

	if err := rec.Call.Validate(); err != nil {
		return nil, err
	}

	if rec.Content == nil {
		return nil, domain.NewValidationError("call_recording", "is required")
	}

	path := filepath.Join(s.upload.TempDir, uuid.NewString()+strings.ToLower(filepath.Ext(rec.Filename)))

	var call *domain.Call

	plan := staging.NewPlan()
	steps := []staging.Step{
		{
			Name:     "store recording",
			Run:      func(context.Context) error { return s.store(path, rec.Content) },
			Rollback: func(context.Context) error { return removeIfExists(path) },
		},
		{
			Name: "create call",
			Run: func(ctx context.Context) error {
				var err error
				call, err = s.repo.CreateCall(ctx, rec.Call)

				return err
			},
		},
		{
			Name: "queue processing",
			Run: func(ctx context.Context) error {
				return s.publisher.PublishRecordingUploaded(ctx, domain.RecordingUploaded{CallID: call.ID, AudioPath: path})
			},
		},
	}

	for _, step := range steps {
		if err := plan.Add(step); err != nil {
			return nil, err
		}
	}

	if err := plan.Commit(ctx); err != nil {
		logger.WarnContext(ctx, "recording upload failed", slog.Any("error", err))

		return nil, err
	}

	logger.InfoContext(ctx, "recording queued for processing",
		slog.String("call_id", call.ID),
		slog.String("counsellor_id", call.CounsellorID),
	)

	return call, nil
}

// store copies the upload into path, rejecting content beyond the size limit.
func (s *CounsellorService) store(path string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // name is generated, directory comes from config
	if err != nil {
		return fmt.Errorf("creating recording file: %w", err)
	}

	src := content
	if s.upload.MaxSize > 0 {
		src = io.LimitReader(content, s.upload.MaxSize+1)
	}

	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("writing recording file: %w", err)
	}

	if s.upload.MaxSize > 0 && n > s.upload.MaxSize {
		return domain.NewValidationErrorWithValue("call_recording", "exceeds the maximum upload size", s.upload.MaxSize)
	}

	if n == 0 {
		return domain.NewValidationError("call_recording", "is empty")
	}

	return nil
}

// CreateCounsellor registers a counsellor under an existing auditor.
func (s *CounsellorService) CreateCounsellor(ctx context.Context, req NewCounsellor) (*domain.Counsellor, error) {
	if strings.TrimSpace(req.ManagerID) == "" {
		return nil, domain.NewValidationError("manager_id", "is required")
	}

	if strings.TrimSpace(req.AuditorID) == "" {
		return nil, domain.NewValidationError("auditor_id", "is required")
	}

	if err := req.NewStaff.Validate(); err != nil {
		return nil, err
	}

	c := &domain.Counsellor{
		AuditorID: strings.TrimSpace(req.AuditorID),
		ManagerID: strings.TrimSpace(req.ManagerID),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		IsActive:  true,
	}
	if err := s.repo.CreateCounsellor(ctx, c); err != nil {
		return nil, err
	}

	requestLogger(ctx, counsellorComponent).InfoContext(ctx, "counsellor created",
		slog.String("counsellor_id", c.ID),
		slog.String("auditor_id", c.AuditorID),
	)

	return c, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	return nil
}
