package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const processorComponent = "app.call_processor"

// Processing stages reported to ProcessingMetrics.
const (
	StageUpload     = "upload"
	StageTranscribe = "transcribe"
	StageAnalyze    = "analyze"
	StageSave       = "save"
)

// processedCall is what the providers returned for one recording.
type processedCall struct {
	recordingURL string
	transcript   *domain.Transcript
	insights     *domain.ConversationInsights
}

// verifiedCall is ready to be stored.
type verifiedCall struct {
	recordingURL string
	analysis     *domain.CallAnalysis
}

// ProcessorConfig configures a CallProcessor.
type ProcessorConfig struct {
	// Timeout bounds one processing attempt. Zero means no limit.
	Timeout time.Duration
	Metrics *telemetry.ProcessingMetrics
	Logger  *slog.Logger
}

// CallProcessor turns an uploaded recording into a stored analysis: the
// audio goes to object storage, then through speech-to-text and the
// conversation analyzer. It is driven by the event bus, which retries
// failed attempts.
type CallProcessor struct {
	repo        ports.CounsellorRepository
	storage     ports.AudioStorage
	transcriber ports.Transcriber
	analyzer    ports.ConversationAnalyzer
	exec        *Executor
	timeout     time.Duration
	metrics     *telemetry.ProcessingMetrics
	logger      *slog.Logger
}

// NewCallProcessor creates the processor.
func NewCallProcessor(
	repo ports.CounsellorRepository,
	storage ports.AudioStorage,
	transcriber ports.Transcriber,
	analyzer ports.ConversationAnalyzer,
	cfg ProcessorConfig,
) *CallProcessor {
	logger := (&ServiceConfig{Logger: cfg.Logger}).baseLogger().With(slog.String("component", processorComponent))

	return &CallProcessor{
		repo:        repo,
		storage:     storage,
		transcriber: transcriber,
		analyzer:    analyzer,
		exec:        NewExecutor(logger),
		timeout:     cfg.Timeout,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// ProcessRecording runs one processing attempt. The temporary recording is
// removed once the analysis is stored; on error it is kept for the retry.
func (p *CallProcessor) ProcessRecording(ctx context.Context, event domain.RecordingUploaded) error {
	defer p.metrics.Track()()

	ctx = logging.WithCall(logging.WithContext(ctx, logging.FromContextOr(ctx, p.logger)), event.CallID)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)

		defer cancel()
	}

	analysis, err := Execute(ctx, p.exec, p.operation(), event)
	if err != nil {
		return err
	}

	p.metrics.Attempt(telemetry.OutcomeSucceeded)
	p.metrics.ObserveConfidence(analysis.AIConfidence)
	p.cleanup(ctx, event)

	return nil
}

// RecordingFailed is called after the last attempt. The call stays stored
// without an analysis.
func (p *CallProcessor) RecordingFailed(ctx context.Context, event domain.RecordingUploaded, reason string) {
	p.metrics.Attempt(telemetry.OutcomeFailed)

	p.logger.ErrorContext(ctx, "call processing abandoned",
		slog.String("call_id", event.CallID),
		slog.String("reason", reason),
	)

	p.cleanup(ctx, event)
}

func (p *CallProcessor) operation() Operation[domain.RecordingUploaded, *processedCall, *verifiedCall, *domain.CallAnalysis] {
	return Operation[domain.RecordingUploaded, *processedCall, *verifiedCall, *domain.CallAnalysis]{
		Name:     "process_call_recording",
		Validate: p.validate,
		Perform:  p.perform,
		Verify:   p.verify,
		Archive:  p.archive,
		Respond: func(_ context.Context, _ domain.RecordingUploaded, v *verifiedCall) (*domain.CallAnalysis, error) {
			return v.analysis, nil
		},
	}
}

func (p *CallProcessor) validate(_ context.Context, event domain.RecordingUploaded) error {
	if event.CallID == "" {
		return domain.NewValidationError("call_id", "is required")
	}

	if event.AudioPath == "" {
		return domain.NewValidationError("audio_path", "is required")
	}

	if _, err := os.Stat(event.AudioPath); err != nil {
		return fmt.Errorf("recording for call %s: %w", event.CallID, err)
	}

	return nil
}

func (p *CallProcessor) perform(ctx context.Context, event domain.RecordingUploaded) (*processedCall, error) {
	var out processedCall

	err := p.stage(StageUpload, func() error {
		url, err := p.storage.Upload(ctx, event.AudioPath, event.StorageKey(objectID(event.AudioPath)))
		out.recordingURL = url

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("uploading recording: %w", err)
	}

	err = p.stage(StageTranscribe, func() error {
		transcript, err := p.transcriber.Transcribe(ctx, event.AudioPath)
		out.transcript = transcript

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transcribing recording: %w", err)
	}

	err = p.stage(StageAnalyze, func() error {
		insights, err := p.analyzer.Analyze(ctx, out.transcript)
		out.insights = insights

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing transcript: %w", err)
	}

	return &out, nil
}

// verify re-reads the call so a call deleted while the providers were
// working is not given an orphaned analysis.
func (p *CallProcessor) verify(ctx context.Context, event domain.RecordingUploaded, done *processedCall) (*verifiedCall, error) {
	if done.transcript == nil || done.insights == nil {
		return nil, errors.New("providers returned no result")
	}

	call, err := p.repo.CallByID(ctx, event.CallID)
	if err != nil {
		return nil, err
	}

	return &verifiedCall{
		recordingURL: done.recordingURL,
		analysis:     done.insights.ToAnalysis(call.ID, done.transcript),
	}, nil
}

func (p *CallProcessor) archive(ctx context.Context, event domain.RecordingUploaded, v *verifiedCall) error {
	return p.stage(StageSave, func() error {
		if err := p.repo.SetRecordingURL(ctx, event.CallID, v.recordingURL); err != nil {
			return fmt.Errorf("saving recording url: %w", err)
		}

		if err := p.repo.SaveAnalysis(ctx, v.analysis); err != nil {
			return fmt.Errorf("saving analysis: %w", err)
		}

		return nil
	})
}

func (p *CallProcessor) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.ObserveStage(name, time.Since(start))

	return err
}

func (p *CallProcessor) cleanup(ctx context.Context, event domain.RecordingUploaded) {
	if event.AudioPath == "" {
		return
	}

	if err := removeIfExists(event.AudioPath); err != nil {
		p.logger.WarnContext(ctx, "removing temporary recording failed",
			slog.String("call_id", event.CallID),
			slog.Any("error", err),
		)
	}
}

// objectID reuses the random name the upload was saved under, so every
// retry of a call writes the same object.
func objectID(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
