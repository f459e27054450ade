package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// Multi-step operations run as Validate → Perform → Verify → Archive → Respond.
// Nothing is persisted until Perform's result has been verified, so a
// provider failure half way through leaves no partial state behind and the
// operation can simply be retried.

// ExecutionStep names a stage of an Operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation stopped at.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", e.Operation, e.Step, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs operations step by step, logging each transition.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor; a nil logger means slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation holds the functions run for each step. Nil steps are skipped
// and pass the zero value on.
type Operation[I, P, V, O any] struct {
	Name string

	// Validate checks preconditions before any side effect.
	Validate func(ctx context.Context, input I) error

	// Perform calls the external dependencies.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify checks Perform's result against independent state.
	Verify func(ctx context.Context, input I, performed P) (V, error)

	// Archive persists the verified result.
	Archive func(ctx context.Context, input I, verified V) error

	// Respond shapes the result for the caller.
	Respond func(ctx context.Context, input I, verified V) (O, error)
}

// Execute runs op on input and stops at the first failing step. The
// context logger is preferred over the executor's own so request and
// trace IDs are kept.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	var (
		performed P
		verified  V
		result    O
		err       error
	)

	if op.Validate != nil {
		if _, err = step(ctx, logger, op.Name, StepValidate, func() (struct{}, error) {
			return struct{}{}, op.Validate(ctx, input)
		}); err != nil {
			return zero, err
		}
	}

	if op.Perform != nil {
		if performed, err = step(ctx, logger, op.Name, StepPerform, func() (P, error) {
			return op.Perform(ctx, input)
		}); err != nil {
			return zero, err
		}
	}

	if op.Verify != nil {
		if verified, err = step(ctx, logger, op.Name, StepVerify, func() (V, error) {
			return op.Verify(ctx, input, performed)
		}); err != nil {
			return zero, err
		}
	}

	if op.Archive != nil {
		if _, err = step(ctx, logger, op.Name, StepArchive, func() (struct{}, error) {
			return struct{}{}, op.Archive(ctx, input, verified)
		}); err != nil {
			return zero, err
		}
	}

	if op.Respond != nil {
		if result, err = step(ctx, logger, op.Name, StepRespond, func() (O, error) {
			return op.Respond(ctx, input, verified)
		}); err != nil {
			return zero, err
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

func step[T any](ctx context.Context, logger *slog.Logger, op string, name ExecutionStep, fn func() (T, error)) (T, error) {
	logger.DebugContext(ctx, "step started", slog.String("step", string(name)))

	out, err := fn()
	if err != nil {
		level := slog.LevelError
		if name == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "step failed", slog.String("step", string(name)), slog.Any("error", err))

		var zero T

		return zero, &ExecutionError{Operation: op, Step: name, Cause: err}
	}

	return out, nil
}

// IsExecutionError reports whether err came out of Execute.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep returns the step an Execute error stopped at.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
