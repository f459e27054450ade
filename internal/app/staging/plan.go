package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// ErrAlreadyCommitted is returned when adding to or committing a plan that
// has already been committed.
var ErrAlreadyCommitted = errors.New("plan already committed")

// Step is one side effect of a plan. Rollback may be nil for steps that
// cannot or need not be undone. A step whose Run failed is rolled back too,
// so Rollback must cope with a step that only partly ran.
type Step struct {
	Name     string
	Run      func(ctx context.Context) error
	Rollback func(ctx context.Context) error
}

// Plan collects steps and executes them in order.
type Plan struct {
	mu        sync.Mutex
	steps     []Step
	committed bool
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

// Add appends a step.
func (p *Plan) Add(step Step) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.committed {
		return ErrAlreadyCommitted
	}

	p.steps = append(p.steps, step)

	return nil
}

// Commit runs every step. On the first failure the failing step and the
// steps before it are rolled back, newest first, and the failure is
// returned. Rollback errors are logged, not returned.
func (p *Plan) Commit(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.committed {
		return ErrAlreadyCommitted
	}

	p.committed = true

	for i, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			p.rollback(ctx, p.steps[:i+1])

			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}

	return nil
}

// rollback runs on a context that survives cancellation of the request,
// so cleanup still happens when the client has gone away.
func (p *Plan) rollback(ctx context.Context, ran []Step) {
	logger := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	for i := len(ran) - 1; i >= 0; i-- {
		step := ran[i]
		if step.Rollback == nil {
			continue
		}

		if err := step.Rollback(ctx); err != nil {
			logger.Warn("rollback failed", slog.String("step", step.Name), slog.Any("error", err))
		}
	}
}

// Steps returns the names of the staged steps in order.
func (p *Plan) Steps() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}

	return names
}
