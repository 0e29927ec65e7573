package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records the undo step of every side effect it performs. abort runs them
// newest first on a context that outlives the request.
type saga struct {
	name    string
	timeout time.Duration
	steps   []compensation
}

func newSaga(name string, timeout time.Duration) *saga {
	return &saga{
		name:    name,
		timeout: timeout,
	}
}

func (s *saga) onRollback(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// abort compensates and returns cause unchanged. A compensation that finds
// nothing to undo counts as done.
func (s *saga) abort(ctx context.Context, cause error) error {
	if len(s.steps) == 0 {
		return cause
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
			zap.L().Error("compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.name),
				zap.Error(err),
				zap.NamedError("cause", cause))
			continue
		}

		zap.L().Info("compensated", zap.String("saga", s.name), zap.String("step", step.name))
	}
	s.steps = nil

	return cause
}
