package batch

import (
	"context"

	"github.com/emptyOVO/textjobs/worker"
)

// Runner abstracts how the map/group/reduce transform is executed.
type Runner interface {
	Run(ctx context.Context, job worker.Job, units []worker.InputUnit, opts worker.Options) (worker.Result, error)
}

// LocalRunner runs the whole job in this process.
type LocalRunner struct{}

func (LocalRunner) Run(ctx context.Context, job worker.Job, units []worker.InputUnit, opts worker.Options) (worker.Result, error) {
	if err := ctx.Err(); err != nil {
		return worker.Result{}, &worker.PhaseError{Phase: worker.PhaseMap, Err: err}
	}
	return worker.Run(ctx, job, units, opts)
}

var defaultRunner Runner = LocalRunner{}

// SetDefaultRunner overrides the process-wide runtime strategy.
func SetDefaultRunner(r Runner) {
	if r == nil {
		return
	}
	defaultRunner = r
}

// DefaultRunner returns the current process-wide runtime strategy.
func DefaultRunner() Runner {
	return defaultRunner
}
