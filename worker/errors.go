package worker

import "fmt"

type Phase string

const (
	PhaseRead   Phase = "read"
	PhaseMap    Phase = "map"
	PhaseGroup  Phase = "group"
	PhaseReduce Phase = "reduce"
	PhaseWrite  Phase = "write"
)

// PhaseError tags a job failure with the phase and, when known, the input
// or output path involved.
type PhaseError struct {
	Phase Phase
	Path  string
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s phase failed for %s: %v", e.Phase, e.Path, e.Err)
	}
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, path string, err error) error {
	return &PhaseError{Phase: phase, Path: path, Err: err}
}
