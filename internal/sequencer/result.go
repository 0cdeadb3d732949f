package sequencer

import (
	"fmt"
	"time"

	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// ExecutionError reports a step whose command exited non-zero. It is local
// to the owning job variant.
type ExecutionError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %s", e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type StepResult struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Status    v1beta1.Status    `json:"status"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	StartedAt time.Time         `json:"startedAt,omitzero"`
	EndedAt   time.Time         `json:"endedAt,omitzero"`
	Err       error             `json:"-"`
}

func (r *StepResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// RunResult is the terminal record of one job variant: a status per step in
// declared order plus the first error encountered. A sequencer always
// returns a RunResult, it never aborts the process.
type RunResult struct {
	Variant   string         `json:"variant"`
	Status    v1beta1.Status `json:"status"`
	Steps     []*StepResult  `json:"steps,omitempty"`
	StartedAt time.Time      `json:"startedAt,omitzero"`
	EndedAt   time.Time      `json:"endedAt,omitzero"`
	Err       error          `json:"-"`
}

func (r *RunResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Step returns the recorded result for a step id.
func (r *RunResult) Step(id string) (*StepResult, error) {
	for _, step := range r.Steps {
		if step.ID == id {
			return step, nil
		}
	}

	return nil, fmt.Errorf("no such step result: %s", id)
}

func (r *RunResult) recordErr(err error) {
	if r.Err == nil {
		r.Err = err
	}
}
