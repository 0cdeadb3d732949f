package engine

import (
	"fmt"
	"time"

	"github.com/gantry-ci/gantry/internal/scheduler"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// JobStatus is one job tracked through the engine state machine. Result is
// nil unless the job reached the scheduler.
type JobStatus struct {
	Job    string               `json:"job"`
	Phase  v1beta1.JobPhase     `json:"phase"`
	Result *scheduler.JobResult `json:"result,omitempty"`
	Err    error                `json:"-"`
}

type PostResult struct {
	Name   string         `json:"name"`
	Status v1beta1.Status `json:"status"`
	Err    error          `json:"-"`
}

// Result is the terminal record of one pipeline run.
type Result struct {
	Pipeline  string         `json:"pipeline,omitempty"`
	Status    v1beta1.Status `json:"status"`
	Jobs      []*JobStatus   `json:"jobs,omitempty"`
	Post      []*PostResult  `json:"post,omitempty"`
	StartedAt time.Time      `json:"startedAt,omitzero"`
	EndedAt   time.Time      `json:"endedAt,omitzero"`
	Err       error          `json:"-"`
}

func (r *Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Job returns the tracked status for a job name.
func (r *Result) Job(name string) (*JobStatus, error) {
	for _, job := range r.Jobs {
		if job.Job == name {
			return job, nil
		}
	}

	return nil, fmt.Errorf("no such job status: %s", name)
}
