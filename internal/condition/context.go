package condition

import (
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// StepOutcome is the view a condition expression gets of an already
// sequenced step. Outputs of a skipped step stay absent.
type StepOutcome struct {
	Outcome v1beta1.Status
	Outputs map[string]string
}

// Context carries the variables a condition expression may reference.
type Context struct {
	Event          v1beta1.TriggerEvent
	Matrix         map[string]string
	Env            map[string]string
	Steps          map[string]StepOutcome
	JobFailed      bool
	JobCancelled   bool
	PipelineStatus v1beta1.Status
}

// Vars maps the context onto the CEL activation.
func (c Context) Vars() map[string]any {
	steps := make(map[string]any, len(c.Steps))
	for id, step := range c.Steps {
		outputs := step.Outputs
		if outputs == nil {
			outputs = map[string]string{}
		}

		steps[id] = map[string]any{
			"outcome": string(step.Outcome),
			"outputs": outputs,
		}
	}

	matrix := c.Matrix
	if matrix == nil {
		matrix = map[string]string{}
	}

	env := c.Env
	if env == nil {
		env = map[string]string{}
	}

	jobStatus := "running"
	switch {
	case c.JobCancelled:
		jobStatus = string(v1beta1.StatusCancelled)
	case c.JobFailed:
		jobStatus = string(v1beta1.StatusFailure)
	}

	return map[string]any{
		"event": map[string]any{
			"kind":   string(c.Event.Kind),
			"ref":    c.Event.Ref,
			"sha":    c.Event.SHA,
			"branch": c.Event.Branch(),
			"repository": map[string]any{
				"owner": c.Event.Repository.Owner,
				"name":  c.Event.Repository.Name,
				"url":   c.Event.Repository.URL,
			},
		},
		"matrix": matrix,
		"env":    env,
		"steps":  steps,
		"job": map[string]any{
			"status":    jobStatus,
			"failed":    c.JobFailed,
			"cancelled": c.JobCancelled,
		},
		"pipeline": map[string]any{
			"status": string(c.PipelineStatus),
		},
		"success":   !c.JobFailed && !c.JobCancelled,
		"failure":   c.JobFailed,
		"cancelled": c.JobCancelled,
		"always":    true,
	}
}
