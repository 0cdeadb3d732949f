package engine

import (
	"fmt"

	"github.com/gantry-ci/gantry/internal/matrix"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// Validate rejects a malformed pipeline before any job starts: empty matrix
// axes, duplicate identifiers, steps with neither or both of run/uses,
// unresolvable action references and uncompilable conditions.
func (e *Engine) Validate(pipeline *v1beta1.Pipeline) error {
	jobs := make(map[string]struct{}, len(pipeline.Jobs))

	for _, job := range pipeline.Jobs {
		if job.Name == "" {
			return &ConfigError{Reason: "job without a name"}
		}

		if _, ok := jobs[job.Name]; ok {
			return &ConfigError{Reason: fmt.Sprintf("duplicate job %s", job.Name)}
		}

		jobs[job.Name] = struct{}{}

		if job.If != "" {
			if err := e.evaluator.Compile(job.If); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("job %s condition", job.Name), Err: err}
			}
		}

		if job.Strategy != nil {
			if _, err := matrix.Expand(job.Strategy.Matrix); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("job %s matrix", job.Name), Err: err}
			}
		}

		if err := e.validateSteps(job); err != nil {
			return err
		}
	}

	for _, post := range pipeline.Post {
		if post.Uses == "" {
			return &ConfigError{Reason: fmt.Sprintf("post action %s without uses", post.Name)}
		}

		if _, err := e.registry.Resolve(post.Uses); err != nil {
			return err
		}

		if post.If != "" {
			if err := e.evaluator.Compile(post.If); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("post action %s condition", post.Name), Err: err}
			}
		}
	}

	return nil
}

func (e *Engine) validateSteps(job v1beta1.Job) error {
	ids := make(map[string]struct{}, len(job.Steps))

	for _, step := range job.Steps {
		if _, ok := ids[step.ID]; ok {
			return &ConfigError{Reason: fmt.Sprintf("job %s: duplicate step %s", job.Name, step.ID)}
		}

		ids[step.ID] = struct{}{}

		if (step.Run == "") == (step.Uses == "") {
			return &ConfigError{Reason: fmt.Sprintf("job %s step %s: exactly one of run or uses required", job.Name, step.ID)}
		}

		// all action references resolve before anything runs
		if step.Uses != "" {
			if _, err := e.registry.Resolve(step.Uses); err != nil {
				return err
			}
		}

		if step.If != "" {
			if err := e.evaluator.Compile(step.If); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("job %s step %s condition", job.Name, step.ID), Err: err}
			}
		}
	}

	return nil
}
