package sequencer

import (
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/gantry-ci/gantry/internal/condition"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/joho/godotenv"
)

// ExecContext is the mutable state of one running job variant: accumulated
// environment variables and step outputs. It is owned exclusively by its
// sequencer and never visible to another variant.
type ExecContext struct {
	dir       string
	variant   Variant
	Envs      map[string]string
	Steps     map[string]*StepResult
	failed    bool
	cancelled bool
	Stdout    io.Writer
	Stderr    io.Writer
}

func NewExecContext(dir string, variant Variant, stdout, stderr io.Writer) *ExecContext {
	if stdout == nil {
		stdout = io.Discard
	}

	if stderr == nil {
		stderr = io.Discard
	}

	return &ExecContext{
		dir:     dir,
		variant: variant,
		Envs:    make(map[string]string),
		Steps:   make(map[string]*StepResult),
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

func (c *ExecContext) Dir() string {
	return c.dir
}

// ConditionContext projects the execution context onto the view condition
// expressions evaluate against.
func (c *ExecContext) ConditionContext() condition.Context {
	steps := make(map[string]condition.StepOutcome, len(c.Steps))
	for id, step := range c.Steps {
		var outputs map[string]string
		if step.Status != v1beta1.StatusSkipped {
			outputs = step.Outputs
		}

		steps[id] = condition.StepOutcome{
			Outcome: step.Status,
			Outputs: outputs,
		}
	}

	return condition.Context{
		Event:        c.variant.Event,
		Matrix:       c.variant.Matrix,
		Env:          maps.Clone(c.Envs),
		Steps:        steps,
		JobFailed:    c.failed,
		JobCancelled: c.cancelled,
	}
}

// mergedEnv flattens the context plus step-scoped additions into the
// environment handed to the sandbox. Matrix values and trigger metadata are
// exported under the GANTRY_ prefix.
func (c *ExecContext) mergedEnv(extra map[string]string) map[string]string {
	env := make(map[string]string, len(c.Envs)+len(extra)+8)
	maps.Copy(env, c.Envs)
	maps.Copy(env, extra)

	env["GANTRY_EVENT"] = string(c.variant.Event.Kind)
	env["GANTRY_REF"] = c.variant.Event.Ref
	env["GANTRY_SHA"] = c.variant.Event.SHA
	if repo := c.variant.Event.Repository; repo.Owner != "" || repo.Name != "" {
		env["GANTRY_REPOSITORY"] = fmt.Sprintf("%s/%s", repo.Owner, repo.Name)
	}

	for axis, value := range c.variant.Matrix {
		env["GANTRY_MATRIX_"+strings.ToUpper(axis)] = value
	}

	return env
}

func envSlice(env map[string]string) []string {
	envs := make([]string, 0, len(env))
	for k, v := range env {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}

	return envs
}

// resolveEnv maps declared env vars to concrete values. A var without a
// value is taken over from the host environment if present.
func resolveEnv(vars []v1beta1.EnvVar, osEnv map[string]string) map[string]string {
	env := make(map[string]string)
	for _, e := range vars {
		if e.Value == nil {
			if v, ok := osEnv[e.Name]; ok {
				env[e.Name] = v
			}

			continue
		}

		env[e.Name] = *e.Value
	}

	return env
}

func parseVars(r io.Reader) (map[string]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	envMap, err := godotenv.UnmarshalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("dotenv failed: %w", err)
	}

	return envMap, nil
}
