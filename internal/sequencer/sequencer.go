package sequencer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"github.com/gantry-ci/gantry/internal/action"
	"github.com/gantry-ci/gantry/internal/condition"
	"github.com/gantry-ci/gantry/internal/runtime"
	"github.com/gantry-ci/gantry/internal/secrets"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/go-logr/logr"
	"github.com/sethvargo/go-retry"
)

type secretWriter interface {
	AddSecrets(secrets ...[]byte)
}

type discardSecretWriter struct{}

func (discardSecretWriter) AddSecrets(...[]byte) {}

type Option func(*Sequencer)

func WithLogger(logger logr.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

func WithSecrets(store secrets.Store) Option {
	return func(s *Sequencer) {
		s.secrets = store
	}
}

func WithSecretWriter(w secretWriter) Option {
	return func(s *Sequencer) {
		s.secretWriter = w
	}
}

func WithStdio(stdout, stderr io.Writer) Option {
	return func(s *Sequencer) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

func WithOSEnv(env map[string]string) Option {
	return func(s *Sequencer) {
		s.osEnv = env
	}
}

// New builds a step sequencer. The evaluator, registry and driver are the
// fixed collaborators; everything else defaults to a quiet no-op.
func New(evaluator *condition.Evaluator, registry *action.Registry, driver runtime.Interface, opts ...Option) *Sequencer {
	s := &Sequencer{
		evaluator:    evaluator,
		registry:     registry,
		driver:       driver,
		secrets:      secrets.Static(nil),
		secretWriter: discardSecretWriter{},
		logger:       logr.Discard(),
		stdout:       io.Discard,
		stderr:       io.Discard,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Sequencer executes the ordered steps of one job variant against a
// provisioned sandbox. It always returns a RunResult; step failures are
// captured, never thrown past it.
type Sequencer struct {
	evaluator    *condition.Evaluator
	registry     *action.Registry
	driver       runtime.Interface
	secrets      secrets.Store
	secretWriter secretWriter
	logger       logr.Logger
	stdout       io.Writer
	stderr       io.Writer
	osEnv        map[string]string
}

func (s *Sequencer) Run(ctx context.Context, variant Variant) *RunResult {
	result := &RunResult{
		Variant:   variant.Name,
		StartedAt: time.Now(),
	}

	defer func() {
		result.EndedAt = time.Now()
	}()

	sandbox, err := s.driver.Provision(ctx, variant.Job.RunsOn)
	if err != nil {
		result.Status = v1beta1.StatusFailure
		result.Err = err
		for _, step := range variant.Job.Steps {
			result.Steps = append(result.Steps, &StepResult{
				ID:     step.ID,
				Name:   step.Name,
				Status: v1beta1.StatusSkipped,
			})
		}

		return result
	}

	defer func() {
		if err := sandbox.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error(err, "sandbox release failed", "variant", variant.Name)
		}
	}()

	dir, err := os.MkdirTemp("", "gantry-run-")
	if err != nil {
		result.Status = v1beta1.StatusFailure
		result.Err = err
		return result
	}

	defer os.RemoveAll(dir)

	execCtx := NewExecContext(dir, variant, s.stdout, s.stderr)
	execCtx.Envs = resolveEnv(variant.Job.Env, s.osEnv)

	for i := range variant.Job.Steps {
		step := variant.Job.Steps[i]
		stepResult := &StepResult{
			ID:   step.ID,
			Name: step.Name,
		}

		result.Steps = append(result.Steps, stepResult)
		execCtx.Steps[step.ID] = stepResult

		if ctx.Err() != nil {
			execCtx.cancelled = true
		}

		if execCtx.cancelled {
			stepResult.Status = v1beta1.StatusCancelled
			continue
		}

		run, err := s.shouldRun(step, execCtx)
		if err != nil {
			// conditions fail closed: an unevaluable expression is
			// fatal to the owning job
			stepResult.Status = v1beta1.StatusFailure
			stepResult.Err = err
			execCtx.failed = true
			result.recordErr(err)

			for _, remaining := range variant.Job.Steps[i+1:] {
				skipped := &StepResult{
					ID:     remaining.ID,
					Name:   remaining.Name,
					Status: v1beta1.StatusSkipped,
				}
				result.Steps = append(result.Steps, skipped)
				execCtx.Steps[remaining.ID] = skipped
			}

			break
		}

		if !run {
			stepResult.Status = v1beta1.StatusSkipped
			s.logger.V(1).Info("step skipped", "variant", variant.Name, "step", step.ID)
			continue
		}

		stepResult.StartedAt = time.Now()
		outputs, err := s.invoke(ctx, execCtx, sandbox, step)
		stepResult.EndedAt = time.Now()
		stepResult.Outputs = declaredOutputs(step, outputs)

		if err != nil {
			stepResult.Status = v1beta1.StatusFailure
			stepResult.Err = err

			if step.ContinueOnError {
				s.logger.Info("step failed, failure allowed", "variant", variant.Name, "step", step.ID, "error", err)
				continue
			}

			execCtx.failed = true
			result.recordErr(err)
			continue
		}

		stepResult.Status = v1beta1.StatusSuccess
	}

	switch {
	case execCtx.failed:
		result.Status = v1beta1.StatusFailure
	case execCtx.cancelled:
		result.Status = v1beta1.StatusCancelled
		result.recordErr(context.Cause(ctx))
	default:
		result.Status = v1beta1.StatusSuccess
	}

	return result
}

// shouldRun gates a step on its condition. Without an explicit condition a
// step runs only while the job has not failed.
func (s *Sequencer) shouldRun(step v1beta1.Step, execCtx *ExecContext) (bool, error) {
	if step.If == "" {
		return !execCtx.failed, nil
	}

	return s.evaluator.Eval(step.If, execCtx.ConditionContext())
}

func (s *Sequencer) invoke(ctx context.Context, execCtx *ExecContext, sandbox runtime.Sandbox, step v1beta1.Step) (map[string]string, error) {
	// a step that already started runs to completion: cancellation is
	// honored between steps, never by killing the running command. Only
	// the step's own timeout terminates it early.
	ctx = context.WithoutCancel(ctx)

	extra := resolveEnv(step.Env, s.osEnv)

	// secrets are scoped to this step: registered with the mask store,
	// exposed through the step environment only and never merged back
	// into the variant context
	for _, secret := range step.Secrets {
		key := secret.From
		if key == "" {
			key = secret.Name
		}

		value, err := s.secrets.Get(ctx, key)
		if err != nil {
			return nil, &ExecutionError{Step: step.ID, Err: err}
		}

		s.secretWriter.AddSecrets([]byte(value))
		extra[secret.Name] = value
	}

	outputTmp, err := os.CreateTemp(execCtx.Dir(), "output")
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = outputTmp.Close()
		_ = os.Remove(outputTmp.Name())
	}()

	envTmp, err := os.CreateTemp(execCtx.Dir(), "env")
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = envTmp.Close()
		_ = os.Remove(envTmp.Name())
	}()

	extra["GANTRY_OUTPUT"] = outputTmp.Name()
	extra["GANTRY_ENV"] = envTmp.Name()

	attempt := func(ctx context.Context) (map[string]string, error) {
		if step.Timeout.Duration != 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, step.Timeout.Duration)
			defer cancel()
		}

		if step.Uses != "" {
			resolved, err := s.registry.Resolve(step.Uses)
			if err != nil {
				return nil, err
			}

			return resolved.Run(ctx, action.Invocation{
				With:    step.With,
				Env:     execCtx.mergedEnv(extra),
				WorkDir: execCtx.Dir(),
				Sandbox: sandbox,
				Stdout:  execCtx.Stdout,
				Stderr:  execCtx.Stderr,
			})
		}

		err := sandbox.Exec(ctx, runtime.ExecSpec{
			Script: step.Run,
			Env:    envSlice(execCtx.mergedEnv(extra)),
			Stdout: execCtx.Stdout,
			Stderr: execCtx.Stderr,
		})

		var exitErr *runtime.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExecutionError{Step: step.ID, ExitCode: exitErr.ExitCode, Err: err}
		}

		return nil, err
	}

	outputs, err := s.attemptWithRetry(ctx, step, attempt)

	// malformed output or env files fail the step, outputs are never
	// silently dropped
	fileOutputs, parseErr := parseVars(readerAt(outputTmp))
	switch {
	case parseErr != nil:
		if err == nil {
			err = &ExecutionError{Step: step.ID, Err: fmt.Errorf("parse step outputs: %w", parseErr)}
		}
	case outputs == nil:
		outputs = fileOutputs
	default:
		maps.Copy(outputs, fileOutputs)
	}

	// env additions become visible to subsequent steps in the same
	// variant only
	envs, parseErr := parseVars(readerAt(envTmp))
	if parseErr != nil {
		if err == nil {
			err = &ExecutionError{Step: step.ID, Err: fmt.Errorf("parse step env additions: %w", parseErr)}
		}
	} else {
		maps.Copy(execCtx.Envs, envs)
	}

	return outputs, err
}

func (s *Sequencer) attemptWithRetry(ctx context.Context, step v1beta1.Step, attempt func(context.Context) (map[string]string, error)) (map[string]string, error) {
	if step.Retry == nil {
		return attempt(ctx)
	}

	var backoff retry.Backoff
	switch {
	case step.Retry.Exponential.Duration != 0:
		backoff = retry.NewExponential(step.Retry.Exponential.Duration)
	default:
		backoff = retry.NewConstant(step.Retry.Constant.Duration)
	}

	if step.Retry.MaxRetries != 0 {
		backoff = retry.WithMaxRetries(uint64(step.Retry.MaxRetries), backoff)
	}

	var outputs map[string]string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		outputs, err = attempt(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})

	return outputs, err
}

func declaredOutputs(step v1beta1.Step, outputs map[string]string) map[string]string {
	if len(step.Outputs) == 0 {
		return outputs
	}

	declared := make(map[string]string, len(step.Outputs))
	for _, name := range step.Outputs {
		if v, ok := outputs[name]; ok {
			declared[name] = v
		}
	}

	return declared
}

func readerAt(f *os.File) io.Reader {
	_, _ = f.Seek(0, io.SeekStart)
	return f
}
