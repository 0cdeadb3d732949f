package engine

import (
	"context"
	"io"
	"time"

	"github.com/gantry-ci/gantry/internal/action"
	"github.com/gantry-ci/gantry/internal/condition"
	"github.com/gantry-ci/gantry/internal/scheduler"
	"github.com/gantry-ci/gantry/internal/sequencer"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Dispatcher expands a job into its matrix variants and runs them.
// Satisfied by scheduler.Scheduler.
type Dispatcher interface {
	Expand(job v1beta1.Job, event v1beta1.TriggerEvent) ([]sequencer.Variant, error)
	Schedule(ctx context.Context, job v1beta1.Job, variants []sequencer.Variant) *scheduler.JobResult
}

type Option func(*Engine)

func WithLogger(logger logr.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func WithStdio(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

func New(evaluator *condition.Evaluator, dispatcher Dispatcher, registry *action.Registry, opts ...Option) *Engine {
	e := &Engine{
		evaluator:  evaluator,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logr.Discard(),
		tracer:     noop.NewTracerProvider().Tracer("gantry"),
		stdout:     io.Discard,
		stderr:     io.Discard,
	}

	for _, o := range opts {
		o(e)
	}

	return e
}

// Engine drives a pipeline run end to end: document validation, per-job
// condition gates, job fan-out through the dispatcher and the trailing post
// actions evaluated against the final aggregate status.
type Engine struct {
	evaluator  *condition.Evaluator
	dispatcher Dispatcher
	registry   *action.Registry
	logger     logr.Logger
	tracer     trace.Tracer
	stdout     io.Writer
	stderr     io.Writer
}

func (e *Engine) Run(ctx context.Context, event v1beta1.TriggerEvent, pipeline *v1beta1.Pipeline) (*Result, error) {
	pipeline.SetDefaults()

	if err := e.Validate(pipeline); err != nil {
		return nil, err
	}

	result := &Result{
		Pipeline:  pipeline.Name,
		StartedAt: time.Now(),
	}

	defer func() {
		result.EndedAt = time.Now()
	}()

	ctx, span := e.tracer.Start(ctx, "pipeline",
		trace.WithAttributes(attribute.String("pipeline", pipeline.Name)),
	)
	defer span.End()

	if !pipeline.Triggers.Matches(event) {
		e.logger.Info("pipeline not triggered", "pipeline", pipeline.Name, "event", event.Kind, "ref", event.Ref)
		result.Status = v1beta1.StatusSkipped
		return result, nil
	}

	result.Jobs = make([]*JobStatus, len(pipeline.Jobs))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, job := range pipeline.Jobs {
		result.Jobs[i] = &JobStatus{Job: job.Name, Phase: v1beta1.JobPhasePending}

		group.Go(func() error {
			e.runJob(groupCtx, event, job, result.Jobs[i])
			return nil
		})
	}

	_ = group.Wait()

	result.Status = aggregate(result.Jobs)
	for _, job := range result.Jobs {
		if job.Err != nil {
			result.Err = job.Err
			break
		}
	}

	e.runPost(ctx, event, pipeline, result)

	return result, nil
}

// runJob walks one job through its phases. A false job condition skips the
// job before the matrix is ever expanded.
func (e *Engine) runJob(ctx context.Context, event v1beta1.TriggerEvent, job v1beta1.Job, status *JobStatus) {
	ctx, span := e.tracer.Start(ctx, "job",
		trace.WithAttributes(attribute.String("job", job.Name)),
	)
	defer span.End()

	if job.If != "" {
		status.Phase = v1beta1.JobPhaseEvaluatingCondition

		run, err := e.evaluator.Eval(job.If, condition.Context{Event: event})
		if err != nil {
			status.Phase = v1beta1.JobPhaseFailure
			status.Err = err
			e.logger.Error(err, "job condition failed", "job", job.Name)
			return
		}

		if !run {
			status.Phase = v1beta1.JobPhaseSkipped
			e.logger.V(1).Info("job skipped", "job", job.Name)
			return
		}
	}

	status.Phase = v1beta1.JobPhaseExpanding

	variants, err := e.dispatcher.Expand(job, event)
	if err != nil {
		status.Phase = v1beta1.JobPhaseFailure
		status.Err = err
		return
	}

	status.Phase = v1beta1.JobPhaseScheduled
	e.logger.V(1).Info("job scheduled", "job", job.Name, "variants", len(variants))

	status.Phase = v1beta1.JobPhaseRunning
	jobResult := e.dispatcher.Schedule(ctx, job, variants)

	status.Result = jobResult
	status.Err = jobResult.Err

	switch jobResult.Status {
	case v1beta1.StatusSuccess:
		status.Phase = v1beta1.JobPhaseSuccess
	case v1beta1.StatusCancelled:
		status.Phase = v1beta1.JobPhaseCancelled
	default:
		status.Phase = v1beta1.JobPhaseFailure
	}
}

// runPost evaluates and executes the trailing post actions against the
// final aggregate status. A failed required action fails the pipeline, a
// best-effort one is downgraded to a warning.
func (e *Engine) runPost(ctx context.Context, event v1beta1.TriggerEvent, pipeline *v1beta1.Pipeline, result *Result) {
	if len(pipeline.Post) == 0 {
		return
	}

	evalCtx := condition.Context{
		Event:          event,
		JobFailed:      result.Status == v1beta1.StatusFailure,
		JobCancelled:   result.Status == v1beta1.StatusCancelled,
		PipelineStatus: result.Status,
	}

	for _, post := range pipeline.Post {
		postResult := &PostResult{Name: post.Name}
		result.Post = append(result.Post, postResult)

		if post.If != "" {
			run, err := e.evaluator.Eval(post.If, evalCtx)
			if err != nil {
				e.failPost(post, postResult, result, err)
				continue
			}

			if !run {
				postResult.Status = v1beta1.StatusSkipped
				continue
			}
		}

		resolved, err := e.registry.Resolve(post.Uses)
		if err != nil {
			e.failPost(post, postResult, result, err)
			continue
		}

		_, err = resolved.Run(ctx, action.Invocation{
			With:   post.With,
			Env:    eventEnv(event),
			Stdout: e.stdout,
			Stderr: e.stderr,
		})

		if err != nil {
			e.failPost(post, postResult, result, err)
			continue
		}

		postResult.Status = v1beta1.StatusSuccess
	}
}

func (e *Engine) failPost(post v1beta1.PostAction, postResult *PostResult, result *Result, err error) {
	postResult.Status = v1beta1.StatusFailure
	postResult.Err = err

	if post.Required {
		result.Status = v1beta1.StatusFailure
		if result.Err == nil {
			result.Err = err
		}

		e.logger.Error(err, "required post action failed", "post", post.Name)
		return
	}

	e.logger.Info("post action failed, continuing", "post", post.Name, "error", err)
}

func aggregate(jobs []*JobStatus) v1beta1.Status {
	var cancelled bool

	for _, job := range jobs {
		switch job.Phase {
		case v1beta1.JobPhaseFailure:
			return v1beta1.StatusFailure
		case v1beta1.JobPhaseCancelled:
			cancelled = true
		}
	}

	if cancelled {
		return v1beta1.StatusCancelled
	}

	return v1beta1.StatusSuccess
}

func eventEnv(event v1beta1.TriggerEvent) map[string]string {
	env := map[string]string{
		"GANTRY_EVENT": string(event.Kind),
		"GANTRY_REF":   event.Ref,
		"GANTRY_SHA":   event.SHA,
	}

	if repo := event.Repository; repo.Owner != "" || repo.Name != "" {
		env["GANTRY_REPOSITORY"] = repo.Owner + "/" + repo.Name
	}

	return env
}
