package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gantry-ci/gantry/internal/matrix"
	"github.com/gantry-ci/gantry/internal/sequencer"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/go-logr/logr"
)

// Runner executes one job variant to completion. Satisfied by
// sequencer.Sequencer.
type Runner interface {
	Run(ctx context.Context, variant sequencer.Variant) *sequencer.RunResult
}

type Option func(*Scheduler)

func WithLogger(logger logr.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithPool(pool pond.Pool) Option {
	return func(s *Scheduler) {
		s.pool = pool
	}
}

func WithHook(hook Hook) Option {
	return func(s *Scheduler) {
		s.hooks = append(s.hooks, hook)
	}
}

// New builds a job scheduler on top of the given runner. Without an
// explicit pool an unbounded one is used.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner: runner,
		logger: logr.Discard(),
	}

	for _, o := range opts {
		o(s)
	}

	if s.pool == nil {
		s.pool = pond.NewPool(0)
	}

	return s
}

// Scheduler fans one job out into its matrix variants and runs them
// concurrently, bounded by the job strategy.
type Scheduler struct {
	runner Runner
	pool   pond.Pool
	logger logr.Logger
	hooks  []Hook
}

// Expand binds the job to every combination of its matrix. Variants are
// returned in expansion order; an empty axis fails before any variant is
// built.
func (s *Scheduler) Expand(job v1beta1.Job, event v1beta1.TriggerEvent) ([]sequencer.Variant, error) {
	var axes map[string][]string
	if job.Strategy != nil {
		axes = job.Strategy.Matrix
	}

	bindings, err := matrix.Expand(axes)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	variants := make([]sequencer.Variant, 0, len(bindings))
	for _, binding := range bindings {
		variants = append(variants, sequencer.NewVariant(job, event, binding))
	}

	return variants, nil
}

// Schedule runs the given variants bounded by the job strategy. The
// returned JobResult carries one RunResult per variant in input order.
func (s *Scheduler) Schedule(ctx context.Context, job v1beta1.Job, variants []sequencer.Variant) *JobResult {
	result := &JobResult{
		Job:       job.Name,
		Variants:  make([]*sequencer.RunResult, len(variants)),
		StartedAt: time.Now(),
	}

	defer func() {
		result.EndedAt = time.Now()
	}()

	cancelCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	pool := s.pool
	failFast := false
	if job.Strategy != nil {
		failFast = job.Strategy.FailFast
		if job.Strategy.MaxParallel > 0 {
			pool = s.pool.NewSubpool(job.Strategy.MaxParallel)
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i, variant := range variants {
		wg.Add(1)
		pool.Go(func() {
			defer wg.Done()

			s.emit(Event{Type: EventVariantStarted, Job: job.Name, Variant: variant.Name})
			s.logger.V(1).Info("variant started", "job", job.Name, "variant", variant.Name)

			runResult := s.runner.Run(cancelCtx, variant)

			mu.Lock()
			result.Variants[i] = runResult
			mu.Unlock()

			s.emit(Event{Type: EventVariantFinished, Job: job.Name, Variant: variant.Name, Result: runResult})
			s.logger.V(1).Info("variant finished", "job", job.Name, "variant", variant.Name, "status", runResult.Status)

			// fail fast stops queued variants cooperatively, running
			// ones observe the cancelled context
			if failFast && runResult.Status == v1beta1.StatusFailure {
				cancel(fmt.Errorf("variant %s failed", variant.Name))
			}
		})
	}

	wg.Wait()
	result.finalize()

	return result
}

func (s *Scheduler) emit(event Event) {
	for _, hook := range s.hooks {
		hook(event)
	}
}
