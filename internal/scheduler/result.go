package scheduler

import (
	"errors"
	"time"

	"github.com/gantry-ci/gantry/internal/sequencer"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

type EventType string

const (
	EventVariantStarted  EventType = "variant_started"
	EventVariantFinished EventType = "variant_finished"
)

// Event is emitted to registered hooks on variant lifecycle transitions.
type Event struct {
	Type    EventType
	Job     string
	Variant string
	Result  *sequencer.RunResult
}

type Hook func(event Event)

// JobResult aggregates all variant results of one job. A single failed
// variant fails the job; a cancelled variant without any failure marks the
// job cancelled.
type JobResult struct {
	Job       string                 `json:"job"`
	Status    v1beta1.Status         `json:"status"`
	Variants  []*sequencer.RunResult `json:"variants,omitempty"`
	StartedAt time.Time              `json:"startedAt,omitzero"`
	EndedAt   time.Time              `json:"endedAt,omitzero"`
	Err       error                  `json:"-"`
}

func (r *JobResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Variant returns the recorded result for a variant name.
func (r *JobResult) Variant(name string) (*sequencer.RunResult, error) {
	for _, variant := range r.Variants {
		if variant != nil && variant.Variant == name {
			return variant, nil
		}
	}

	return nil, errors.New("no such variant result: " + name)
}

func (r *JobResult) finalize() {
	var (
		failed    bool
		cancelled bool
		errs      []error
	)

	for _, variant := range r.Variants {
		if variant == nil {
			continue
		}

		switch variant.Status {
		case v1beta1.StatusFailure:
			failed = true
		case v1beta1.StatusCancelled:
			cancelled = true
		}

		if variant.Err != nil {
			errs = append(errs, variant.Err)
		}
	}

	switch {
	case failed:
		r.Status = v1beta1.StatusFailure
	case cancelled:
		r.Status = v1beta1.StatusCancelled
	default:
		r.Status = v1beta1.StatusSuccess
	}

	if r.Status != v1beta1.StatusSuccess {
		r.Err = errors.Join(errs...)
	}
}
