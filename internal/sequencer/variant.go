package sequencer

import (
	"fmt"

	"github.com/gantry-ci/gantry/internal/matrix"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// Variant is a job definition bound to one concrete matrix combination.
// Immutable once created.
type Variant struct {
	Job    v1beta1.Job
	Matrix matrix.Binding
	Event  v1beta1.TriggerEvent
	Name   string
}

func NewVariant(job v1beta1.Job, event v1beta1.TriggerEvent, binding matrix.Binding) Variant {
	name := job.Name
	if suffix := binding.Name(); suffix != "" {
		name = fmt.Sprintf("%s-%s", job.Name, suffix)
	}

	return Variant{
		Job:    job,
		Matrix: binding,
		Event:  event,
		Name:   name,
	}
}
