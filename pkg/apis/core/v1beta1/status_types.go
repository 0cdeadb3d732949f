/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1beta1

// Status is the terminal outcome of a step, a job variant or the whole
// pipeline.
type Status string

var (
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// JobPhase tracks a job definition through the engine state machine.
type JobPhase string

var (
	JobPhasePending             JobPhase = "Pending"
	JobPhaseEvaluatingCondition JobPhase = "EvaluatingCondition"
	JobPhaseSkipped             JobPhase = "Skipped"
	JobPhaseExpanding           JobPhase = "Expanding"
	JobPhaseScheduled           JobPhase = "Scheduled"
	JobPhaseRunning             JobPhase = "Running"
	JobPhaseSuccess             JobPhase = "Success"
	JobPhaseFailure             JobPhase = "Failure"
	JobPhaseCancelled           JobPhase = "Cancelled"
)

// Status maps a terminal phase to its run status.
func (p JobPhase) Status() Status {
	switch p {
	case JobPhaseSkipped:
		return StatusSkipped
	case JobPhaseSuccess:
		return StatusSuccess
	case JobPhaseCancelled:
		return StatusCancelled
	default:
		return StatusFailure
	}
}
