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

import (
	"fmt"
	"slices"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Pipeline is the declarative document consumed by the engine. It is
// immutable for the lifetime of a run.
type Pipeline struct {
	Name string `json:"name,omitempty"`
	// Triggers instead of the conventional `on` key: yaml 1.1 resolves an
	// unquoted `on` to a boolean and strict decoding would reject it.
	Triggers *TriggerSpec `json:"triggers,omitempty"`
	Jobs     []Job        `json:"jobs,omitempty"`
	Post     []PostAction `json:"post,omitempty"`
}

// TriggerSpec maps trigger kinds to matching criteria. A nil spec matches
// every event.
type TriggerSpec struct {
	Push        *RefFilter `json:"push,omitempty"`
	PullRequest *RefFilter `json:"pullRequest,omitempty"`
	Manual      *RefFilter `json:"manual,omitempty"`
}

type RefFilter struct {
	Branches []string `json:"branches,omitempty"`
}

// Matches reports whether the given event activates this pipeline.
func (t *TriggerSpec) Matches(event TriggerEvent) bool {
	if t == nil {
		return true
	}

	var filter *RefFilter
	switch event.Kind {
	case EventKindPush:
		filter = t.Push
	case EventKindPullRequest:
		filter = t.PullRequest
	case EventKindManual:
		filter = t.Manual
	}

	if filter == nil {
		return false
	}

	if len(filter.Branches) == 0 {
		return true
	}

	return slices.Contains(filter.Branches, event.Branch())
}

type Job struct {
	Name     string    `json:"name,omitempty"`
	RunsOn   string    `json:"runsOn,omitempty"`
	If       string    `json:"if,omitempty"`
	Strategy *Strategy `json:"strategy,omitempty"`
	Env      []EnvVar  `json:"env,omitempty"`
	Steps    []Step    `json:"steps,omitempty"`
}

type Strategy struct {
	Matrix      map[string][]string `json:"matrix,omitempty"`
	FailFast    bool                `json:"failFast,omitempty"`
	MaxParallel int                 `json:"maxParallel,omitempty"`
}

type StepOptions struct {
	If              string          `json:"if,omitempty"`
	Env             []EnvVar        `json:"env,omitempty"`
	Secrets         []SecretVar     `json:"secrets,omitempty"`
	Outputs         []string        `json:"outputs,omitempty"`
	ContinueOnError bool            `json:"continueOnError,omitempty"`
	Timeout         metav1.Duration `json:"timeout,omitempty"`
	Retry           *Retry          `json:"retry,omitempty"`
}

// Step executes either an inline script (run) or a named reusable action
// (uses plus with parameters). Exactly one of the two must be set.
type Step struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	StepOptions `json:",inline"`
	Run         string            `json:"run,omitempty"`
	Uses        string            `json:"uses,omitempty"`
	With        map[string]string `json:"with,omitempty"`
}

type Retry struct {
	Exponential metav1.Duration `json:"exponential,omitempty"`
	Constant    metav1.Duration `json:"constant,omitempty"`
	MaxRetries  int             `json:"maxRetries,omitempty"`
}

type EnvVar struct {
	Name  string  `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}

// SecretVar references a secret by store key. The resolved value is exposed
// to the owning step only and never persisted.
type SecretVar struct {
	Name string `json:"name,omitempty"`
	From string `json:"from,omitempty"`
}

// PostAction is the trailing pseudo-job evaluated against the final
// aggregate status. A required action that fails marks the whole pipeline
// failed; otherwise the failure is downgraded to a warning.
type PostAction struct {
	Name     string            `json:"name,omitempty"`
	If       string            `json:"if,omitempty"`
	Uses     string            `json:"uses,omitempty"`
	With     map[string]string `json:"with,omitempty"`
	Required bool              `json:"required,omitempty"`
}

func (p *Pipeline) SetDefaults() {
	for i := range p.Jobs {
		p.Jobs[i].SetDefaults()
	}
}

func (j *Job) SetDefaults() {
	for i := range j.Steps {
		if j.Steps[i].ID == "" {
			j.Steps[i].ID = fmt.Sprintf("%s-%d", j.Name, i)
		}
	}
}

// Job returns the job definition with the given name.
func (p *Pipeline) Job(name string) (*Job, error) {
	for i := range p.Jobs {
		if p.Jobs[i].Name == name {
			return &p.Jobs[i], nil
		}
	}

	return nil, fmt.Errorf("no such job found: %s", name)
}
