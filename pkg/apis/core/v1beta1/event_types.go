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

import "strings"

type EventKind string

var (
	EventKindPush        EventKind = "push"
	EventKindPullRequest EventKind = "pull_request"
	EventKindManual      EventKind = "manual"
)

// TriggerEvent is delivered by the trigger source when the hosting platform
// receives an event. It is read-only for the engine's lifetime.
type TriggerEvent struct {
	Kind       EventKind  `json:"kind,omitempty"`
	Ref        string     `json:"ref,omitempty"`
	SHA        string     `json:"sha,omitempty"`
	Repository Repository `json:"repository,omitempty"`
}

type Repository struct {
	Owner string `json:"owner,omitempty"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Branch strips the refs/heads/ prefix from the event ref.
func (e TriggerEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}
