package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gantry-ci/gantry/internal/engine"
	"github.com/gantry-ci/gantry/internal/scheduler"
	"github.com/gantry-ci/gantry/internal/sequencer"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *engine.Result {
	started := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	return &engine.Result{
		Pipeline: "ci",
		Status:   v1beta1.StatusFailure,
		Jobs: []*engine.JobStatus{
			{
				Job:   "test",
				Phase: v1beta1.JobPhaseFailure,
				Result: &scheduler.JobResult{
					Job:    "test",
					Status: v1beta1.StatusFailure,
					Variants: []*sequencer.RunResult{
						{
							Variant: "test-ubuntu",
							Status:  v1beta1.StatusFailure,
							Steps: []*sequencer.StepResult{
								{
									ID:        "build",
									Status:    v1beta1.StatusSuccess,
									StartedAt: started,
									EndedAt:   started.Add(2 * time.Second),
								},
								{
									ID:        "test",
									Status:    v1beta1.StatusFailure,
									StartedAt: started.Add(2 * time.Second),
									EndedAt:   started.Add(5 * time.Second),
									Err:       errors.New("exit code 1"),
								},
								{
									ID:     "package",
									Status: v1beta1.StatusSkipped,
								},
							},
						},
					},
				},
			},
			{
				Job:   "deploy",
				Phase: v1beta1.JobPhaseSkipped,
			},
		},
		Post: []*engine.PostResult{
			{Name: "publish", Status: v1beta1.StatusSkipped},
		},
	}
}

func TestRows(t *testing.T) {
	flattened := rows(testResult())
	require.Len(t, flattened, 5)

	assert.Equal(t, "build", flattened[0].Step)
	assert.Equal(t, "test-ubuntu", flattened[0].Variant)
	assert.Equal(t, "2s", flattened[0].Duration)

	assert.Equal(t, v1beta1.StatusFailure, flattened[1].Status)
	assert.Equal(t, "exit code 1", flattened[1].Error)

	// skipped step never started, no duration
	assert.Equal(t, "", flattened[2].Duration)

	// skipped job has no variants
	assert.Equal(t, "deploy", flattened[3].Job)
	assert.Equal(t, v1beta1.StatusSkipped, flattened[3].Status)

	assert.Equal(t, "post", flattened[4].Job)
	assert.Equal(t, "publish", flattened[4].Step)
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf).Write(testResult()))

	var decoded struct {
		Pipeline string `json:"pipeline"`
		Status   string `json:"status"`
		Steps    []row  `json:"steps"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ci", decoded.Pipeline)
	assert.Equal(t, "failure", decoded.Status)
	assert.Len(t, decoded.Steps, 5)
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf).Write(testResult()))

	out := buf.String()
	assert.Contains(t, out, "| Job | Variant | Step |")
	assert.Contains(t, out, "| test | test-ubuntu | test | failure |")
	assert.Contains(t, out, "**failure**")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf).Write(testResult()))

	out := buf.String()
	assert.Contains(t, out, "test-ubuntu")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "pipeline:")
}
