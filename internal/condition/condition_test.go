package condition

import (
	"testing"

	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() Context {
	return Context{
		Event: v1beta1.TriggerEvent{
			Kind: v1beta1.EventKindPush,
			Ref:  "refs/heads/master",
			SHA:  "deadbeef",
			Repository: v1beta1.Repository{
				Owner: "gantry-ci",
				Name:  "gantry",
			},
		},
		Matrix: map[string]string{"os": "ubuntu", "version": "3.12"},
		Env:    map[string]string{"CI": "true"},
		Steps: map[string]StepOutcome{
			"build": {
				Outcome: v1beta1.StatusSuccess,
				Outputs: map[string]string{"variant": "release"},
			},
			"legacy": {
				Outcome: v1beta1.StatusSkipped,
			},
		},
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{
			name:       "matrix equality",
			expression: "matrix.os == 'ubuntu'",
			expected:   true,
		},
		{
			name:       "matrix inequality",
			expression: "matrix.version != '3.12'",
			expected:   false,
		},
		{
			name:       "ref suffix",
			expression: "event.ref.endsWith('/master')",
			expected:   true,
		},
		{
			name:       "event kind",
			expression: "event.kind == 'push'",
			expected:   true,
		},
		{
			name:       "branch shorthand",
			expression: "event.branch == 'master'",
			expected:   true,
		},
		{
			name:       "membership",
			expression: "matrix.version in ['3.11', '3.12']",
			expected:   true,
		},
		{
			name:       "step outcome",
			expression: "steps.build.outcome == 'success'",
			expected:   true,
		},
		{
			name:       "step output comparison",
			expression: "steps.build.outputs.variant == 'release'",
			expected:   true,
		},
		{
			name:       "skipped step outputs stay absent",
			expression: "'variant' in steps.legacy.outputs",
			expected:   false,
		},
		{
			name:       "conjunction",
			expression: "matrix.os == 'ubuntu' && env.CI == 'true'",
			expected:   true,
		},
		{
			name:       "success shorthand",
			expression: "success",
			expected:   true,
		},
		{
			name:       "failure shorthand",
			expression: "failure",
			expected:   false,
		},
		{
			name:       "always shorthand",
			expression: "always",
			expected:   true,
		},
	}

	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := evaluator.Eval(test.expression, testContext())
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestEvalShorthandsAfterFailure(t *testing.T) {
	evalCtx := testContext()
	evalCtx.JobFailed = true

	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	result, err := evaluator.Eval("success", evalCtx)
	require.NoError(t, err)
	assert.False(t, result)

	result, err = evaluator.Eval("failure", evalCtx)
	require.NoError(t, err)
	assert.True(t, result)

	result, err = evaluator.Eval("always", evalCtx)
	require.NoError(t, err)
	assert.True(t, result)

	result, err = evaluator.Eval("job.status == 'failure'", evalCtx)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{
			name:       "undefined variable",
			expression: "nosuchvar == 'x'",
		},
		{
			name:       "syntax error",
			expression: "matrix.os ==",
		},
		{
			name:       "type mismatch",
			expression: "matrix.os == 1",
		},
		{
			name:       "non-boolean result",
			expression: "matrix.os",
		},
		{
			name:       "missing matrix key",
			expression: "matrix.flavor == 'vanilla'",
		},
		{
			name:       "missing output key",
			expression: "steps.legacy.outputs.variant == 'x'",
		},
	}

	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := evaluator.Eval(test.expression, testContext())
			require.Error(t, err)

			var evalErr *EvalError
			assert.ErrorAs(t, err, &evalErr)
			assert.Equal(t, test.expression, evalErr.Expression)
		})
	}
}

func TestEvalIdempotent(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		result, err := evaluator.Eval("matrix.os == 'ubuntu'", testContext())
		require.NoError(t, err)
		assert.True(t, result)
	}
}

func TestCompile(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	assert.NoError(t, evaluator.Compile("matrix.os == 'ubuntu'"))
	assert.Error(t, evaluator.Compile("nosuchvar == 'x'"))
}
