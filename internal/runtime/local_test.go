package runtime

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvision(t *testing.T) {
	tests := []struct {
		name      string
		runner    string
		expectErr bool
	}{
		{
			name:   "empty runner accepted",
			runner: "",
		},
		{
			name:   "known label accepted",
			runner: "local",
		},
		{
			name:      "unknown label rejected",
			runner:    "gpu-large",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := NewLocal()
			sandbox, err := driver.Provision(context.Background(), tt.runner)

			if tt.expectErr {
				require.Error(t, err)
				var provisionErr *ProvisionError
				assert.ErrorAs(t, err, &provisionErr)
				assert.Equal(t, tt.runner, provisionErr.Runner)
				return
			}

			require.NoError(t, err)
			t.Cleanup(func() {
				_ = sandbox.Release(context.Background())
			})
		})
	}
}

func TestLocalExec(t *testing.T) {
	driver := NewLocal()
	sandbox, err := driver.Provision(context.Background(), "local")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sandbox.Release(context.Background())
	})

	var stdout bytes.Buffer
	err = sandbox.Exec(context.Background(), ExecSpec{
		Script: "echo hello",
		Stdout: &stdout,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout.String())
}

func TestLocalExecEnv(t *testing.T) {
	driver := NewLocal()
	sandbox, err := driver.Provision(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sandbox.Release(context.Background())
	})

	var stdout bytes.Buffer
	err = sandbox.Exec(context.Background(), ExecSpec{
		Script: "echo $GREETING",
		Env:    []string{"GREETING=hi"},
		Stdout: &stdout,
	})

	require.NoError(t, err)
	assert.Equal(t, "hi\n", stdout.String())
}

func TestLocalExecExitCode(t *testing.T) {
	driver := NewLocal()
	sandbox, err := driver.Provision(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sandbox.Release(context.Background())
	})

	err = sandbox.Exec(context.Background(), ExecSpec{
		Script: "exit 3",
	})

	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
}

func TestLocalReleaseTwice(t *testing.T) {
	driver := NewLocal()
	sandbox, err := driver.Provision(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, sandbox.Release(context.Background()))
	require.NoError(t, sandbox.Release(context.Background()))
}
