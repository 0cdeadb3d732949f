package runtime

import (
	"context"
	"fmt"
	"io"
)

// Interface is the environment provisioner boundary. Given a runner
// requirement it returns a ready execution sandbox or fails with a
// ProvisionError. Actual container or VM orchestration is delegated to the
// hosting platform behind this interface.
type Interface interface {
	Provision(ctx context.Context, runner string) (Sandbox, error)
}

// Sandbox is one provisioned execution environment, owned by a single job
// variant.
type Sandbox interface {
	// Exec runs an inline script and blocks until it exits. A non-zero
	// exit surfaces as *ExitError.
	Exec(ctx context.Context, spec ExecSpec) error
	// Setup prepares a managed language environment pinned to a version,
	// e.g. ("python", "3.12").
	Setup(ctx context.Context, name, version string) error
	// Release tears the sandbox down. Safe to call more than once.
	Release(ctx context.Context) error
}

type ExecSpec struct {
	Script  string
	Env     []string
	WorkDir string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// ProvisionError indicates that no sandbox could be set up for the
// requested runner. It is local to the job variant requesting it.
type ProvisionError struct {
	Runner string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision runner %s failed: %s", e.Runner, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// ExitError reports a command which ran to completion but exited non-zero.
type ExitError struct {
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.ExitCode)
}
