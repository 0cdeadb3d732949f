package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"github.com/go-logr/logr"
)

type localOption func(*local)

func WithLogger(logger logr.Logger) localOption {
	return func(l *local) {
		l.logger = logger
	}
}

// WithLabels sets the runner labels this host satisfies.
func WithLabels(labels ...string) localOption {
	return func(l *local) {
		l.labels = labels
	}
}

func WithShell(shell string) localOption {
	return func(l *local) {
		l.shell = shell
	}
}

// NewLocal returns a provisioner executing scripts through the host shell.
// It satisfies the runner labels it is configured with; anything else is a
// ProvisionError.
func NewLocal(opts ...localOption) Interface {
	l := &local{
		logger: logr.Discard(),
		labels: []string{"local", "any"},
		shell:  "/bin/sh",
	}

	for _, o := range opts {
		o(l)
	}

	return l
}

type local struct {
	logger logr.Logger
	labels []string
	shell  string
}

func (l *local) Provision(ctx context.Context, runner string) (Sandbox, error) {
	if runner != "" && !slices.Contains(l.labels, runner) {
		return nil, &ProvisionError{
			Runner: runner,
			Err:    fmt.Errorf("host satisfies %v only", l.labels),
		}
	}

	dir, err := os.MkdirTemp("", "gantry-sandbox-")
	if err != nil {
		return nil, &ProvisionError{Runner: runner, Err: err}
	}

	l.logger.V(1).Info("sandbox provisioned", "runner", runner, "dir", dir)

	return &localSandbox{
		logger: l.logger,
		shell:  l.shell,
		dir:    dir,
	}, nil
}

type localSandbox struct {
	logger   logr.Logger
	shell    string
	dir      string
	released bool
}

func (s *localSandbox) Exec(ctx context.Context, spec ExecSpec) error {
	cmd := exec.CommandContext(ctx, s.shell, "-c", spec.Script)
	cmd.Dir = spec.WorkDir
	if cmd.Dir == "" {
		cmd.Dir = s.dir
	}

	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{ExitCode: exitErr.ExitCode()}
	}

	return err
}

// Setup pins a managed language environment. The local runtime has no
// installer, it exports the request to the sandbox environment and leaves
// satisfying it to the host.
func (s *localSandbox) Setup(ctx context.Context, name, version string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}

	s.logger.Info("managed environment requested", "name", name, "version", version, "dir", s.dir)
	return nil
}

func (s *localSandbox) Release(_ context.Context) error {
	if s.released {
		return nil
	}

	s.released = true
	return os.RemoveAll(s.dir)
}

// Dir exposes the sandbox scratch directory.
func (s *localSandbox) Dir() string {
	return s.dir
}
