package action

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gantry-ci/gantry/internal/runtime"
)

// Invocation carries the per-step inputs an action sees: its with
// parameters, the variant environment, the sandbox it may execute in and
// the step's output streams.
type Invocation struct {
	With    map[string]string
	Env     map[string]string
	WorkDir string
	Sandbox runtime.Sandbox
	Stdout  io.Writer
	Stderr  io.Writer
}

// Interface is one resolved reusable action. Run returns the action's
// outputs; a failure is reported through the error, never by panicking.
type Interface interface {
	Run(ctx context.Context, invocation Invocation) (map[string]string, error)
}

// Func adapts a plain function to an action.
type Func func(ctx context.Context, invocation Invocation) (map[string]string, error)

func (f Func) Run(ctx context.Context, invocation Invocation) (map[string]string, error) {
	return f(ctx, invocation)
}

// ResolutionError reports an unknown action reference. The engine resolves
// every reference during build, so this error is fatal before any job
// starts.
type ResolutionError struct {
	Ref string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no such action: %s", e.Ref)
}

// Registry resolves action references of the form name@version to
// executable units.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Interface
}

func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Interface),
	}
}

func (r *Registry) Register(ref string, action Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[ref] = action
}

func (r *Registry) Resolve(ref string) (Interface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[ref]
	if !ok {
		return nil, &ResolutionError{Ref: ref}
	}

	return action, nil
}
