package sequencer

import (
	"context"
	"strings"

	"github.com/gantry-ci/gantry/internal/runtime"
)

type mockDriver struct {
	provisionErr error
	sandbox      *mockSandbox
	provisioned  []string
}

func (m *mockDriver) Provision(_ context.Context, runner string) (runtime.Sandbox, error) {
	m.provisioned = append(m.provisioned, runner)

	if m.provisionErr != nil {
		return nil, m.provisionErr
	}

	if m.sandbox == nil {
		m.sandbox = &mockSandbox{}
	}

	return m.sandbox, nil
}

type mockSandbox struct {
	execs    []runtime.ExecSpec
	ctxs     []context.Context
	setups   [][2]string
	released int
	handler  func(spec runtime.ExecSpec) error
}

func (m *mockSandbox) Exec(ctx context.Context, spec runtime.ExecSpec) error {
	m.execs = append(m.execs, spec)
	m.ctxs = append(m.ctxs, ctx)

	if m.handler != nil {
		return m.handler(spec)
	}

	return nil
}

func (m *mockSandbox) Setup(_ context.Context, name, version string) error {
	m.setups = append(m.setups, [2]string{name, version})
	return nil
}

func (m *mockSandbox) Release(context.Context) error {
	m.released++
	return nil
}

func (m *mockSandbox) scripts() []string {
	var scripts []string
	for _, spec := range m.execs {
		scripts = append(scripts, spec.Script)
	}

	return scripts
}

func envLookup(env []string, key string) (string, bool) {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v, true
		}
	}

	return "", false
}
