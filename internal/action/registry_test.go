package action

import (
	"context"
	"errors"
	"testing"

	"github.com/gantry-ci/gantry/internal/artifact"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.Register("core/noop@v1", Func(func(context.Context, Invocation) (map[string]string, error) {
		return nil, nil
	}))

	action, err := registry.Resolve("core/noop@v1")
	require.NoError(t, err)
	assert.NotNil(t, action)

	_, err = registry.Resolve("core/noop@v2")
	require.Error(t, err)

	var resolutionErr *ResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	assert.Equal(t, "core/noop@v2", resolutionErr.Ref)
}

func TestCheckout(t *testing.T) {
	checkout := Checkout(logr.Discard())

	outputs, err := checkout.Run(context.Background(), Invocation{
		WorkDir: "/tmp/workspace",
		Env: map[string]string{
			"GANTRY_REPOSITORY": "acme/widgets",
			"GANTRY_REF":        "refs/heads/master",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "/tmp/workspace", outputs["path"])
}

type mockSink struct {
	calls    int
	failures int
	lastPath string
	lastDest string
}

func (s *mockSink) Upload(_ context.Context, path, destination string) error {
	s.calls++
	s.lastPath = path
	s.lastDest = destination

	if s.calls <= s.failures {
		return &artifact.UploadError{Path: path, Destination: destination, Err: errors.New("unreachable")}
	}

	return nil
}

func TestUploadArtifact(t *testing.T) {
	sink := &mockSink{}
	upload := UploadArtifact(sink, logr.Discard())

	outputs, err := upload.Run(context.Background(), Invocation{
		With: map[string]string{
			"path":        "coverage.xml",
			"destination": "codecov",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "coverage.xml", sink.lastPath)
	assert.Equal(t, "codecov", outputs["destination"])
}

func TestUploadArtifactRetries(t *testing.T) {
	sink := &mockSink{failures: 2}
	upload := UploadArtifact(sink, logr.Discard())

	_, err := upload.Run(context.Background(), Invocation{
		With: map[string]string{
			"path":        "coverage.xml",
			"destination": "codecov",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, sink.calls)
}

func TestUploadArtifactExhausted(t *testing.T) {
	sink := &mockSink{failures: 10}
	upload := UploadArtifact(sink, logr.Discard())

	_, err := upload.Run(context.Background(), Invocation{
		With: map[string]string{
			"path":        "coverage.xml",
			"destination": "codecov",
		},
	})

	require.Error(t, err)

	var uploadErr *artifact.UploadError
	assert.ErrorAs(t, err, &uploadErr)
}

func TestUploadArtifactBestEffort(t *testing.T) {
	sink := &mockSink{failures: 10}
	upload := UploadArtifact(sink, logr.Discard())

	_, err := upload.Run(context.Background(), Invocation{
		With: map[string]string{
			"path":        "coverage.xml",
			"destination": "codecov",
			"failOnError": "false",
		},
	})

	assert.NoError(t, err)
}
