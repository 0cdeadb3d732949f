package action

import (
	"context"
	"fmt"
	"time"

	"github.com/gantry-ci/gantry/internal/artifact"
	"github.com/go-logr/logr"
	"github.com/sethvargo/go-retry"
)

// RegisterBuiltins wires the built-in core actions into the registry.
func RegisterBuiltins(registry *Registry, sink artifact.Sink, logger logr.Logger) {
	registry.Register("core/checkout@v1", Checkout(logger))
	registry.Register("core/setup-env@v1", SetupEnv())
	registry.Register("core/upload-artifact@v1", UploadArtifact(sink, logger))
}

// Checkout stands in for the repository checkout performed by the hosting
// platform. It exposes the working directory so later steps can reference
// steps.<id>.outputs.path.
func Checkout(logger logr.Logger) Interface {
	return Func(func(_ context.Context, invocation Invocation) (map[string]string, error) {
		logger.V(1).Info("checkout",
			"repository", invocation.Env["GANTRY_REPOSITORY"],
			"ref", invocation.Env["GANTRY_REF"],
			"path", invocation.WorkDir,
		)

		return map[string]string{"path": invocation.WorkDir}, nil
	})
}

// SetupEnv requests a managed language environment from the variant's
// sandbox, e.g. with: {name: python, version: "3.12"}.
func SetupEnv() Interface {
	return Func(func(ctx context.Context, invocation Invocation) (map[string]string, error) {
		name := invocation.With["name"]
		version := invocation.With["version"]

		if invocation.Sandbox == nil {
			return nil, fmt.Errorf("setup-env requires a sandbox")
		}

		if err := invocation.Sandbox.Setup(ctx, name, version); err != nil {
			return nil, err
		}

		return map[string]string{
			"name":    name,
			"version": version,
		}, nil
	})
}

// UploadArtifact pushes a path to the artifact sink. Transient sink
// failures are retried with exponential backoff before they surface. With
// failOnError: "false" a terminal failure is downgraded to a warning.
func UploadArtifact(sink artifact.Sink, logger logr.Logger) Interface {
	return Func(func(ctx context.Context, invocation Invocation) (map[string]string, error) {
		path := invocation.With["path"]
		destination := invocation.With["destination"]

		backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := sink.Upload(ctx, path, destination); err != nil {
				return retry.RetryableError(err)
			}

			return nil
		})

		if err != nil {
			if invocation.With["failOnError"] == "false" {
				logger.Info("artifact upload failed, continuing", "path", path, "destination", destination, "error", err)
				return nil, nil
			}

			return nil, err
		}

		return map[string]string{"destination": destination}, nil
	})
}
