package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"sigs.k8s.io/yaml"
)

type Interface interface {
	Resolve(ctx context.Context, ref string) (v1beta1.Pipeline, error)
}

type provider struct {
	handlers []Resolver
}

// Resolver turns a pipeline reference into a readable manifest. Resolvers
// are tried in order, the first one that succeeds wins.
type Resolver func(ctx context.Context, ref string) (io.Reader, error)

func New(handlers ...Resolver) *provider {
	return &provider{
		handlers: handlers,
	}
}

func (s *provider) Resolve(ctx context.Context, ref string) (v1beta1.Pipeline, error) {
	to := v1beta1.Pipeline{}
	var errs []error

	for _, handler := range s.handlers {
		r, err := handler(ctx, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		manifest, err := io.ReadAll(r)
		if closer, ok := r.(io.Closer); ok {
			_ = closer.Close()
		}

		if err != nil {
			return to, err
		}

		if err := yaml.UnmarshalStrict(manifest, &to); err != nil {
			return to, fmt.Errorf("decode pipeline %q failed: %w", ref, err)
		}

		return to, nil
	}

	return to, fmt.Errorf("could not lookup ref: %q: %w", ref, errors.Join(errs...))
}
