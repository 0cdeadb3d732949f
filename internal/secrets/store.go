package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned if the store does not hold the requested secret.
var ErrNotFound = errors.New("secret not found")

// Store resolves a secret by name. Resolved values are scoped to the
// requesting step; the engine never persists or logs them.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
}

// Static returns a store backed by a fixed map. Used for tests and for
// secrets passed on the command line.
func Static(values map[string]string) Store {
	return staticStore(values)
}

type staticStore map[string]string

func (s staticStore) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return v, nil
}

// FromEnv resolves secrets from the process environment, optionally behind
// a prefix (e.g. prefix GANTRY_SECRET_ maps the name TOKEN to
// GANTRY_SECRET_TOKEN).
func FromEnv(prefix string) Store {
	return envStore{prefix: prefix}
}

type envStore struct {
	prefix string
}

func (s envStore) Get(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(s.prefix + name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return v, nil
}

// Multi chains stores, the first hit wins.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (s multiStore) Get(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, store := range s {
		v, err := store.Get(ctx, name)
		if err == nil {
			return v, nil
		}

		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return "", errors.Join(errs...)
}
