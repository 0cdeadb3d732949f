package provider

import (
	"context"
	"fmt"
	"io"
)

// WithStdin resolves the conventional "-" reference to the given stream.
func WithStdin(stdin io.Reader) Resolver {
	return func(ctx context.Context, ref string) (io.Reader, error) {
		if ref != "-" {
			return nil, fmt.Errorf("not a stdin ref: %q", ref)
		}

		return stdin, nil
	}
}
