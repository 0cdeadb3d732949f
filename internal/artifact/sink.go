package artifact

import (
	"context"
	"fmt"
)

// Sink accepts a file or directory for upload to a destination token, e.g.
// a coverage report endpoint. It is only invoked when the owning post
// action's gate evaluates true.
type Sink interface {
	Upload(ctx context.Context, path string, destination string) error
}

// UploadError reports a sink which rejected the artifact or was
// unreachable. Whether it fails the pipeline depends on the post action's
// required flag.
type UploadError struct {
	Path        string
	Destination string
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s failed: %s", e.Path, e.Destination, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
