package artifact

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// NewFS returns a sink storing artifacts below a root directory, one
// subdirectory per destination token.
func NewFS(root string) Sink {
	return &fsSink{root: root}
}

type fsSink struct {
	root string
}

func (s *fsSink) Upload(ctx context.Context, path string, destination string) error {
	if destination == "" {
		return &UploadError{Path: path, Err: fmt.Errorf("destination must not be empty")}
	}

	info, err := os.Stat(path)
	if err != nil {
		return &UploadError{Path: path, Destination: destination, Err: err}
	}

	target := filepath.Join(s.root, destination)
	if err := os.MkdirAll(target, 0o700); err != nil {
		return &UploadError{Path: path, Destination: destination, Err: err}
	}

	if !info.IsDir() {
		if err := copyFile(path, filepath.Join(target, filepath.Base(path))); err != nil {
			return &UploadError{Path: path, Destination: destination, Err: err}
		}

		return nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}

		if d.IsDir() {
			return os.MkdirAll(filepath.Join(target, rel), 0o700)
		}

		return copyFile(p, filepath.Join(target, rel))
	})

	if err != nil {
		return &UploadError{Path: path, Destination: destination, Err: err}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
