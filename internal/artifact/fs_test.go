package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSUploadFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(src, []byte("<coverage/>"), 0o600))

	root := t.TempDir()
	sink := NewFS(root)

	require.NoError(t, sink.Upload(context.Background(), src, "codecov"))

	b, err := os.ReadFile(filepath.Join(root, "codecov", "coverage.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<coverage/>", string(b))
}

func TestFSUploadDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("b"), 0o600))

	root := t.TempDir()
	sink := NewFS(root)

	require.NoError(t, sink.Upload(context.Background(), src, "reports"))

	assert.FileExists(t, filepath.Join(root, "reports", "a.txt"))
	assert.FileExists(t, filepath.Join(root, "reports", "nested", "b.txt"))
}

func TestFSUploadErrors(t *testing.T) {
	sink := NewFS(t.TempDir())

	err := sink.Upload(context.Background(), "/does/not/exist", "dest")
	require.Error(t, err)

	var uploadErr *UploadError
	assert.ErrorAs(t, err, &uploadErr)

	err = sink.Upload(context.Background(), t.TempDir(), "")
	require.Error(t, err)
	assert.ErrorAs(t, err, &uploadErr)
}
