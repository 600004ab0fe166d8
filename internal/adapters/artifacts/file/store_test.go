package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutDelete(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "reports")
	store := NewStore(root)
	ctx := context.Background()

	path, err := store.Put(ctx, "summary-1a2b.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "summary-1a2b.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)

	require.NoError(t, store.Delete(ctx, path))
	require.NoError(t, store.Delete(ctx, path))

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreDeleteRejectsPathsOutsideRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := filepath.Join(dir, "keep.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	store := NewStore(filepath.Join(dir, "reports"))

	require.Error(t, store.Delete(context.Background(), outside))
	require.Error(t, store.Delete(context.Background(), "../keep.pdf"))

	_, err := os.Stat(outside)
	require.NoError(t, err)
}

func TestStoreRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	for _, name := range []string{"", "   ", "../outside.pdf", "/etc/passwd", "."} {
		_, err := store.Put(context.Background(), name, []byte("x"))
		assert.Error(t, err, "name %q", name)
	}
}

func TestStoreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(t.TempDir()).Put(ctx, "a.pdf", []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}
