package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (*Backend, string) {
	t.Helper()

	root := t.TempDir()
	b, err := New(Config{RootPath: root})
	require.NoError(t, err)
	return b, root
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")

	_, err := New(Config{RootPath: root})
	assert.Error(t, err)

	_, err = New(Config{RootPath: root, CreateDirs: true})
	require.NoError(t, err)
	assert.DirExists(t, root)
}

func TestSaveListAndStat(t *testing.T) {
	b, root := newTestBackend(t)
	ctx := context.Background()

	final, err := b.Save(ctx, "uploads/photos/a.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/photos/a.png", final)
	assert.FileExists(t, filepath.Join(root, "uploads", "photos", "a.png"))

	require.NoError(t, b.MakeDirs(ctx, "uploads/photos/2024"))

	dirs, files, err := b.ListDir(ctx, "uploads/photos")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	require.Len(t, files, 1)
	assert.Equal(t, "2024", dirs[0].Name)
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, int64(3), files[0].Size)

	info, err := b.Stat(ctx, "uploads/photos/a.png")
	require.NoError(t, err)
	assert.False(t, info.IsDir)
	assert.Equal(t, int64(3), info.Size)
}

func TestListDirMissing(t *testing.T) {
	b, _ := newTestBackend(t)

	_, _, err := b.ListDir(context.Background(), "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMoveOverwritePolicy(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Save(ctx, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = b.Save(ctx, "b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	err = b.Move(ctx, "a.txt", "b.txt", false)
	assert.ErrorIs(t, err, fs.ErrExist)

	require.NoError(t, b.Move(ctx, "a.txt", "b.txt", true))

	exists, err := b.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMoveMissingSource(t *testing.T) {
	b, _ := newTestBackend(t)

	err := b.Move(context.Background(), "missing.txt", "other.txt", false)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDeleteAndRemoveAll(t *testing.T) {
	b, root := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Save(ctx, "dir/a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = b.Save(ctx, "dir/sub/b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	assert.ErrorIs(t, b.Delete(ctx, "dir/missing.txt"), fs.ErrNotExist)
	require.NoError(t, b.Delete(ctx, "dir/a.txt"))
	require.NoError(t, b.RemoveAll(ctx, "dir"))

	_, err = os.Stat(filepath.Join(root, "dir"))
	assert.True(t, os.IsNotExist(err))
}

func TestKeysCannotLeaveRoot(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Save(ctx, "../escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, fs.ErrPermission)

	assert.ErrorIs(t, b.RemoveAll(ctx, ""), fs.ErrPermission)
}
