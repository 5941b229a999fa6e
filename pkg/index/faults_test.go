package index

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/mwantia/mediaindex/pkg/db/models"
	"github.com/mwantia/mediaindex/pkg/db/store"
	"github.com/mwantia/mediaindex/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faults maps "Method" or "Method key" to the error that call returns.
type faults map[string]error

func (f faults) check(method, key string) error {
	if err, ok := f[method+" "+key]; ok {
		return err
	}
	return f[method]
}

type faultyBackend struct {
	storage.Backend
	faults faults
}

func (b *faultyBackend) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if err := b.faults.check("Stat", key); err != nil {
		return nil, err
	}
	return b.Backend.Stat(ctx, key)
}

func (b *faultyBackend) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	if err := b.faults.check("Save", key); err != nil {
		return "", err
	}
	return b.Backend.Save(ctx, key, body)
}

func (b *faultyBackend) Move(ctx context.Context, src, dst string, allowOverwrite bool) error {
	if err := b.faults.check("Move", src); err != nil {
		return err
	}
	return b.Backend.Move(ctx, src, dst, allowOverwrite)
}

func (b *faultyBackend) Delete(ctx context.Context, key string) error {
	if err := b.faults.check("Delete", key); err != nil {
		return err
	}
	return b.Backend.Delete(ctx, key)
}

func (b *faultyBackend) RemoveAll(ctx context.Context, key string) error {
	if err := b.faults.check("RemoveAll", key); err != nil {
		return err
	}
	return b.Backend.RemoveAll(ctx, key)
}

func (b *faultyBackend) MakeDirs(ctx context.Context, key string) error {
	if err := b.faults.check("MakeDirs", key); err != nil {
		return err
	}
	return b.Backend.MakeDirs(ctx, key)
}

type faultyStore struct {
	store.IndexStore
	faults faults
}

func (s *faultyStore) GetOrCreateItem(ctx context.Context, item *models.Item) (*models.Item, bool, error) {
	if err := s.faults.check("GetOrCreateItem", item.Path); err != nil {
		return nil, false, err
	}
	return s.IndexStore.GetOrCreateItem(ctx, item)
}

func (s *faultyStore) RenameItem(ctx context.Context, oldPath, newPath string, rebase store.RebaseFunc) (*models.Item, error) {
	if err := s.faults.check("RenameItem", oldPath); err != nil {
		return nil, err
	}
	return s.IndexStore.RenameItem(ctx, oldPath, newPath, rebase)
}

func (s *faultyStore) DeleteItemByPath(ctx context.Context, path string) (int64, error) {
	if err := s.faults.check("DeleteItemByPath", path); err != nil {
		return 0, err
	}
	return s.IndexStore.DeleteItemByPath(ctx, path)
}

func (s *faultyStore) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	if err := s.faults.check("DeleteSubtree", path); err != nil {
		return 0, err
	}
	return s.IndexStore.DeleteSubtree(ctx, path)
}

// newFaultyFixture returns a fixture whose backend and store fail as
// configured through the returned fault sets.
func newFaultyFixture(t *testing.T, opts ...Option) (*fixture, faults, faults) {
	t.Helper()

	backendFaults, storeFaults := faults{}, faults{}
	f := newWrappedFixture(t,
		func(b storage.Backend) storage.Backend { return &faultyBackend{Backend: b, faults: backendFaults} },
		func(s store.IndexStore) store.IndexStore { return &faultyStore{IndexStore: s, faults: storeFaults} },
		opts...)
	return f, backendFaults, storeFaults
}

// postCounter registers a post hook for every mutation and counts its calls.
func postCounter(calls *int) Option {
	count := func(ctx context.Context, event *Event) error {
		*calls++
		return nil
	}
	return WithHooks(
		PostCreateDirectory("count", count),
		PostUpload("count", count),
		PostRename("count", count),
		PostDelete("count", count),
	)
}

var errDiskFull = errors.New("disk full")

func TestStorageFailureLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()

	t.Run("mkdir permission denied", func(t *testing.T) {
		var posts int
		f, backendFaults, _ := newFaultyFixture(t, postCounter(&posts))
		backendFaults["MakeDirs"] = &fs.PathError{Op: "mkdir", Path: "photos", Err: fs.ErrPermission}

		_, err := f.engine.CreateDirectory(ctx, "", "photos")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.Equal(t, int64(0), f.count(t))
		assert.NoDirExists(t, f.onDisk("photos"))
		assert.Zero(t, posts)
	})

	t.Run("upload write fails", func(t *testing.T) {
		var posts int
		f, backendFaults, _ := newFaultyFixture(t, postCounter(&posts))
		backendFaults["Save"] = errDiskFull

		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		assert.ErrorIs(t, err, ErrStorageIO)
		assert.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, int64(0), f.count(t))
		assert.Zero(t, posts)
	})

	t.Run("delete fails", func(t *testing.T) {
		var posts int
		f, backendFaults, _ := newFaultyFixture(t, postCounter(&posts))
		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)
		posts = 0

		backendFaults["Delete"] = errDiskFull
		_, err = f.engine.Delete(ctx, "", "a.png", false)
		assert.ErrorIs(t, err, ErrStorageIO)
		assert.FileExists(t, f.onDisk("a.png"))
		assert.Equal(t, int64(1), f.count(t))
		assert.Zero(t, posts)
	})

	t.Run("rename target exists", func(t *testing.T) {
		f, backendFaults, _ := newFaultyFixture(t)
		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)

		backendFaults["Move uploads/a.png"] = &fs.PathError{Op: "rename", Path: "uploads/b.png", Err: fs.ErrExist}
		_, err = f.engine.Rename(ctx, "", "a.png", "b")
		assert.ErrorIs(t, err, ErrNameCollision)

		item, err := f.store.GetItemByPath(ctx, "uploads/a.png")
		require.NoError(t, err)
		assert.Equal(t, "a.png", item.Filename)
	})
}

func TestIndexFailureAfterStorageIsInconsistent(t *testing.T) {
	ctx := context.Background()

	t.Run("mkdir", func(t *testing.T) {
		var posts int
		f, _, storeFaults := newFaultyFixture(t, postCounter(&posts))
		storeFaults["GetOrCreateItem uploads/photos"] = errDiskFull

		_, err := f.engine.CreateDirectory(ctx, "", "photos")
		assert.ErrorIs(t, err, ErrIndexInconsistency)
		assert.DirExists(t, f.onDisk("photos"))
		assert.Equal(t, int64(0), f.count(t))
		assert.Equal(t, 1, posts)
	})

	t.Run("upload", func(t *testing.T) {
		var posts int
		f, _, storeFaults := newFaultyFixture(t, postCounter(&posts))
		storeFaults["GetOrCreateItem uploads/a.png"] = errDiskFull

		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		assert.ErrorIs(t, err, ErrIndexInconsistency)
		assert.FileExists(t, f.onDisk("a.png"))
		assert.Equal(t, int64(0), f.count(t))
		assert.Equal(t, 1, posts)
	})

	t.Run("rename", func(t *testing.T) {
		var posts int
		f, _, storeFaults := newFaultyFixture(t, postCounter(&posts))
		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)
		posts = 0

		storeFaults["RenameItem"] = errDiskFull
		_, err = f.engine.Rename(ctx, "", "a.png", "b")
		assert.ErrorIs(t, err, ErrIndexInconsistency)
		assert.FileExists(t, f.onDisk("b.png"))
		assert.Equal(t, 1, posts)
	})

	t.Run("delete file", func(t *testing.T) {
		var posts int
		f, _, storeFaults := newFaultyFixture(t, postCounter(&posts))
		_, err := f.engine.Upload(ctx, "", "a.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)
		posts = 0

		storeFaults["DeleteItemByPath"] = errDiskFull
		_, err = f.engine.Delete(ctx, "", "a.png", false)
		assert.ErrorIs(t, err, ErrIndexInconsistency)
		assert.NoFileExists(t, f.onDisk("a.png"))
		assert.Equal(t, int64(1), f.count(t))
		assert.Equal(t, 1, posts)
	})

	t.Run("delete folder", func(t *testing.T) {
		var posts int
		f, _, storeFaults := newFaultyFixture(t, postCounter(&posts))
		_, err := f.engine.CreateDirectory(ctx, "", "photos")
		require.NoError(t, err)
		posts = 0

		storeFaults["DeleteSubtree"] = errDiskFull
		_, err = f.engine.Delete(ctx, "", "photos", true)
		assert.ErrorIs(t, err, ErrIndexInconsistency)
		assert.NoDirExists(t, f.onDisk("photos"))
		assert.Equal(t, int64(1), f.count(t))
		assert.Equal(t, 1, posts)
	})

	t.Run("scan", func(t *testing.T) {
		f, _, storeFaults := newFaultyFixture(t)
		f.write(t, "a.png", pngBytes)
		storeFaults["GetOrCreateItem"] = errDiskFull

		_, err := f.engine.Scan(ctx, nil)
		assert.ErrorIs(t, err, ErrIndexInconsistency)

		runs, err := f.store.ListScanRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, models.ScanStatusFailed, runs[0].Status)
	})
}

func TestUploadWithoutStatLeavesSizeUnknown(t *testing.T) {
	f, backendFaults, _ := newFaultyFixture(t)
	backendFaults["Stat uploads/a.png"] = errDiskFull

	result, err := f.engine.Upload(context.Background(), "", "a.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Nil(t, result.Item.Size)
	assert.Equal(t, "image/png", result.Item.ContentType)
	assert.FileExists(t, f.onDisk("a.png"))

	reloaded, err := f.store.GetItemByPath(context.Background(), "uploads/a.png")
	require.NoError(t, err)
	assert.Nil(t, reloaded.Size)
}
