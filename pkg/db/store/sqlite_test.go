package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mwantia/mediaindex/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "index.db")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() { s.Close() })
	return s
}

func folder(parent *models.Item, name, path, rel string) *models.Item {
	item := &models.Item{
		Filename:          name,
		Path:              path,
		RelativeDirectory: rel,
		Kind:              models.KindFolder,
	}
	if parent != nil {
		item.ParentID = &parent.ID
	}
	return item
}

func file(parent *models.Item, name, path, rel string) *models.Item {
	item := folder(parent, name, path, rel)
	item.Kind = models.KindImage
	item.Extension = filepath.Ext(name)
	return item
}

func TestGetOrCreateItemDeduplicatesRootItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	count, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateItemSameNameDifferentParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _, err := s.GetOrCreateItem(ctx, folder(nil, "a", "uploads/a", "a"))
	require.NoError(t, err)
	b, _, err := s.GetOrCreateItem(ctx, folder(nil, "b", "uploads/b", "b"))
	require.NoError(t, err)

	_, created, err := s.GetOrCreateItem(ctx, file(a, "x.png", "uploads/a/x.png", "a/x.png"))
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = s.GetOrCreateItem(ctx, file(b, "x.png", "uploads/b/x.png", "b/x.png"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGetOrCreateItemConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	ids := map[uint]bool{}

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, created, err := s.GetOrCreateItem(ctx, folder(nil, "race", "uploads/race", "race"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[item.ID] = true
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Len(t, ids, 1)
}

func TestFindFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	photos, _, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	_, _, err = s.GetOrCreateItem(ctx, file(photos, "a.png", "uploads/photos/a.png", "photos/a.png"))
	require.NoError(t, err)

	found, err := s.FindFolder(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, photos.ID, found.ID)

	_, err = s.FindFolder(ctx, "photos/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSubtreeKeepsSiblingsWithSharedPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	photos, _, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	nested, _, err := s.GetOrCreateItem(ctx, folder(photos, "2024", "uploads/photos/2024", "photos/2024"))
	require.NoError(t, err)
	_, _, err = s.GetOrCreateItem(ctx, file(nested, "a.png", "uploads/photos/2024/a.png", "photos/2024/a.png"))
	require.NoError(t, err)
	_, _, err = s.GetOrCreateItem(ctx, folder(nil, "photos2", "uploads/photos2", "photos2"))
	require.NoError(t, err)

	removed, err := s.DeleteSubtree(ctx, "uploads/photos")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	remaining, err := s.ListChildren(ctx, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "photos2", remaining[0].Filename)
}

func TestDeleteSubtreeTreatsWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.GetOrCreateItem(ctx, folder(nil, "a_%", "uploads/a_%", "a_%"))
	require.NoError(t, err)
	_, _, err = s.GetOrCreateItem(ctx, folder(nil, "ab%x", "uploads/ab%x", "ab%x"))
	require.NoError(t, err)

	removed, err := s.DeleteSubtree(ctx, "uploads/a_%")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestRenameItemRebasesDescendants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	photos, _, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	_, _, err = s.GetOrCreateItem(ctx, file(photos, "a.png", "uploads/photos/a.png", "photos/a.png"))
	require.NoError(t, err)

	rebase := func(item *models.Item, newPath string) {
		item.Path = newPath
		item.RelativeDirectory = newPath[len("uploads/"):]
		if item.ID == photos.ID {
			item.Filename = filepath.Base(newPath)
		}
	}

	renamed, err := s.RenameItem(ctx, "uploads/photos", "uploads/images", rebase)
	require.NoError(t, err)
	assert.Equal(t, "images", renamed.Filename)
	assert.Equal(t, photos.ID, renamed.ID)

	child, err := s.GetItemByPath(ctx, "uploads/images/a.png")
	require.NoError(t, err)
	assert.Equal(t, "images/a.png", child.RelativeDirectory)
	assert.Equal(t, photos.ID, *child.ParentID)

	_, err = s.GetItemByPath(ctx, "uploads/photos/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameItemMissingRow(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RenameItem(context.Background(), "uploads/missing", "uploads/other", func(*models.Item, string) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	photos, _, err := s.GetOrCreateItem(ctx, folder(nil, "photos", "uploads/photos", "photos"))
	require.NoError(t, err)
	item, _, err := s.GetOrCreateItem(ctx, file(photos, "a.png", "uploads/photos/a.png", "photos/a.png"))
	require.NoError(t, err)

	size := int64(42)
	item.Size = &size
	item.ContentType = "image/png"
	require.NoError(t, s.RefreshItem(ctx, item))

	reloaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Size)
	assert.Equal(t, int64(42), *reloaded.Size)
	assert.Equal(t, "image/png", reloaded.ContentType)
	assert.Equal(t, photos.ID, reloaded.ParentKey)
}

func TestRefreshItemRewritesKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _, err := s.GetOrCreateItem(ctx, file(nil, "x", "uploads/x", "x"))
	require.NoError(t, err)

	item.Kind = models.KindFolder
	item.Extension = ""
	item.Size = nil
	require.NoError(t, s.RefreshItem(ctx, item))

	reloaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsFolder())
	assert.Empty(t, reloaded.Extension)
	assert.Nil(t, reloaded.Size)
}

func TestScanRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &models.ScanRun{ID: "run-1", Root: "uploads", Status: models.ScanStatusRunning}
	require.NoError(t, s.CreateScanRun(ctx, run))

	run.Status = models.ScanStatusCompleted
	run.Created = 3
	require.NoError(t, s.UpdateScanRun(ctx, run))

	runs, err := s.ListScanRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.ScanStatusCompleted, runs[0].Status)
	assert.Equal(t, int64(3), runs[0].Created)
}
