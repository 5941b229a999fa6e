// Package local provides a local filesystem storage backend.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/mediaindex/pkg/storage"
)

// Config holds local filesystem backend settings.
type Config struct {
	RootPath   string
	CreateDirs bool
}

// Backend implements storage.Backend using the local filesystem.
type Backend struct {
	rootPath string
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new local filesystem backend.
func New(cfg Config) (*Backend, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("root path is required")
	}

	root, err := filepath.Abs(cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %s: %w", cfg.RootPath, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) && cfg.CreateDirs {
			if mkErr := os.MkdirAll(root, 0755); mkErr != nil {
				return nil, fmt.Errorf("failed to create root path %s: %w", root, mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat root path %s: %w", root, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", root)
	}

	return &Backend{rootPath: root}, nil
}

// fullPath maps a key onto the disk. Keys that would leave the root are
// rejected here as well, independent of the checks done by callers.
func (b *Backend) fullPath(key string) (string, error) {
	full := filepath.Join(b.rootPath, filepath.FromSlash(key))
	if full != b.rootPath && !strings.HasPrefix(full, b.rootPath+string(filepath.Separator)) {
		return "", &fs.PathError{Op: "resolve", Path: key, Err: fs.ErrPermission}
	}
	return full, nil
}

// ListDir reads the directory at key. Entries are returned in directory order.
func (b *Backend) ListDir(_ context.Context, key string) ([]storage.Entry, []storage.Entry, error) {
	path, err := b.fullPath(key)
	if err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", key, err)
	}

	var dirs, files []storage.Entry
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Removed between readdir and stat
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("failed to stat %s/%s: %w", key, entry.Name(), err)
		}

		e := storage.Entry{
			Name:    entry.Name(),
			ModTime: info.ModTime(),
		}
		if entry.IsDir() {
			dirs = append(dirs, e)
			continue
		}
		e.Size = info.Size()
		files = append(files, e)
	}

	return dirs, files, nil
}

func (b *Backend) Stat(_ context.Context, key string) (*storage.ObjectInfo, error) {
	path, err := b.fullPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	return &storage.ObjectInfo{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	path, err := b.fullPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

// Save writes content to the local filesystem atomically.
func (b *Backend) Save(_ context.Context, key string, body io.Reader) (string, error) {
	path, err := b.fullPath(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dirs for %s: %w", key, err)
	}

	// Write to temp file then rename for atomicity
	tmp, err := os.CreateTemp(dir, ".mediaindex-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp for %s: %w", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to rename temp to %s: %w", key, err)
	}

	return key, nil
}

func (b *Backend) Move(_ context.Context, src, dst string, allowOverwrite bool) error {
	srcPath, err := b.fullPath(src)
	if err != nil {
		return err
	}
	dstPath, err := b.fullPath(dst)
	if err != nil {
		return err
	}

	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	if !allowOverwrite {
		if _, err := os.Stat(dstPath); err == nil {
			return fmt.Errorf("failed to move %s: %w", src, &fs.PathError{Op: "move", Path: dst, Err: fs.ErrExist})
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create dirs for %s: %w", dst, err)
	}

	if err := os.Rename(srcPath, dstPath); err != nil {
		return fmt.Errorf("failed to move %s -> %s: %w", src, dst, err)
	}
	return nil
}

// Delete removes a single file from the local filesystem.
func (b *Backend) Delete(_ context.Context, key string) error {
	path, err := b.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *Backend) RemoveAll(_ context.Context, key string) error {
	path, err := b.fullPath(key)
	if err != nil {
		return err
	}
	if path == b.rootPath {
		return &fs.PathError{Op: "rmtree", Path: key, Err: fs.ErrPermission}
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (b *Backend) MakeDirs(_ context.Context, key string) error {
	path, err := b.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", key, err)
	}
	return nil
}

// Type returns "local".
func (b *Backend) Type() string { return "local" }

// Close is a no-op for local backends.
func (b *Backend) Close() error { return nil }
