// Package storage defines the Backend interface for the file store that the
// index mirrors. Keys are slash-separated and relative to the backend base.
package storage

import (
	"context"
	"io"
	"time"
)

// Entry is a single item returned by a directory listing.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// ObjectInfo describes a stored object or directory.
type ObjectInfo struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Backend is the interface for content storage backends.
// Failures wrap fs.ErrNotExist, fs.ErrPermission or fs.ErrExist where the
// cause is known, so callers can classify them with errors.Is.
type Backend interface {
	// ListDir returns the directories and files directly below key.
	ListDir(ctx context.Context, key string) ([]Entry, []Entry, error)

	// Stat returns metadata for a single key.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Exists checks if a file or directory exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Save writes body to key and returns the key that was written.
	Save(ctx context.Context, key string, body io.Reader) (string, error)

	// Move renames src to dst. Without allowOverwrite an existing dst fails with fs.ErrExist.
	Move(ctx context.Context, src, dst string, allowOverwrite bool) error

	// Delete removes a single file.
	Delete(ctx context.Context, key string) error

	// RemoveAll removes key and everything below it.
	RemoveAll(ctx context.Context, key string) error

	// MakeDirs creates the directory key including missing parents.
	MakeDirs(ctx context.Context, key string) error

	// Type returns the backend type identifier ("local", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}
