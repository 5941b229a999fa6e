// Package index keeps a hierarchical media index consistent with a storage
// tree. All paths handed to the Engine are relative to its directory.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mwantia/mediaindex/pkg/db/models"
	"github.com/mwantia/mediaindex/pkg/db/store"
	"github.com/mwantia/mediaindex/pkg/log"
	"github.com/mwantia/mediaindex/pkg/metrics"
	"github.com/mwantia/mediaindex/pkg/storage"
)

type Engine struct {
	store       store.IndexStore
	backend     storage.Backend
	logger      log.LoggerService
	opts        *Options
	resolver    *Resolver
	classifier  *Classifier
	hooks       *Hooks
	invalidator *Invalidator
	locks       *TreeLock
}

// Result is returned by every successful mutation.
type Result struct {
	Op   Operation
	Path string
	// Item is the index row after the mutation, nil for deletes.
	Item    *models.Item
	Created bool
	Removed int64
	// Warnings holds failures of post hooks.
	Warnings []error
}

func New(st store.IndexStore, backend storage.Backend, logger log.LoggerService, opts ...Option) (*Engine, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern '%s'", pattern)
		}
	}

	return &Engine{
		store:       st,
		backend:     backend,
		logger:      logger,
		opts:        options,
		resolver:    NewResolver(options.Directory),
		classifier:  NewClassifier(options.Extensions),
		hooks:       NewHooks(options.Hooks...),
		invalidator: NewInvalidator(backend, options.ThumbnailsDir, logger),
		locks:       NewTreeLock(),
	}, nil
}

// List returns the index rows directly below relativeDirectory.
func (e *Engine) List(ctx context.Context, relativeDirectory string) ([]models.Item, error) {
	rel, err := e.resolver.CleanRelative(relativeDirectory)
	if err != nil {
		return nil, opError(OpList, relativeDirectory, err, nil)
	}

	parent, err := e.resolveExistingFolder(ctx, OpList, rel)
	if err != nil {
		return nil, err
	}

	items, err := e.store.ListChildren(ctx, idOf(parent))
	if err != nil {
		return nil, opError(OpList, rel, ErrStorageIO, err)
	}
	return items, nil
}

// Exists reports whether filename exists in storage below relativeDirectory.
func (e *Engine) Exists(ctx context.Context, relativeDirectory, filename string) (bool, error) {
	key, err := e.resolver.ResolveEntry(relativeDirectory, filename)
	if err != nil {
		return false, opError(OpList, path.Join(relativeDirectory, filename), err, nil)
	}

	exists, err := e.backend.Exists(ctx, key)
	if err != nil {
		return false, storageError(OpList, key, err)
	}
	return exists, nil
}

// resolveExistingFolder returns the folder row addressed by rel, nil for the root.
func (e *Engine) resolveExistingFolder(ctx context.Context, op Operation, rel string) (*models.Item, error) {
	if rel == "" {
		return nil, nil
	}

	folder, err := e.store.FindFolder(ctx, rel)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, opError(op, rel, ErrNotFound, err)
		}
		return nil, opError(op, rel, ErrStorageIO, err)
	}
	return folder, nil
}

// describe builds the index row for a storage key.
func (e *Engine) describe(key string, parent *models.Item, isDir bool, size int64, modTime time.Time) *models.Item {
	item := &models.Item{
		ParentID:          idOf(parent),
		Filename:          path.Base(key),
		Path:              key,
		RelativeDirectory: e.resolver.Relative(key),
		URL:               e.urlFor(key),
	}

	if isDir {
		item.Kind = models.KindFolder
	} else {
		item.Extension = Extension(item.Filename)
		item.Kind = e.classifier.Classify(item.Filename)
		item.Size = &size
	}
	if !modTime.IsZero() {
		item.ModifiedAt = &modTime
	}
	return item
}

// repair brings an existing row in line with what storage reports for the
// same path. A folder row replaced by a file loses its descendant rows.
func (e *Engine) repair(ctx context.Context, item, candidate *models.Item) (*models.Item, error) {
	if item.Kind == candidate.Kind && item.Extension == candidate.Extension {
		return item, nil
	}

	e.logger.Debug("Repairing '%s': kind '%s' -> '%s'", item.Path, item.Kind, candidate.Kind)
	if item.IsFolder() {
		if _, err := e.store.DeleteSubtree(ctx, item.Path); err != nil {
			return nil, err
		}
		fresh, _, err := e.store.GetOrCreateItem(ctx, candidate)
		return fresh, err
	}

	item.Kind = candidate.Kind
	item.Extension = candidate.Extension
	item.Size = candidate.Size
	item.ModifiedAt = candidate.ModifiedAt
	if err := e.store.RefreshItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// rebase rewrites the path derived fields of an item moved to newPath.
func (e *Engine) rebase(item *models.Item, newPath string) {
	item.Filename = path.Base(newPath)
	item.Path = newPath
	item.RelativeDirectory = e.resolver.Relative(newPath)
	item.URL = e.urlFor(newPath)
}

func (e *Engine) urlFor(key string) string {
	if e.opts.BaseURL == "" {
		return ""
	}
	joined, err := url.JoinPath(e.opts.BaseURL, key)
	if err != nil {
		return path.Join(e.opts.BaseURL, key)
	}
	return joined
}

func (e *Engine) excluded(rel, name string) bool {
	for _, pattern := range e.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// finish logs and records the outcome of a mutation.
func (e *Engine) finish(op Operation, target string, started time.Time, err error) {
	metrics.RecordMutation(string(op), resultLabel(err))

	switch {
	case err == nil:
		e.logger.Info("Completed %s of '%s' in %s", op, target, time.Since(started))
	case errors.Is(err, ErrIndexInconsistency):
		e.logger.Error("Index is inconsistent after %s of '%s': %v", op, target, err)
	default:
		e.logger.Warn("Failed %s of '%s': %v", op, target, err)
	}
}

func (e *Engine) runPost(ctx context.Context, event *Event) []error {
	warnings := e.hooks.runPost(ctx, event)
	for _, warning := range warnings {
		e.logger.Warn("Post %s hook failed for '%s': %v", event.Op, event.Path, warning)
	}
	return warnings
}

func idOf(item *models.Item) *uint {
	if item == nil {
		return nil
	}
	id := item.ID
	return &id
}

// MediaIndex is the mutation and browse surface that outer layers bind to.
type MediaIndex interface {
	CreateDirectory(ctx context.Context, relativeDirectory, name string) (*Result, error)
	Upload(ctx context.Context, relativeDirectory, filename string, body io.Reader) (*Result, error)
	Rename(ctx context.Context, relativeDirectory, oldFilename, newBaseName string) (*Result, error)
	Delete(ctx context.Context, relativeDirectory, filename string, isFolder bool) (*Result, error)

	List(ctx context.Context, relativeDirectory string) ([]models.Item, error)
	Exists(ctx context.Context, relativeDirectory, filename string) (bool, error)
	Synchronize(ctx context.Context, relativeDirectory string, visit func(ReportLine)) (*Report, error)
	Scan(ctx context.Context, visit func(ReportLine)) (*Report, error)
}

var _ MediaIndex = (*Engine)(nil)
