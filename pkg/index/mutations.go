package index

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mwantia/mediaindex/pkg/db/models"
	"github.com/mwantia/mediaindex/pkg/db/store"
	"github.com/mwantia/mediaindex/pkg/metrics"
)

// sniffLength is the number of leading bytes used to detect the content type.
const sniffLength = 3072

// CreateDirectory creates the folder name below relativeDirectory and
// indexes it. The root is addressed by an empty relativeDirectory.
func (e *Engine) CreateDirectory(ctx context.Context, relativeDirectory, name string) (result *Result, err error) {
	started := time.Now()
	target := path.Join(relativeDirectory, name)
	defer func() { e.finish(OpCreateDirectory, target, started, err) }()

	if _, err := e.resolver.ResolveEntry(relativeDirectory, name); err != nil {
		return nil, opError(OpCreateDirectory, target, err, nil)
	}
	name = SanitizeFilename(name)
	if !validName(name) {
		return nil, opError(OpCreateDirectory, target, ErrInvalidName, nil)
	}

	key, err := e.resolver.ResolveEntry(relativeDirectory, name)
	if err != nil {
		return nil, opError(OpCreateDirectory, target, err, nil)
	}
	rel := e.parentRelative(key)
	target = key

	unlock := e.locks.Lock(rel)
	defer unlock()

	parent, err := e.resolveExistingFolder(ctx, OpCreateDirectory, rel)
	if err != nil {
		return nil, err
	}

	exists, err := e.backend.Exists(ctx, key)
	if err != nil {
		return nil, storageError(OpCreateDirectory, key, err)
	}
	if exists {
		return nil, opError(OpCreateDirectory, key, ErrNameCollision, nil)
	}

	event := &Event{Op: OpCreateDirectory, Directory: rel, Name: name, Path: key, IsFolder: true}
	if err := e.hooks.runPre(ctx, event); err != nil {
		return nil, opError(OpCreateDirectory, key, ErrHookRejected, err)
	}

	if err := e.backend.MakeDirs(ctx, key); err != nil {
		return nil, storageError(OpCreateDirectory, key, err)
	}

	warnings := e.runPost(ctx, event)

	item, created, err := e.store.GetOrCreateItem(ctx, e.describe(key, parent, true, 0, e.modTime(ctx, key)))
	if err != nil {
		return nil, opError(OpCreateDirectory, key, ErrIndexInconsistency, err)
	}

	return &Result{
		Op:       OpCreateDirectory,
		Path:     key,
		Item:     item,
		Created:  created,
		Warnings: warnings,
	}, nil
}

// Upload stores body as filename below relativeDirectory. The stored name is
// the sanitized form of filename, re-uploading an indexed file refreshes its row.
func (e *Engine) Upload(ctx context.Context, relativeDirectory, filename string, body io.Reader) (result *Result, err error) {
	started := time.Now()
	target := path.Join(relativeDirectory, filename)
	defer func() { e.finish(OpUpload, target, started, err) }()

	original, err := e.resolver.ResolveEntry(relativeDirectory, filename)
	if err != nil {
		return nil, opError(OpUpload, target, err, nil)
	}
	if !e.classifier.Allowed(filename) {
		return nil, opError(OpUpload, target, ErrDisallowedExtension, nil)
	}

	name := SanitizeFilename(filename)
	if !validName(strings.TrimSuffix(name, path.Ext(name))) || !e.classifier.Allowed(name) {
		return nil, opError(OpUpload, target, ErrInvalidName, nil)
	}

	key, err := e.resolver.ResolveEntry(relativeDirectory, name)
	if err != nil {
		return nil, opError(OpUpload, target, err, nil)
	}
	rel := e.parentRelative(key)
	target = key

	unlock := e.locks.Lock(rel)
	defer unlock()

	parent, err := e.resolveExistingFolder(ctx, OpUpload, rel)
	if err != nil {
		return nil, err
	}

	event := &Event{Op: OpUpload, Directory: rel, Name: name, Path: key}
	if err := e.hooks.runPre(ctx, event); err != nil {
		return nil, opError(OpUpload, key, ErrHookRejected, err)
	}

	e.invalidator.Invalidate(ctx, original, key)

	header := make([]byte, sniffLength)
	n, err := io.ReadFull(body, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, opError(OpUpload, key, ErrStorageIO, err)
	}
	header = header[:n]
	contentType := mimetype.Detect(header).String()

	saved, err := e.backend.Save(ctx, key, io.MultiReader(bytes.NewReader(header), body))
	if err != nil {
		return nil, storageError(OpUpload, key, err)
	}
	if saved != key {
		if err := e.backend.Move(ctx, saved, key, true); err != nil {
			return nil, storageError(OpUpload, key, err)
		}
	}

	var candidate *models.Item
	if info, err := e.backend.Stat(ctx, key); err == nil {
		candidate = e.describe(key, parent, false, info.Size, info.ModTime)
		metrics.RecordUpload(info.Size)
	} else {
		// unknown size stays unknown
		e.logger.Debug("Unable to stat uploaded '%s': %v", key, err)
		candidate = e.describe(key, parent, false, 0, time.Time{})
		candidate.Size = nil
	}
	candidate.ContentType = contentType

	warnings := e.runPost(ctx, event)

	item, created, err := e.store.GetOrCreateItem(ctx, candidate)
	if err != nil {
		return nil, opError(OpUpload, key, ErrIndexInconsistency, err)
	}
	switch {
	case created:
	case item.IsFolder():
		if item, err = e.repair(ctx, item, candidate); err != nil {
			return nil, opError(OpUpload, key, ErrIndexInconsistency, err)
		}
	default:
		item.Kind = candidate.Kind
		item.Extension = candidate.Extension
		item.Size = candidate.Size
		item.ModifiedAt = candidate.ModifiedAt
		item.ContentType = candidate.ContentType
		if err := e.store.RefreshItem(ctx, item); err != nil {
			return nil, opError(OpUpload, key, ErrIndexInconsistency, err)
		}
	}

	return &Result{
		Op:       OpUpload,
		Path:     key,
		Item:     item,
		Created:  created,
		Warnings: warnings,
	}, nil
}

// Rename changes the base name of oldFilename to newBaseName. Files keep
// their original extension, whatever newBaseName ends with.
func (e *Engine) Rename(ctx context.Context, relativeDirectory, oldFilename, newBaseName string) (result *Result, err error) {
	started := time.Now()
	target := path.Join(relativeDirectory, oldFilename)
	defer func() { e.finish(OpRename, target, started, err) }()

	source, err := e.resolver.ResolveEntry(relativeDirectory, oldFilename)
	if err != nil {
		return nil, opError(OpRename, target, err, nil)
	}
	if hasParentSegment(newBaseName) {
		return nil, opError(OpRename, target, ErrPathTraversal, nil)
	}

	base := SanitizeFilename(strings.TrimSpace(newBaseName))
	if !validName(base) {
		return nil, opError(OpRename, target, ErrInvalidName, nil)
	}
	rel := e.parentRelative(source)
	target = source

	unlock := e.locks.Lock(rel)
	defer unlock()

	parent, err := e.resolveExistingFolder(ctx, OpRename, rel)
	if err != nil {
		return nil, err
	}

	info, err := e.backend.Stat(ctx, source)
	if err != nil {
		return nil, storageError(OpRename, source, err)
	}

	newFilename := base
	if !info.IsDir {
		newFilename = base + Extension(oldFilename)
	}
	destination, err := e.resolver.ResolveEntry(relativeDirectory, newFilename)
	if err != nil {
		return nil, opError(OpRename, target, err, nil)
	}

	if destination == source {
		item, err := e.store.GetItemByName(ctx, idOf(parent), newFilename)
		if err != nil {
			return nil, opError(OpRename, source, ErrIndexInconsistency, err)
		}
		return &Result{Op: OpRename, Path: source, Item: item}, nil
	}

	exists, err := e.backend.Exists(ctx, destination)
	if err != nil {
		return nil, storageError(OpRename, destination, err)
	}
	if exists && !e.opts.RenameOverwrite {
		return nil, opError(OpRename, destination, ErrNameCollision, nil)
	}

	event := &Event{
		Op:        OpRename,
		Directory: rel,
		Name:      oldFilename,
		NewName:   newFilename,
		Path:      source,
		IsFolder:  info.IsDir,
	}
	if err := e.hooks.runPre(ctx, event); err != nil {
		return nil, opError(OpRename, source, ErrHookRejected, err)
	}

	e.invalidator.Invalidate(ctx, destination)
	if err := e.backend.Move(ctx, source, destination, e.opts.RenameOverwrite); err != nil {
		return nil, storageError(OpRename, source, err)
	}
	e.invalidator.Invalidate(ctx, source)

	warnings := e.runPost(ctx, event)

	item, err := e.store.RenameItem(ctx, source, destination, e.rebase)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, opError(OpRename, source, ErrIndexInconsistency, errors.New("no index row for renamed entry"))
		}
		return nil, opError(OpRename, source, ErrIndexInconsistency, err)
	}
	return &Result{
		Op:       OpRename,
		Path:     destination,
		Item:     item,
		Warnings: warnings,
	}, nil
}

// Delete removes filename below relativeDirectory from storage and index.
// Deleting a folder removes its whole subtree including every descendant row.
func (e *Engine) Delete(ctx context.Context, relativeDirectory, filename string, isFolder bool) (result *Result, err error) {
	started := time.Now()
	target := path.Join(relativeDirectory, filename)
	defer func() { e.finish(OpDelete, target, started, err) }()

	key, err := e.resolver.ResolveEntry(relativeDirectory, filename)
	if err != nil {
		return nil, opError(OpDelete, target, err, nil)
	}
	rel := e.parentRelative(key)
	target = key

	unlock := e.locks.Lock(rel)
	defer unlock()

	if _, err := e.resolveExistingFolder(ctx, OpDelete, rel); err != nil {
		return nil, err
	}

	info, err := e.backend.Stat(ctx, key)
	if err != nil {
		return nil, storageError(OpDelete, key, err)
	}
	if info.IsDir != isFolder {
		return nil, opError(OpDelete, key, ErrNotFound, nil)
	}

	event := &Event{Op: OpDelete, Directory: rel, Name: filename, Path: key, IsFolder: isFolder}
	if err := e.hooks.runPre(ctx, event); err != nil {
		return nil, opError(OpDelete, key, ErrHookRejected, err)
	}

	if isFolder {
		err = e.backend.RemoveAll(ctx, key)
	} else {
		err = e.backend.Delete(ctx, key)
	}
	if err != nil {
		return nil, storageError(OpDelete, key, err)
	}
	if !isFolder {
		e.invalidator.Invalidate(ctx, key)
	}

	warnings := e.runPost(ctx, event)

	var removed int64
	if isFolder {
		removed, err = e.store.DeleteSubtree(ctx, key)
	} else {
		removed, err = e.store.DeleteItemByPath(ctx, key)
	}
	if err != nil {
		return nil, opError(OpDelete, key, ErrIndexInconsistency, err)
	}
	if removed == 0 {
		e.logger.Warn("Deleted '%s' had no index row", key)
	}

	return &Result{
		Op:       OpDelete,
		Path:     key,
		Removed:  removed,
		Warnings: warnings,
	}, nil
}

// parentRelative returns the relative directory containing key.
func (e *Engine) parentRelative(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == e.resolver.Root() {
		return ""
	}
	return e.resolver.Relative(dir)
}

// modTime returns the storage modification time of key, zero if unknown.
func (e *Engine) modTime(ctx context.Context, key string) time.Time {
	info, err := e.backend.Stat(ctx, key)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime
}
