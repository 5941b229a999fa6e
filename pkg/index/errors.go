package index

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrPathTraversal       = errors.New("index: path escapes the media directory")
	ErrNotFound            = errors.New("index: not found")
	ErrPermissionDenied    = errors.New("index: permission denied")
	ErrDisallowedExtension = errors.New("index: file extension not allowed")
	ErrNameCollision       = errors.New("index: name already exists")
	ErrInvalidName         = errors.New("index: invalid name")
	ErrStorageIO           = errors.New("index: storage error")
	ErrIndexInconsistency  = errors.New("index: index and storage disagree")
	ErrHookRejected        = errors.New("index: rejected by hook")
)

// Operation names a mutation or scan for errors, hooks and metrics.
type Operation string

const (
	OpCreateDirectory Operation = "mkdir"
	OpUpload          Operation = "upload"
	OpRename          Operation = "rename"
	OpDelete          Operation = "delete"
	OpScan            Operation = "scan"
	OpList            Operation = "list"
)

// OpError is returned by every engine operation. Kind is one of the Err*
// sentinels above, Err the underlying cause (if any).
type OpError struct {
	Op   Operation
	Path string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s '%s': %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s '%s': %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op Operation, path string, kind, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// storageError classifies a backend failure into the error taxonomy.
func storageError(op Operation, path string, err error) *OpError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return opError(op, path, ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return opError(op, path, ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrExist):
		return opError(op, path, ErrNameCollision, err)
	default:
		return opError(op, path, ErrStorageIO, err)
	}
}

// Describe returns a short message suitable for end users.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathTraversal):
		return "An error occurred."
	case errors.Is(err, ErrNotFound):
		return "The requested file or folder does not exist."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied."
	case errors.Is(err, ErrDisallowedExtension):
		return "This file type is not allowed."
	case errors.Is(err, ErrNameCollision):
		return "A file or folder with this name already exists."
	case errors.Is(err, ErrInvalidName):
		return "The name is not valid."
	case errors.Is(err, ErrHookRejected):
		return "The operation was rejected."
	case errors.Is(err, ErrIndexInconsistency):
		return "The operation completed but the media index needs a rescan."
	default:
		return "A storage error occurred."
	}
}

// result label used for metrics
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrPathTraversal):
		return "path_traversal"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrDisallowedExtension):
		return "disallowed_extension"
	case errors.Is(err, ErrNameCollision):
		return "name_collision"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrHookRejected):
		return "hook_rejected"
	case errors.Is(err, ErrIndexInconsistency):
		return "index_inconsistency"
	default:
		return "storage_error"
	}
}
