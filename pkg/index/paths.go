package index

import (
	"path"
	"strings"
)

// Resolver turns user supplied relative paths into storage keys below root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for root. An empty root addresses the
// whole storage.
func NewResolver(root string) *Resolver {
	root = strings.Trim(path.Clean("/"+strings.ReplaceAll(root, "\\", "/")), "/")
	return &Resolver{root: root}
}

// Root returns the normalized root key.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve normalizes relativePath and joins it to root. The result may equal root.
func (r *Resolver) Resolve(relativePath string) (string, error) {
	if hasParentSegment(relativePath) {
		return "", ErrPathTraversal
	}

	candidate := path.Join(r.root, relativePath)
	if !r.within(candidate) {
		return "", ErrPathTraversal
	}
	return r.normalize(candidate), nil
}

// ResolveEntry resolves the entry name inside directory. The result always
// lies strictly below root.
func (r *Resolver) ResolveEntry(directory, name string) (string, error) {
	if hasParentSegment(directory) || hasParentSegment(name) {
		return "", ErrPathTraversal
	}
	if name == "" || name == "." || strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidName
	}

	candidate := path.Join(r.root, directory, name)
	if !r.within(candidate) || r.normalize(candidate) == r.root {
		return "", ErrPathTraversal
	}
	return r.normalize(candidate), nil
}

// Relative returns key relative to root, "" for root itself.
func (r *Resolver) Relative(key string) string {
	if r.root == "" {
		return key
	}
	if key == r.root {
		return ""
	}
	return strings.TrimPrefix(key, r.root+"/")
}

// CleanRelative normalizes a relative directory into the form stored in the index.
func (r *Resolver) CleanRelative(relativePath string) (string, error) {
	abs, err := r.Resolve(relativePath)
	if err != nil {
		return "", err
	}
	return r.Relative(abs), nil
}

func (r *Resolver) within(candidate string) bool {
	if r.root == "" {
		candidate = strings.TrimPrefix(candidate, "/")
		return candidate != ".." && !strings.HasPrefix(candidate, "../")
	}

	candidate = strings.TrimPrefix(candidate, "/")
	return candidate == r.root || strings.HasPrefix(candidate, r.root+"/")
}

func (r *Resolver) normalize(candidate string) string {
	candidate = strings.TrimPrefix(candidate, "/")
	if candidate == "." {
		return ""
	}
	return candidate
}

// hasParentSegment reports whether any raw segment is "..". Backslashes
// count as separators so that Windows style input is rejected too.
func hasParentSegment(p string) bool {
	for _, segment := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return true
		}
	}
	return false
}
