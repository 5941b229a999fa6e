package index

import (
	"context"
	"path"

	"github.com/mwantia/mediaindex/pkg/log"
	"github.com/mwantia/mediaindex/pkg/storage"
)

// Invalidator removes derived artifacts (thumbnails) that were generated
// for a storage key. Artifacts for dir/file live below dir/<thumbnails>/file.
type Invalidator struct {
	backend storage.Backend
	dirName string
	logger  log.LoggerService
}

func NewInvalidator(backend storage.Backend, dirName string, logger log.LoggerService) *Invalidator {
	return &Invalidator{
		backend: backend,
		dirName: dirName,
		logger:  logger,
	}
}

// ArtifactKey returns the key holding the artifacts of key, or "" if
// invalidation is disabled.
func (i *Invalidator) ArtifactKey(key string) string {
	if i.dirName == "" || key == "" {
		return ""
	}
	dir, file := path.Split(key)
	return path.Join(dir, i.dirName, file)
}

// Invalidate removes the artifacts of every key. Failures are only logged,
// missing artifacts are the common case.
func (i *Invalidator) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		artifacts := i.ArtifactKey(key)
		if artifacts == "" {
			continue
		}
		if err := i.backend.RemoveAll(ctx, artifacts); err != nil {
			i.logger.Debug("Unable to remove artifacts '%s': %v", artifacts, err)
		}
	}
}
