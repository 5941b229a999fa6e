package agent

import (
	"context"

	"github.com/mwantia/mediaindex/pkg/index"
	"github.com/mwantia/mediaindex/pkg/log"
)

// AuditHooks returns post hooks that log every completed mutation.
func AuditHooks(logger log.LoggerService) []index.Registration {
	audit := func(ctx context.Context, event *index.Event) error {
		switch event.Op {
		case index.OpRename:
			logger.Info("%s '%s' -> '%s'", event.Op, event.Path, event.NewName)
		default:
			logger.Info("%s '%s'", event.Op, event.Path)
		}
		return nil
	}

	return []index.Registration{
		index.PostCreateDirectory("audit", audit),
		index.PostUpload("audit", audit),
		index.PostRename("audit", audit),
		index.PostDelete("audit", audit),
	}
}
