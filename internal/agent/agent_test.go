package agent

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/mediaindex/internal/config"
	"github.com/mwantia/mediaindex/pkg/index"
	"github.com/mwantia/mediaindex/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.BaseConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetDefault()
	cfg.Log.NoTerminal = true
	cfg.Metadata.SQLite.Path = filepath.Join(dir, "index.db")
	cfg.Storage.Local.Path = filepath.Join(dir, "media")
	cfg.Index.Audit = true
	return &cfg
}

func TestRunScansConfiguredStorage(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Storage.Local.Path, "uploads", "photos"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.Local.Path, "uploads", "photos", "a.png"), []byte("png"), 0644))

	agent := NewAgent(cfg)
	var lines []string
	err := agent.Run(context.Background(), func(ctx context.Context, engine index.MediaIndex) error {
		_, err := engine.Scan(ctx, func(line index.ReportLine) {
			lines = append(lines, line.String())
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"|--photos (created)", "\t|--a.png (created)"}, lines)
	assert.Nil(t, agent.Engine())
}

func TestSetupIsIdempotent(t *testing.T) {
	agent := NewAgent(testConfig(t))
	ctx := context.Background()

	require.NoError(t, agent.Setup(ctx))
	engine := agent.Engine()
	require.NoError(t, agent.Setup(ctx))
	assert.Same(t, engine, agent.Engine())
	assert.NotNil(t, agent.Store())

	require.NoError(t, agent.Shutdown())
}

func TestSetupRejectsUnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "ftp"

	err := NewAgent(cfg).Setup(context.Background())
	assert.ErrorContains(t, err, "unsupported storage type 'ftp'")
}

func TestAuditHooksLogMutations(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLoggerService("audit", "info", &buf)

	hooks := index.NewHooks(AuditHooks(logger)...)
	assert.Equal(t, 1, hooks.Len(index.StagePost, index.OpRename))
	assert.Equal(t, 0, hooks.Len(index.StagePre, index.OpRename))

	for _, reg := range AuditHooks(logger) {
		if reg.Op == index.OpRename {
			require.NoError(t, reg.Fn(context.Background(), &index.Event{Op: index.OpRename, Path: "uploads/a.png", NewName: "b.png"}))
		}
	}
	assert.Contains(t, buf.String(), "rename 'uploads/a.png' -> 'b.png'")
}
