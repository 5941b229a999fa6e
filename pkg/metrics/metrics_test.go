package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTextfile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mediaindex.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRecordMutation(t *testing.T) {
	RecordMutation("upload", "success")

	assert.Contains(t, readTextfile(t), `mediaindex_mutations_total{operation="upload",result="success"}`)
}

func TestWriteTextfile(t *testing.T) {
	RecordScanEntry("created")
	RecordStorageOperation("local", "list", 5*time.Millisecond, true)
	SetIndexItems(7)

	out := readTextfile(t)
	assert.Contains(t, out, `mediaindex_scan_entries_total{status="created"}`)
	assert.Contains(t, out, `mediaindex_storage_operation_duration_seconds_count{backend="local",operation="list",status="success"}`)
	assert.Contains(t, out, "mediaindex_index_items 7")
}
