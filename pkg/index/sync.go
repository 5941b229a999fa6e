package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/mediaindex/pkg/db/models"
	"github.com/mwantia/mediaindex/pkg/metrics"
	"github.com/mwantia/mediaindex/pkg/storage"
)

const (
	StatusCreated = "created"
	StatusExists  = "exists"
)

// ReportLine is emitted for every entry visited by a synchronization.
type ReportLine struct {
	Depth  int
	Name   string
	Status string
	Item   *models.Item
}

// String renders the line as "<tabs>|--<name> (<status>)".
func (l ReportLine) String() string {
	return fmt.Sprintf("%s|--%s (%s)", strings.Repeat("\t", l.Depth), l.Name, l.Status)
}

// Report summarizes a synchronization. It is informational only.
type Report struct {
	Root     string
	Created  int64
	Existing int64
	Skipped  int64
	Duration time.Duration
}

// Synchronize reconciles the index with the storage tree below
// relativeDirectory in strict preorder. Every visited entry is passed to
// visit (which may be nil) before its children are traversed.
func (e *Engine) Synchronize(ctx context.Context, relativeDirectory string, visit func(ReportLine)) (*Report, error) {
	key, err := e.resolver.Resolve(relativeDirectory)
	if err != nil {
		return nil, opError(OpScan, relativeDirectory, err, nil)
	}
	rel := e.resolver.Relative(key)

	unlock := e.locks.Lock(rel)
	defer unlock()

	parent, err := e.resolveExistingFolder(ctx, OpScan, rel)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	report := &Report{Root: key}
	if visit == nil {
		visit = func(ReportLine) {}
	}

	err = e.synchronize(ctx, key, parent, 0, report, visit)
	report.Duration = time.Since(started)
	return report, err
}

func (e *Engine) synchronize(ctx context.Context, key string, parent *models.Item, depth int, report *Report, visit func(ReportLine)) error {
	if err := ctx.Err(); err != nil {
		return opError(OpScan, key, ErrStorageIO, err)
	}

	dirs, files, err := e.backend.ListDir(ctx, key)
	if err != nil {
		// an index root that was never written to is an empty tree
		if depth == 0 && key == e.resolver.Root() && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return storageError(OpScan, key, err)
	}

	type candidate struct {
		entry storage.Entry
		isDir bool
	}
	entries := make([]candidate, 0, len(dirs)+len(files))
	for _, dir := range dirs {
		entries = append(entries, candidate{entry: dir, isDir: true})
	}
	for _, file := range files {
		entries = append(entries, candidate{entry: file})
	}

	for _, c := range entries {
		name := c.entry.Name
		if name == "" || strings.HasPrefix(name, ".") {
			report.Skipped++
			continue
		}

		child := path.Join(key, name)
		if e.excluded(e.resolver.Relative(child), name) {
			report.Skipped++
			continue
		}

		candidate := e.describe(child, parent, c.isDir, c.entry.Size, c.entry.ModTime)
		item, created, err := e.store.GetOrCreateItem(ctx, candidate)
		if err != nil {
			return opError(OpScan, child, ErrIndexInconsistency, err)
		}
		if !created {
			if item, err = e.repair(ctx, item, candidate); err != nil {
				return opError(OpScan, child, ErrIndexInconsistency, err)
			}
		}

		status := StatusExists
		if created {
			status = StatusCreated
			report.Created++
		} else {
			report.Existing++
		}
		metrics.RecordScanEntry(status)

		visit(ReportLine{Depth: depth, Name: name, Status: status, Item: item})

		if c.isDir {
			if err := e.synchronize(ctx, child, item, depth+1, report, visit); err != nil {
				return err
			}
		}
	}

	return nil
}

// Scan synchronizes the whole tree and records the pass as a scan run.
func (e *Engine) Scan(ctx context.Context, visit func(ReportLine)) (*Report, error) {
	run := &models.ScanRun{
		ID:        uuid.NewString(),
		Root:      e.resolver.Root(),
		Status:    models.ScanStatusRunning,
		StartedAt: time.Now(),
	}
	if err := e.store.CreateScanRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record scan run: %w", err)
	}

	e.logger.Info("Starting scan '%s' of '%s'", run.ID, run.Root)
	report, scanErr := e.Synchronize(ctx, "", visit)

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = models.ScanStatusCompleted
	if report != nil {
		run.Created = report.Created
		run.Existing = report.Existing
		run.Skipped = report.Skipped
	}
	if scanErr != nil {
		run.Status = models.ScanStatusFailed
		run.Error = scanErr.Error()
	}

	// a cancelled scan still closes its run
	if err := e.store.UpdateScanRun(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("Unable to update scan run '%s': %v", run.ID, err)
	}

	metrics.RecordScan(finished.Sub(run.StartedAt))
	if count, err := e.store.CountItems(context.WithoutCancel(ctx)); err == nil {
		metrics.SetIndexItems(count)
	}

	if scanErr != nil {
		e.logger.Error("Scan '%s' failed: %v", run.ID, scanErr)
		return report, scanErr
	}

	e.logger.Info("Finished scan '%s': %d created, %d existing, %d skipped", run.ID, run.Created, run.Existing, run.Skipped)
	return report, nil
}
