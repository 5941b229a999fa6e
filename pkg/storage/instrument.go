package storage

import (
	"context"
	"io"
	"time"

	"github.com/mwantia/mediaindex/pkg/metrics"
)

type instrumented struct {
	Backend
}

// Instrument wraps a backend so that every call is recorded in metrics.
func Instrument(b Backend) Backend {
	return &instrumented{Backend: b}
}

func (i *instrumented) record(operation string, start time.Time, err error) {
	metrics.RecordStorageOperation(i.Type(), operation, time.Since(start), err == nil)
}

func (i *instrumented) ListDir(ctx context.Context, key string) ([]Entry, []Entry, error) {
	start := time.Now()
	dirs, files, err := i.Backend.ListDir(ctx, key)
	i.record("list", start, err)
	return dirs, files, err
}

func (i *instrumented) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	start := time.Now()
	info, err := i.Backend.Stat(ctx, key)
	i.record("stat", start, err)
	return info, err
}

func (i *instrumented) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := i.Backend.Exists(ctx, key)
	i.record("exists", start, err)
	return ok, err
}

func (i *instrumented) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	start := time.Now()
	final, err := i.Backend.Save(ctx, key, body)
	i.record("save", start, err)
	return final, err
}

func (i *instrumented) Move(ctx context.Context, src, dst string, allowOverwrite bool) error {
	start := time.Now()
	err := i.Backend.Move(ctx, src, dst, allowOverwrite)
	i.record("move", start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Backend.Delete(ctx, key)
	i.record("delete", start, err)
	return err
}

func (i *instrumented) RemoveAll(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Backend.RemoveAll(ctx, key)
	i.record("rmtree", start, err)
	return err
}

func (i *instrumented) MakeDirs(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Backend.MakeDirs(ctx, key)
	i.record("makedirs", start, err)
	return err
}
