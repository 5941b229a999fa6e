package index

import (
	"context"
	"fmt"
)

// Stage marks whether a hook runs before or after the storage operation.
type Stage string

const (
	StagePre  Stage = "pre"
	StagePost Stage = "post"
)

// Event describes the mutation a hook is invoked for.
type Event struct {
	Op        Operation
	Directory string
	Name      string
	NewName   string
	Path      string
	IsFolder  bool
}

type HookFunc func(ctx context.Context, event *Event) error

// Registration binds a named hook to a stage of one operation.
type Registration struct {
	Stage Stage
	Op    Operation
	Name  string
	Fn    HookFunc
}

func PreCreateDirectory(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePre, Op: OpCreateDirectory, Name: name, Fn: fn}
}

func PostCreateDirectory(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePost, Op: OpCreateDirectory, Name: name, Fn: fn}
}

func PreUpload(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePre, Op: OpUpload, Name: name, Fn: fn}
}

func PostUpload(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePost, Op: OpUpload, Name: name, Fn: fn}
}

func PreRename(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePre, Op: OpRename, Name: name, Fn: fn}
}

func PostRename(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePost, Op: OpRename, Name: name, Fn: fn}
}

func PreDelete(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePre, Op: OpDelete, Name: name, Fn: fn}
}

func PostDelete(name string, fn HookFunc) Registration {
	return Registration{Stage: StagePost, Op: OpDelete, Name: name, Fn: fn}
}

type hookKey struct {
	stage Stage
	op    Operation
}

// Hooks holds the hook registrations of an engine, grouped per stage and
// operation and kept in registration order.
type Hooks struct {
	registrations map[hookKey][]Registration
}

func NewHooks(regs ...Registration) *Hooks {
	h := &Hooks{
		registrations: make(map[hookKey][]Registration),
	}
	for _, reg := range regs {
		h.Register(reg)
	}
	return h
}

// Register appends reg. Registrations without a function are ignored.
func (h *Hooks) Register(reg Registration) {
	if reg.Fn == nil {
		return
	}
	key := hookKey{stage: reg.Stage, op: reg.Op}
	h.registrations[key] = append(h.registrations[key], reg)
}

// Len returns the number of hooks registered for stage and op.
func (h *Hooks) Len(stage Stage, op Operation) int {
	return len(h.registrations[hookKey{stage: stage, op: op}])
}

// runPre stops at the first failing hook.
func (h *Hooks) runPre(ctx context.Context, event *Event) error {
	for _, reg := range h.registrations[hookKey{stage: StagePre, op: event.Op}] {
		if err := reg.Fn(ctx, event); err != nil {
			return fmt.Errorf("hook '%s': %w", reg.Name, err)
		}
	}
	return nil
}

// runPost runs every hook and collects failures, a failing post hook
// never undoes the storage operation.
func (h *Hooks) runPost(ctx context.Context, event *Event) []error {
	var errs []error
	for _, reg := range h.registrations[hookKey{stage: StagePost, op: event.Op}] {
		if err := reg.Fn(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("hook '%s': %w", reg.Name, err))
		}
	}
	return errs
}
