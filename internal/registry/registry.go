// Package registry implements the task board's function registry: a
// name-to-callable table consulted whenever a task or a remote call needs
// to resolve what to run.
package registry

import (
	"fmt"
	"sync"

	"github.com/brightfield/tboard/internal/task"
)

// Func is the signature a plain (non-yielding) registered callable must
// satisfy. args and the returned result are opaque payloads the caller
// and callee agree on out of band (mirroring the reference
// implementation's untyped argument blocks).
type Func func(args any) (result any, err error)

// CoroutineFunc is the signature of a registered callable that wants to
// yield control back to its driving worker mid-run (for example, to
// report partial progress, sleep, or block on a remote call) before being
// resumed and continuing to completion on the same worker.
type CoroutineFunc func(args any, ctx *task.TaskContext) (result any, err error)

// Entry describes one registered function: its callable (exactly one of
// Fn or CoroutineFn is set), its declared argument/result shape
// (informational only — nothing checks call arguments against it), and
// whether invoking it has side effects a remote caller should not retry
// blindly.
type Entry struct {
	Name        string
	Fn          Func
	CoroutineFn CoroutineFunc
	Signature   string
	SideEffect  bool
}

// ErrNotFound is returned by Find when no entry is registered under name.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("registry: function %q not found", e.Name) }

// Registry is a read-mostly name->Entry table. Registration happens in
// bursts at startup (or whenever a plugin module loads); lookups happen
// continuously from worker goroutines, so reads use an RWMutex rather than
// serializing every lookup behind a single mutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds fn under name, overwriting any existing entry of that
// name.
func (r *Registry) Register(name string, fn Func, signature string, sideEffect bool) error {
	return r.register(&Entry{Name: name, Fn: fn, Signature: signature, SideEffect: sideEffect})
}

// RegisterCoroutine adds a yield-capable fn under name, overwriting any
// existing entry of that name.
func (r *Registry) RegisterCoroutine(name string, fn CoroutineFunc, signature string, sideEffect bool) error {
	return r.register(&Entry{Name: name, CoroutineFn: fn, Signature: signature, SideEffect: sideEffect})
}

func (r *Registry) register(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Name] = e
	return nil
}

// Find looks up name, returning ErrNotFound if it is not registered.
func (r *Registry) Find(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, &ErrNotFound{Name: name}
	}
	return e, nil
}

// Unregister removes name, if present. It is a no-op if name is unknown.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Names returns every registered function name. Order is unspecified.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
