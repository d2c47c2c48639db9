package rc

import (
	"context"
	"sort"
	"sync"
)

// Func is the signature every registered RPC method implements. It
// receives bound Params and returns either a JSON-marshalable result or
// an *RPCError.
type Func func(ctx context.Context, in Params) (interface{}, *RPCError)

// Call is one registered JSON-RPC method, mirroring the teacher's
// fs/rc.Call (Path + Fn), extended with ParamNames so positional (array)
// params can be bound to the same names used for named (object) params.
type Call struct {
	Path       string
	Fn         Func
	ParamNames []string
}

// Hooks lets an observer (the metrics endpoint, typically) count
// dispatch activity without the dispatcher itself depending on
// Prometheus or any other collector. Every field is optional.
type Hooks struct {
	OnCall         func(method string, errKind string)
	OnBatch        func()
	OnNotification func()
}

// Registry is a concurrency-safe method table, mirroring the teacher's
// package-level fs/rc.Calls registry (fs/rc/internal_test.go:
// Calls.Get("rc/noop"), Calls.List()).
type Registry struct {
	mu    sync.Mutex
	m     map[string]*Call
	hooks Hooks
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{m: map[string]*Call{}}
}

// SetHooks installs h as the registry's dispatch observer.
func (r *Registry) SetHooks(h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = h
}

// getHooks returns the currently installed Hooks.
func (r *Registry) getHooks() Hooks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hooks
}

// Add registers call, overwriting any previous registration under the
// same Path.
func (r *Registry) Add(call Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := call
	r.m[call.Path] = &c
}

// Get returns the registered Call for path, or nil if none is registered.
func (r *Registry) Get(path string) *Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[path]
}

// List returns the registered method names in sorted order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
