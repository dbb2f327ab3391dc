package executor

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"go.trai.ch/bootdrive/internal/core/domain"
)

// State is the execution status of one module.
type State uint8

const (
	// StateUnvisited modules have no record in the cache.
	StateUnvisited State = iota
	// StateExecuting modules are being evaluated. Re-entrant requires observe
	// their partially populated exports.
	StateExecuting
	// StateExported modules finished evaluating.
	StateExported
)

func (s State) String() string {
	switch s {
	case StateExecuting:
		return "executing"
	case StateExported:
		return "exported"
	default:
		return "unvisited"
	}
}

// Record is the cache entry of one module. It points at the bundled module
// it was created from and owns the script-visible module object.
type Record struct {
	Module *domain.BundleModule
	State  State
	object *goja.Object
}

// Exports returns the current value of module.exports.
func (r *Record) Exports() goja.Value {
	return r.object.Get("exports")
}

// Cache holds the module records of one session together with the script
// runtime they live in. A Cache must not be used from two goroutines at once.
type Cache struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	host    *require.RequireModule
	records map[string]*Record
	origins map[*goja.Object]*domain.EvaluationError
}

// NewCache creates an empty cache with a fresh runtime and the host builtins enabled.
func NewCache() *Cache {
	vm, host := newRuntime()
	return &Cache{
		vm:      vm,
		host:    host,
		records: make(map[string]*Record),
		origins: make(map[*goja.Object]*domain.EvaluationError),
	}
}

// Runtime returns the script runtime owned by the cache.
func (c *Cache) Runtime() *goja.Runtime {
	return c.vm
}

// State returns the execution state of the module at path.
func (c *Cache) State(path string) State {
	if r, ok := c.records[path]; ok {
		return r.State
	}
	return StateUnvisited
}

// Record returns the cache entry for path.
func (c *Cache) Record(path string) (*Record, bool) {
	r, ok := c.records[path]
	return r, ok
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return len(c.records)
}

// enter inserts an executing record before the module body runs.
func (c *Cache) enter(m *domain.BundleModule) *Record {
	obj := c.vm.NewObject()
	_ = obj.Set("exports", c.vm.NewObject())
	_ = obj.Set("id", m.Path)
	_ = obj.Set("filename", m.Path)
	_ = obj.Set("loaded", false)

	r := &Record{Module: m, State: StateExecuting, object: obj}
	c.records[m.Path] = r
	return r
}

func (c *Cache) exported(r *Record) {
	r.State = StateExported
	_ = r.object.Set("loaded", true)
}

// forget drops the record of a module whose body threw.
func (c *Cache) forget(path string) {
	delete(c.records, path)
}

// RequireBuiltin looks name up in the host's own module namespace.
func (c *Cache) RequireBuiltin(name string) (goja.Value, error) {
	return requireHost(c.host, name)
}
