// Package executor evaluates bundles with CommonJS semantics: every module body
// runs once, exports are cached and circular requires observe partial exports.
package executor

import (
	"errors"

	"github.com/dop251/goja"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
)

// Engine runs bundles against one cache.
type Engine struct {
	cache  *Cache
	addons AddonLoader
}

// Option configures an Engine.
type Option func(*Engine)

// WithAddonLoader replaces the loader used by the addon thunk.
func WithAddonLoader(l AddonLoader) Option {
	return func(e *Engine) {
		e.addons = l
	}
}

// New creates an Engine. A nil cache starts a fresh one.
func New(cache *Cache, opts ...Option) *Engine {
	if cache == nil {
		cache = NewCache()
	}
	e := &Engine{cache: cache, addons: DescriptorLoader{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the cache the engine evaluates into.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Run materializes entry and returns its export value.
func (e *Engine) Run(b *domain.Bundle, entry string) (goja.Value, error) {
	e.cache.mu.Lock()
	defer e.cache.mu.Unlock()

	return e.materialize(b, domain.NormalizePath(entry))
}

// materialize returns the exports of the module at p, evaluating it on first use.
// The record is cached before the body runs so circular requires terminate.
func (e *Engine) materialize(b *domain.Bundle, p string) (goja.Value, error) {
	if r, ok := e.cache.Record(p); ok {
		return r.Exports(), nil
	}

	m, ok := b.Module(p)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "module is not in the bundle"), "path", p)
	}

	r := e.cache.enter(m)
	if err := e.evaluate(b, r); err != nil {
		e.cache.forget(p)
		return nil, e.convert(b, err)
	}
	e.cache.exported(r)
	return r.Exports(), nil
}

func (e *Engine) evaluate(b *domain.Bundle, r *Record) error {
	vm := e.cache.vm
	m := r.Module

	if m.Kind == domain.KindJSON {
		v, err := parseJSON(vm, m.Source)
		if err != nil {
			return err
		}
		return r.object.Set("exports", v)
	}

	prog, err := Compile(m.Path, m.Source)
	if err != nil {
		return err
	}
	fn, err := wrapper(vm, prog)
	if err != nil {
		return err
	}

	exports := r.Exports()
	_, err = fn(exports,
		vm.ToValue(e.requireFor(b, m)),
		vm.ToValue(m.Dirname),
		vm.ToValue(m.Path),
		r.object,
		exports,
	)
	return err
}

// requireFor builds the require function of m. Requests are looked up in m's
// own edges only.
func (e *Engine) requireFor(b *domain.Bundle, m *domain.BundleModule) func(goja.FunctionCall) goja.Value {
	vm := e.cache.vm
	return func(call goja.FunctionCall) goja.Value {
		req := call.Argument(0).String()
		if req == domain.AddonRequest {
			return vm.ToValue(e.addonThunk(b, m))
		}

		edge, recorded := m.Requires[req]
		if (recorded && edge.IsBuiltin) || (!recorded && b.HasBuiltin(req)) {
			v, err := requireHost(e.cache.host, req)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return v
		}
		if !recorded || edge.Target == "" {
			throw(vm, &domain.UnresolvedImportError{Request: req, From: m.Dirname})
		}

		v, err := e.materialize(b, edge.Target)
		if err != nil {
			rethrow(vm, err)
		}
		return v
	}
}

// addonThunk returns the function a module calls to load its artifact.
func (e *Engine) addonThunk(b *domain.Bundle, m *domain.BundleModule) func(goja.FunctionCall) goja.Value {
	vm := e.cache.vm
	return func(goja.FunctionCall) goja.Value {
		binding, ok := b.Addons[m.Dirname]
		if !ok {
			throw(vm, &domain.ArtifactUnavailableError{Dir: m.Dirname})
		}
		v, err := e.addons.Load(vm, binding)
		if err != nil {
			throw(vm, err)
		}
		return v
	}
}

// convert reports a failure at the module where it was first thrown. A value
// rethrown by requiring modules maps back to its original error.
func (e *Engine) convert(b *domain.Bundle, err error) error {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return err
	}

	obj, isObject := ex.Value().(*goja.Object)
	if isObject {
		if prior, seen := e.cache.origins[obj]; seen {
			return prior
		}
	}

	out := Convert(err, func(p string) bool {
		_, ok := b.Modules[p]
		return ok
	})
	var evalErr *domain.EvaluationError
	if isObject && errors.As(out, &evalErr) {
		e.cache.origins[obj] = evalErr
	}
	return out
}

func parseJSON(vm *goja.Runtime, source string) (goja.Value, error) {
	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return nil, zerr.New("JSON.parse is not available")
	}
	return parse(goja.Undefined(), vm.ToValue(source))
}
