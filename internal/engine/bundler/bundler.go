// Package bundler flattens the warmed graph reachable from an entry into a Bundle.
package bundler

import (
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
)

// Bindings looks up the addon artifact bound to a directory.
type Bindings interface {
	Binding(dir string) (domain.AddonBinding, bool)
}

// Assembler reads a warmed graph. It never touches the drive.
type Assembler struct {
	graph    *domain.Graph
	builtins *domain.Builtins
	bindings Bindings
	absolute bool
}

// New creates an Assembler. With absolute set, addon paths in bundles point at
// the local cache file instead of the cache key.
func New(graph *domain.Graph, builtins *domain.Builtins, bindings Bindings, absolute bool) *Assembler {
	return &Assembler{
		graph:    graph,
		builtins: builtins,
		bindings: bindings,
		absolute: absolute,
	}
}

// Assemble walks the graph from entry with an explicit stack and visits each
// reachable module once.
func (a *Assembler) Assemble(entry string) (*domain.Bundle, error) {
	entry = domain.NormalizePath(entry)
	bundle := &domain.Bundle{
		Entry:    entry,
		Modules:  make(map[string]*domain.BundleModule),
		Addons:   make(map[string]domain.AddonBinding),
		Builtins: a.builtins.Names(),
	}
	if bundle.Builtins == nil {
		bundle.Builtins = []string{}
	}

	stack := []string{entry}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := bundle.Modules[current]; done {
			continue
		}

		m, ok := a.graph.Get(current)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "module was not warmed"), "path", current)
		}

		record := &domain.BundleModule{
			Path:     m.Path,
			Dirname:  m.Dirname,
			Kind:     m.Kind,
			Requires: make(map[string]domain.Require, len(m.Resolutions)),
			Source:   m.Source,
		}
		bundle.Modules[current] = record

		for _, edge := range m.Edges(a.builtins) {
			switch edge.Kind {
			case domain.EdgeAddon:
				a.bindAddon(bundle, m.Dirname)
			case domain.EdgeBuiltin:
				record.Requires[edge.Input] = domain.Require{Target: edge.Target, IsBuiltin: true}
			case domain.EdgeUnresolved:
				record.Requires[edge.Input] = domain.Require{}
			case domain.EdgeInternal:
				record.Requires[edge.Input] = domain.Require{Target: edge.Target}
				if _, done := bundle.Modules[edge.Target]; !done {
					stack = append(stack, edge.Target)
				}
			}
		}
	}

	return bundle, nil
}

func (a *Assembler) bindAddon(bundle *domain.Bundle, dir string) {
	if a.bindings == nil {
		return
	}
	b, ok := a.bindings.Binding(dir)
	if !ok {
		return
	}
	if a.absolute {
		b.Path = b.Local
	}
	bundle.Addons[dir] = b
}
