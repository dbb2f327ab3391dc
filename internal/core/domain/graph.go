// Package domain contains the core model of the module graph, bundles and addon bindings.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph accumulates resolved modules keyed by absolute path.
// Modules are append-only, so a graph left behind by an aborted warm-up is safe to reuse.
type Graph struct {
	modules map[InternedString]*Module
	order   []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		modules: make(map[InternedString]*Module),
	}
}

// Add adds a module to the graph.
// It returns an error if a module with the same path already exists.
func (g *Graph) Add(m *Module) error {
	key := NewInternedString(m.Path)
	if _, exists := g.modules[key]; exists {
		return zerr.With(zerr.Wrap(ErrModuleAlreadyExists, "cannot add module"), "path", m.Path)
	}
	g.modules[key] = m
	g.order = append(g.order, key)
	return nil
}

// Get returns the module stored for the path.
func (g *Graph) Get(p string) (*Module, bool) {
	m, ok := g.modules[NewInternedString(p)]
	return m, ok
}

// Has reports whether the path is already in the graph.
func (g *Graph) Has(p string) bool {
	_, ok := g.modules[NewInternedString(p)]
	return ok
}

// Len returns the number of modules in the graph.
func (g *Graph) Len() int {
	return len(g.modules)
}

// Walk returns an iterator over the modules in insertion order.
func (g *Graph) Walk() iter.Seq[*Module] {
	return func(yield func(*Module) bool) {
		for _, key := range g.order {
			if !yield(g.modules[key]) {
				return
			}
		}
	}
}

// Paths returns the module paths in sorted order.
func (g *Graph) Paths() []string {
	out := make([]string, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, key.String())
	}
	slices.Sort(out)
	return out
}
