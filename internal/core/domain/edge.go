package domain

import (
	"slices"
	"strings"
)

// AddonRequest is the import name that signals a package needs a compiled artifact.
const AddonRequest = "node-gyp-build"

// EdgeKind is the closed set of ways an import can be satisfied.
type EdgeKind uint8

const (
	// EdgeInternal points at another module of the graph.
	EdgeInternal EdgeKind = iota
	// EdgeBuiltin is satisfied by the host's own standard library.
	EdgeBuiltin
	// EdgeAddon loads the compiled artifact bound to the importer's directory.
	EdgeAddon
	// EdgeUnresolved has no target and fails when exercised.
	EdgeUnresolved
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeInternal:
		return "internal"
	case EdgeBuiltin:
		return "builtin"
	case EdgeAddon:
		return "addon"
	default:
		return "unresolved"
	}
}

// Edge is a classified import.
type Edge struct {
	Input  string
	Kind   EdgeKind
	Target string
}

// Builtins is the set of import names passed through to the host.
type Builtins struct {
	names map[string]struct{}
}

// NewBuiltins creates a builtin set from the given names.
// A "node:" prefixed alias is accepted for every name.
func NewBuiltins(names ...string) *Builtins {
	b := &Builtins{names: make(map[string]struct{}, len(names))}
	b.Add(names...)
	return b
}

// Add registers additional names.
func (b *Builtins) Add(names ...string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		b.names[strings.TrimPrefix(n, "node:")] = struct{}{}
	}
}

// Has reports whether the request is a builtin.
func (b *Builtins) Has(req string) bool {
	if b == nil {
		return false
	}
	_, ok := b.names[strings.TrimPrefix(req, "node:")]
	return ok
}

// Names returns the sorted builtin names.
func (b *Builtins) Names() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.names))
	for n := range b.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Classify maps a recorded resolution onto its edge kind.
// The addon request wins over everything, then builtins, then the resolved target.
func Classify(r Resolution, builtins *Builtins) Edge {
	switch {
	case r.Input == AddonRequest:
		return Edge{Input: r.Input, Kind: EdgeAddon}
	case builtins.Has(r.Input):
		return Edge{Input: r.Input, Kind: EdgeBuiltin, Target: r.Input}
	case r.Resolved():
		return Edge{Input: r.Input, Kind: EdgeInternal, Target: r.Output}
	default:
		return Edge{Input: r.Input, Kind: EdgeUnresolved}
	}
}

// Edges classifies every resolution of the module in recorded order.
func (m *Module) Edges(builtins *Builtins) []Edge {
	edges := make([]Edge, 0, len(m.Resolutions))
	for _, r := range m.Resolutions {
		edges = append(edges, Classify(r, builtins))
	}
	return edges
}
