package domain

import (
	"encoding/json"
	"slices"
	"strings"
)

// Require is one flattened import edge of a bundled module.
// An unresolved edge has an empty Target and renders as null.
type Require struct {
	Target    string
	IsBuiltin bool
}

type requireJSON struct {
	Target    *string `json:"target"`
	IsBuiltin bool    `json:"isBuiltin"`
}

// MarshalJSON implements json.Marshaler.
func (r Require) MarshalJSON() ([]byte, error) {
	out := requireJSON{IsBuiltin: r.IsBuiltin}
	if r.Target != "" {
		target := r.Target
		out.Target = &target
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Require) UnmarshalJSON(data []byte) error {
	var in requireJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.IsBuiltin = in.IsBuiltin
	r.Target = ""
	if in.Target != nil {
		r.Target = *in.Target
	}
	return nil
}

// BundleModule is the self-contained record of one module inside a Bundle.
type BundleModule struct {
	Path     string             `json:"filename"`
	Dirname  string             `json:"dirname"`
	Kind     Kind               `json:"type"`
	Requires map[string]Require `json:"requires"`
	Source   string             `json:"source"`
}

// Bundle is the flattened closure of the graph reachable from Entry.
type Bundle struct {
	Entry    string                   `json:"entry"`
	Modules  map[string]*BundleModule `json:"modules"`
	Addons   map[string]AddonBinding  `json:"addons"`
	Builtins []string                 `json:"builtins"`
}

// Module returns the bundled module for the given path.
func (b *Bundle) Module(p string) (*BundleModule, bool) {
	m, ok := b.Modules[p]
	return m, ok
}

// Paths returns the bundled module paths in sorted order.
func (b *Bundle) Paths() []string {
	out := make([]string, 0, len(b.Modules))
	for p := range b.Modules {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// HasBuiltin reports whether the name was a builtin when the bundle was assembled.
func (b *Bundle) HasBuiltin(name string) bool {
	_, found := slices.BinarySearch(b.Builtins, strings.TrimPrefix(name, "node:"))
	return found
}

// Closed reports whether every internal target of every module is present in the bundle.
func (b *Bundle) Closed() bool {
	for _, m := range b.Modules {
		for _, r := range m.Requires {
			if r.IsBuiltin || r.Target == "" {
				continue
			}
			if _, ok := b.Modules[r.Target]; !ok {
				return false
			}
		}
	}
	return true
}
