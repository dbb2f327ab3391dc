package domain

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// Kind classifies how a module is materialized.
type Kind uint8

const (
	// KindScript modules are evaluated as CommonJS code.
	KindScript Kind = iota
	// KindJSON modules export their parsed content without executing anything.
	KindJSON
)

// KindForPath derives the module kind from the file extension.
func KindForPath(p string) Kind {
	if strings.EqualFold(path.Ext(p), ".json") {
		return KindJSON
	}
	return KindScript
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k == KindJSON {
		return "json"
	}
	return "script"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "script":
		*k = KindScript
	case "json":
		*k = KindJSON
	default:
		return zerr.With(zerr.New("unknown module kind"), "kind", string(text))
	}
	return nil
}

// Resolution is one import edge as recorded by the graph provider.
// Output is empty when the request could not be resolved inside the drive.
type Resolution struct {
	Input  string
	Output string
}

// Resolved reports whether the request maps to a module path.
func (r Resolution) Resolved() bool {
	return r.Output != ""
}

// PackageInfo identifies the package that owns a module.
type PackageInfo struct {
	Name    string
	Version string
	Dir     string
	Main    string
}

// Module is one discovered source file. It is immutable once added to a Graph.
type Module struct {
	Path        string
	Dirname     string
	Kind        Kind
	Source      string
	Digest      uint64
	Resolutions []Resolution
	Package     *PackageInfo
}

// NewModule creates a module for the given absolute path.
func NewModule(p, source string) *Module {
	p = NormalizePath(p)
	return &Module{
		Path:    p,
		Dirname: path.Dir(p),
		Kind:    KindForPath(p),
		Source:  source,
	}
}

// Resolution returns the recorded edge for the given request.
func (m *Module) Resolution(input string) (Resolution, bool) {
	for _, r := range m.Resolutions {
		if r.Input == input {
			return r, true
		}
	}
	return Resolution{}, false
}

// RequestsAddon reports whether the module imports the addon build request.
func (m *Module) RequestsAddon() bool {
	_, ok := m.Resolution(AddonRequest)
	return ok
}

// NormalizePath turns a drive key into an absolute, cleaned, slash separated path.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
