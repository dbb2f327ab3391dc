package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// Family is a runtime flavor that prebuilt artifacts are compiled for.
type Family string

const (
	// FamilyNode artifacts carry the .node extension.
	FamilyNode Family = "node"
	// FamilyBare artifacts carry the .bare extension.
	FamilyBare Family = "bare"
)

// ParseFamily validates a configured family name. An empty name selects the host family.
func ParseFamily(s string) (Family, error) {
	switch Family(s) {
	case "":
		return HostFamily(), nil
	case FamilyNode, FamilyBare:
		return Family(s), nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidRuntimeFamily, "cannot select runtime family"), "runtime", s)
	}
}

// HostFamily returns the family the running host loads natively.
func HostFamily() Family {
	return FamilyNode
}

// Extension returns the artifact file extension for the family.
func (f Family) Extension() string {
	return "." + string(f)
}

// Fallback returns the family accepted when no preferred artifact exists.
func (f Family) Fallback() Family {
	if f == FamilyBare {
		return FamilyNode
	}
	return FamilyBare
}

// Variant ranks an artifact against the configured family.
type Variant uint8

const (
	// VariantPrimary is an artifact built for the configured family.
	VariantPrimary Variant = iota
	// VariantSecondary is an artifact built for the fallback family.
	VariantSecondary
)

func (v Variant) String() string {
	if v == VariantSecondary {
		return "secondary"
	}
	return "primary"
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	switch string(text) {
	case "primary":
		*v = VariantPrimary
	case "secondary":
		*v = VariantSecondary
	default:
		return zerr.With(zerr.New("unknown addon variant"), "variant", string(text))
	}
	return nil
}

// Target is the platform, architecture and family artifacts are negotiated for.
type Target struct {
	Platform string
	Arch     string
	Family   Family
}

// HostTarget returns the target of the running process using Node-style names.
func HostTarget() Target {
	return Target{
		Platform: NodePlatform(runtime.GOOS),
		Arch:     NodeArch(runtime.GOARCH),
		Family:   HostFamily(),
	}
}

// PrebuildDir returns the folder name artifacts for the target live in.
func (t Target) PrebuildDir() string {
	return t.Platform + "-" + t.Arch
}

// FamilyFor returns the family of the given variant.
func (t Target) FamilyFor(v Variant) Family {
	if v == VariantSecondary {
		return t.Family.Fallback()
	}
	return t.Family
}

// NodePlatform maps a GOOS value onto the platform name used by prebuild folders.
func NodePlatform(goos string) string {
	if goos == "windows" {
		return "win32"
	}
	return goos
}

// NodeArch maps a GOARCH value onto the architecture name used by prebuild folders.
func NodeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	case "arm":
		return "arm"
	default:
		return goarch
	}
}

// PackageID is the cache identity of an addon artifact.
type PackageID struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// AddonBinding is the artifact chosen for the package owning Dir.
// Path is an absolute local file or a key relative to the artifact cache root.
type AddonBinding struct {
	Dir     string    `json:"dir"`
	Package PackageID `json:"package"`
	Variant Variant   `json:"variant"`
	Path    string    `json:"path"`
	Source  string    `json:"-"`
	Local   string    `json:"-"`
}
