package domain

// Options is the configuration surface of a boot session.
type Options struct {
	// Entrypoint is the module path to start from when no argument is given.
	Entrypoint string `yaml:"entrypoint"`
	// Cwd is the base directory of the local artifact cache.
	Cwd string `yaml:"cwd"`
	// AbsoluteArtifactPaths emits absolute artifact paths in bundles instead of cache keys.
	AbsoluteArtifactPaths bool `yaml:"absoluteArtifactPaths"`
	// AdditionalBuiltins are extra import names passed through to the host.
	AdditionalBuiltins []string `yaml:"additionalBuiltins"`
	// SourceOverwrites replaces the drive content of a path before it is parsed.
	SourceOverwrites map[string]string `yaml:"sourceOverwrites"`
	// Platform overrides the detected platform for artifact resolution.
	Platform string `yaml:"platform"`
	// Architecture overrides the detected architecture for artifact resolution.
	Architecture string `yaml:"architecture"`
	// Runtime overrides the detected runtime family.
	Runtime string `yaml:"runtime"`
	// Drive is the location of the drive to boot from.
	Drive string `yaml:"drive"`
}

// Target resolves the artifact target, applying overrides on top of the host.
func (o Options) Target() (Target, error) {
	t := HostTarget()
	if o.Platform != "" {
		t.Platform = o.Platform
	}
	if o.Architecture != "" {
		t.Arch = o.Architecture
	}
	f, err := ParseFamily(o.Runtime)
	if err != nil {
		return Target{}, err
	}
	t.Family = f
	return t, nil
}

// Overwrite returns the replacement source for the path, if configured.
func (o Options) Overwrite(p string) (string, bool) {
	if len(o.SourceOverwrites) == 0 {
		return "", false
	}
	if src, ok := o.SourceOverwrites[p]; ok {
		return src, true
	}
	for k, src := range o.SourceOverwrites {
		if NormalizePath(k) == p {
			return src, true
		}
	}
	return "", false
}

// Merge returns o with every non-zero field of other applied on top.
func (o Options) Merge(other Options) Options {
	if other.Entrypoint != "" {
		o.Entrypoint = other.Entrypoint
	}
	if other.Cwd != "" {
		o.Cwd = other.Cwd
	}
	if other.AbsoluteArtifactPaths {
		o.AbsoluteArtifactPaths = true
	}
	if len(other.AdditionalBuiltins) > 0 {
		o.AdditionalBuiltins = append(append([]string(nil), o.AdditionalBuiltins...), other.AdditionalBuiltins...)
	}
	if len(other.SourceOverwrites) > 0 {
		merged := make(map[string]string, len(o.SourceOverwrites)+len(other.SourceOverwrites))
		for k, v := range o.SourceOverwrites {
			merged[k] = v
		}
		for k, v := range other.SourceOverwrites {
			merged[k] = v
		}
		o.SourceOverwrites = merged
	}
	if other.Platform != "" {
		o.Platform = other.Platform
	}
	if other.Architecture != "" {
		o.Architecture = other.Architecture
	}
	if other.Runtime != "" {
		o.Runtime = other.Runtime
	}
	if other.Drive != "" {
		o.Drive = other.Drive
	}
	return o
}
