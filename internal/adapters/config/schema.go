package config

// Bootfile represents the structure of the bootdrive.yaml configuration file.
type Bootfile struct {
	Entrypoint            string            `yaml:"entrypoint"`
	Cwd                   string            `yaml:"cwd"`
	AbsoluteArtifactPaths bool              `yaml:"absoluteArtifactPaths"`
	AdditionalBuiltins    []string          `yaml:"additionalBuiltins"`
	SourceOverwrites      map[string]string `yaml:"sourceOverwrites"`
	Platform              string            `yaml:"platform"`
	Architecture          string            `yaml:"architecture"`
	Runtime               string            `yaml:"runtime"`
	Drive                 string            `yaml:"drive"`
}
