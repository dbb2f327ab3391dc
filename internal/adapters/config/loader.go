// Package config provides the configuration loader for bootdrive.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds the nearest bootdrive.yaml at or above cwd and decodes it.
// A missing file yields zero Options.
func (l *Loader) Load(cwd string) (domain.Options, error) {
	configPath, ok := findConfiguration(cwd)
	if !ok {
		return domain.Options{}, nil
	}
	if l.Logger != nil {
		l.Logger.Debug("loading configuration", "path", configPath)
	}

	opts, err := Load(configPath)
	if err != nil {
		return domain.Options{}, err
	}

	if opts.Runtime != "" {
		if _, err := domain.ParseFamily(opts.Runtime); err != nil {
			return domain.Options{}, zerr.With(err, "path", configPath)
		}
	}
	if len(opts.SourceOverwrites) > 0 && l.Logger != nil {
		l.Logger.Warn("source overwrites are active", "count", len(opts.SourceOverwrites))
	}
	return opts, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

// Load reads a configuration file from path. Relative cwd and drive
// locations are resolved against the directory holding the file.
func Load(path string) (domain.Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return domain.Options{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file Bootfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return domain.Options{}, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	root := filepath.Dir(path)
	return domain.Options{
		Entrypoint:            file.Entrypoint,
		Cwd:                   resolveDir(root, file.Cwd),
		AbsoluteArtifactPaths: file.AbsoluteArtifactPaths,
		AdditionalBuiltins:    file.AdditionalBuiltins,
		SourceOverwrites:      file.SourceOverwrites,
		Platform:              file.Platform,
		Architecture:          file.Architecture,
		Runtime:               file.Runtime,
		Drive:                 resolveDrive(root, file.Drive),
	}, nil
}

func resolveDir(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// resolveDrive leaves scheme locations untouched.
func resolveDrive(root, location string) string {
	if location == "" || hasScheme(location) {
		return location
	}
	return resolveDir(root, location)
}

func hasScheme(location string) bool {
	for i, r := range location {
		switch {
		case r == ':':
			return i > 1
		case r == '/' || r == '\\' || r == '.':
			return false
		}
	}
	return false
}
