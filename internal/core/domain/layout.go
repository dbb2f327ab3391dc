package domain

import "path/filepath"

const (
	// ArtifactRootName is the directory below cwd that holds cached addon artifacts.
	ArtifactRootName = "prebuilds"

	// PrebuildsDirName is the folder below each package ancestor that ships artifacts.
	PrebuildsDirName = "prebuilds"

	// ManifestName is the package manifest file name.
	ManifestName = "package.json"

	// DefaultEntrypoint is used when neither an argument nor a manifest names the entry.
	DefaultEntrypoint = "/index.js"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "bootdrive.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ArtifactDir returns the directory that holds artifacts for the target below cwd.
func ArtifactDir(cwd string, t Target) string {
	return filepath.Join(cwd, ArtifactRootName, t.PrebuildDir())
}

// ArtifactKey returns the cache path of an artifact relative to cwd.
func ArtifactKey(t Target, pkg PackageID, f Family) string {
	return filepath.ToSlash(filepath.Join(ArtifactRootName, t.PrebuildDir(), pkg.Name+"@"+pkg.Version+f.Extension()))
}
