package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrModuleAlreadyExists is returned when a module is added to the graph twice.
	ErrModuleAlreadyExists = zerr.New("module already exists")

	// ErrModuleNotFound is returned when a requested module is not present in the graph or bundle.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrMissingSource is returned when a source file required by the graph is absent from the drive.
	ErrMissingSource = zerr.New("ENOENT")

	// ErrUnresolvedImport is returned when an import without a resolved target is exercised.
	ErrUnresolvedImport = zerr.New("MODULE_NOT_FOUND")

	// ErrArtifactUnavailable is returned when an addon is requested but no artifact was bound.
	ErrArtifactUnavailable = zerr.New("ARTIFACT_UNAVAILABLE")

	// ErrEvaluationFailed is returned when a module body throws during execution.
	ErrEvaluationFailed = zerr.New("module evaluation failed")

	// ErrNoEntrypoint is returned when no entry path is given and none can be derived.
	ErrNoEntrypoint = zerr.New("no entrypoint")

	// ErrManifestParseFailed is returned when a package manifest cannot be decoded.
	ErrManifestParseFailed = zerr.New("failed to parse package manifest")

	// ErrDriveReadFailed is returned when the drive fails for reasons other than absence.
	ErrDriveReadFailed = zerr.New("failed to read from drive")

	// ErrDriveOpenFailed is returned when a drive location cannot be opened.
	ErrDriveOpenFailed = zerr.New("failed to open drive")

	// ErrUnsupportedDrive is returned when a drive location uses an unknown scheme.
	ErrUnsupportedDrive = zerr.New("unsupported drive location")

	// ErrParseFailed is returned when a script cannot be parsed for imports.
	ErrParseFailed = zerr.New("failed to parse module source")

	// ErrArtifactWriteFailed is returned when an addon artifact cannot be written to the local cache.
	ErrArtifactWriteFailed = zerr.New("failed to write addon artifact")

	// ErrArtifactCacheFailed is returned when the local artifact cache cannot be inspected.
	ErrArtifactCacheFailed = zerr.New("failed to inspect artifact cache")

	// ErrBundleEncodeFailed is returned when a bundle cannot be rendered as text.
	ErrBundleEncodeFailed = zerr.New("failed to encode bundle")

	// ErrInvalidRuntimeFamily is returned when an unknown runtime family is configured.
	ErrInvalidRuntimeFamily = zerr.New("invalid runtime family, expected 'node' or 'bare'")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")
)

// MissingSourceError reports a source file that the dependency walk needed but
// the drive does not hold. It is fatal for a warm-up.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return "ENOENT: " + e.Path
}

// Is reports whether target is ErrMissingSource.
func (e *MissingSourceError) Is(target error) bool {
	return target == ErrMissingSource
}

// UnresolvedImportError reports an import that was exercised at run time but
// never resolved to a module.
type UnresolvedImportError struct {
	Request string
	From    string
}

func (e *UnresolvedImportError) Error() string {
	return fmt.Sprintf("MODULE_NOT_FOUND: cannot resolve '%s' from '%s'", e.Request, e.From)
}

// Is reports whether target is ErrUnresolvedImport.
func (e *UnresolvedImportError) Is(target error) bool {
	return target == ErrUnresolvedImport
}

// ArtifactUnavailableError reports an addon request for a directory that has
// no bound artifact.
type ArtifactUnavailableError struct {
	Dir string
}

func (e *ArtifactUnavailableError) Error() string {
	return "ARTIFACT_UNAVAILABLE: no addon artifact bound for '" + e.Dir + "'"
}

// Is reports whether target is ErrArtifactUnavailable.
func (e *ArtifactUnavailableError) Is(target error) bool {
	return target == ErrArtifactUnavailable
}

// EvaluationError reports an exception thrown by a module body. Line and
// Column are 1-based coordinates inside the module's own source.
type EvaluationError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Stack   string
	Cause   error

	// Thrown is the value raised by the script, kept so it can be raised again
	// in a requiring module.
	Thrown any
}

func (e *EvaluationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s:%d:%d)", e.Message, e.Path, e.Line, e.Column)
}

// Is reports whether target is ErrEvaluationFailed.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluationFailed
}

// Unwrap returns the Go error that was thrown into the script, if any.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}
