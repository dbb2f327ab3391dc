// Package drive implements the content stores a boot session reads modules from.
package drive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Drive = (*Local)(nil)

// Local is a drive backed by a folder on disk. Drive paths are rooted at the folder.
type Local struct {
	root string
}

// NewLocal creates a drive rooted at the given folder.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveOpenFailed.Error()), "root", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveOpenFailed.Error()), "root", abs)
	}
	if !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrDriveOpenFailed, "drive root is not a folder"), "root", abs)
	}
	return &Local{root: abs}, nil
}

// Root returns the folder the drive is rooted at.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(domain.NormalizePath(p)))
}

// Get returns the content of the file at the drive path.
func (l *Local) Get(_ context.Context, p string) ([]byte, error) {
	//nolint:gosec // Path is normalized and rooted at the drive folder
	data, err := os.ReadFile(l.resolve(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isDirError(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	return data, nil
}

// Put writes data at the drive path, creating parent folders.
func (l *Local) Put(_ context.Context, p string, data []byte) error {
	target := l.resolve(p)
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create drive folder"), "path", p)
	}
	//nolint:gosec // Path is normalized and rooted at the drive folder
	if err := os.WriteFile(target, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write drive file"), "path", p)
	}
	return nil
}

// Readdir lists the names directly below the directory.
func (l *Local) Readdir(_ context.Context, p string) ([]string, error) {
	entries, err := os.ReadDir(l.resolve(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDirError(err) {
			return []string{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Stat returns the metadata of the file at the drive path.
func (l *Local) Stat(_ context.Context, p string) (*ports.Entry, error) {
	info, err := os.Stat(l.resolve(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	if info.IsDir() {
		return nil, nil
	}
	return &ports.Entry{Size: info.Size(), ModTime: info.ModTime()}, nil
}

func isDirError(err error) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	info, statErr := os.Stat(pathErr.Path)
	return statErr == nil && info.IsDir()
}

func isNotDirError(err error) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	info, statErr := os.Stat(pathErr.Path)
	return statErr == nil && !info.IsDir()
}
