// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"time"
)

// Entry is the metadata of a file stored in a drive.
type Entry struct {
	Size    int64
	ModTime time.Time
}

// Drive is the content store modules and artifacts are read from.
// Absence is reported with a nil result and a nil error.
//
//go:generate mockgen -source=drive.go -destination=mocks/mock_drive.go -package=mocks
type Drive interface {
	// Get returns the content stored at the absolute path, or nil if there is none.
	Get(ctx context.Context, path string) ([]byte, error)

	// Readdir lists the names directly below the directory path.
	// A missing directory yields an empty list.
	Readdir(ctx context.Context, path string) ([]string, error)

	// Stat returns the entry metadata, or nil if the path holds no file.
	Stat(ctx context.Context, path string) (*Entry, error)
}

// DriveOpener opens a drive from a location string given on the command line or in config.
type DriveOpener interface {
	// Open returns the drive at location together with a release function.
	Open(ctx context.Context, location string) (Drive, func() error, error)
}
