package drive

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	sqliteScheme = "sqlite://"
	memoryScheme = "memory:"
	fileScheme   = "file://"
)

var _ ports.DriveOpener = (*Opener)(nil)

// Opener selects a drive implementation from a location string:
// "sqlite://<file>" or a *.db file opens a SQLite drive, "memory:" an empty
// in-memory drive, anything else a local folder.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the drive at location.
func (o *Opener) Open(ctx context.Context, location string) (ports.Drive, func() error, error) {
	noop := func() error { return nil }

	switch {
	case location == "":
		return nil, nil, zerr.Wrap(domain.ErrUnsupportedDrive, "no drive location given")
	case location == memoryScheme:
		return NewMemory(), noop, nil
	case strings.HasPrefix(location, sqliteScheme):
		return o.openSQLite(ctx, strings.TrimPrefix(location, sqliteScheme))
	case isDatabaseFile(location):
		return o.openSQLite(ctx, location)
	case strings.Contains(location, "://") && !strings.HasPrefix(location, fileScheme):
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedDrive, "unknown scheme"), "location", location)
	default:
		local, err := NewLocal(strings.TrimPrefix(location, fileScheme))
		if err != nil {
			return nil, nil, err
		}
		return local, noop, nil
	}
}

func (o *Opener) openSQLite(ctx context.Context, file string) (ports.Drive, func() error, error) {
	db, err := OpenSQLite(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func isDatabaseFile(location string) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}
