package drive

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"

	// Register the pure Go sqlite driver.
	_ "modernc.org/sqlite"
)

var _ ports.Drive = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	path  TEXT PRIMARY KEY,
	data  BLOB NOT NULL,
	mtime INTEGER NOT NULL
)`

// SQLite is a persistent drive stored in a single sqlite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the drive database at the given file.
func OpenSQLite(ctx context.Context, file string) (*SQLite, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveOpenFailed.Error()), "file", file)
	}
	// One connection serializes writers; sqlite rejects concurrent ones with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveOpenFailed.Error()), "file", file)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put stores data at the path, replacing any previous content.
func (s *SQLite) Put(ctx context.Context, p string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (path, data, mtime) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, mtime = excluded.mtime`,
		domain.NormalizePath(p), data, time.Now().UnixNano(),
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write drive entry"), "path", p)
	}
	return nil
}

// Get returns the content stored at the path.
func (s *SQLite) Get(ctx context.Context, p string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM entries WHERE path = ?`, domain.NormalizePath(p)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Readdir lists the names directly below the directory.
func (s *SQLite) Readdir(ctx context.Context, p string) ([]string, error) {
	prefix := dirPrefix(p)
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM entries WHERE substr(path, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	seen := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
		}
		if name, ok := childName(prefix, key); ok {
			seen[name] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Stat returns metadata for a stored file.
func (s *SQLite) Stat(ctx context.Context, p string) (*ports.Entry, error) {
	var size, mtime int64
	err := s.db.QueryRowContext(ctx,
		`SELECT length(data), mtime FROM entries WHERE path = ?`, domain.NormalizePath(p)).Scan(&size, &mtime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", p)
	}
	return &ports.Entry{Size: size, ModTime: time.Unix(0, mtime)}, nil
}
