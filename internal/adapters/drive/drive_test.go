package drive_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bootdrive/internal/adapters/drive"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
)

type writableDrive interface {
	ports.Drive
	drive.Writable
}

// driveContract exercises the behavior every drive implementation shares.
func driveContract(t *testing.T, d writableDrive) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "/index.js", []byte("module.exports = 1")))
	require.NoError(t, d.Put(ctx, "lib/a.js", []byte("a")))
	require.NoError(t, d.Put(ctx, "/lib/nested/b.js", []byte("b")))
	require.NoError(t, d.Put(ctx, "/empty.js", []byte{}))

	t.Run("get existing", func(t *testing.T) {
		data, err := d.Get(ctx, "/lib/a.js")
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), data)
	})

	t.Run("get empty file is not absence", func(t *testing.T) {
		data, err := d.Get(ctx, "/empty.js")
		require.NoError(t, err)
		assert.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("get missing", func(t *testing.T) {
		data, err := d.Get(ctx, "/nope.js")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("readdir root", func(t *testing.T) {
		names, err := d.Readdir(ctx, "/")
		require.NoError(t, err)
		assert.Equal(t, []string{"empty.js", "index.js", "lib"}, names)
	})

	t.Run("readdir nested", func(t *testing.T) {
		names, err := d.Readdir(ctx, "/lib")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.js", "nested"}, names)
	})

	t.Run("readdir missing", func(t *testing.T) {
		names, err := d.Readdir(ctx, "/prebuilds/linux-x64")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("stat", func(t *testing.T) {
		entry, err := d.Stat(ctx, "/index.js")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, int64(len("module.exports = 1")), entry.Size)

		entry, err = d.Stat(ctx, "/missing.js")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestMemory(t *testing.T) {
	driveContract(t, drive.NewMemory())
}

func TestLocal(t *testing.T) {
	local, err := drive.NewLocal(t.TempDir())
	require.NoError(t, err)
	driveContract(t, local)

	t.Run("directory is not a file", func(t *testing.T) {
		data, err := local.Get(context.Background(), "/lib")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("paths cannot escape the root", func(t *testing.T) {
		data, err := local.Get(context.Background(), "/../../etc/passwd")
		require.NoError(t, err)
		assert.Nil(t, data)
	})
}

func TestSQLite(t *testing.T) {
	db, err := drive.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	driveContract(t, db)
}

func TestNewLocal_MissingRoot(t *testing.T) {
	_, err := drive.NewLocal(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDriveOpenFailed.Error())
}

func TestMirror(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules", "dep"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("require('dep')"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "dep", "index.js"), []byte("dep"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.tmp"), []byte("tmp"), 0o600))

	dst := drive.NewMemory()
	count, err := drive.Mirror(context.Background(), src, dst, []string{"*.tmp"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := dst.Get(context.Background(), "/node_modules/dep/index.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("dep"), data)

	head, err := dst.Get(context.Background(), "/.git/HEAD")
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestMirror_IntoSQLite(t *testing.T) {
	src := t.TempDir()
	for i := range 40 {
		dir := filepath.Join(src, "pkg", fmt.Sprintf("m%02d", i%4))
		require.NoError(t, os.MkdirAll(dir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%02d.js", i)), []byte(fmt.Sprint(i)), 0o600))
	}

	db, err := drive.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	count, err := drive.Mirror(context.Background(), src, db, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, count)

	data, err := db.Get(context.Background(), "/pkg/m01/f13.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("13"), data)
}

func TestMirror_Cancelled(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drive.Mirror(ctx, src, drive.NewMemory(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpener(t *testing.T) {
	ctx := context.Background()
	o := drive.NewOpener()

	t.Run("folder", func(t *testing.T) {
		d, release, err := o.Open(ctx, t.TempDir())
		require.NoError(t, err)
		defer func() { _ = release() }()
		assert.IsType(t, &drive.Local{}, d)
	})

	t.Run("sqlite scheme", func(t *testing.T) {
		d, release, err := o.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"))
		require.NoError(t, err)
		defer func() { _ = release() }()
		assert.IsType(t, &drive.SQLite{}, d)
	})

	t.Run("database extension", func(t *testing.T) {
		d, release, err := o.Open(ctx, filepath.Join(t.TempDir(), "x.sqlite"))
		require.NoError(t, err)
		defer func() { _ = release() }()
		assert.IsType(t, &drive.SQLite{}, d)
	})

	t.Run("memory", func(t *testing.T) {
		d, _, err := o.Open(ctx, "memory:")
		require.NoError(t, err)
		assert.IsType(t, &drive.Memory{}, d)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, _, err := o.Open(ctx, "hyper://abc")
		require.ErrorIs(t, err, domain.ErrUnsupportedDrive)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := o.Open(ctx, "")
		require.ErrorIs(t, err, domain.ErrUnsupportedDrive)
	})
}
