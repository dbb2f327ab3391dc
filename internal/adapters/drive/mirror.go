package drive

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Writable is a drive that accepts new content.
type Writable interface {
	Put(ctx context.Context, path string, data []byte) error
}

// mirrorParallelism bounds the number of files read and written at once.
const mirrorParallelism = 8

// Mirror copies every file below the local folder src into dst, keyed by its
// slash separated path relative to src. It returns the number of files copied.
func Mirror(ctx context.Context, src string, dst Writable, ignores []string) (int, error) {
	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorParallelism)

	for rel, err := range walkFiles(src, ignores) {
		if err != nil {
			_ = g.Wait()
			return int(count.Load()), zerr.With(zerr.Wrap(err, "failed to walk folder"), "folder", src)
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			//nolint:gosec // Path comes from walking the source folder
			data, err := os.ReadFile(filepath.Join(src, rel))
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to read file"), "path", rel)
			}
			if err := dst.Put(gctx, domain.NormalizePath(filepath.ToSlash(rel)), data); err != nil {
				return err
			}
			count.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(count.Load()), err
	}
	return int(count.Load()), ctx.Err()
}

// walkFiles yields the paths of all files below root relative to root,
// skipping VCS folders and names matching the ignore patterns.
func walkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ignored(d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if !yield(rel, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

// ignored reports whether the entry is a VCS folder or matches an ignore pattern.
func ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()
	if d.IsDir() && (name == ".git" || name == ".jj") {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
