// Package addon negotiates and caches compiled artifacts for modules that
// request a native build.
package addon

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// fallbackVersion identifies artifacts of modules that have no package manifest.
const fallbackVersion = "0.0.0"

// Resolver binds one artifact per owning directory and materializes it under
// the local cache. The bindings table belongs to the instance.
type Resolver struct {
	drive     ports.Drive
	target    domain.Target
	cwd       string
	logger    ports.Logger
	telemetry ports.Telemetry

	mu       sync.Mutex
	bindings map[string]domain.AddonBinding
	group    singleflight.Group
}

// New creates a Resolver that caches artifacts below cwd.
func New(drive ports.Drive, target domain.Target, cwd string, logger ports.Logger, telemetry ports.Telemetry) *Resolver {
	return &Resolver{
		drive:     drive,
		target:    target,
		cwd:       cwd,
		logger:    logger,
		telemetry: telemetry,
		bindings:  make(map[string]domain.AddonBinding),
	}
}

// Target returns the target artifacts are negotiated for.
func (r *Resolver) Target() domain.Target {
	return r.target
}

// Binding returns the artifact bound to dir.
func (r *Resolver) Binding(dir string) (domain.AddonBinding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[dir]
	return b, ok
}

// Bindings returns a snapshot of the bindings table keyed by owning directory.
func (r *Resolver) Bindings() map[string]domain.AddonBinding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.AddonBinding, len(r.bindings))
	for k, v := range r.bindings {
		out[k] = v
	}
	return out
}

// Resolve binds the artifact for m. It returns nil without error when m does not
// request an addon or when no artifact exists anywhere up to the root.
func (r *Resolver) Resolve(ctx context.Context, m *domain.Module) (*domain.AddonBinding, error) {
	if !m.RequestsAddon() {
		return nil, nil
	}

	if b, ok := r.Binding(m.Dirname); ok {
		present, err := r.ensureLocal(ctx, b)
		if err != nil {
			return nil, err
		}
		if present {
			return &b, nil
		}
		r.mu.Lock()
		delete(r.bindings, m.Dirname)
		r.mu.Unlock()
	}

	ctx, vertex := r.telemetry.Record(ctx, "addon "+m.Dirname)
	b, cached, err := r.resolve(ctx, m)
	if err != nil {
		vertex.Complete(err)
		return nil, err
	}
	if cached {
		vertex.Cached()
	}
	vertex.Complete(nil)
	if b == nil {
		r.logger.Debug("no addon artifact found", "dir", m.Dirname, "target", r.target.PrebuildDir())
		return nil, nil
	}

	r.mu.Lock()
	r.bindings[m.Dirname] = *b
	r.mu.Unlock()
	return b, nil
}

func (r *Resolver) resolve(ctx context.Context, m *domain.Module) (*domain.AddonBinding, bool, error) {
	pkg := packageID(m)

	for _, v := range []domain.Variant{domain.VariantPrimary, domain.VariantSecondary} {
		b := r.binding(m.Dirname, pkg, v, "")
		ok, err := exists(b.Local)
		if err != nil {
			return nil, false, err
		}
		if ok {
			r.logger.Debug("addon cache hit", "dir", m.Dirname, "path", b.Path)
			return &b, true, nil
		}
	}

	source, variant, found, err := r.search(ctx, m.Dirname)
	if err != nil || !found {
		return nil, false, err
	}

	b := r.binding(m.Dirname, pkg, variant, source)
	if err := r.materialize(ctx, b); err != nil {
		return nil, false, err
	}
	r.logger.Debug("addon artifact bound", "dir", m.Dirname, "source", source, "variant", variant.String())
	return &b, false, nil
}

func (r *Resolver) binding(dir string, pkg domain.PackageID, v domain.Variant, source string) domain.AddonBinding {
	key := domain.ArtifactKey(r.target, pkg, r.target.FamilyFor(v))
	return domain.AddonBinding{
		Dir:     dir,
		Package: pkg,
		Variant: v,
		Path:    key,
		Source:  source,
		Local:   filepath.Join(r.cwd, filepath.FromSlash(key)),
	}
}

// search walks from dir towards the root listing the prebuild folder of each
// ancestor. A preferred match ends the search. A fallback match is kept while
// exactly one more ancestor is inspected for a preferred match.
func (r *Resolver) search(ctx context.Context, dir string) (string, domain.Variant, bool, error) {
	preferred := r.target.FamilyFor(domain.VariantPrimary).Extension()
	secondary := r.target.FamilyFor(domain.VariantSecondary).Extension()

	var fallback string
	for current := dir; ; current = path.Dir(current) {
		if err := ctx.Err(); err != nil {
			return "", 0, false, err
		}

		folder := path.Join(current, domain.PrebuildsDirName, r.target.PrebuildDir())
		names, err := r.drive.Readdir(ctx, folder)
		if err != nil {
			return "", 0, false, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", folder)
		}
		slices.Sort(names)

		if name, ok := firstWithExtension(names, preferred); ok {
			return path.Join(folder, name), domain.VariantPrimary, true, nil
		}
		if fallback != "" {
			break
		}
		if name, ok := firstWithExtension(names, secondary); ok {
			fallback = path.Join(folder, name)
		}
		if current == "/" {
			break
		}
	}

	if fallback == "" {
		return "", 0, false, nil
	}
	return fallback, domain.VariantSecondary, true, nil
}

func firstWithExtension(names []string, ext string) (string, bool) {
	for _, n := range names {
		if strings.HasSuffix(n, ext) {
			return n, true
		}
	}
	return "", false
}

// ensureLocal re-verifies a memoized binding and restores a removed cache file
// from the drive. It reports false when the artifact cannot be restored.
func (r *Resolver) ensureLocal(ctx context.Context, b domain.AddonBinding) (bool, error) {
	ok, err := exists(b.Local)
	if err != nil || ok {
		return ok, err
	}
	if b.Source == "" {
		return false, nil
	}
	if err := r.materialize(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

// materialize copies the artifact into the local cache. Concurrent calls for the
// same destination share one copy.
func (r *Resolver) materialize(ctx context.Context, b domain.AddonBinding) error {
	_, err, _ := r.group.Do(b.Local, func() (any, error) {
		ok, err := exists(b.Local)
		if err != nil || ok {
			return nil, err
		}

		data, err := r.drive.Get(ctx, b.Source)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", b.Source)
		}
		if data == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrArtifactWriteFailed, "artifact disappeared from drive"), "path", b.Source)
		}
		return nil, writeAtomic(b.Local, data)
	})
	return err
}

// writeAtomic writes data to a unique sibling and renames it over dest.
// An existing dest is left untouched.
func writeAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", dest)
	}

	tmp := dest + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", tmp)
	}

	if ok, _ := exists(dest); ok {
		_ = os.Remove(tmp)
		return nil
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error()), "path", dest)
	}
	return nil
}

func exists(p string) (bool, error) {
	info, err := os.Stat(p)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, zerr.With(zerr.Wrap(err, domain.ErrArtifactCacheFailed.Error()), "path", p)
	}
}

func packageID(m *domain.Module) domain.PackageID {
	if m.Package != nil && m.Package.Name != "" {
		id := m.Package.Identity()
		if id.Version == "" {
			id.Version = fallbackVersion
		}
		return id
	}
	name := path.Base(m.Dirname)
	if name == "/" {
		name = "root"
	}
	return domain.PackageID{Name: name, Version: fallbackVersion}
}
