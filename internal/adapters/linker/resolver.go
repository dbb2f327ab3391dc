package linker

import (
	"context"
	"path"
	"strings"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
)

var (
	fileExtensions = []string{".js", ".json", ".cjs"}
	indexFiles     = []string{"index.js", "index.json", "index.cjs"}
)

// resolver implements Node's module resolution over a drive.
// It memoizes file probes for the lifetime of one walk.
type resolver struct {
	drive     ports.Drive
	files     map[string]bool
	manifests map[string]*domain.PackageInfo
}

func newResolver(drive ports.Drive) *resolver {
	return &resolver{
		drive:     drive,
		files:     make(map[string]bool),
		manifests: make(map[string]*domain.PackageInfo),
	}
}

// Resolve maps a request made from dir to an absolute module path.
// An empty result means the request cannot be satisfied inside the drive.
func (r *resolver) Resolve(ctx context.Context, req, dir string) (string, error) {
	if isPathRequest(req) {
		base := path.Join(dir, req)
		if strings.HasPrefix(req, "/") {
			base = path.Clean(req)
		}
		return r.loadFileOrDirectory(ctx, base)
	}

	for current := dir; ; current = path.Dir(current) {
		if path.Base(current) != "node_modules" {
			found, err := r.loadFileOrDirectory(ctx, path.Join(current, "node_modules", req))
			if err != nil || found != "" {
				return found, err
			}
		}
		if current == "/" {
			return "", nil
		}
	}
}

func isPathRequest(req string) bool {
	return req == "." || req == ".." ||
		strings.HasPrefix(req, "./") || strings.HasPrefix(req, "../") || strings.HasPrefix(req, "/")
}

func (r *resolver) loadFileOrDirectory(ctx context.Context, p string) (string, error) {
	found, err := r.loadFile(ctx, p)
	if err != nil || found != "" {
		return found, err
	}
	return r.loadDirectory(ctx, p)
}

func (r *resolver) loadFile(ctx context.Context, p string) (string, error) {
	if strings.HasSuffix(p, "/") || p == "/" {
		return "", nil
	}
	candidates := append([]string{p}, withExtensions(p)...)
	for _, c := range candidates {
		ok, err := r.isFile(ctx, c)
		if err != nil {
			return "", err
		}
		if ok {
			return c, nil
		}
	}
	return "", nil
}

func withExtensions(p string) []string {
	out := make([]string, 0, len(fileExtensions))
	for _, ext := range fileExtensions {
		out = append(out, p+ext)
	}
	return out
}

func (r *resolver) loadDirectory(ctx context.Context, dir string) (string, error) {
	pkg, err := r.manifest(ctx, dir)
	if err != nil {
		return "", err
	}
	if pkg != nil && pkg.Main != "" {
		main := path.Join(dir, pkg.Main)
		found, err := r.loadFile(ctx, main)
		if err != nil || found != "" {
			return found, err
		}
		found, err = r.loadIndex(ctx, main)
		if err != nil || found != "" {
			return found, err
		}
	}
	return r.loadIndex(ctx, dir)
}

func (r *resolver) loadIndex(ctx context.Context, dir string) (string, error) {
	for _, name := range indexFiles {
		c := path.Join(dir, name)
		ok, err := r.isFile(ctx, c)
		if err != nil {
			return "", err
		}
		if ok {
			return c, nil
		}
	}
	return "", nil
}

func (r *resolver) isFile(ctx context.Context, p string) (bool, error) {
	if ok, cached := r.files[p]; cached {
		return ok, nil
	}
	entry, err := r.drive.Stat(ctx, p)
	if err != nil {
		return false, err
	}
	r.files[p] = entry != nil
	return entry != nil, nil
}

// manifest returns the package.json of dir, or nil if there is none.
func (r *resolver) manifest(ctx context.Context, dir string) (*domain.PackageInfo, error) {
	if pkg, cached := r.manifests[dir]; cached {
		return pkg, nil
	}
	filename := path.Join(dir, domain.ManifestName)
	data, err := r.drive.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	var pkg *domain.PackageInfo
	if data != nil {
		pkg, err = domain.ParseManifest(filename, data)
		if err != nil {
			return nil, err
		}
		pkg.Dir = dir
	}
	r.manifests[dir] = pkg
	return pkg, nil
}

// owningPackage walks up from dir to the nearest package manifest.
func (r *resolver) owningPackage(ctx context.Context, dir string) (*domain.PackageInfo, error) {
	for current := dir; ; current = path.Dir(current) {
		pkg, err := r.manifest(ctx, current)
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			return pkg, nil
		}
		if current == "/" {
			return nil, nil
		}
	}
}
