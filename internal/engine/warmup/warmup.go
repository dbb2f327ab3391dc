// Package warmup populates the module graph of an entry and binds its addon artifacts.
package warmup

import (
	"context"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
)

// AddonResolver binds the compiled artifact a module requests.
type AddonResolver interface {
	Resolve(ctx context.Context, m *domain.Module) (*domain.AddonBinding, error)
}

// Builder drives the graph provider and the addon resolver for one session.
type Builder struct {
	drive     ports.Drive
	provider  ports.GraphProvider
	addons    AddonResolver
	logger    ports.Logger
	telemetry ports.Telemetry
}

// New creates a Builder.
func New(
	drive ports.Drive,
	provider ports.GraphProvider,
	addons AddonResolver,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *Builder {
	return &Builder{
		drive:     drive,
		provider:  provider,
		addons:    addons,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Entrypoint picks the entry path: the argument, then the configured entry,
// then the main field of /package.json, then the default.
func (b *Builder) Entrypoint(ctx context.Context, arg, configured string) (string, error) {
	if arg != "" {
		return domain.NormalizePath(arg), nil
	}
	if configured != "" {
		return domain.NormalizePath(configured), nil
	}

	manifestPath := "/" + domain.ManifestName
	data, err := b.drive.Get(ctx, manifestPath)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", manifestPath)
	}
	if data != nil {
		pkg, err := domain.ParseManifest(manifestPath, data)
		if err != nil {
			return "", err
		}
		if pkg.Main != "" {
			return domain.NormalizePath(pkg.Main), nil
		}
	}
	return domain.DefaultEntrypoint, nil
}

// Warmup walks the graph below entry and resolves the addon of every module reached.
// A graph supplied by the caller that already holds entry is reused as is.
func (b *Builder) Warmup(ctx context.Context, entry string, graph *domain.Graph, external bool, opts ports.LinkOptions) (err error) {
	if external && graph.Has(entry) {
		b.logger.Debug("reusing warmed graph", "entry", entry, "modules", graph.Len())
		return b.rebind(ctx, entry, graph)
	}

	ctx, vertex := b.telemetry.Record(ctx, "warmup "+entry)
	defer func() { vertex.Complete(err) }()

	visited := make(map[string]struct{})
	count, bound := 0, 0
	for m, walkErr := range b.provider.Dependencies(ctx, entry, opts, visited, graph) {
		if walkErr != nil {
			return walkErr
		}
		count++

		binding, resolveErr := b.addons.Resolve(ctx, m)
		if resolveErr != nil {
			return zerr.With(resolveErr, "module", m.Path)
		}
		if binding != nil {
			bound++
			vertex.Log(domain.LogLevelDebug, "addon "+binding.Dir+" -> "+binding.Path)
		}
	}

	b.logger.Debug("warm-up complete", "entry", entry, "modules", count, "addons", bound)
	return nil
}

// rebind resolves the addons of a reused graph. Modules are not walked again
// but the bindings table is per session, so every addon below entry is looked
// up anew. Cached artifacts are found without reading the drive.
func (b *Builder) rebind(ctx context.Context, entry string, graph *domain.Graph) error {
	seen := map[string]struct{}{entry: {}}
	stack := []string{entry}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m, ok := graph.Get(p)
		if !ok {
			continue
		}
		if m.RequestsAddon() {
			if _, err := b.addons.Resolve(ctx, m); err != nil {
				return zerr.With(err, "module", m.Path)
			}
		}
		for _, r := range m.Resolutions {
			if !r.Resolved() {
				continue
			}
			if _, done := seen[r.Output]; done {
				continue
			}
			seen[r.Output] = struct{}{}
			stack = append(stack, r.Output)
		}
	}
	return nil
}
